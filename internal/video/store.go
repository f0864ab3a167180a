package video

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/teslastreamer/teslastreamer/internal/database"
)

// ErrNotFound is returned when a video or user does not exist.
var ErrNotFound = errors.New("not found")

// Video is the stored reference to a remote file, keyed by its Telegram owner.
type Video struct {
	ID      int64
	OwnerID int64
	URL     string
	Title   string
	AddedAt time.Time
}

// Store owns all reads and writes of the users and videos tables. Each call
// runs on its own pooled connection or transaction.
type Store struct {
	db database.DBTX
}

func NewStore(db database.DBTX) *Store {
	return &Store{db: db}
}

// UpsertUser records a user on first contact. Repeated calls are no-ops.
func (s *Store) UpsertUser(ctx context.Context, id int64, displayName string) error {
	if _, err := s.db.Exec(ctx,
		`INSERT INTO users (user_id, username) VALUES ($1, $2)
		 ON CONFLICT (user_id) DO NOTHING`,
		id, displayName,
	); err != nil {
		return fmt.Errorf("upsert user %d: %w", id, err)
	}
	return nil
}

// ReplaceVideo swaps the owner's reference for a new one in one transaction.
// Concurrent replaces for the same owner serialize on an advisory lock, and
// readers keep seeing the previous row until commit.
func (s *Store) ReplaceVideo(ctx context.Context, ownerID int64, url, title string) (Video, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return Video{}, fmt.Errorf("begin replace: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, ownerID); err != nil {
		return Video{}, fmt.Errorf("lock owner %d: %w", ownerID, err)
	}

	if _, err := tx.Exec(ctx, `DELETE FROM videos WHERE user_id = $1`, ownerID); err != nil {
		return Video{}, fmt.Errorf("delete previous videos: %w", err)
	}

	v := Video{OwnerID: ownerID, URL: url, Title: title}
	if err := tx.QueryRow(ctx,
		`INSERT INTO videos (user_id, url, title) VALUES ($1, $2, $3)
		 RETURNING id, added_at`,
		ownerID, url, title,
	).Scan(&v.ID, &v.AddedAt); err != nil {
		return Video{}, fmt.Errorf("insert video: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return Video{}, fmt.Errorf("commit replace: %w", err)
	}
	return v, nil
}

// LatestVideo returns the owner's newest reference. Older rows left over from
// before the one-per-owner index are ignored.
func (s *Store) LatestVideo(ctx context.Context, ownerID int64) (Video, error) {
	v := Video{}
	err := s.db.QueryRow(ctx,
		`SELECT id, user_id, url, title, added_at FROM videos
		 WHERE user_id = $1
		 ORDER BY added_at DESC, id DESC
		 LIMIT 1`,
		ownerID,
	).Scan(&v.ID, &v.OwnerID, &v.URL, &v.Title, &v.AddedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Video{}, ErrNotFound
	}
	if err != nil {
		return Video{}, fmt.Errorf("select latest video: %w", err)
	}
	return v, nil
}

// ListVideos returns every reference for the owner, newest first.
func (s *Store) ListVideos(ctx context.Context, ownerID int64) ([]Video, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, user_id, url, title, added_at FROM videos
		 WHERE user_id = $1
		 ORDER BY added_at DESC, id DESC`,
		ownerID,
	)
	if err != nil {
		return nil, fmt.Errorf("query videos: %w", err)
	}
	defer rows.Close()

	videos := []Video{}
	for rows.Next() {
		var v Video
		if err := rows.Scan(&v.ID, &v.OwnerID, &v.URL, &v.Title, &v.AddedAt); err != nil {
			return nil, fmt.Errorf("scan video: %w", err)
		}
		videos = append(videos, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate videos: %w", err)
	}
	return videos, nil
}

// ClearVideos deletes all of the owner's references and reports how many
// rows were removed.
func (s *Store) ClearVideos(ctx context.Context, ownerID int64) (int64, error) {
	tag, err := s.db.Exec(ctx, `DELETE FROM videos WHERE user_id = $1`, ownerID)
	if err != nil {
		return 0, fmt.Errorf("clear videos: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (s *Store) VideoByID(ctx context.Context, id int64) (Video, error) {
	v := Video{}
	err := s.db.QueryRow(ctx,
		`SELECT id, user_id, url, title, added_at FROM videos WHERE id = $1`,
		id,
	).Scan(&v.ID, &v.OwnerID, &v.URL, &v.Title, &v.AddedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Video{}, ErrNotFound
	}
	if err != nil {
		return Video{}, fmt.Errorf("select video %d: %w", id, err)
	}
	return v, nil
}
