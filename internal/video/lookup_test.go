package video

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/pashagolub/pgxmock/v3"
)

func newTestHandler(t *testing.T) (*Handler, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create pgxmock pool: %v", err)
	}
	t.Cleanup(func() { mock.Close() })
	return NewHandler(mock, 2*time.Second), mock
}

func serveList(handler *Handler, target string) *httptest.ResponseRecorder {
	r := chi.NewRouter()
	r.Get("/videos", handler.List)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func decodeItems(t *testing.T, rec *httptest.ResponseRecorder) []videoItem {
	t.Helper()
	var items []videoItem
	if err := json.Unmarshal(rec.Body.Bytes(), &items); err != nil {
		t.Fatalf("failed to decode body %q: %v", rec.Body.String(), err)
	}
	return items
}

func TestList_MissingUserID_Returns400EmptyList(t *testing.T) {
	handler, mock := newTestHandler(t)

	rec := serveList(handler, "/videos")

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
	if body := strings.TrimSpace(rec.Body.String()); body != "[]" {
		t.Errorf("expected [] body, got %q", body)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("expected application/json, got %q", ct)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expected no queries, got: %v", err)
	}
}

func TestList_NonNumericUserID_Returns400EmptyList(t *testing.T) {
	handler, _ := newTestHandler(t)

	rec := serveList(handler, "/videos?user_id=alice")

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
	if body := strings.TrimSpace(rec.Body.String()); body != "[]" {
		t.Errorf("expected [] body, got %q", body)
	}
}

func TestList_OwnerWithoutVideos_ReturnsEmptyList(t *testing.T) {
	handler, mock := newTestHandler(t)

	mock.ExpectQuery(`SELECT id, user_id, url, title, added_at FROM videos`).
		WithArgs(testOwnerID).
		WillReturnRows(pgxmock.NewRows(videoColumns))

	rec := serveList(handler, "/videos?user_id=424242")

	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
	if body := strings.TrimSpace(rec.Body.String()); body != "[]" {
		t.Errorf("expected [] body, got %q", body)
	}
}

func TestList_StorageError_Returns500EmptyList(t *testing.T) {
	handler, mock := newTestHandler(t)

	mock.ExpectQuery(`SELECT id, user_id, url, title, added_at FROM videos`).
		WithArgs(testOwnerID).
		WillReturnError(errors.New("connection refused"))

	rec := serveList(handler, "/videos?user_id=424242")

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", rec.Code)
	}
	if body := strings.TrimSpace(rec.Body.String()); body != "[]" {
		t.Errorf("expected [] body, got %q", body)
	}
}

func TestList_DecodesTitlesNewestFirst(t *testing.T) {
	handler, mock := newTestHandler(t)
	newer := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`ORDER BY added_at DESC`).
		WithArgs(testOwnerID).
		WillReturnRows(pgxmock.NewRows(videoColumns).
			AddRow(int64(5), testOwnerID, "http://host/My%20Movie.mp4", "My%20Movie.mp4", newer).
			AddRow(int64(3), testOwnerID, "http://host/100%.mp4", "100%.mp4", newer.Add(-time.Hour)))

	rec := serveList(handler, "/videos?user_id=424242")

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	items := decodeItems(t, rec)
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}
	if items[0].ID != 5 || items[0].Title != "My Movie.mp4" {
		t.Errorf("expected decoded newest title, got %+v", items[0])
	}
	if items[0].URL != "http://host/My%20Movie.mp4" {
		t.Errorf("expected url to be returned unchanged, got %q", items[0].URL)
	}
	if items[1].Title != "100%.mp4" {
		t.Errorf("expected malformed escape to be kept, got %q", items[1].Title)
	}
}

func TestDecodeTitle(t *testing.T) {
	tests := map[string]string{
		"movie.mp4":             "movie.mp4",
		"My%20Movie.mp4":        "My Movie.mp4",
		"Caf%C3%A9.mkv":         "Café.mkv",
		"The+Movie.mp4":         "The+Movie.mp4",
		"broken%zz.mp4":         "broken%zz.mp4",
		"%5BGroup%5D%20Ep1.mp4": "[Group] Ep1.mp4",
	}
	for input, want := range tests {
		if got := decodeTitle(input); got != want {
			t.Errorf("decodeTitle(%q) = %q, want %q", input, got, want)
		}
	}
}
