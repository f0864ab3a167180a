package video

import (
	"log/slog"
	"net/http"
	"net/url"

	"github.com/teslastreamer/teslastreamer/internal/httputil"
)

type videoItem struct {
	ID    int64  `json:"id"`
	Title string `json:"title"`
	URL   string `json:"url"`
}

// List handles GET /videos?user_id=. It always answers with a JSON array so
// the player page can render an empty state.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := ownerFromQuery(r)
	if !ok {
		httputil.WriteJSON(w, http.StatusBadRequest, []videoItem{})
		return
	}

	videos, err := h.store.ListVideos(r.Context(), ownerID)
	if err != nil {
		slog.Error("video: failed to list videos", "user_id", ownerID, "error", err)
		httputil.WriteJSON(w, http.StatusInternalServerError, []videoItem{})
		return
	}

	items := make([]videoItem, 0, len(videos))
	for _, v := range videos {
		items = append(items, videoItem{
			ID:    v.ID,
			Title: decodeTitle(v.Title),
			URL:   v.URL,
		})
	}
	httputil.WriteJSON(w, http.StatusOK, items)
}

// decodeTitle undoes the percent-encoding titles inherit from their URL path.
// Malformed escapes are returned untouched.
func decodeTitle(raw string) string {
	decoded, err := url.PathUnescape(raw)
	if err != nil {
		return raw
	}
	return decoded
}
