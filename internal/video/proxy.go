package video

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
)

const (
	relayChunkSize = 8 * 1024

	// Some origins refuse requests that do not look like a browser.
	browserUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"
)

// Headers copied from the origin. Everything else (cookies, caching tied to
// the origin's domain) is dropped.
var relayedHeaders = []string{
	"Content-Type",
	"Content-Length",
	"Accept-Ranges",
	"Content-Range",
}

// Proxy handles GET and HEAD /proxy/video/{id}. It streams the stored source URL to the
// caller, forwarding Range so the player can seek, and trusts the origin's
// status and range handling.
func (h *Handler) Proxy(w http.ResponseWriter, r *http.Request) {
	videoID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || videoID <= 0 {
		http.NotFound(w, r)
		return
	}

	v, err := h.store.VideoByID(r.Context(), videoID)
	if errors.Is(err, ErrNotFound) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		slog.Error("proxy: failed to resolve video", "video_id", videoID, "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()
	idle := time.AfterFunc(h.proxyTimeout, cancel)
	defer idle.Stop()

	// HEAD is answered from the origin's HEAD so players can probe size and
	// range support without starting a download.
	method := http.MethodGet
	if r.Method == http.MethodHead {
		method = http.MethodHead
	}
	req, err := http.NewRequestWithContext(ctx, method, v.URL, nil)
	if err != nil {
		slog.Error("proxy: invalid source url", "video_id", videoID, "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	req.Header.Set("User-Agent", browserUserAgent)
	rangeHeader := r.Header.Get("Range")
	if rangeHeader != "" {
		req.Header.Set("Range", rangeHeader)
	}

	resp, err := h.client.Do(req)
	// From here the timer only runs while waiting on the origin body.
	idle.Stop()
	if err != nil {
		slog.Error("proxy: origin request failed", "video_id", videoID, "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= http.StatusBadRequest {
		slog.Error("proxy: origin returned error status", "video_id", videoID, "status", resp.StatusCode)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	for _, name := range relayedHeaders {
		if value := resp.Header.Get(name); value != "" {
			w.Header().Set(name, value)
		}
	}

	if method == http.MethodHead {
		w.WriteHeader(resp.StatusCode)
		return
	}

	rc := http.NewResponseController(w)
	// A viewing session outlives the server-wide write timeout.
	if err := rc.SetWriteDeadline(time.Time{}); err != nil && !errors.Is(err, http.ErrNotSupported) {
		slog.Debug("proxy: could not clear write deadline", "error", err)
	}

	w.WriteHeader(resp.StatusCode)

	// A paused player blocks Write, which must not count against the origin.
	written, err := relay(w, rc.Flush, resp.Body,
		func() { idle.Reset(h.proxyTimeout) },
		func() { idle.Stop() },
	)
	switch {
	case err == nil:
		slog.Debug("proxy: stream complete", "video_id", videoID, "status", resp.StatusCode, "range", rangeHeader, "bytes", written)
	case r.Context().Err() != nil:
		slog.Debug("proxy: client disconnected", "video_id", videoID, "bytes", written)
	default:
		// Headers are already sent; all that is left is to stop.
		slog.Warn("proxy: stream interrupted", "video_id", videoID, "bytes", written, "error", err)
	}
}

// relay copies src to dst in fixed-size chunks, flushing after each one so the
// player receives bytes as the origin produces them. Each read runs between
// arm and disarm; writes and flushes do not.
func relay(dst io.Writer, flush func() error, src io.Reader, arm, disarm func()) (int64, error) {
	buf := make([]byte, relayChunkSize)
	var written int64
	for {
		arm()
		n, readErr := src.Read(buf)
		disarm()
		if n > 0 {
			wn, writeErr := dst.Write(buf[:n])
			written += int64(wn)
			if writeErr != nil {
				return written, fmt.Errorf("write to client: %w", writeErr)
			}
			if wn != n {
				return written, io.ErrShortWrite
			}
			if err := flush(); err != nil && !errors.Is(err, http.ErrNotSupported) {
				return written, fmt.Errorf("flush to client: %w", err)
			}
		}
		if errors.Is(readErr, io.EOF) {
			return written, nil
		}
		if readErr != nil {
			return written, fmt.Errorf("read from origin: %w", readErr)
		}
	}
}
