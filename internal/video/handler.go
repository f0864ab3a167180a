package video

import (
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/teslastreamer/teslastreamer/internal/database"
)

const defaultProxyTimeout = 20 * time.Second

type Handler struct {
	store        *Store
	client       *http.Client
	proxyTimeout time.Duration
}

// NewHandler serves the player page, lookup and relay endpoints. proxyTimeout
// bounds connecting to an origin, waiting for its headers, and each gap
// between body reads.
func NewHandler(db database.DBTX, proxyTimeout time.Duration) *Handler {
	if proxyTimeout <= 0 {
		proxyTimeout = defaultProxyTimeout
	}
	return &Handler{
		store:        NewStore(db),
		client:       newOriginClient(proxyTimeout),
		proxyTimeout: proxyTimeout,
	}
}

func newOriginClient(timeout time.Duration) *http.Client {
	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   timeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   timeout,
		ResponseHeaderTimeout: timeout,
		// Bytes must reach the player exactly as the origin sent them.
		DisableCompression:  true,
		MaxIdleConnsPerHost: 4,
		IdleConnTimeout:     90 * time.Second,
	}
	// No Client.Timeout: it would cap the whole body and cut long videos.
	return &http.Client{Transport: transport}
}

// ownerFromQuery reads the numeric Telegram user id from ?user_id=.
func ownerFromQuery(r *http.Request) (int64, bool) {
	raw := r.URL.Query().Get("user_id")
	if raw == "" {
		return 0, false
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}
