package httputil

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"log/slog"
)

type contextKey string

const nonceKey contextKey = "csp-nonce"

// GenerateNonce returns a fresh CSP nonce: 16 random bytes, base64url
// without padding. The security middleware calls it once per request and
// lists it under script-src and style-src; the player page stamps the same
// value on its inline <style> and <script>. An empty string means the random
// source failed; the browser then blocks the inline blocks.
func GenerateNonce() string {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		slog.Error("httputil: failed to generate CSP nonce", "error", err)
		return ""
	}
	return base64.RawURLEncoding.EncodeToString(b)
}

// ContextWithNonce attaches the request's nonce so handlers further down the
// chain render the value the CSP header already names.
func ContextWithNonce(ctx context.Context, nonce string) context.Context {
	return context.WithValue(ctx, nonceKey, nonce)
}

// NonceFromContext returns the nonce set by ContextWithNonce, or "" when the
// handler runs outside the security middleware (as in handler unit tests).
func NonceFromContext(ctx context.Context) string {
	nonce, _ := ctx.Value(nonceKey).(string)
	return nonce
}
