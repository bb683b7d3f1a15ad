package web

import (
	"context"
	"net"
	"net/http"

	"github.com/JonMunkholm/cuetext/internal/core"
)

// withRequestMetadata adds the client IP and User-Agent to ctx for the job
// history.
func withRequestMetadata(ctx context.Context, r *http.Request) context.Context {
	ctx = core.ContextWithIPAddress(ctx, clientIP(r))
	return core.ContextWithUserAgent(ctx, r.UserAgent())
}

// clientIP is RemoteAddr without the port. TrustedRealIP has already
// replaced it for proxied requests.
func clientIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
