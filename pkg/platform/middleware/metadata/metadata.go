// Package metadata extracts client IP and User-Agent for audit enrichment.
package metadata

import (
	"net/http"
	"strings"

	"github.com/mssola/useragent"

	"grameengo/pkg/requestcontext"
)

// ClientMetadata stores client IP, raw User-Agent and a "browser/os"
// summary in the request context. Apply early in the chain.
func ClientMetadata(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ua := r.Header.Get("User-Agent")
		ctx := requestcontext.WithClientMetadata(r.Context(), ClientIPFromRequest(r), ua, DescribeClient(ua))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// DescribeClient summarizes a User-Agent as "browser/os", "bot/<name>" or "".
func DescribeClient(userAgent string) string {
	if userAgent == "" {
		return ""
	}
	ua := useragent.New(userAgent)
	browser, _ := ua.Browser()
	if ua.Bot() {
		return "bot/" + browser
	}
	if ua.Mobile() {
		return browser + "/" + ua.OS() + " (mobile)"
	}
	return browser + "/" + ua.OS()
}

// ClientIPFromRequest extracts the real client IP, honoring proxy headers.
func ClientIPFromRequest(r *http.Request) string {
	// X-Forwarded-For lists client, proxy1, proxy2...; the first is the client.
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if idx := strings.Index(xff, ","); idx != -1 {
			return strings.TrimSpace(xff[:idx])
		}
		return strings.TrimSpace(xff)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}
	if addr := r.RemoteAddr; addr != "" {
		if idx := strings.LastIndex(addr, ":"); idx != -1 {
			return addr[:idx]
		}
		return addr
	}
	return "unknown"
}
