package utils

import (
	"net/http"
	"strings"
)

// ClientIP derives the visitor IP from proxy headers: the first entry of
// X-Forwarded-For, else X-Real-IP, else the connection remote address
// without its port. Empty when nothing is derivable.
func ClientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		parts := strings.Split(fwd, ",")
		ip := strings.TrimSpace(parts[0])
		if ip != "" {
			return ip
		}
	}

	if real := r.Header.Get("X-Real-IP"); real != "" {
		return strings.TrimSpace(real)
	}

	addr := r.RemoteAddr
	if idx := strings.LastIndex(addr, ":"); idx > 0 && !strings.HasSuffix(addr, "]") {
		// Strip the port, keeping bare IPv6 literals intact.
		if strings.Count(addr, ":") == 1 || strings.HasPrefix(addr, "[") {
			addr = addr[:idx]
		}
	}
	return strings.Trim(addr, "[]")
}
