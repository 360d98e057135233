package middleware

import (
	"net"
	"net/http"
	"strings"
)

// HeaderUserID carries a caller-chosen identity for the chat allowance.
const HeaderUserID = "X-User-ID"

// ClientIP extracts the client IP from RemoteAddr. chi's RealIP middleware
// runs first in the router chain, so proxied requests already carry the
// forwarded address here.
func ClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// ClientIdentity returns the X-User-ID header when present, else the client IP.
func ClientIdentity(r *http.Request) string {
	if id := strings.TrimSpace(r.Header.Get(HeaderUserID)); id != "" {
		return "user:" + id
	}
	return "ip:" + ClientIP(r)
}
