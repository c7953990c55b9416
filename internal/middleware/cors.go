// Package middleware holds HTTP middleware shared by the router and the
// websocket upgrader.
package middleware

import (
	"net"
	"net/http"
	"net/url"

	"github.com/go-chi/cors"
)

// IsLocalhostOrigin reports whether origin points at the local machine.
// surfer is a local app, so only loopback origins are trusted.
func IsLocalhostOrigin(origin string) bool {
	u, err := url.Parse(origin)
	if err != nil || u.Host == "" {
		return false
	}
	switch host := u.Hostname(); host {
	case "localhost":
		return true
	default:
		ip := net.ParseIP(host)
		return ip != nil && ip.IsLoopback()
	}
}

// CORS allows same-origin and localhost requests and answers preflights.
func CORS() func(http.Handler) http.Handler {
	return cors.Handler(cors.Options{
		AllowOriginFunc: func(r *http.Request, origin string) bool {
			return IsLocalhostOrigin(origin)
		},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type"},
		MaxAge:         300,
	})
}
