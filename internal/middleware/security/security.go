// Package security provides CORS handling, baseline response headers
// and trusted-proxy client IP extraction for the JSON API.
package security

import (
	"net"
	"net/http"
	"strings"
)

// Config holds CORS and header settings.
type Config struct {
	// AllowedOrigin is the single origin allowed to make credentialed
	// requests. Cookies require an exact origin, never "*".
	AllowedOrigin string

	AllowedMethods string
	AllowedHeaders string
	MaxAge         string
}

// DefaultConfig allows the given origin with the methods the API uses.
func DefaultConfig(allowedOrigin string) Config {
	return Config{
		AllowedOrigin:  allowedOrigin,
		AllowedMethods: "GET, POST, PUT, DELETE, OPTIONS",
		AllowedHeaders: "Content-Type, Authorization",
		MaxAge:         "600",
	}
}

// Middleware applies CORS and security headers and answers preflights.
type Middleware struct {
	config Config
}

func NewMiddleware(config Config) *Middleware {
	return &Middleware{config: config}
}

func (m *Middleware) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		headers := w.Header()
		headers.Set("X-Content-Type-Options", "nosniff")
		headers.Set("X-Frame-Options", "DENY")
		headers.Set("Referrer-Policy", "strict-origin-when-cross-origin")

		origin := r.Header.Get("Origin")
		if origin != "" && origin == m.config.AllowedOrigin {
			headers.Set("Access-Control-Allow-Origin", origin)
			headers.Set("Access-Control-Allow-Credentials", "true")
			headers.Set("Vary", "Origin")
		}

		if r.Method == http.MethodOptions {
			headers.Set("Access-Control-Allow-Methods", m.config.AllowedMethods)
			headers.Set("Access-Control-Allow-Headers", m.config.AllowedHeaders)
			headers.Set("Access-Control-Max-Age", m.config.MaxAge)
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// ClientIPExtractor resolves the real client IP, honouring forwarded
// headers only when the direct peer is a trusted proxy.
type ClientIPExtractor struct {
	trustedProxies []*net.IPNet
}

func NewClientIPExtractor() *ClientIPExtractor {
	return &ClientIPExtractor{
		trustedProxies: []*net.IPNet{
			mustCIDR("127.0.0.0/8"),
			mustCIDR("10.0.0.0/8"),
			mustCIDR("172.16.0.0/12"),
			mustCIDR("192.168.0.0/16"),
		},
	}
}

func mustCIDR(cidr string) *net.IPNet {
	_, network, err := net.ParseCIDR(cidr)
	if err != nil {
		panic("bad trusted proxy CIDR " + cidr)
	}
	return network
}

// AddTrustedProxy registers an additional trusted proxy network.
func (e *ClientIPExtractor) AddTrustedProxy(cidr string) error {
	_, network, err := net.ParseCIDR(cidr)
	if err != nil {
		return err
	}
	e.trustedProxies = append(e.trustedProxies, network)
	return nil
}

// ExtractClientIP returns the forwarded client IP when the connection
// comes from a trusted proxy, otherwise the direct peer address.
func (e *ClientIPExtractor) ExtractClientIP(r *http.Request) string {
	directIP, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		directIP = r.RemoteAddr
	}

	parsed := net.ParseIP(directIP)
	if parsed == nil || !e.isTrustedProxy(parsed) {
		return directIP
	}

	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first := strings.TrimSpace(strings.Split(xff, ",")[0])
		if net.ParseIP(first) != nil {
			return first
		}
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		if net.ParseIP(xri) != nil {
			return xri
		}
	}
	return directIP
}

func (e *ClientIPExtractor) isTrustedProxy(ip net.IP) bool {
	for _, network := range e.trustedProxies {
		if network.Contains(ip) {
			return true
		}
	}
	return false
}
