// Package http exposes the tracker over the JSON API the frontend and
// mobile clients speak. Route strings and response messages are part of
// the wire contract and must not change.
package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"wisepenny/internal/auth"
	"wisepenny/internal/middleware/ratelimit"
	"wisepenny/internal/middleware/security"
	"wisepenny/internal/middleware/trace"
	"wisepenny/internal/services"
)

const sessionCookieName = "session"

// Options tunes the transport layer. Zero values fall back to defaults.
type Options struct {
	// AllowedOrigin is the single origin allowed for credentialed CORS.
	AllowedOrigin string

	// RequestsPerMinute caps per-client request rates. 0 uses the
	// limiter default.
	RequestsPerMinute int

	// SecureCookies marks session cookies Secure and SameSite=None,
	// required for cross-site frontends over HTTPS. Off only for local
	// development over plain HTTP.
	SecureCookies bool
}

// Server wires the tracker, session store and token verifier behind the
// HTTP routes.
type Server struct {
	http.Server

	tracker  *services.Tracker
	sessions auth.Sessions
	verifier auth.Verifier

	limiter      *ratelimit.Limiter
	secureCookie bool
	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run
// server.
func NewServer(addr string, tracker *services.Tracker, sessions auth.Sessions, verifier auth.Verifier, opts Options) *Server {
	mux := http.NewServeMux()

	s := &Server{
		tracker:      tracker,
		sessions:     sessions,
		verifier:     verifier,
		limiter:      ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: opts.RequestsPerMinute}),
		secureCookie: opts.SecureCookies,
	}

	mux.HandleFunc("/healthz", handleHealth)
	mux.HandleFunc("/readyz", handleReady)

	mux.HandleFunc("/login", s.handleLogin)
	mux.HandleFunc("/logout", s.handleLogout)
	mux.HandleFunc("/check_auth", s.handleCheckAuth)

	mux.HandleFunc("/add_funds", s.handleAddFunds)
	mux.HandleFunc("/add_expense", s.handleAddExpense)
	mux.HandleFunc("/get_balance", s.handleGetBalance)
	mux.HandleFunc("/view_balance", s.handleGetBalance)
	mux.HandleFunc("/clear_balance", s.handleClearBalance)
	mux.HandleFunc("/get_expenses", s.handleGetExpenses)
	mux.HandleFunc("/view_expenses", s.handleGetExpenses)
	mux.HandleFunc("/remove_expense/", s.handleRemoveExpense)
	mux.HandleFunc("/edit_expense/", s.handleEditExpense)

	ipx := security.NewClientIPExtractor()
	secmw := security.NewMiddleware(security.DefaultConfig(opts.AllowedOrigin))
	tracemw := trace.NewMiddleware(ipx.ExtractClientIP)

	var handler http.Handler = mux
	handler = tracemw.Middleware(handler)
	handler = s.limiter.Middleware(ipx.ExtractClientIP, nil)(handler)
	handler = secmw.Middleware(handler)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

// Shutdown stops the server and its background goroutines.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		err = s.Server.Shutdown(ctx)
	})
	return err
}

// requireMethod enforces the route's HTTP method, answering 405 otherwise.
func requireMethod(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method != method {
		w.Header().Set("Allow", method)
		writeMessage(w, http.StatusMethodNotAllowed, "Method not allowed")
		return false
	}
	return true
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
