package main

import (
	"context"
	"log"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

type contextKey string

const (
	identityKey contextKey = "identity"
	recorderKey contextKey = "identityRecorder"
)

// identityFrom returns the authenticated identity for the request, or nil for
// an anonymous request.
func identityFrom(ctx context.Context) *Identity {
	id, _ := ctx.Value(identityKey).(*Identity)
	return id
}

// identityRecorder is a slot the logger installs before authentication runs.
// BearerAuth fills it in, so the access log can name the user even though
// Logging sits earlier in the chain and never sees the derived context.
type identityRecorder struct {
	identity *Identity
}

func recordIdentity(ctx context.Context, identity *Identity) {
	if rec, ok := ctx.Value(recorderKey).(*identityRecorder); ok {
		rec.identity = identity
	}
}

// Paths reachable without a token. Login and signup have no identity yet and
// reissue authenticates through the refresh token in the body.
var excludedPaths = map[string]bool{
	"/auth/signup":       true,
	"/auth/login":        true,
	"/auth/access-token": true,
	"/health":            true,
	"/ready":             true,
}

// BearerAuth authenticates requests carrying an access token. Requests without
// an Authorization header pass through anonymously; handlers that need an
// identity reject those with LOGIN_REQUIRED. A present but bad token
// short-circuits the chain with the mapped error response.
func (a *App) BearerAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if excludedPaths[r.URL.Path] {
			next.ServeHTTP(w, r)
			return
		}

		auth := r.Header.Get("Authorization")
		if !strings.HasPrefix(auth, "Bearer ") {
			next.ServeHTTP(w, r)
			return
		}
		token := strings.TrimPrefix(auth, "Bearer ")

		userID, err := a.Codec.Verify(AccessToken, token)
		if err != nil {
			writeErrorType(w, err)
			return
		}
		identity, err := a.Sessions.PrincipalFor(userID)
		if err != nil {
			writeErrorType(w, err)
			return
		}

		recordIdentity(r.Context(), identity)
		ctx := context.WithValue(r.Context(), identityKey, identity)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requireIdentity unwraps the request identity or fails with LOGIN_REQUIRED.
func requireIdentity(w http.ResponseWriter, r *http.Request) (*Identity, bool) {
	identity := identityFrom(r.Context())
	if identity == nil {
		writeErrorType(w, errLoginRequired)
		return nil, false
	}
	return identity, true
}

// CORS middleware handles CORS headers
func (a *App) CORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if origin := r.Header.Get("Origin"); origin != "" {
			w.Header().Set("Access-Control-Allow-Origin", origin)
		}
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		w.Header().Set("Access-Control-Max-Age", "3600")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// RateLimiter implements per-client rate limiting
type RateLimiter struct {
	limiters map[string]*rate.Limiter
	mu       sync.RWMutex
	perMin   int
}

func NewRateLimiter(perMin int) *RateLimiter {
	return &RateLimiter{limiters: make(map[string]*rate.Limiter), perMin: perMin}
}

func (rl *RateLimiter) getLimiter(client string) *rate.Limiter {
	rl.mu.RLock()
	limiter, exists := rl.limiters[client]
	rl.mu.RUnlock()

	if !exists {
		rl.mu.Lock()
		// Double-check after acquiring write lock
		limiter, exists = rl.limiters[client]
		if !exists {
			limiter = rate.NewLimiter(rate.Limit(rl.perMin)/60, rl.perMin)
			rl.limiters[client] = limiter
		}
		rl.mu.Unlock()
	}

	return limiter
}

func clientAddr(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// RateLimit middleware enforces per-client-IP rate limits
func (a *App) RateLimit(next http.Handler) http.Handler {
	if a.rateLimiter == nil {
		a.rateLimiter = NewRateLimiter(120)
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/health") || strings.HasPrefix(r.URL.Path, "/ready") {
			next.ServeHTTP(w, r)
			return
		}

		limiter := a.rateLimiter.getLimiter(clientAddr(r))
		if !limiter.Allow() {
			writeError(w, http.StatusTooManyRequests, "RATE_LIMIT_EXCEEDED", "Rate limit exceeded")
			return
		}

		next.ServeHTTP(w, r)
	})
}

// Logging middleware logs requests
func (a *App) Logging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		rec := &identityRecorder{}

		next.ServeHTTP(wrapped, r.WithContext(context.WithValue(r.Context(), recorderKey, rec)))

		duration := time.Since(start)
		user := "anonymous"
		if rec.identity != nil {
			user = rec.identity.Email
		}

		log.Printf("[%s] %s %s %d %v (user: %s)", r.Method, r.URL.Path, r.RemoteAddr, wrapped.statusCode, duration, user)
	})
}

type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// SecurityHeaders middleware adds security headers
func SecurityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("X-XSS-Protection", "1; mode=block")
		w.Header().Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		next.ServeHTTP(w, r)
	})
}
