package http

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"github.com/example/room-booking/internal/application"
)

// AccountIDHeader carries the acting account on every API request.
const AccountIDHeader = "X-Account-ID"

// PrincipalResolver turns an account id into an authorisation principal.
type PrincipalResolver interface {
	ResolvePrincipal(ctx context.Context, accountID string) (application.Principal, error)
}

// RequirePrincipal rejects requests whose X-Account-ID header is missing or
// names an unknown account, and stores the principal in the request context.
func RequirePrincipal(resolver PrincipalResolver, logger *slog.Logger) func(http.Handler) http.Handler {
	responder := newResponder(logger)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			accountID := strings.TrimSpace(r.Header.Get(AccountIDHeader))
			if accountID == "" {
				responder.writeError(r.Context(), w, http.StatusUnauthorized, codeUnauthorized, errMissingAccountID)
				return
			}

			principal, err := resolver.ResolvePrincipal(r.Context(), accountID)
			if err != nil {
				if errors.Is(err, application.ErrUnauthorized) {
					responder.writeError(r.Context(), w, http.StatusUnauthorized, codeUnauthorized, errUnknownAccount)
					return
				}
				responder.loggerFor(r.Context()).ErrorContext(r.Context(), "principal resolution failed", "error", err)
				responder.writeJSON(r.Context(), w, http.StatusInternalServerError, errorResponse{ErrorCode: codeInternal, Message: "An internal error occurred."})
				return
			}

			ctx := ContextWithPrincipal(r.Context(), principal)
			if logger := LoggerFromContext(ctx); logger != nil {
				ctx = ContextWithLogger(ctx, logger.With("principal_id", principal.AccountID, "role", string(principal.Role)))
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(status int) {
	s.status = status
	s.ResponseWriter.WriteHeader(status)
}

// RequestLogger attaches a request scoped logger and logs completion with the
// response status.
func RequestLogger(base *slog.Logger) func(http.Handler) http.Handler {
	if base == nil {
		base = slog.Default()
	}
	var counter atomic.Uint64

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := counter.Add(1)
			logger := base.With(
				"request_id", id,
				"method", r.Method,
				"path", r.URL.Path,
			)

			ctx := ContextWithLogger(r.Context(), logger)
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			start := time.Now()
			logger.DebugContext(ctx, "request started")
			next.ServeHTTP(rec, r.WithContext(ctx))
			logger.InfoContext(ctx, "request completed", "status", rec.status, "duration", time.Since(start))
		})
	}
}

// DefaultClientIdleTTL is how long a client's bucket survives without requests.
const DefaultClientIdleTTL = 10 * time.Minute

// RateLimiter hands out one token bucket per client address. Buckets idle
// for longer than the TTL are evicted.
type RateLimiter struct {
	limit   rate.Limit
	burst   int
	idleTTL time.Duration
	now     func() time.Time

	mu        sync.Mutex
	clients   map[string]*clientBucket
	lastPrune time.Time
}

type clientBucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewRateLimiter allows perSecond requests per client with the given burst.
func NewRateLimiter(perSecond float64, burst int) *RateLimiter {
	return &RateLimiter{
		limit:   rate.Limit(perSecond),
		burst:   burst,
		idleTTL: DefaultClientIdleTTL,
		now:     time.Now,
		clients: make(map[string]*clientBucket),
	}
}

func (l *RateLimiter) limiter(key string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if now.Sub(l.lastPrune) >= l.idleTTL {
		l.pruneLocked(now)
	}

	bucket, ok := l.clients[key]
	if !ok {
		bucket = &clientBucket{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.clients[key] = bucket
	}
	bucket.lastSeen = now
	return bucket.limiter
}

func (l *RateLimiter) pruneLocked(now time.Time) {
	for key, bucket := range l.clients {
		if now.Sub(bucket.lastSeen) > l.idleTTL {
			delete(l.clients, key)
		}
	}
	l.lastPrune = now
}

// Middleware answers 429 once a client exhausts its bucket.
func (l *RateLimiter) Middleware(logger *slog.Logger) func(http.Handler) http.Handler {
	responder := newResponder(logger)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			client := clientAddress(r)
			if !l.limiter(client).Allow() {
				w.Header().Set("Retry-After", "1")
				responder.writeError(r.Context(), w, http.StatusTooManyRequests, codeRateLimited, errRateLimitExceeded)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func clientAddress(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
