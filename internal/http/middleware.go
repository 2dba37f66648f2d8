package http

import (
	"log/slog"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/example/room-finder/internal/directory"
)

// EmployeeHeader carries the calling employee id.
const EmployeeHeader = "X-Employee-ID"

// EmployeeLookup confirms that a caller id names a known employee.
type EmployeeLookup interface {
	Employee(id string) (directory.Employee, error)
}

// RequireEmployee rejects requests without a known employee id and stores the
// id in the request context.
func RequireEmployee(lookup EmployeeLookup, logger *slog.Logger) func(http.Handler) http.Handler {
	responder := newResponder(logger)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := strings.TrimSpace(r.Header.Get(EmployeeHeader))
			if id == "" {
				responder.writeError(r.Context(), w, http.StatusUnauthorized, errMissingEmployee)
				return
			}

			if _, err := lookup.Employee(id); err != nil {
				responder.writeError(r.Context(), w, http.StatusUnauthorized, errUnknownEmployee)
				return
			}

			ctx := ContextWithCaller(r.Context(), id)
			if logger := LoggerFromContext(ctx); logger != nil {
				ctx = ContextWithLogger(ctx, logger.With("caller_id", id))
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

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
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w}
			logger.DebugContext(ctx, "request started")
			next.ServeHTTP(rec, r.WithContext(ctx))
			logger.InfoContext(ctx, "request completed", "status", rec.Status(), "duration", time.Since(start))
		})
	}
}

// RequestObserver records one request outcome.
type RequestObserver interface {
	ObserveRequest(method, route string, status int, elapsed time.Duration)
}

// ObserveRequests reports every request to observer, labelled by the matched
// route pattern. Install it inside the mux so the pattern is known.
func ObserveRequests(observer RequestObserver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if observer == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w}
			next.ServeHTTP(rec, r)

			route := r.Pattern
			if route == "" {
				route = "unmatched"
			}
			observer.ObserveRequest(r.Method, route, rec.Status(), time.Since(start))
		})
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(status int) {
	if s.status == 0 {
		s.status = status
	}
	s.ResponseWriter.WriteHeader(status)
}

func (s *statusRecorder) Write(b []byte) (int, error) {
	if s.status == 0 {
		s.status = http.StatusOK
	}
	return s.ResponseWriter.Write(b)
}

func (s *statusRecorder) Status() int {
	if s.status == 0 {
		return http.StatusOK
	}
	return s.status
}
