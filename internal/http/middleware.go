package http

import (
	"context"
	"net"
	stdhttp "net/http"
	"strings"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"

	applog "statuspics/app/internal/platform/log"
)

const requestIDHeader = "X-Request-ID"

type contextKey string

const requestIDContextKey contextKey = "statuspics/request-id"

// RequestIDFromContext extracts the request identifier from the context when available.
func RequestIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if value, ok := ctx.Value(requestIDContextKey).(string); ok {
		return value
	}
	return ""
}

func (s *Server) requestIDMiddleware(next stdhttp.Handler) stdhttp.Handler {
	return stdhttp.HandlerFunc(func(w stdhttp.ResponseWriter, r *stdhttp.Request) {
		reqID := uuid.NewString()
		ctx := context.WithValue(r.Context(), requestIDContextKey, reqID)
		w.Header().Set(requestIDHeader, reqID)

		if hub := sentry.GetHubFromContext(ctx); hub != nil {
			hub.Scope().SetTag("request_id", reqID)
		}

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) rateLimitMiddleware(next stdhttp.Handler) stdhttp.Handler {
	if s.rateLimiter == nil {
		return next
	}

	return stdhttp.HandlerFunc(func(w stdhttp.ResponseWriter, r *stdhttp.Request) {
		ip := clientIPFromRequest(r)
		if s.rateLimiter.Allow(ip) {
			next.ServeHTTP(w, r)
			return
		}

		s.metrics.ObserveRateLimited()
		if s.logger != nil {
			fields := logrus.Fields{
				"ip":   ip,
				"path": r.URL.Path,
			}
			if requestID := RequestIDFromContext(r.Context()); requestID != "" {
				fields["request_id"] = requestID
			}
			s.logger.WithError(eris.New("rate limit exceeded")).WithFields(fields).Warn("request rate limited")
		}

		w.Header().Set("Retry-After", "1")
		w.WriteHeader(stdhttp.StatusTooManyRequests)
	})
}

func (s *Server) loggingMiddleware(next stdhttp.Handler) stdhttp.Handler {
	if s.logger == nil {
		return next
	}

	return stdhttp.HandlerFunc(func(w stdhttp.ResponseWriter, r *stdhttp.Request) {
		start := time.Now()
		recorder := &statusRecorder{ResponseWriter: w}
		next.ServeHTTP(recorder, r)

		status := recorder.status
		if status == 0 {
			status = stdhttp.StatusOK
		}

		fields := logrus.Fields{
			"method":      r.Method,
			"path":        r.URL.Path,
			"status":      status,
			"bytes":       recorder.written,
			"remote_addr": r.RemoteAddr,
			"duration_ms": float64(time.Since(start).Microseconds()) / 1000,
		}

		if requestID := RequestIDFromContext(r.Context()); requestID != "" {
			fields["request_id"] = requestID
		}

		entry := s.logger.WithFields(fields)
		if status >= 500 {
			entry.Warn("request failed")
		} else {
			entry.Info("request completed")
		}
	})
}

func (s *Server) recoveryMiddleware(next stdhttp.Handler) stdhttp.Handler {
	return stdhttp.HandlerFunc(func(w stdhttp.ResponseWriter, r *stdhttp.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == stdhttp.ErrAbortHandler {
				panic(rec)
			}

			var err error
			switch v := rec.(type) {
			case error:
				err = eris.Wrap(v, "panic")
			default:
				err = eris.Errorf("panic: %v", v)
			}

			s.metrics.ObservePanic()
			s.recordError(r.Context(), err, "panic recovered", logrus.Fields{"path": r.URL.Path})

			if hub := sentry.GetHubFromContext(r.Context()); hub != nil {
				hub.RecoverWithContext(r.Context(), rec)
				hub.Flush(applog.FlushTimeout)
			}

			w.WriteHeader(stdhttp.StatusInternalServerError)
		}()

		next.ServeHTTP(w, r)
	})
}

func (s *Server) sentryMiddleware(next stdhttp.Handler) stdhttp.Handler {
	if s.sentry == nil {
		return next
	}

	return stdhttp.HandlerFunc(func(w stdhttp.ResponseWriter, r *stdhttp.Request) {
		hub := s.sentry.Clone()
		scope := hub.Scope()
		scope.SetTag("http.method", r.Method)
		scope.SetRequest(r)

		ctx := sentry.SetHubOnContext(r.Context(), hub)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) recordError(ctx context.Context, err error, message string, fields logrus.Fields) {
	if err == nil {
		return
	}

	if s.logger != nil {
		entry := s.logger.WithField("error", err.Error())
		if fields != nil {
			entry = entry.WithFields(fields)
		}
		if requestID := RequestIDFromContext(ctx); requestID != "" {
			entry = entry.WithField("request_id", requestID)
		}
		entry.Error(message)
	}

	if hub := sentry.GetHubFromContext(ctx); hub != nil {
		hub.CaptureException(err)
		return
	}
	if s.sentry != nil {
		s.sentry.CaptureException(err)
	}
}

// statusRecorder remembers the status code and body size written through it.
type statusRecorder struct {
	stdhttp.ResponseWriter
	status  int
	written int
}

func (rw *statusRecorder) WriteHeader(status int) {
	if rw.status == 0 {
		rw.status = status
	}
	rw.ResponseWriter.WriteHeader(status)
}

func (rw *statusRecorder) Write(p []byte) (int, error) {
	if rw.status == 0 {
		rw.status = stdhttp.StatusOK
	}
	n, err := rw.ResponseWriter.Write(p)
	rw.written += n
	return n, err
}

// Unwrap lets http.ResponseController reach the underlying writer.
func (rw *statusRecorder) Unwrap() stdhttp.ResponseWriter {
	return rw.ResponseWriter
}

func clientIPFromRequest(req *stdhttp.Request) string {
	if req == nil {
		return ""
	}

	if forwarded := strings.TrimSpace(req.Header.Get("X-Forwarded-For")); forwarded != "" {
		parts := strings.Split(forwarded, ",")
		if len(parts) > 0 {
			candidate := strings.TrimSpace(parts[0])
			if candidate != "" {
				return candidate
			}
		}
	}

	if realIP := strings.TrimSpace(req.Header.Get("X-Real-IP")); realIP != "" {
		return realIP
	}

	host, _, err := net.SplitHostPort(req.RemoteAddr)
	if err != nil {
		return strings.TrimSpace(req.RemoteAddr)
	}
	return host
}
