package http

import (
	stdhttp "net/http"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"

	"statuspics/app/internal/assets"
	"statuspics/app/internal/metrics"
)

// AssetStore resolves bundled payloads by identifier.
type AssetStore interface {
	Lookup(id string) ([]byte, bool)
}

// Options configures the HTTP server wiring.
type Options struct {
	Assets AssetStore
	// Images picks the image shown on status pages. Defaults to Assets when it implements
	// assets.Picker.
	Images      assets.Picker
	Logger      *logrus.Logger
	SentryHub   *sentry.Hub
	Metrics     *metrics.Metrics
	RateLimiter RateLimiterSettings
}

// RateLimiterSettings configures the HTTP rate limiter behaviour. A zero RequestsPerSecond
// leaves the limiter out of the chain.
type RateLimiterSettings struct {
	RequestsPerSecond float64
	Burst             int
	ClientTTL         time.Duration
}

// Server answers every public request by dispatching on its path.
type Server struct {
	assets      AssetStore
	images      assets.Picker
	logger      *logrus.Logger
	sentry      *sentry.Hub
	metrics     *metrics.Metrics
	rateLimiter *RateLimiter
	handler     stdhttp.Handler
}

// NewServer constructs the HTTP server.
func NewServer(opts Options) (*Server, error) {
	if opts.Assets == nil {
		return nil, eris.New("asset store is required")
	}

	images := opts.Images
	if images == nil {
		picker, ok := opts.Assets.(assets.Picker)
		if !ok {
			return nil, eris.New("image picker is required")
		}
		images = picker
	}

	srv := &Server{
		assets:  opts.Assets,
		images:  images,
		logger:  opts.Logger,
		sentry:  opts.SentryHub,
		metrics: opts.Metrics,
	}

	settings := opts.RateLimiter
	if settings.RequestsPerSecond < 0 {
		return nil, eris.New("rate limiter requests per second must not be negative")
	}
	if settings.RequestsPerSecond > 0 {
		if settings.Burst <= 0 {
			return nil, eris.New("rate limiter burst must be greater than zero")
		}
		if settings.ClientTTL <= 0 {
			return nil, eris.New("rate limiter client TTL must be greater than zero")
		}
		srv.rateLimiter = NewRateLimiter(settings.Burst, settings.RequestsPerSecond, settings.ClientTTL)
	}

	srv.handler = srv.registerMiddlewares(stdhttp.HandlerFunc(srv.serveStatus))

	return srv, nil
}

// Handler exposes the middleware-wrapped handler for wiring into the application.
func (s *Server) Handler() stdhttp.Handler {
	return s.handler
}

// Close releases background resources held by the server.
func (s *Server) Close() {
	if s.rateLimiter != nil {
		s.rateLimiter.Stop()
	}
}

// registerMiddlewares wraps next so that the first listed middleware runs outermost.
func (s *Server) registerMiddlewares(next stdhttp.Handler) stdhttp.Handler {
	chain := []func(stdhttp.Handler) stdhttp.Handler{
		s.sentryMiddleware,
		s.recoveryMiddleware,
		s.requestIDMiddleware,
		s.rateLimitMiddleware,
		s.loggingMiddleware,
	}

	handler := next
	for i := len(chain) - 1; i >= 0; i-- {
		handler = chain[i](handler)
	}
	return handler
}

func (s *Server) ServeHTTP(w stdhttp.ResponseWriter, r *stdhttp.Request) {
	s.handler.ServeHTTP(w, r)
}
