package bootstrap

import (
	"github.com/getsentry/sentry-go"
	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"

	"statuspics/app/internal/assets"
	"statuspics/app/internal/config"
	apphttp "statuspics/app/internal/http"
	"statuspics/app/internal/metrics"
)

type Dependencies struct {
	Config    config.Config
	Logger    *logrus.Logger
	SentryHub *sentry.Hub
	// Assets overrides the compiled-in bundle when set.
	Assets *assets.Store
}

type Result struct {
	Assets      *assets.Store
	Metrics     *metrics.Metrics
	HTTPServer  *apphttp.Server
	AdminServer *apphttp.AdminServer
	Cleanup     func() error
}

// Build composes the statuspics application layers and returns the constructed components.
// AdminServer is nil unless an admin address is configured.
func Build(deps Dependencies) (Result, error) {
	store := deps.Assets
	if store == nil {
		loaded, err := assets.Load()
		if err != nil {
			return Result{}, eris.Wrap(err, "loading bundled assets")
		}
		store = loaded
	}

	appMetrics := metrics.New(nil)

	httpServer, err := apphttp.NewServer(apphttp.Options{
		Assets:    store,
		Logger:    deps.Logger,
		SentryHub: deps.SentryHub,
		Metrics:   appMetrics,
		RateLimiter: apphttp.RateLimiterSettings{
			RequestsPerSecond: deps.Config.RateLimit.RequestsPerSecond,
			Burst:             deps.Config.RateLimit.Burst,
			ClientTTL:         deps.Config.RateLimit.ClientTTL,
		},
	})
	if err != nil {
		return Result{}, eris.Wrap(err, "initialising http server")
	}

	var adminServer *apphttp.AdminServer
	if deps.Config.AdminAddr != "" {
		adminServer, err = apphttp.NewAdminServer(apphttp.AdminOptions{
			Catalogue: store,
			Metrics:   appMetrics,
			Logger:    deps.Logger,
		})
		if err != nil {
			httpServer.Close()
			return Result{}, eris.Wrap(err, "initialising admin server")
		}
	}

	cleanup := func() error {
		httpServer.Close()
		return nil
	}

	return Result{
		Assets:      store,
		Metrics:     appMetrics,
		HTTPServer:  httpServer,
		AdminServer: adminServer,
		Cleanup:     cleanup,
	}, nil
}
