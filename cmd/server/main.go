package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	stdhttp "net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"statuspics/app/internal/app/bootstrap"
	"statuspics/app/internal/config"
	applog "statuspics/app/internal/platform/log"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return eris.Wrap(err, "failure loading configuration")
	}

	logger, err := applog.NewLogger(cfg.LogLevel)
	if err != nil {
		return eris.Wrap(err, "failure initialising logger")
	}

	sentryHub, flush, err := applog.InitSentry(logger, applog.SentrySettings{
		DSN:         cfg.SentryDSN,
		Environment: cfg.Environment,
	})
	if err != nil {
		return eris.Wrap(err, "failure initialising sentry")
	}
	defer flush()

	app, err := bootstrap.Build(bootstrap.Dependencies{
		Config:    *cfg,
		Logger:    logger,
		SentryHub: sentryHub,
	})
	if err != nil {
		return eris.Wrap(err, "building application")
	}
	defer func() {
		if cleanupErr := app.Cleanup(); cleanupErr != nil {
			logger.WithError(cleanupErr).Error("cleaning up application")
		}
	}()

	httpServer := &stdhttp.Server{
		Addr:    cfg.ListenAddr(),
		Handler: h2c.NewHandler(app.HTTPServer.Handler(), &http2.Server{}),
	}

	servers := []*stdhttp.Server{httpServer}
	if app.AdminServer != nil {
		servers = append(servers, &stdhttp.Server{
			Addr:    cfg.AdminAddr,
			Handler: app.AdminServer.Handler(),
		})
	}

	listeners := make([]net.Listener, 0, len(servers))
	for _, srv := range servers {
		ln, err := net.Listen("tcp", srv.Addr)
		if err != nil {
			for _, open := range listeners {
				_ = open.Close()
			}
			return eris.Wrapf(err, "listening on %s", srv.Addr)
		}
		listeners = append(listeners, ln)
	}

	serverErrCh := make(chan error, len(servers))
	for i, srv := range servers {
		go func(srv *stdhttp.Server, ln net.Listener) {
			err := srv.Serve(ln)
			if err != nil && !errors.Is(err, stdhttp.ErrServerClosed) {
				serverErrCh <- eris.Wrapf(err, "serving %s", srv.Addr)
				return
			}
			serverErrCh <- nil
		}(srv, listeners[i])
	}

	fmt.Printf("Listening on %s\n", httpServer.Addr)
	logger.WithFields(logrus.Fields{
		"addr":   httpServer.Addr,
		"admin":  cfg.AdminAddr,
		"assets": app.Assets.Len(),
	}).Info("starting http server")

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-serverErrCh:
		if err != nil {
			_ = shutdownAll(servers, cfg, logger)
			return eris.Wrap(err, "http server error")
		}
		return nil
	}

	if err := shutdownAll(servers, cfg, logger); err != nil {
		return err
	}

	logger.Info("http server shut down cleanly")
	return nil
}

func shutdownAll(servers []*stdhttp.Server, cfg *config.Config, logger *logrus.Logger) error {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownGrace)
	defer cancel()

	var firstErr error
	for _, srv := range servers {
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.WithError(err).WithField("addr", srv.Addr).Error("shutting down http server")
			if firstErr == nil {
				firstErr = eris.Wrapf(err, "shutting down %s", srv.Addr)
			}
		}
	}
	return firstErr
}
