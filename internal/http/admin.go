package http

import (
	"context"
	stdhttp "net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humago"
	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"

	"statuspics/app/internal/assets"
	"statuspics/app/internal/metrics"
)

// Catalogue lists the bundled assets for operational endpoints.
type Catalogue interface {
	Assets() []assets.Asset
	Len() int
}

// AdminOptions configures the operational HTTP surface.
type AdminOptions struct {
	Catalogue Catalogue
	Metrics   *metrics.Metrics
	Logger    *logrus.Logger
}

// AdminServer serves health, asset catalogue and metrics endpoints on a separate listener so
// the public path space stays untouched.
type AdminServer struct {
	api       huma.API
	mux       *stdhttp.ServeMux
	catalogue Catalogue
	logger    *logrus.Logger
}

type healthResponse struct {
	Status int
	Body   struct {
		Status string `json:"status"`
		Assets int    `json:"assets"`
	}
}

type assetView struct {
	Identifier string `json:"identifier"`
	Size       int    `json:"size"`
}

type assetsResponse struct {
	Body struct {
		Assets []assetView `json:"assets"`
	}
}

// NewAdminServer constructs the admin HTTP server.
func NewAdminServer(opts AdminOptions) (*AdminServer, error) {
	if opts.Catalogue == nil {
		return nil, eris.New("asset catalogue is required")
	}

	mux := stdhttp.NewServeMux()
	config := huma.DefaultConfig("statuspics admin", "1.0.0")
	api := humago.New(mux, config)

	srv := &AdminServer{
		api:       api,
		mux:       mux,
		catalogue: opts.Catalogue,
		logger:    opts.Logger,
	}

	huma.Get(api, "/healthz", srv.healthHandler, func(op *huma.Operation) {
		op.Summary = "Health check"
	})
	huma.Get(api, "/assets", srv.assetsHandler, func(op *huma.Operation) {
		op.Summary = "List bundled assets"
	})

	if opts.Metrics != nil {
		mux.Handle("GET /metrics", opts.Metrics.Handler())
	}

	return srv, nil
}

// Handler exposes the underlying HTTP handler for wiring into the application.
func (s *AdminServer) Handler() stdhttp.Handler {
	return s.mux
}

// API exposes the underlying Huma API instance.
func (s *AdminServer) API() huma.API {
	return s.api
}

func (s *AdminServer) healthHandler(_ context.Context, _ *struct{}) (*healthResponse, error) {
	resp := &healthResponse{Status: stdhttp.StatusOK}
	resp.Body.Status = "ok"
	resp.Body.Assets = s.catalogue.Len()

	if resp.Body.Assets == 0 {
		resp.Status = stdhttp.StatusServiceUnavailable
		resp.Body.Status = "degraded"
		if s.logger != nil {
			s.logger.Warn("health check found no bundled assets")
		}
	}

	return resp, nil
}

func (s *AdminServer) assetsHandler(_ context.Context, _ *struct{}) (*assetsResponse, error) {
	list := s.catalogue.Assets()

	resp := &assetsResponse{}
	resp.Body.Assets = make([]assetView, 0, len(list))
	for _, asset := range list {
		resp.Body.Assets = append(resp.Body.Assets, assetView{
			Identifier: asset.Identifier,
			Size:       len(asset.Bytes),
		})
	}

	return resp, nil
}
