package http

import (
	"encoding/json"
	stdhttp "net/http"
	"net/http/httptest"
	"testing"

	"statuspics/app/internal/assets"
	"statuspics/app/internal/metrics"
	applog "statuspics/app/internal/platform/log"
)

func TestAdminHealthReportsAssetCount(t *testing.T) {
	t.Parallel()

	srv := newTestAdminServer(t, nil)
	rec := serveAdmin(srv, "/healthz")

	if rec.Code != stdhttp.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	var body struct {
		Status string `json:"status"`
		Assets int    `json:"assets"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decoding health response: %v", err)
	}

	if body.Status != "ok" || body.Assets != 3 {
		t.Fatalf("expected ok with 3 assets, got %+v", body)
	}
}

func TestAdminHealthDegradesWithoutAssets(t *testing.T) {
	t.Parallel()

	srv, err := NewAdminServer(AdminOptions{Catalogue: emptyCatalogue{}, Logger: applog.Discard()})
	if err != nil {
		t.Fatalf("NewAdminServer returned error: %v", err)
	}

	rec := serveAdmin(srv, "/healthz")
	if rec.Code != stdhttp.StatusServiceUnavailable {
		t.Fatalf("expected status 503, got %d", rec.Code)
	}
}

func TestAdminListsAssets(t *testing.T) {
	t.Parallel()

	srv := newTestAdminServer(t, nil)
	rec := serveAdmin(srv, "/assets")

	if rec.Code != stdhttp.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	var body struct {
		Assets []struct {
			Identifier string `json:"identifier"`
			Size       int    `json:"size"`
		} `json:"assets"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decoding assets response: %v", err)
	}

	if len(body.Assets) != 3 {
		t.Fatalf("expected 3 assets, got %+v", body.Assets)
	}

	if body.Assets[0].Identifier != "one.png" || body.Assets[0].Size != len("\x89PNG one") {
		t.Fatalf("expected first asset one.png, got %+v", body.Assets[0])
	}
}

func TestAdminServesMetrics(t *testing.T) {
	t.Parallel()

	m := metrics.New(nil)
	m.ObserveImage("one.png")

	srv := newTestAdminServer(t, m)
	rec := serveAdmin(srv, "/metrics")

	if rec.Code != stdhttp.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	if !contains(rec.Body.String(), "statuspics_images_served_total") {
		t.Fatalf("expected metrics exposition, got %q", rec.Body.String())
	}
}

func TestAdminWithoutMetricsHasNoMetricsRoute(t *testing.T) {
	t.Parallel()

	srv := newTestAdminServer(t, nil)
	if rec := serveAdmin(srv, "/metrics"); rec.Code != stdhttp.StatusNotFound {
		t.Fatalf("expected status 404, got %d", rec.Code)
	}
}

func TestNewAdminServerRequiresCatalogue(t *testing.T) {
	t.Parallel()

	if _, err := NewAdminServer(AdminOptions{}); err == nil {
		t.Fatalf("expected error without catalogue")
	}
}

func newTestAdminServer(t *testing.T, m *metrics.Metrics) *AdminServer {
	t.Helper()

	store, err := assets.New(testAssets())
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	srv, err := NewAdminServer(AdminOptions{Catalogue: store, Metrics: m, Logger: applog.Discard()})
	if err != nil {
		t.Fatalf("NewAdminServer returned error: %v", err)
	}
	return srv
}

func serveAdmin(srv *AdminServer, target string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest("GET", target, nil))
	return rec
}

type emptyCatalogue struct{}

func (emptyCatalogue) Assets() []assets.Asset { return nil }
func (emptyCatalogue) Len() int               { return 0 }
