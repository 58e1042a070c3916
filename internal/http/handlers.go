package http

import (
	"context"
	"fmt"
	stdhttp "net/http"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"statuspics/app/internal/http/templates"
)

const htmlContentType = "text/html"

// Dispatch kinds, used as the metrics label and in access logs.
const (
	kindFavicon     = "favicon"
	kindAsset       = "asset"
	kindStatus      = "status"
	kindInvalidCode = "invalid_code"
	kindFallback    = "fallback"
)

// response is the complete answer to one request, computed before anything is written.
type response struct {
	Kind        string
	Status      int
	ContentType string
	Body        []byte
	// Image is the asset referenced by a status page.
	Image string
}

func (s *Server) serveStatus(w stdhttp.ResponseWriter, r *stdhttp.Request) {
	start := time.Now()
	resp := s.resolve(r.Context(), r.URL.EscapedPath())

	if resp.ContentType != "" {
		w.Header().Set("Content-Type", resp.ContentType)
	}
	w.WriteHeader(resp.Status)
	if len(resp.Body) > 0 {
		if _, err := w.Write(resp.Body); err != nil && s.logger != nil {
			s.logger.WithError(err).WithFields(logrus.Fields{
				"path":       r.URL.Path,
				"request_id": RequestIDFromContext(r.Context()),
			}).Debug("writing response body failed")
		}
	}

	s.metrics.ObserveResponse(resp.Kind, resp.Status, time.Since(start))
	s.metrics.ObserveImage(resp.Image)
}

// resolve maps a raw (still percent-encoded) request path to its response. Only the path is
// consulted: the leading slash is dropped and surrounding whitespace trimmed, with no further
// normalisation.
func (s *Server) resolve(ctx context.Context, rawPath string) response {
	path := strings.TrimSpace(strings.TrimPrefix(rawPath, "/"))

	if resp, ok := s.staticResponse(path); ok {
		return resp
	}

	code, ok := parseStatusCode(path)
	if !ok {
		return response{Kind: kindFallback, Status: stdhttp.StatusOK}
	}

	if stdhttp.StatusText(code) == "" {
		return response{Kind: kindInvalidCode, Status: stdhttp.StatusInternalServerError}
	}

	return s.statusPageResponse(ctx, code)
}

// parseStatusCode accepts a decimal value in the uint16 range with an optional leading '+'.
func parseStatusCode(path string) (int, bool) {
	digits := strings.TrimPrefix(path, "+")
	value, err := strconv.ParseUint(digits, 10, 16)
	if err != nil {
		return 0, false
	}
	return int(value), true
}

func (s *Server) statusPageResponse(ctx context.Context, code int) response {
	image := s.images.RandomIdentifier()
	data := templates.StatusPageData{
		StatusLabel: statusLabel(code),
		ImageURL:    "/" + image,
	}

	body, err := renderComponent(ctx, templates.StatusPage(data))
	if err != nil {
		s.recordError(ctx, err, "rendering status page", logrus.Fields{"status": code})
		body = []byte(fmt.Sprintf("<html><body><h1>%s</h1><img src=\"%s\"></body></html>", data.StatusLabel, data.ImageURL))
	}

	return response{
		Kind:        kindStatus,
		Status:      code,
		ContentType: htmlContentType,
		Body:        body,
		Image:       image,
	}
}

func statusLabel(code int) string {
	return fmt.Sprintf("%d %s", code, stdhttp.StatusText(code))
}
