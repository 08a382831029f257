package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/seenimoa/gaugekit/internal/render"
	"github.com/seenimoa/gaugekit/internal/theme"
)

// maxBodyBytes bounds JSON request bodies.
const maxBodyBytes = 1 << 20

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data: map[string]interface{}{
			"status":     "ok",
			"version":    Version,
			"mode":       s.det.Mode().String(),
			"ws_clients": s.wsHub.ClientCount(),
			"cache":      s.cache.Stats(),
		},
	})
}

// handleGaugeSVG renders from query parameters so the endpoint can sit in
// an <img src>.
func (s *Server) handleGaugeSVG(w http.ResponseWriter, r *http.Request) {
	req := s.newGaugeRequest()
	if err := applyQuery(r.URL.Query(), &req); err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.serveGauge(w, r, req)
}

func (s *Server) handleGauge(w http.ResponseWriter, r *http.Request) {
	req := s.newGaugeRequest()
	if err := decodeBody(w, r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}
	s.serveGauge(w, r, req)
}

func (s *Server) serveGauge(w http.ResponseWriter, r *http.Request, req GaugeRequest) {
	opts := req.Options()
	if err := opts.Gauge.Validate(); err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	mode, err := s.resolveMode(req.Mode)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	svg, id := s.renderCached(opts, mode)
	if r.URL.Query().Get("format") != "json" {
		writeSVG(w, svg)
		return
	}
	s.writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data:    GaugeResponse{ID: id, Mode: opts.EffectiveMode(mode).String(), SVG: svg},
	})
}

func (s *Server) handleGaugePNG(w http.ResponseWriter, r *http.Request) {
	if s.pngLimiter != nil && !s.pngLimiter.Allow() {
		w.Header().Set("Retry-After", "1")
		s.writeError(w, http.StatusTooManyRequests, "png render rate exceeded")
		return
	}

	req := s.newGaugeRequest()
	if err := decodeBody(w, r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}
	opts := req.Options()
	if err := opts.Gauge.Validate(); err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	mode, err := s.resolveMode(req.Mode)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	scale := req.Scale
	if scale == 0 {
		scale = s.Config().Render.PNGScale
	}

	// Encode into a buffer so a failure can still produce a JSON error.
	var buf bytes.Buffer
	if err := s.raster.PNG(&buf, opts, mode, scale); err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes()) //nolint:errcheck
}

// handleDashboard renders a list of gauges in one call. Each entry starts
// from the configured defaults.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	var body DashboardRequest
	if err := decodeBody(w, r, &body); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}
	if len(body.Gauges) == 0 {
		s.writeError(w, http.StatusBadRequest, "gauges is required")
		return
	}
	mode, err := s.resolveMode(body.Mode)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	batch := make([]render.Options, len(body.Gauges))
	for i, raw := range body.Gauges {
		req := s.newGaugeRequest()
		if err := json.Unmarshal(raw, &req); err != nil {
			s.writeError(w, http.StatusBadRequest, fmt.Sprintf("gauge %d: %v", i, err))
			return
		}
		batch[i] = req.Options()
	}

	svgs, err := render.RenderAll(r.Context(), batch, mode, s.Config().Render.Concurrency)
	if err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			status = http.StatusServiceUnavailable
		}
		s.writeError(w, status, err.Error())
		return
	}

	out := make([]GaugeResponse, len(svgs))
	for i, svg := range svgs {
		out[i] = GaugeResponse{Mode: batch[i].EffectiveMode(mode).String(), SVG: svg}
	}
	s.writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: out})
}

// handleTheme reports the resolved colors for ?mode=, defaulting to the
// server-wide ambient mode.
func (s *Server) handleTheme(w http.ResponseWriter, r *http.Request) {
	mode, err := s.resolveMode(r.URL.Query().Get("mode"))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	cfg := s.Config()
	s.writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data: ThemeResponse{
			Mode:       mode.String(),
			AutoDetect: cfg.Theme.AutoDetect,
			Theme:      theme.Resolve(mode.IsDark(), cfg.Theme.Overrides()),
		},
	})
}

// decodeBody decodes a JSON body onto v. An empty body leaves v as it is.
func decodeBody(w http.ResponseWriter, r *http.Request, v interface{}) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// applyQuery overlays query parameters onto req. Colors are comma
// separated; an empty "colors" parameter selects the fallback palette.
func applyQuery(q url.Values, req *GaugeRequest) error {
	floats := map[string]*float64{
		"value":         &req.Value,
		"min":           &req.Min,
		"max":           &req.Max,
		"tick_interval": &req.TickInterval,
		"size":          &req.Size,
		"thickness":     &req.Thickness,
	}
	for key, dst := range floats {
		if !q.Has(key) {
			continue
		}
		v, err := strconv.ParseFloat(q.Get(key), 64)
		if err != nil {
			return fmt.Errorf("%s: not a number: %q", key, q.Get(key))
		}
		*dst = v
	}

	bools := map[string]*bool{
		"show_ticks":        &req.ShowTicks,
		"auto_detect_theme": &req.AutoDetectTheme,
		"show_text_outline": &req.ShowTextOutline,
	}
	for key, dst := range bools {
		if !q.Has(key) {
			continue
		}
		v, err := strconv.ParseBool(q.Get(key))
		if err != nil {
			return fmt.Errorf("%s: not a boolean: %q", key, q.Get(key))
		}
		*dst = v
	}

	if q.Has("label") {
		req.Label = q.Get("label")
	}
	if q.Has("display_type") {
		req.DisplayType = q.Get("display_type")
	}
	if q.Has("mode") {
		req.Mode = q.Get("mode")
	}
	if q.Has("colors") {
		req.Colors = []string{}
		for _, c := range strings.Split(q.Get("colors"), ",") {
			if c = strings.TrimSpace(c); c != "" {
				req.Colors = append(req.Colors, c)
			}
		}
	}
	return nil
}
