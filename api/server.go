// Package api provides the HTTP server for gaugekit.
//
// It renders gauges as SVG or PNG on request, reports the resolved theme,
// and runs live websocket sessions in which a browser page streams its
// theme signals and receives re-rendered gauges.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/seenimoa/gaugekit/internal/ambient"
	"github.com/seenimoa/gaugekit/internal/config"
	"github.com/seenimoa/gaugekit/internal/infra"
	"github.com/seenimoa/gaugekit/internal/raster"
	"github.com/seenimoa/gaugekit/internal/render"
	"github.com/seenimoa/gaugekit/internal/theme"
	"github.com/seenimoa/gaugekit/web"
)

// Version is reported by /health. The CLI overwrites it at startup.
var Version = "dev"

// Server is the HTTP API server.
type Server struct {
	router chi.Router
	logger *slog.Logger

	mu  sync.RWMutex
	cfg *config.Config

	cache      *infra.Cache[string]
	pngLimiter *infra.RateLimiter
	raster     *raster.Renderer

	// Server-wide ambient signals: the watched host page and the
	// configured OS preference.
	doc       *ambient.Document
	pref      *ambient.Preference
	det       *ambient.Detector
	cancelDet func()

	wsHub   *WSHub
	serveUI bool // when true, serve the embedded demo page at /
}

// NewServer creates a configured API server with all routes and middleware.
func NewServer(cfg *config.Config, logger *slog.Logger) (*Server, error) {
	if logger == nil {
		logger = slog.Default()
	}
	rr, err := raster.NewRenderer(logger)
	if err != nil {
		return nil, fmt.Errorf("raster setup failed: %w", err)
	}

	srv := &Server{
		logger:  logger,
		cfg:     cfg,
		cache:   infra.NewCache[string](time.Duration(cfg.API.CacheTTL) * time.Second),
		raster:  rr,
		doc:     ambient.NewDocument(),
		pref:    ambient.NewPreference(cfg.Ambient.PrefersDark),
		wsHub:   NewWSHub(),
		serveUI: true,
	}
	if cfg.API.PNGRate > 0 {
		srv.pngLimiter = infra.NewRateLimiter(cfg.API.PNGRate, time.Second/time.Duration(cfg.API.PNGRate))
	}

	srv.det = ambient.NewDetector(srv.doc, srv.pref, ambient.WithLogger(logger))
	srv.cancelDet = srv.det.OnChange(func(m ambient.Mode) {
		srv.wsHub.Broadcast(WSMessage{Type: MsgMode, Data: ModeMessage{Mode: m.String(), Scope: ScopeServer}})
	})

	srv.router = srv.buildRouter()
	return srv, nil
}

// SetServeUI controls whether the embedded demo page is served.
// Must be called before ListenAndServe.
func (s *Server) SetServeUI(enabled bool) {
	s.serveUI = enabled
	s.router = s.buildRouter()
}

// Router returns the chi router for testing.
func (s *Server) Router() chi.Router {
	return s.router
}

// Document returns the server-wide host page document. The serve command
// keeps it in sync with ambient.host_page.
func (s *Server) Document() *ambient.Document {
	return s.doc
}

// Mode returns the server-wide ambient mode.
func (s *Server) Mode() ambient.Mode {
	return s.det.Mode()
}

// Hub returns the websocket hub.
func (s *Server) Hub() *WSHub {
	return s.wsHub
}

// Cache returns the render cache.
func (s *Server) Cache() *infra.Cache[string] {
	return s.cache
}

// Config returns the configuration in effect.
func (s *Server) Config() *config.Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg
}

// SetConfig swaps in a reloaded configuration. The OS preference follows
// ambient.prefers_dark and cached renders are dropped since their defaults
// may have changed.
func (s *Server) SetConfig(cfg *config.Config) {
	s.mu.Lock()
	s.cfg = cfg
	s.mu.Unlock()

	s.cache.Flush()
	s.pref.Set(cfg.Ambient.PrefersDark)
}

// Close disposes the server-wide detector and releases the raster fonts.
func (s *Server) Close() error {
	s.cancelDet()
	s.det.Dispose()
	return s.raster.Close()
}

// ListenAndServe starts the HTTP server and shuts it down gracefully when
// ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	httpSrv := &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start WebSocket hub
	go s.wsHub.Run(ctx)

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", "addr", addr)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}
	s.logger.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	return httpSrv.Shutdown(shutdownCtx)
}

// buildRouter configures all routes and middleware.
func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(120 * time.Second))

	// CORS
	origins := []string{"*"}
	if len(s.cfg.API.CORSOrigins) > 0 {
		origins = s.cfg.API.CORSOrigins
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health check
	r.Get("/health", s.handleHealth)

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)

		// Rendering
		r.Get("/gauge.svg", s.handleGaugeSVG)
		r.Post("/gauge", s.handleGauge)
		r.Post("/gauge.png", s.handleGaugePNG)
		r.Post("/dashboard", s.handleDashboard)

		// Theme
		r.Get("/theme", s.handleTheme)
		r.Get("/signals", s.handleGetSignals)
		r.Put("/signals", s.handleUpdateSignals)

		// Configuration
		r.Get("/config", s.handleGetConfig)

		// Live session
		r.Get("/ws", s.handleWebSocket)
	})

	if s.serveUI {
		s.mountUI(r, web.DistFS())
	}

	return r
}

// mountUI serves the embedded demo page and its assets.
func (s *Server) mountUI(r chi.Router, distFS fs.FS) {
	fileServer := http.FileServerFS(distFS)

	r.Get("/*", func(w http.ResponseWriter, r *http.Request) {
		rPath := strings.TrimPrefix(r.URL.Path, "/")
		if rPath == "" {
			rPath = "index.html"
		}
		f, err := distFS.Open(rPath)
		if err != nil {
			http.NotFound(w, r)
			return
		}
		f.Close()

		if strings.HasSuffix(rPath, ".html") {
			w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
		}
		fileServer.ServeHTTP(w, r)
	})
}

// ============================================================
// Request / Response types
// ============================================================

// APIResponse is the standard JSON envelope.
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// GaugeRequest is the body of POST /api/v1/gauge and /gauge.png. Fields
// left out keep the value from the server's gauge and theme sections.
type GaugeRequest struct {
	config.GaugeConfig
	Theme           theme.Overrides `json:"theme"`
	AutoDetectTheme bool            `json:"auto_detect_theme"`
	ShowTextOutline bool            `json:"show_text_outline"`
	Mode            string          `json:"mode,omitempty"`  // "auto" (server signals), "light" or "dark"
	Scale           float64         `json:"scale,omitempty"` // PNG only
}

// GaugeResponse is the envelope data for ?format=json.
type GaugeResponse struct {
	ID   string `json:"id,omitempty"`
	Mode string `json:"mode"`
	SVG  string `json:"svg"`
}

// DashboardRequest is the body of POST /api/v1/dashboard.
type DashboardRequest struct {
	Mode   string            `json:"mode,omitempty"`
	Gauges []json.RawMessage `json:"gauges"`
}

// ThemeResponse reports the colors a gauge would be drawn with.
type ThemeResponse struct {
	Mode       string         `json:"mode"`
	AutoDetect bool           `json:"auto_detect"`
	Theme      theme.Resolved `json:"theme"`
}

// SignalsMessage carries the host page classes and the OS preference.
type SignalsMessage struct {
	Root        []string `json:"root"`
	Body        []string `json:"body"`
	PrefersDark bool     `json:"prefers_dark"`
}

// newGaugeRequest returns a request pre-filled from the configuration so
// that decoding only overrides what the client sends.
func (s *Server) newGaugeRequest() GaugeRequest {
	cfg := s.Config()
	req := GaugeRequest{
		GaugeConfig:     cfg.Gauge,
		Theme:           cfg.Theme.Overrides(),
		AutoDetectTheme: cfg.Theme.AutoDetect,
		ShowTextOutline: cfg.Theme.ShowTextOutline,
	}
	req.Colors = append([]string(nil), cfg.Gauge.Colors...)
	return req
}

// Options converts the request into render options.
func (req GaugeRequest) Options() render.Options {
	return render.Options{
		Gauge:           req.GaugeConfig.ToGauge(),
		Theme:           req.Theme,
		AutoDetectTheme: req.AutoDetectTheme,
		ShowTextOutline: req.ShowTextOutline,
	}
}

// resolveMode maps a request mode onto the server-wide signals for "auto".
func (s *Server) resolveMode(mode string) (ambient.Mode, error) {
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "", "auto":
		return s.det.Mode(), nil
	}
	return ambient.ParseMode(mode)
}

// renderCached renders opts through the cache and returns the SVG with the
// instance id it was issued. The cache holds templates, so every response
// gets a fresh id. Options with a custom formatter have no cache key and
// always render fresh.
func (s *Server) renderCached(opts render.Options, mode ambient.Mode) (svg, id string) {
	id = render.NewID()
	key, ok := opts.Key(mode)
	if !ok {
		return render.SVG(opts, mode, id), id
	}
	tmpl, _ := s.cache.GetOrCompute(key, func() (string, error) {
		return render.Template(opts, mode), nil
	})
	return render.Reissue(tmpl, id), id
}

// ============================================================
// Response helpers
// ============================================================

func (s *Server) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("failed to write JSON response", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, APIResponse{
		Success: false,
		Error:   msg,
	})
}

func writeSVG(w http.ResponseWriter, svg string) {
	w.Header().Set("Content-Type", "image/svg+xml")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(svg)) //nolint:errcheck
}
