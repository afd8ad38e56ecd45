// Package server exposes the dashboard page and its JSON API over gin.
package server

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"time"

	"github.com/CZhakshylykova/SDS-CP030-edu-spend/internal/analysis"
	"github.com/CZhakshylykova/SDS-CP030-edu-spend/internal/dataset"
	"github.com/CZhakshylykova/SDS-CP030-edu-spend/internal/model"
	"github.com/CZhakshylykova/SDS-CP030-edu-spend/internal/predict"
	"github.com/gin-gonic/gin"
)

//go:embed templates/*.html
var templates embed.FS

// Options tune the server. Zero values fall back to the dashboard defaults.
type Options struct {
	DefaultDuration int
	DefaultCluster  string
	GinMode         string
}

// Server wires the predictor and the dataset aggregates to HTTP routes.
type Server struct {
	pred   *predict.Predictor
	ds     *dataset.Dataset
	opts   Options
	log    *slog.Logger
	engine *gin.Engine
}

// New builds the gin engine and registers every route.
func New(pred *predict.Predictor, opts Options, logger *slog.Logger) (*Server, error) {
	if pred == nil {
		return nil, fmt.Errorf("server needs a predictor")
	}
	if logger == nil {
		logger = slog.Default()
	}
	if opts.DefaultDuration == 0 {
		opts.DefaultDuration = predict.DefaultDuration
	}
	opts.DefaultDuration = predict.ClampDuration(opts.DefaultDuration)
	if opts.DefaultCluster == "" {
		opts.DefaultCluster = dataset.ColKMeansCluster
	}
	switch opts.GinMode {
	case "":
	case gin.DebugMode, gin.ReleaseMode, gin.TestMode:
		gin.SetMode(opts.GinMode)
	default:
		return nil, fmt.Errorf("unknown gin mode %q (use debug, release or test)", opts.GinMode)
	}

	tmpl, err := template.New("").ParseFS(templates, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}

	s := &Server{pred: pred, ds: pred.Dataset(), opts: opts, log: logger}
	r := gin.New()
	r.Use(requestLogger(logger), gin.Recovery(), cors())
	r.SetHTMLTemplate(tmpl)

	r.GET("/", s.dashboard)
	v1 := r.Group("/api/v1")
	{
		v1.GET("/health", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"status": "ok"})
		})
		v1.GET("/options", s.options)
		v1.GET("/predict", s.predict)
		v1.POST("/predict", s.predict)
		v1.GET("/affordability", s.affordability)
		v1.GET("/affordability.png", s.affordabilityPNG)
		v1.GET("/clusters", s.clusters)
		v1.GET("/clusters.png", s.clustersPNG)
		v1.GET("/clusters.xlsx", s.clustersXLSX)
	}
	s.engine = r
	return s, nil
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler { return s.engine }

// Run serves on addr until ctx is done, then shuts down within grace.
func (s *Server) Run(ctx context.Context, addr string, grace time.Duration) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		defer close(errCh)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()
	s.log.Info("dashboard listening", "addr", addr, "strategy", s.pred.Strategy(), "rows", s.ds.Len())

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("listen %s: %w", addr, err)
		}
		return nil
	case <-ctx.Done():
	}

	s.log.Info("shutting down", "grace", grace)
	sctx, cancel := context.WithTimeout(context.Background(), grace)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// statusFor maps user-facing errors to 400 and everything else to 500.
func statusFor(err error) int {
	switch {
	case errors.Is(err, predict.ErrUnknownSelection),
		errors.Is(err, model.ErrUnknownCategory),
		errors.Is(err, analysis.ErrUnsupportedClusterColumn):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) fail(c *gin.Context, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.log.Error("request failed", "request_id", c.GetString(requestIDKey), "path", c.Request.URL.Path, "error", err)
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
