package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"docchat/config"
	"docchat/internal/ingest"
	"docchat/internal/rag"
	"docchat/internal/session"
	"docchat/provider"
)

// Run wires the pipeline together and serves HTTP until interrupted.
func Run(cfg *config.Config) error {
	e := newEcho()

	prov, err := provider.NewProvider(provider.OpenAI, cfg.Providers.OpenAI)
	if err != nil {
		return err
	}

	store := session.NewStore()
	metrics := rag.NewMetrics(prometheus.DefaultRegisterer, func() float64 { return float64(store.Len()) })
	pipeline := rag.NewPipeline(
		ingest.NewAutoDetect(),
		prov,
		store,
		rag.Options{
			TopK:         cfg.Retrieval.TopK,
			ChunkSize:    cfg.Retrieval.ChunkSize,
			ChunkOverlap: cfg.Retrieval.ChunkOverlap,
		},
		nil,
		metrics,
	)

	reaper := session.NewReaper(store, cfg.Session.TTL, cfg.Session.ReapInterval, nil)
	reaper.OnEvict = func(n int) { metrics.SessionsReaped.Add(float64(n)) }
	reaper.Start()
	defer reaper.Stop()

	h := &RagHandler{Pipeline: pipeline, MaxUploadBytes: cfg.Server.MaxUploadBytes}
	h.Register(e)

	e.GET("/healthz", func(c echo.Context) error { return c.String(http.StatusOK, "ok") })
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	// Web UI: serve static assets with index.html fallback for client-side
	// routing.
	if cfg.Server.StaticDir != "" {
		e.Use(middleware.StaticWithConfig(middleware.StaticConfig{
			Root:  cfg.Server.StaticDir,
			HTML5: true,
		}))
	}

	return serveUntilSignal(e, cfg.Server.Address)
}

func newEcho() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())

	baseLogger := log.New(log.Writer(), "[HTTP] ", log.LstdFlags)
	e.HTTPErrorHandler = func(err error, c echo.Context) {
		code := http.StatusInternalServerError
		msg := err.Error()
		if he, ok := err.(*echo.HTTPError); ok {
			code = he.Code
			if he.Message != nil {
				msg = fmt.Sprint(he.Message)
			}
		}
		req := c.Request()
		baseLogger.Printf("%d %s %s from %s: %v", code, req.Method, req.URL.Path, c.RealIP(), err)
		if !c.Response().Committed {
			_ = c.JSON(code, map[string]interface{}{"error": msg})
		}
	}

	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type", "Cookie"},
		AllowCredentials: true,
	}))
	return e
}

func serveUntilSignal(e *echo.Echo, addr string) error {
	if addr == "" {
		addr = ":8000"
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("listening on %s", addr)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return err
	case <-quit:
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return e.Shutdown(ctx)
}
