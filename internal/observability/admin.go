package observability

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

// StatsFunc reports per-link framing state for the /links route.
type StatsFunc func() any

// Admin is a small HTTP surface exposing health, link stats and metrics.
type Admin struct {
	Name     string
	Addr     string
	Appeared time.Time

	router *gin.Engine
	stats  StatsFunc
}

func NewAdmin(name, addr string, corsOrigins []string, stats StatsFunc) *Admin {
	RegisterMetrics()
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestLogger(log.Logger))
	r.Use(RequestMetricsMiddleware(name))
	if len(corsOrigins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins: corsOrigins,
			AllowMethods: []string{"GET"},
			AllowHeaders: []string{"Origin", "Content-Type"},
			MaxAge:       12 * time.Hour,
		}))
	}
	if err := r.SetTrustedProxies([]string{"127.0.0.1", "::1"}); err != nil {
		log.Warn().Err(err).Str("name", name).Msg("admin_trusted_proxies_failed")
	}

	a := &Admin{Name: name, Addr: addr, Appeared: time.Now(), router: r, stats: stats}
	a.registerRoutes()
	return a
}

func (a *Admin) Handler() http.Handler {
	return a.router
}

func (a *Admin) registerRoutes() {
	a.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"uptime":  time.Since(a.Appeared).String(),
			"service": a.Name,
		})
	})
	a.router.GET("/links", func(c *gin.Context) {
		if a.stats == nil {
			c.JSON(http.StatusOK, gin.H{"links": []any{}})
			return
		}
		c.JSON(http.StatusOK, gin.H{"links": a.stats()})
	})
	a.router.GET("/metrics", gin.WrapH(promhttp.Handler()))
}

// Serve blocks until ctx is done or the listener fails.
func (a *Admin) Serve(ctx context.Context) error {
	srv := &http.Server{
		Addr:              a.Addr,
		Handler:           a.router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("name", a.Name).Str("addr", a.Addr).Msg("admin_listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Str("name", a.Name).Msg("admin_shutdown_failed")
			return err
		}
		return nil
	}
}
