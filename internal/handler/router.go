package handler

import (
	"net/http"

	"github.com/GoPolymarket/vesu-deployer/internal/config"
	"github.com/GoPolymarket/vesu-deployer/internal/middleware"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"
)

// NewRouter wires the read-only inspector API.
func NewRouter(cfg *config.Config, deployments DeploymentLister, pools PoolReader) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogMiddleware())
	r.Use(middleware.ErrorHandler())
	if cfg.Metrics.Enabled {
		r.Use(middleware.MetricsMiddleware())
		path := cfg.Metrics.Path
		if path == "" {
			path = "/metrics"
		}
		r.GET(path, gin.WrapH(promhttp.Handler()))
	}

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "network": cfg.Network})
	})

	var limiter *rate.Limiter
	if cfg.Server.RequestsPerSecond > 0 {
		burst := cfg.Server.Burst
		if burst <= 0 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.Server.RequestsPerSecond), burst)
	}

	deploymentHandler := NewDeploymentHandler(deployments)
	poolHandler := NewPoolHandler(pools)

	v1 := r.Group("/v1")
	v1.Use(middleware.RateLimitMiddleware(limiter))
	{
		v1.GET("/deployments", deploymentHandler.List)
		v1.GET("/pools/:name", poolHandler.Params)
		v1.GET("/pools/:name/rates/:asset", poolHandler.Rates)
	}
	return r
}
