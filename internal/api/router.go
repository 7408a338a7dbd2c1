package api

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter wires middleware, the Prometheus endpoint and h's routes. A
// non-positive rps disables rate limiting.
func NewRouter(h *Handler, rps float64) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: false, // Set to false when using wildcard origins
	}))
	if rps > 0 {
		router.Use(RateLimitMiddleware(rps))
	}

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	h.RegisterRoutes(router)
	return router
}
