package server

import (
	"errors"
	"net/http"

	"github.com/gin-contrib/pprof"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/kaayjang/kaayjang-web/internal/pkg/cache"
)

// StartPprofServer starts the pprof server on a separate port. This should
// only be accessible internally or via SSH tunnel.
func StartPprofServer(addr string, caches *cache.CacheManager, logger *zap.Logger) *http.Server {
	srv := &http.Server{Addr: addr, Handler: pprofRouter(caches, logger)}
	go func() {
		logger.Info("Starting pprof server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("pprof server stopped", zap.Error(err))
		}
	}()
	return srv
}

// pprofRouter serves the profiles and the cache counters. DELETE on
// /debug/cache drops the cached curriculum and banners so backend edits show
// up before the TTL runs out.
func pprofRouter(caches *cache.CacheManager, logger *zap.Logger) *gin.Engine {
	r := gin.New()
	pprof.Register(r)
	r.GET("/debug/cache", func(c *gin.Context) {
		c.JSON(http.StatusOK, caches.GetAllMetrics())
	})
	r.DELETE("/debug/cache", func(c *gin.Context) {
		caches.ClearAll()
		logger.Info("Caches cleared from debug endpoint")
		c.Status(http.StatusNoContent)
	})
	return r
}
