package core

import (
	"context"
	"net/http"
	"time"

	"github.com/anoixa/photo-share/cache"
	"github.com/anoixa/photo-share/config"
	"github.com/anoixa/photo-share/database"
	"github.com/anoixa/photo-share/storage"
	"github.com/gin-gonic/gin"
)

var startTime = time.Now()

func checkDatabaseHealth(provider database.Provider) string {
	if provider == nil {
		return "not initialized"
	}
	if err := provider.Ping(); err != nil {
		return "unavailable: " + err.Error()
	}
	return "ok"
}

func checkCacheHealth(ctx context.Context, provider cache.Provider) string {
	if provider == nil {
		return "not initialized"
	}
	if err := provider.Health(ctx); err != nil {
		return "error: " + err.Error()
	}
	return "ok"
}

func checkStorageHealth(ctx context.Context, provider storage.Provider) string {
	if provider == nil {
		return "not initialized"
	}
	if err := provider.Health(ctx); err != nil {
		return "error: " + err.Error()
	}
	return "ok"
}

// healthHandler 检查数据库、缓存、存储，任一失败返回 503
func healthHandler(deps *RouterDependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		checks := gin.H{
			"database": checkDatabaseHealth(deps.DB),
			"cache":    checkCacheHealth(ctx, deps.Cache),
			"storage":  checkStorageHealth(ctx, deps.Storage),
		}

		httpStatus := http.StatusOK
		for _, result := range checks {
			if result != "ok" {
				httpStatus = http.StatusServiceUnavailable
				break
			}
		}

		c.JSON(httpStatus, gin.H{
			"status":  "ok",
			"uptime":  time.Since(startTime).Round(time.Second).String(),
			"version": config.Version,
			"checks":  checks,
		})
	}
}
