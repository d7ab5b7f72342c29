package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

func registerHealthRoutes(router *gin.Engine, deps Deps) {
	router.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":      "ok",
			"app_name":    deps.Config.App.Name,
			"version":     deps.Config.App.Version,
			"environment": deps.Config.App.Environment,
		})
	})

	router.GET("/health/ready", func(c *gin.Context) {
		if deps.StoreClient != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
			defer cancel()
			if _, err := deps.StoreClient.BucketExists(ctx, deps.Config.Storage.Bucket); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{
					"status": "degraded",
					"detail": "object store unreachable",
				})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
}
