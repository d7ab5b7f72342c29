// Package server assembles the HTTP router from the feature packages.
package server

import (
	"github.com/gin-gonic/gin"
	"github.com/minio/minio-go/v7"

	"github.com/sjw787/HovverAdminDashboard/internal/config"
	"github.com/sjw787/HovverAdminDashboard/internal/customer"
	"github.com/sjw787/HovverAdminDashboard/internal/identity"
	"github.com/sjw787/HovverAdminDashboard/internal/image"
	"github.com/sjw787/HovverAdminDashboard/internal/logger"
	"github.com/sjw787/HovverAdminDashboard/internal/metrics"
)

// Deps carries everything the router needs.
type Deps struct {
	Config      config.Config
	Verifier    *identity.Verifier
	Identity    *identity.Service
	Customers   *customer.Service
	Images      *image.Service
	StoreClient *minio.Client
}

// NewRouter builds the gin engine with all routes and middleware attached.
func NewRouter(deps Deps) *gin.Engine {
	if deps.Config.App.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(logger.Middleware())

	metrics.InitMetrics()
	router.Use(metrics.Middleware())
	metrics.Register(router, deps.Config.Metrics.PrometheusPath)

	registerHealthRoutes(router, deps)

	authenticated := identity.AuthMiddleware(deps.Verifier)

	auth := router.Group("/auth")
	identity.RegisterPublicRoutes(auth, deps.Identity)
	authProtected := router.Group("/auth")
	authProtected.Use(authenticated)
	identity.RegisterProtectedRoutes(authProtected, deps.Identity)

	customers := router.Group("/customers")
	customers.Use(authenticated, identity.RequireAdmin())
	deps.Customers.RegisterRoutes(customers)

	images := router.Group("/images")
	images.Use(authenticated)
	deps.Images.RegisterRoutes(images)

	return router
}
