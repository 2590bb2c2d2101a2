package main

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/linkethq/linket/cmd/linket/container"
	"github.com/linkethq/linket/cmd/linket/middleware"
	"github.com/linkethq/linket/cmd/linket/routes"
	"github.com/linkethq/linket/common/bootstrap"
	"github.com/linkethq/linket/common/server"
)

func main() {
	ctx := context.Background()

	// Bootstrap common components (config, logger, DB, Redis)
	components, err := bootstrap.Setup(ctx, "linket")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to bootstrap linket: %v\n", err)
		os.Exit(1)
	}
	defer components.Shutdown(ctx)

	// Initialize service container (singleton pattern - all services created once)
	serviceContainer, err := container.NewContainer(components)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize service container: %v\n", err)
		os.Exit(1)
	}
	defer serviceContainer.Shutdown()

	e := setupEcho()
	setupMiddleware(e)
	setupHealthCheck(e, serviceContainer)
	registerRoutes(e, serviceContainer)

	startServer(e, components)
}

// setupEcho initializes the Echo server with basic configuration
func setupEcho() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	return e
}

// setupMiddleware configures all middleware for the Echo server
func setupMiddleware(e *echo.Echo) {
	e.Use(echomiddleware.Logger())
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORS())
	e.Use(echomiddleware.RequestID())
	e.Use(middleware.ExtractUserID())
}

// setupHealthCheck registers the health check endpoint
func setupHealthCheck(e *echo.Echo, c *container.Container) {
	e.GET("/health", func(ec echo.Context) error {
		status := "ok"
		code := http.StatusOK
		if err := c.Components.Health(ec.Request().Context()); err != nil {
			status = err.Error()
			code = http.StatusServiceUnavailable
		}
		return ec.JSON(code, map[string]interface{}{
			"status":           status,
			"service":          "linket",
			"store_configured": c.ClaimService != nil,
		})
	})
}

// registerRoutes registers all application routes using the service container
func registerRoutes(e *echo.Echo, serviceContainer *container.Container) {
	routes.RegisterRedirectRoutes(e, serviceContainer)
	routes.RegisterLinketRoutes(e, serviceContainer)
	routes.RegisterMintRoutes(e, serviceContainer)
}

// startServer runs the server until it fails or a shutdown signal arrives
func startServer(e *echo.Echo, components *bootstrap.Components) {
	srv := server.New("linket", components.Config.Service.Port, e, components.Logger)
	if err := srv.Start(); err != nil {
		components.Logger.Error("Server error", "error", err)
		os.Exit(1)
	}
}
