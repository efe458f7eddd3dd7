package server

import (
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

// RouterConfig holds the handler dependencies for routing.
type RouterConfig struct {
	Positions *PositionHandler
	Admin     *AdminHandler
}

// SetupRoutes configures the HTTP surface.
func SetupRoutes(e *echo.Echo, config *RouterConfig) {
	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())

	api := e.Group("/api")

	api.POST("/positions", config.Positions.Open)
	api.GET("/positions/:id", config.Positions.Get)
	api.POST("/positions/:id/close", config.Positions.Close)
	api.PUT("/positions/:id/take-profit", config.Positions.UpdateTakeProfit)
	api.PUT("/positions/:id/stop-loss", config.Positions.UpdateStopLoss)
	api.POST("/positions/:id/liquidate", config.Positions.Liquidate)

	api.GET("/owners/:owner/positions", config.Positions.ListByOwner)
	api.GET("/pool", config.Positions.Pool)

	admin := api.Group("/admin")
	{
		admin.POST("/instruments", config.Admin.UpsertInstrument)
		admin.GET("/instruments", config.Admin.ListInstruments)
		admin.POST("/feeds", config.Admin.RegisterFeed)
		admin.PUT("/oracle/config", config.Admin.SetOracleConfig)
		admin.PUT("/spread", config.Admin.SetSpread)
	}
}
