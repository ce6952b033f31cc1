package httpapi

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/transit-complaints/backend/internal/config"
	"github.com/transit-complaints/backend/internal/http/handlers"
	"github.com/transit-complaints/backend/internal/http/middleware"
	"github.com/transit-complaints/backend/internal/settings"

	_ "github.com/transit-complaints/backend/docs"
)

func Router(cfg config.Config, store handlers.Pinger, complaints handlers.ComplaintService, gate *settings.Gate, metricsHandler http.Handler, logger zerolog.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))

	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Admin-Key", "X-Request-Id", handlers.ActorHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if cfg.CORSAllowed == "*" {
		corsCfg.AllowAllOrigins = true
		corsCfg.AllowCredentials = false
	} else {
		corsCfg.AllowOrigins = []string{cfg.CORSAllowed}
	}
	r.Use(cors.New(corsCfg))

	h := &handlers.Handler{
		Store:      store,
		Complaints: complaints,
		Settings:   gate,
		Validator:  validator.New(),
		Logger:     logger,
	}

	r.GET("/healthz", h.Healthz)
	if metricsHandler != nil {
		r.GET("/metrics", gin.WrapH(metricsHandler))
	}

	api := r.Group("/api")
	{
		api.POST("/complaints", middleware.Maintenance(gate), h.ComplaintCreate)
		api.GET("/complaints", h.ComplaintsList)
		api.GET("/complaints/:id", h.ComplaintDetails)
	}

	staff := api.Group("")
	staff.Use(middleware.AdminKey(cfg.AdminKey))
	{
		staff.POST("/complaints/:id/prioritize", h.ComplaintPrioritize)
		staff.PATCH("/complaints/:id/status", h.ComplaintStatus)
		staff.GET("/settings/:key", h.SettingGet)
		staff.PUT("/settings/:key", h.SettingPut)
	}

	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	return r
}
