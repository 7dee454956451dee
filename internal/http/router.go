package httpapi

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/d2cmedia/syndesk/internal/analytics"
	"github.com/d2cmedia/syndesk/internal/config"
	"github.com/d2cmedia/syndesk/internal/db"
	"github.com/d2cmedia/syndesk/internal/http/handlers"
	"github.com/d2cmedia/syndesk/internal/http/middleware"
	"github.com/d2cmedia/syndesk/internal/refdata"
	"github.com/d2cmedia/syndesk/internal/service"

	_ "github.com/d2cmedia/syndesk/docs"
)

func Router(cfg config.Config, store *db.Store, processor *service.ProcessingService, ref *refdata.Tables, logger zerolog.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.MaxMultipartMemory = cfg.MaxUploadSizeMB << 20

	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Admin-Key", "X-Request-Id"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if cfg.CORSAllowed == "*" {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = []string{cfg.CORSAllowed}
	}
	r.Use(cors.New(corsCfg))

	h := &handlers.Handler{
		Store:     store,
		Processor: processor,
		Ref:       ref,
		Health:    analytics.NewHealthEngine(),
		Sales:     analytics.NewSalesEngine(),
		Upsell:    analytics.NewUpsellEngine(),
		Validator: validator.New(),
		Logger:    logger,
		AdminKey:  cfg.AdminKey,
	}

	r.GET("/healthz", h.Healthz)

	api := r.Group("/api")
	{
		api.POST("/classify", h.Classify)
		api.GET("/classifications", h.ClassificationsList)
		api.GET("/classifications/:ticket_id", h.ClassificationDetails)
		api.GET("/cancellations", h.CancellationsList)
		api.GET("/runs/latest", h.RunsLatest)
		api.GET("/analytics/health", h.PortfolioHealth)
		api.GET("/analytics/health/:dealer_id", h.DealerHealth)
		api.GET("/analytics/churn/:dealer_id", h.DealerChurn)
		api.POST("/analytics/sales", h.SalesOpportunity)
		api.POST("/analytics/upsell", h.UpsellOpportunity)
	}

	admin := api.Group("")
	admin.Use(middleware.AdminKey(cfg.AdminKey))
	{
		admin.POST("/import", h.Import)
		admin.POST("/process", h.Process)
		admin.POST("/tickets/:id/automate", h.Automate)
	}

	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	return r
}
