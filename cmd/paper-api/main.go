package main

import (
	"fmt"
	"log"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/objective-paper-api/internal/handler"
	"github.com/noah-isme/objective-paper-api/internal/render"
	"github.com/noah-isme/objective-paper-api/internal/repository"
	"github.com/noah-isme/objective-paper-api/internal/service"
	"github.com/noah-isme/objective-paper-api/internal/upstream"
	"github.com/noah-isme/objective-paper-api/pkg/cache"
	"github.com/noah-isme/objective-paper-api/pkg/config"
	"github.com/noah-isme/objective-paper-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/objective-paper-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/objective-paper-api/pkg/middleware/requestid"
	"github.com/noah-isme/objective-paper-api/pkg/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to redis", "error", err)
	}
	defer redisClient.Close() //nolint:errcheck

	exportStore, err := storage.NewLocalStorage(cfg.Export.StorageDir)
	if err != nil {
		logr.Sugar().Fatalw("failed to prepare export storage", "error", err)
	}

	// A missing logo file is tolerated: the PDF header drops it and the Word
	// document falls back to the embedded placeholder.
	logo, err := os.ReadFile(cfg.Export.LogoPath)
	if err != nil {
		logr.Sugar().Warnw("logo not readable, exports use fallback", "path", cfg.Export.LogoPath, "error", err)
		logo = nil
	}

	metrics := service.NewMetricsService()
	sessionRepo := repository.NewSessionRepository(redisClient, cfg.Session.KeyPrefix, cfg.Session.TTL, logr)
	bank := upstream.NewQuestionBankClient(cfg.Upstream, logr)
	images := upstream.NewImageProxyClient(cfg.Upstream, logr)

	sessions := service.NewSessionService(sessionRepo, images, logr)
	renderers := map[render.Format]render.Renderer{
		render.FormatPDF:  render.NewPDFRenderer(logo),
		render.FormatWord: render.NewDocxRenderer(logo),
	}
	papers := service.NewPaperService(sessions, bank, images, renderers, exportStore, metrics, logr)

	paperHandler := handler.NewPaperHandler(papers, sessions)
	metricsHandler := handler.NewMetricsHandler(metrics)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/ready", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metricsHandler.Prometheus)

	api := r.Group(cfg.APIPrefix)
	{
		api.POST("/papers/upload", paperHandler.Upload)
		api.POST("/papers/generate", paperHandler.Generate)
		api.GET("/papers/:sessionId", paperHandler.Preview)
		api.PATCH("/papers/:sessionId/questions/:index/text", paperHandler.UpdateQuestionText)
		api.PUT("/papers/:sessionId/questions/:index", paperHandler.ReplaceQuestion)
		api.PUT("/papers/:sessionId/overrides", paperHandler.SetOverrides)
		api.DELETE("/papers/:sessionId", paperHandler.Discard)
		api.GET("/papers/:sessionId/download", paperHandler.Download)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
