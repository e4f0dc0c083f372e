package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/Tephenbaay/imagescribeAI/internal/api"
	"github.com/Tephenbaay/imagescribeAI/internal/config"
	"github.com/Tephenbaay/imagescribeAI/internal/history"
	"github.com/Tephenbaay/imagescribeAI/internal/logger"
	"github.com/Tephenbaay/imagescribeAI/internal/repository"
	"github.com/Tephenbaay/imagescribeAI/internal/service"
	"github.com/Tephenbaay/imagescribeAI/internal/storage"
)

func main() {
	appLogger := logger.NewFromEnv(logger.LoadFromEnv("imagescribe-api"))
	logger.SetDefaultLogger(appLogger)
	defer logger.Sync()

	// Support CONFIG_PATH environment variable for production deployments
	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to load config")
	}

	ctx := appLogger.WithContext(context.Background())

	// Histories are read once; new uploads only update memory
	captions := history.Load(ctx, cfg.History.CaptionsFile)
	descriptions := history.Load(ctx, cfg.History.DescriptionsFile)
	appLogger.WithFields(logger.Fields{
		"captions":     captions.Len(),
		"descriptions": descriptions.Len(),
	}).Info("Loaded history")

	objectStorage, err := storage.NewStorage(ctx, &cfg.Paths, &cfg.Storage)
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to initialize storage")
	}

	captioner, err := service.NewCaptionService(service.ModelConfigFrom(cfg.Caption))
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to initialize caption service")
	}
	textGen, err := service.NewTextGenService(service.ModelConfigFrom(cfg.TextGen.ModelConfig), service.GenerationParamsFrom(&cfg.TextGen))
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to initialize text generation service")
	}
	categorizer, err := service.NewCategoryService(service.ModelConfigFrom(cfg.Category.ModelConfig), cfg.Category.Labels)
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to initialize category service")
	}
	enhancer, err := service.NewSentenceEnhancer()
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to initialize text enhancer")
	}
	speech := service.NewSpeechService(&service.SpeechConfig{
		BaseURL: cfg.Speech.BaseURL,
		Lang:    cfg.Speech.Lang,
		Timeout: time.Duration(cfg.Speech.TimeoutSeconds) * time.Second,
	})

	deps := api.Deps{
		Captions:     captions,
		Descriptions: descriptions,
		Logger:       appLogger,
	}
	scribeDeps := service.ScribeDeps{
		Storage:      objectStorage,
		Captioner:    captioner,
		Describer:    service.NewDescriptionService(textGen, enhancer, nil),
		Categorizer:  categorizer,
		Speech:       speech,
		Captions:     captions,
		Descriptions: descriptions,
	}

	if cfg.Database.Enabled {
		db, err := repository.InitDB(&cfg.Database)
		if err != nil {
			appLogger.WithError(err).Fatal("Failed to initialize database")
		}
		defer repository.Close(db)

		sqlDB, err := db.DB()
		if err != nil {
			appLogger.WithError(err).Fatal("Failed to get database handle")
		}
		generationRepo := repository.NewGenerationRepository(db)
		scribeDeps.Generations = generationRepo
		deps.Generations = generationRepo
		deps.DB = sqlDB
	}

	deps.Scribe = service.NewScribeService(scribeDeps, &service.ScribeConfig{
		UploadsDir: filepath.ToSlash(cfg.Paths.UploadsDir),
		AudioDir:   filepath.ToSlash(cfg.Paths.AudioDir),
	})

	router, err := api.SetupRouter(deps, cfg)
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to set up router")
	}

	srv := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		appLogger.WithFields(logger.Fields{
			"addr": srv.Addr,
			"mode": cfg.Server.Mode,
		}).Info("Starting API server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.WithError(err).Fatal("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLogger.WithError(err).Error("Server forced to shutdown")
	}

	appLogger.Info("Server exited")
}
