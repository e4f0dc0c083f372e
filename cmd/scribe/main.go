package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/Tephenbaay/imagescribeAI/internal/config"
	"github.com/Tephenbaay/imagescribeAI/internal/history"
	"github.com/Tephenbaay/imagescribeAI/internal/logger"
	"github.com/Tephenbaay/imagescribeAI/internal/repository"
	"github.com/Tephenbaay/imagescribeAI/internal/service"
	"github.com/Tephenbaay/imagescribeAI/internal/source"
	"github.com/Tephenbaay/imagescribeAI/internal/source/localdir"
	"github.com/Tephenbaay/imagescribeAI/internal/source/manifest"
)

func main() {
	appLogger := logger.NewFromEnv(logger.LoadFromEnv("imagescribe-batch"))
	logger.SetDefaultLogger(appLogger)
	defer logger.Sync()

	sourceType := flag.String("source", "localdir", "Image source: localdir or manifest")
	dir := flag.String("dir", "", "Directory to read images (or manifest.jsonl) from")
	limit := flag.Int("limit", 100, "Maximum number of images to process")
	force := flag.Bool("force", false, "Re-caption images already in the captions file")
	record := flag.Bool("record", false, "Also record each image in the database")
	configPath := flag.String("config", "", "Path to config file")
	flag.Parse()

	if *dir == "" {
		appLogger.Fatal("-dir is required")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to load config")
	}

	var src source.Source
	switch *sourceType {
	case "localdir":
		src = localdir.NewAdapter(*dir)
	case "manifest":
		src = manifest.NewAdapter(*dir)
	default:
		appLogger.WithField("source", *sourceType).Fatal("Unknown source type")
	}

	ctx, cancel := context.WithCancel(appLogger.WithContext(context.Background()))
	defer cancel()

	captioner, err := service.NewCaptionService(service.ModelConfigFrom(cfg.Caption))
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to initialize caption service")
	}
	textGen, err := service.NewTextGenService(service.ModelConfigFrom(cfg.TextGen.ModelConfig), service.GenerationParamsFrom(&cfg.TextGen))
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to initialize text generation service")
	}
	enhancer, err := service.NewSentenceEnhancer()
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to initialize text enhancer")
	}

	done := history.Load(ctx, cfg.History.CaptionsFile)

	captionsOut, err := history.OpenWriter(cfg.History.CaptionsFile, "Caption")
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to open captions file")
	}
	defer captionsOut.Close()
	descriptionsOut, err := history.OpenWriter(cfg.History.DescriptionsFile, "Description")
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to open descriptions file")
	}
	defer descriptionsOut.Close()

	var generations service.GenerationStore
	if *record && cfg.Database.Enabled {
		db, err := repository.InitDB(&cfg.Database)
		if err != nil {
			appLogger.WithError(err).Fatal("Failed to initialize database")
		}
		defer repository.Close(db)
		generations = repository.NewGenerationRepository(db)
	}

	batchService := service.NewBatchService(
		captioner,
		service.NewDescriptionService(textGen, enhancer, nil),
		captionsOut,
		descriptionsOut,
		generations,
		&service.BatchConfig{
			Workers:   cfg.Batch.Workers,
			BatchSize: cfg.Batch.BatchSize,
		},
	)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		appLogger.Info("Received shutdown signal, canceling...")
		cancel()
	}()

	stats, err := batchService.Run(ctx, src, *limit, &service.BatchOptions{
		Done:  done,
		Force: *force,
	})
	if err != nil {
		appLogger.WithError(err).Error("Batch run stopped early")
	}
	appLogger.WithFields(logger.Fields{
		"source":    src.GetDisplayName(),
		"total":     stats.TotalItems,
		"processed": stats.ProcessedItems,
		"skipped":   stats.SkippedItems,
		"failed":    stats.FailedItems,
	}).Info("Batch completed")
}
