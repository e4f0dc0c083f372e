package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Tephenbaay/imagescribeAI/internal/domain"
	"github.com/Tephenbaay/imagescribeAI/internal/history"
	"github.com/Tephenbaay/imagescribeAI/internal/logger"
	"github.com/Tephenbaay/imagescribeAI/internal/source"
	"github.com/google/uuid"
)

// BatchService captions and describes a whole image source offline and
// appends the results to the history files the web app loads at startup.
type BatchService struct {
	captioner    Captioner
	describer    Describer
	captions     *history.Writer
	descriptions *history.Writer
	generations  GenerationStore
	workers      int
	batchSize    int
}

// BatchConfig holds configuration for the batch service
type BatchConfig struct {
	Workers   int
	BatchSize int
}

// NewBatchService creates a new batch service. generations may be nil.
func NewBatchService(
	captioner Captioner,
	describer Describer,
	captions *history.Writer,
	descriptions *history.Writer,
	generations GenerationStore,
	cfg *BatchConfig,
) *BatchService {
	workers, batchSize := cfg.Workers, cfg.BatchSize
	if workers <= 0 {
		workers = 1
	}
	if batchSize <= 0 {
		batchSize = 10
	}
	return &BatchService{
		captioner:    captioner,
		describer:    describer,
		captions:     captions,
		descriptions: descriptions,
		generations:  generations,
		workers:      workers,
		batchSize:    batchSize,
	}
}

// BatchStats holds statistics for a batch run
type BatchStats struct {
	TotalItems     int64
	ProcessedItems int64
	SkippedItems   int64
	FailedItems    int64
	StartTime      time.Time
	EndTime        time.Time
}

// BatchOptions holds options for a batch run
type BatchOptions struct {
	// Done lists filenames that already have a caption; they are skipped
	// unless Force is set.
	Done  *history.Store
	Force bool
}

type batchResult struct {
	sourceID string
	skipped  bool
	err      error
}

var errAlreadyCaptioned = errors.New("skipped: already captioned")

// Run processes up to limit items from src.
func (s *BatchService) Run(ctx context.Context, src source.Source, limit int, opts *BatchOptions) (*BatchStats, error) {
	if opts == nil {
		opts = &BatchOptions{}
	}

	stats := &BatchStats{
		StartTime: time.Now(),
	}

	ctx = logger.SetComponent(ctx, "batch")
	logger.FromContext(ctx).WithFields(logger.Fields{
		"source": src.GetSourceID(),
		"limit":  limit,
		"force":  opts.Force,
	}).Info("Starting batch run")

	itemsChan := make(chan source.ImageItem, s.workers*2)
	resultsChan := make(chan *batchResult, s.workers*2)

	var wg sync.WaitGroup
	for i := 0; i < s.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.worker(ctx, itemsChan, resultsChan, opts)
		}()
	}

	done := make(chan struct{})
	go func() {
		for result := range resultsChan {
			atomic.AddInt64(&stats.ProcessedItems, 1)
			if result.skipped {
				atomic.AddInt64(&stats.SkippedItems, 1)
			} else if result.err != nil {
				atomic.AddInt64(&stats.FailedItems, 1)
				logger.FromContext(ctx).WithField("source_id", result.sourceID).
					WithError(result.err).Error("Failed to process item")
			}
		}
		close(done)
	}()

	var fetchErr error
	cursor := ""
	totalFetched := 0
feed:
	for ctx.Err() == nil {
		remaining := limit - totalFetched
		if remaining <= 0 {
			break
		}

		batchLimit := s.batchSize
		if batchLimit > remaining {
			batchLimit = remaining
		}

		items, nextCursor, err := src.FetchBatch(ctx, cursor, batchLimit)
		if err != nil {
			fetchErr = fmt.Errorf("failed to fetch batch: %w", err)
			break
		}
		if len(items) == 0 {
			break
		}

		atomic.AddInt64(&stats.TotalItems, int64(len(items)))
		totalFetched += len(items)

		for _, item := range items {
			select {
			case itemsChan <- item:
			case <-ctx.Done():
				break feed
			}
		}

		if nextCursor == "" {
			break
		}
		cursor = nextCursor
	}

	close(itemsChan)
	wg.Wait()

	close(resultsChan)
	<-done

	stats.EndTime = time.Now()

	logger.With(logger.Fields{
		"total":     stats.TotalItems,
		"processed": stats.ProcessedItems,
		"skipped":   stats.SkippedItems,
		"failed":    stats.FailedItems,
	}).WithDuration(stats.EndTime.Sub(stats.StartTime).Milliseconds()).Info(ctx, "Batch run completed")

	return stats, fetchErr
}

func (s *BatchService) worker(ctx context.Context, items <-chan source.ImageItem, results chan<- *batchResult, opts *BatchOptions) {
	for item := range items {
		if ctx.Err() != nil {
			return
		}

		result := &batchResult{sourceID: item.SourceID}
		if err := s.processItem(ctx, &item, opts); err != nil {
			if errors.Is(err, errAlreadyCaptioned) {
				result.skipped = true
			} else {
				result.err = err
			}
		}
		results <- result
	}
}

func (s *BatchService) processItem(ctx context.Context, item *source.ImageItem, opts *BatchOptions) error {
	if !opts.Force && opts.Done != nil {
		if _, ok := opts.Done.Get(item.Filename); ok {
			return errAlreadyCaptioned
		}
	}

	data, err := os.ReadFile(item.LocalPath)
	if err != nil {
		return fmt.Errorf("failed to read image: %w", err)
	}

	img, err := PrepareImage(data)
	if err != nil {
		return err
	}

	caption, err := s.captioner.Caption(ctx, img)
	if err != nil {
		return &StageError{Stage: domain.StageValidated, Err: err}
	}

	description, err := s.describer.Describe(ctx, caption)
	if err != nil {
		return &StageError{Stage: domain.StageCaptioned, Err: err}
	}

	if err := s.captions.Append(item.Filename, caption); err != nil {
		return err
	}
	if err := s.descriptions.Append(item.Filename, description.Joined()); err != nil {
		return err
	}

	if s.generations != nil {
		gen := &domain.Generation{
			ID:                uuid.New().String(),
			Filename:          item.Filename,
			OriginalName:      item.SourceID,
			Caption:           caption,
			FirstDescription:  description.First,
			SecondDescription: description.Second,
			Stage:             domain.StageDescribed,
			Status:            domain.GenerationStatusCompleted,
		}
		if err := s.generations.Create(ctx, gen); err != nil {
			logger.FromContext(ctx).WithError(err).Warn("Failed to record generation")
		}
	}
	return nil
}
