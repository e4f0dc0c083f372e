package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"path"
	"time"

	"github.com/Tephenbaay/imagescribeAI/internal/domain"
	"github.com/Tephenbaay/imagescribeAI/internal/history"
	"github.com/Tephenbaay/imagescribeAI/internal/logger"
	"github.com/Tephenbaay/imagescribeAI/internal/storage"
	"github.com/google/uuid"
)

// Describer expands a caption into a two-paragraph description.
type Describer interface {
	Describe(ctx context.Context, caption string) (domain.Description, error)
}

// GenerationStore persists processed uploads.
type GenerationStore interface {
	Create(ctx context.Context, g *domain.Generation) error
}

// StageError reports the pipeline stage at which an upload failed.
type StageError struct {
	Stage domain.Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// FailedStage returns the stage recorded in err, if any.
func FailedStage(err error) (domain.Stage, bool) {
	var stageErr *StageError
	if errors.As(err, &stageErr) {
		return stageErr.Stage, true
	}
	return "", false
}

// ScribeRequest is one uploaded image.
type ScribeRequest struct {
	OriginalName string
	Data         []byte
}

// ScribeResult is everything the result page shows.
type ScribeResult struct {
	Generation          *domain.Generation
	ImageURL            string
	CaptionAudioURL     string
	DescriptionAudioURL string
}

// ScribeConfig names the storage prefixes of uploads and audio.
type ScribeConfig struct {
	UploadsDir string
	AudioDir   string
}

// ScribeService runs an upload through the full pipeline: store, caption,
// describe, categorize, remember, speak, persist.
type ScribeService struct {
	storage      storage.ObjectStorage
	captioner    Captioner
	describer    Describer
	categorizer  Categorizer
	speech       SpeechSynthesizer
	captions     *history.Store
	descriptions *history.Store
	generations  GenerationStore
	uploadsDir   string
	audioDir     string
}

// ScribeDeps bundles the collaborators of ScribeService. Generations may be
// nil when no database is configured.
type ScribeDeps struct {
	Storage      storage.ObjectStorage
	Captioner    Captioner
	Describer    Describer
	Categorizer  Categorizer
	Speech       SpeechSynthesizer
	Captions     *history.Store
	Descriptions *history.Store
	Generations  GenerationStore
}

// NewScribeService creates the upload pipeline.
func NewScribeService(deps ScribeDeps, cfg *ScribeConfig) *ScribeService {
	uploadsDir, audioDir := "uploads", "audio"
	if cfg != nil {
		if cfg.UploadsDir != "" {
			uploadsDir = cfg.UploadsDir
		}
		if cfg.AudioDir != "" {
			audioDir = cfg.AudioDir
		}
	}
	return &ScribeService{
		storage:      deps.Storage,
		captioner:    deps.Captioner,
		describer:    deps.Describer,
		categorizer:  deps.Categorizer,
		speech:       deps.Speech,
		captions:     deps.Captions,
		descriptions: deps.Descriptions,
		generations:  deps.Generations,
		uploadsDir:   uploadsDir,
		audioDir:     audioDir,
	}
}

// Process handles one upload. On failure the returned error is a
// *StageError and a failed Generation is recorded; side effects of earlier
// stages are kept.
func (s *ScribeService) Process(ctx context.Context, req ScribeRequest) (*ScribeResult, error) {
	start := time.Now()
	filename := storage.SafeFilename(req.OriginalName)
	ctx = logger.WithField(ctx, logger.FieldFilename, filename)

	gen := &domain.Generation{
		ID:           uuid.New().String(),
		Filename:     filename,
		OriginalName: req.OriginalName,
		Stage:        domain.StageReceived,
	}
	result := &ScribeResult{Generation: gen}

	if err := s.run(ctx, gen, result, req.Data); err != nil {
		gen.Status = domain.GenerationStatusFailed
		gen.Error = err.Error()
		s.persist(ctx, gen)
		return nil, &StageError{Stage: gen.Stage, Err: err}
	}

	gen.Status = domain.GenerationStatusCompleted
	s.persist(ctx, gen)

	logger.With(logger.Fields{
		logger.FieldSize: len(req.Data),
	}).WithDuration(time.Since(start).Milliseconds()).Info(ctx, "Processed upload %s", filename)
	return result, nil
}

// run advances gen stage by stage. gen.Stage is the last stage completed.
func (s *ScribeService) run(ctx context.Context, gen *domain.Generation, result *ScribeResult, data []byte) error {
	gen.ImageKey = path.Join(s.uploadsDir, gen.Filename)
	if err := s.storage.Upload(ctx, gen.ImageKey, bytes.NewReader(data), int64(len(data)), http.DetectContentType(data)); err != nil {
		return fmt.Errorf("failed to save upload: %w", err)
	}
	result.ImageURL = s.storage.GetURL(gen.ImageKey)

	img, err := PrepareImage(data)
	if err != nil {
		return err
	}
	s.advance(ctx, gen, domain.StageValidated)

	caption, err := s.captioner.Caption(ctx, img)
	if err != nil {
		return err
	}
	gen.Caption = caption
	s.advance(ctx, gen, domain.StageCaptioned)

	description, err := s.describer.Describe(ctx, caption)
	if err != nil {
		return err
	}
	gen.FirstDescription = description.First
	gen.SecondDescription = description.Second
	s.advance(ctx, gen, domain.StageDescribed)

	category, err := s.categorizer.Categorize(ctx, img)
	if err != nil {
		return err
	}
	gen.Category = category
	s.advance(ctx, gen, domain.StageCategorized)

	s.captions.Set(gen.Filename, caption)
	s.descriptions.Set(gen.Filename, description.Joined())

	captionKey := path.Join(s.audioDir, gen.Filename+"_caption.mp3")
	if err := s.speak(ctx, captionKey, caption); err != nil {
		return err
	}
	gen.CaptionAudioKey = captionKey
	result.CaptionAudioURL = s.storage.GetURL(captionKey)

	descriptionKey := path.Join(s.audioDir, gen.Filename+"_description.mp3")
	if err := s.speak(ctx, descriptionKey, description.First+" "+description.Second); err != nil {
		return err
	}
	gen.DescriptionAudioKey = descriptionKey
	result.DescriptionAudioURL = s.storage.GetURL(descriptionKey)
	s.advance(ctx, gen, domain.StageSynthesized)

	return nil
}

func (s *ScribeService) advance(ctx context.Context, gen *domain.Generation, stage domain.Stage) {
	gen.Stage = stage
	logger.CtxDebug(ctx, "Upload %s reached stage %s", gen.Filename, stage)
}

func (s *ScribeService) speak(ctx context.Context, key, text string) error {
	audio, err := s.speech.Synthesize(ctx, text)
	if err != nil {
		return fmt.Errorf("failed to synthesize %s: %w", key, err)
	}
	if err := s.storage.Upload(ctx, key, bytes.NewReader(audio), int64(len(audio)), "audio/mpeg"); err != nil {
		return fmt.Errorf("failed to save audio: %w", err)
	}
	return nil
}

// persist records gen. A database failure never fails the upload.
func (s *ScribeService) persist(ctx context.Context, gen *domain.Generation) {
	if s.generations == nil {
		return
	}
	if err := s.generations.Create(ctx, gen); err != nil {
		logger.FromContext(ctx).WithError(err).Error("Failed to record generation")
	}
}
