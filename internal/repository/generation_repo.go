package repository

import (
	"context"
	"time"

	"github.com/Tephenbaay/imagescribeAI/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GenerationRepository handles generation records.
type GenerationRepository struct {
	db *gorm.DB
}

// NewGenerationRepository creates a new GenerationRepository.
func NewGenerationRepository(db *gorm.DB) *GenerationRepository {
	return &GenerationRepository{db: db}
}

// Create inserts a generation, replacing a row with the same ID.
func (r *GenerationRepository) Create(ctx context.Context, g *domain.Generation) error {
	now := time.Now()
	if g.CreatedAt.IsZero() {
		g.CreatedAt = now
	}
	g.UpdatedAt = now
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		UpdateAll: true,
	}).Create(g).Error
}

// GetByID retrieves a generation by its ID. A missing row yields
// gorm.ErrRecordNotFound.
func (r *GenerationRepository) GetByID(ctx context.Context, id string) (*domain.Generation, error) {
	var g domain.Generation
	if err := r.db.WithContext(ctx).First(&g, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &g, nil
}

// ListRecent returns up to limit generations, newest first.
func (r *GenerationRepository) ListRecent(ctx context.Context, limit int) ([]domain.Generation, error) {
	var rows []domain.Generation
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}

// ListByFilename returns every generation recorded for filename, newest first.
func (r *GenerationRepository) ListByFilename(ctx context.Context, filename string) ([]domain.Generation, error) {
	var rows []domain.Generation
	err := r.db.WithContext(ctx).
		Where("filename = ?", filename).
		Order("created_at DESC").
		Find(&rows).Error
	return rows, err
}

// CountByStatus counts generations with the given status.
func (r *GenerationRepository) CountByStatus(ctx context.Context, status domain.GenerationStatus) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&domain.Generation{}).
		Where("status = ?", status).
		Count(&count).Error
	return count, err
}
