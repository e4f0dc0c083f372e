package domain

import "time"

// Stage marks how far an upload got through the pipeline.
type Stage string

const (
	StageReceived    Stage = "received"
	StageValidated   Stage = "validated"
	StageCaptioned   Stage = "captioned"
	StageDescribed   Stage = "described"
	StageCategorized Stage = "categorized"
	StageSynthesized Stage = "synthesized-audio"
	StageRendered    Stage = "rendered"
)

// GenerationStatus is the outcome of a processed upload.
type GenerationStatus string

const (
	GenerationStatusCompleted GenerationStatus = "completed"
	GenerationStatusFailed    GenerationStatus = "failed"
)

// Description is the two-paragraph text generated for an image. The first
// paragraph is templated from the caption, the second is model-expanded.
type Description struct {
	First  string `json:"first"`
	Second string `json:"second"`
}

// Joined returns both paragraphs separated by a blank line, the form kept in
// the description history.
func (d Description) Joined() string {
	return d.First + "\n\n" + d.Second
}

// Generation records one processed upload and everything produced for it.
type Generation struct {
	ID                  string           `gorm:"type:text;primaryKey" json:"id"`
	Filename            string           `gorm:"type:text;not null;index:idx_generations_filename" json:"filename"`
	OriginalName        string           `gorm:"type:text" json:"original_name"`
	Caption             string           `gorm:"type:text" json:"caption"`
	FirstDescription    string           `gorm:"type:text" json:"first_description"`
	SecondDescription   string           `gorm:"type:text" json:"second_description"`
	Category            string           `gorm:"type:text;index:idx_generations_category" json:"category"`
	ImageKey            string           `gorm:"type:text" json:"image_key"`
	CaptionAudioKey     string           `gorm:"type:text" json:"caption_audio_key,omitempty"`
	DescriptionAudioKey string           `gorm:"type:text" json:"description_audio_key,omitempty"`
	Stage               Stage            `gorm:"type:text" json:"stage"`
	Status              GenerationStatus `gorm:"type:text;index:idx_generations_status" json:"status"`
	Error               string           `gorm:"type:text" json:"error,omitempty"`
	CreatedAt           time.Time        `json:"created_at"`
	UpdatedAt           time.Time        `json:"updated_at"`
}

// TableName returns the database table name for Generation.
func (Generation) TableName() string {
	return "generations"
}
