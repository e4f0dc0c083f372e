package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// MaxUploadBytes is the default per-image upload limit (3 MB).
const MaxUploadBytes int64 = 3 * 1024 * 1024

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Paths    PathsConfig    `mapstructure:"paths"`
	History  HistoryConfig  `mapstructure:"history"`
	Caption  ModelConfig    `mapstructure:"caption"`
	TextGen  TextGenConfig  `mapstructure:"textgen"`
	Category CategoryConfig `mapstructure:"category"`
	Speech   SpeechConfig   `mapstructure:"speech"`
	Database DatabaseConfig `mapstructure:"database"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Batch    BatchConfig    `mapstructure:"batch"`
}

type ServerConfig struct {
	Host           string     `mapstructure:"host"`
	Port           int        `mapstructure:"port"`
	Mode           string     `mapstructure:"mode"`
	MaxUploadBytes int64      `mapstructure:"max_upload_bytes"`
	CORS           CORSConfig `mapstructure:"cors"`
}

// Addr returns the listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

type CORSConfig struct {
	AllowedOrigins  []string `mapstructure:"allowed_origins"`
	AllowAllOrigins bool     `mapstructure:"allow_all_origins"`
}

// PathsConfig describes the static asset tree. Uploads and audio live in
// subdirectories of StaticDir so they can be served under /static.
type PathsConfig struct {
	StaticDir  string `mapstructure:"static_dir"`
	UploadsDir string `mapstructure:"uploads_dir"`
	AudioDir   string `mapstructure:"audio_dir"`
}

type HistoryConfig struct {
	CaptionsFile     string `mapstructure:"captions_file"`
	DescriptionsFile string `mapstructure:"descriptions_file"`
}

// ModelConfig configures a hosted model endpoint.
type ModelConfig struct {
	Provider       string `mapstructure:"provider"`
	Model          string `mapstructure:"model"`
	APIKey         string `mapstructure:"api_key"`
	BaseURL        string `mapstructure:"base_url"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
}

// Timeout returns the request timeout for the model client.
func (m ModelConfig) Timeout() time.Duration {
	if m.TimeoutSeconds <= 0 {
		return 60 * time.Second
	}
	return time.Duration(m.TimeoutSeconds) * time.Second
}

type TextGenConfig struct {
	ModelConfig       `mapstructure:",squash"`
	MaxNewTokens      int     `mapstructure:"max_new_tokens"`
	NoRepeatNgramSize int     `mapstructure:"no_repeat_ngram_size"`
	Temperature       float64 `mapstructure:"temperature"`
	TopP              float64 `mapstructure:"top_p"`
	TopK              int     `mapstructure:"top_k"`
}

type CategoryConfig struct {
	ModelConfig `mapstructure:",squash"`
	Labels      []string `mapstructure:"labels"`
}

type SpeechConfig struct {
	BaseURL        string `mapstructure:"base_url"`
	Lang           string `mapstructure:"lang"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
}

type DatabaseConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	Driver          string        `mapstructure:"driver"`
	Path            string        `mapstructure:"path"`
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"dbname"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	AutoMigrate     bool          `mapstructure:"auto_migrate"`
}

// DSN builds the driver-specific connection string.
func (d *DatabaseConfig) DSN() string {
	if d.Driver == "postgres" {
		return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
			d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode)
	}
	return d.Path
}

// StorageConfig configures the optional S3-compatible mirror (S3, R2, MinIO).
type StorageConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Type      string `mapstructure:"type"`
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	UseSSL    bool   `mapstructure:"use_ssl"`
	Bucket    string `mapstructure:"bucket"`
	Region    string `mapstructure:"region"`
	PublicURL string `mapstructure:"public_url"`
}

type BatchConfig struct {
	Workers   int `mapstructure:"workers"`
	BatchSize int `mapstructure:"batch_size"`
}

func Load(configPath string) (*Config, error) {
	// Load .env file if exists
	_ = godotenv.Load()

	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
	}

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Deployment platforms hand out the port as PORT
	v.BindEnv("server.port", "PORT")
	v.BindEnv("caption.api_key", "HF_API_TOKEN")
	v.BindEnv("textgen.api_key", "HF_API_TOKEN")
	v.BindEnv("category.api_key", "HF_API_TOKEN")
	v.BindEnv("caption.base_url", "CAPTION_BASE_URL")
	v.BindEnv("textgen.base_url", "TEXTGEN_BASE_URL")
	v.BindEnv("category.base_url", "CATEGORY_BASE_URL")
	v.BindEnv("database.password", "DATABASE_PASSWORD")
	v.BindEnv("storage.access_key", "STORAGE_ACCESS_KEY")
	v.BindEnv("storage.secret_key", "STORAGE_SECRET_KEY")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 5000)
	v.SetDefault("server.mode", "release")
	v.SetDefault("server.max_upload_bytes", MaxUploadBytes)
	v.SetDefault("server.cors.allow_all_origins", true)
	v.SetDefault("server.cors.allowed_origins", []string{})

	v.SetDefault("paths.static_dir", "./static")
	v.SetDefault("paths.uploads_dir", "uploads")
	v.SetDefault("paths.audio_dir", "audio")

	v.SetDefault("history.captions_file", "generated_captions.txt")
	v.SetDefault("history.descriptions_file", "generated_descriptions.txt")

	v.SetDefault("caption.provider", "huggingface")
	v.SetDefault("caption.model", "Salesforce/blip-image-captioning-base")
	v.SetDefault("caption.timeout_seconds", 60)

	v.SetDefault("textgen.provider", "huggingface")
	v.SetDefault("textgen.model", "gpt2")
	v.SetDefault("textgen.timeout_seconds", 60)
	v.SetDefault("textgen.max_new_tokens", 150)
	v.SetDefault("textgen.no_repeat_ngram_size", 2)
	v.SetDefault("textgen.temperature", 0.7)
	v.SetDefault("textgen.top_p", 0.95)
	v.SetDefault("textgen.top_k", 50)

	v.SetDefault("category.provider", "huggingface")
	v.SetDefault("category.model", "google/vit-base-patch16-224")
	v.SetDefault("category.timeout_seconds", 30)
	v.SetDefault("category.labels", []string{"people", "animals", "nature", "food", "vehicles", "buildings", "objects", "other"})

	v.SetDefault("speech.base_url", "https://translate.google.com")
	v.SetDefault("speech.lang", "en")
	v.SetDefault("speech.timeout_seconds", 30)

	v.SetDefault("database.enabled", true)
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.path", "./data/imagescribe.db")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_idle_conns", 2)
	v.SetDefault("database.max_open_conns", 4)
	v.SetDefault("database.conn_max_lifetime", time.Hour)
	v.SetDefault("database.auto_migrate", true)

	v.SetDefault("storage.enabled", false)
	v.SetDefault("storage.bucket", "imagescribe")

	v.SetDefault("batch.workers", 2)
	v.SetDefault("batch.batch_size", 10)
}
