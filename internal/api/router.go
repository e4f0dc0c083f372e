package api

import (
	"fmt"

	"github.com/Tephenbaay/imagescribeAI/internal/api/handler"
	"github.com/Tephenbaay/imagescribeAI/internal/api/middleware"
	"github.com/Tephenbaay/imagescribeAI/internal/config"
	"github.com/Tephenbaay/imagescribeAI/internal/history"
	"github.com/Tephenbaay/imagescribeAI/internal/logger"
	"github.com/Tephenbaay/imagescribeAI/web"
	"github.com/gin-gonic/gin"
)

// Deps are the collaborators the routes need. Generations and DB may be nil
// when the server runs without a database.
type Deps struct {
	Scribe       handler.Scribe
	Captions     *history.Store
	Descriptions *history.Store
	Generations  handler.GenerationReader
	DB           handler.Pinger
	Logger       *logger.Logger
}

// SetupRouter configures the Gin router with all routes
func SetupRouter(deps Deps, cfg *config.Config) (*gin.Engine, error) {
	switch cfg.Server.Mode {
	case "release":
		gin.SetMode(gin.ReleaseMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.DebugMode)
	}

	tmpl, err := web.Templates()
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	log := deps.Logger
	if log == nil {
		log = logger.GetDefault()
	}

	r := gin.New()
	r.SetHTMLTemplate(tmpl)

	r.Use(gin.Recovery())
	r.Use(middleware.LoggerMiddleware(log))
	r.Use(middleware.CORS(cfg.Server.CORS))

	maxBytes := cfg.Server.MaxUploadBytes
	if maxBytes <= 0 {
		maxBytes = config.MaxUploadBytes
	}

	healthHandler := handler.NewHealthHandler(deps.DB)
	pageHandler := handler.NewPageHandler(deps.Captions, deps.Descriptions, deps.Generations)
	uploadHandler := handler.NewUploadHandler(deps.Scribe, pageHandler, maxBytes)

	r.Static("/static", cfg.Paths.StaticDir)
	r.GET("/health", healthHandler.Health)

	// Pages
	r.GET("/", pageHandler.Index)
	r.GET("/submit", uploadHandler.Submit)
	r.POST("/submit", uploadHandler.Submit)
	r.POST("/download_text", handler.DownloadText)
	r.GET("/history", pageHandler.History)
	for _, page := range []string{"login", "signup", "home"} {
		r.GET("/"+page, pageHandler.Static(page+".html"))
		r.POST("/"+page, pageHandler.Static(page+".html"))
	}
	for _, page := range []string{"contact", "aboutus", "forget", "user"} {
		r.GET("/"+page, pageHandler.Static(page+".html"))
	}

	// API v1 routes
	if deps.Generations != nil {
		generationHandler := handler.NewGenerationHandler(deps.Generations)
		v1 := r.Group("/api/v1")
		{
			v1.GET("/generations", generationHandler.ListGenerations)
			v1.GET("/generations/:id", generationHandler.GetGeneration)
			v1.GET("/stats", generationHandler.GetStats)
		}
	}

	return r, nil
}
