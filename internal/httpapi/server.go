package httpapi

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sowri347/bot-interview/internal/auth"
	"github.com/sowri347/bot-interview/internal/config"
	"github.com/sowri347/bot-interview/internal/evaluation"
	"github.com/sowri347/bot-interview/internal/interview"
)

// Transcriber is the speech to text dependency of the AI routes.
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte, languageHint string) (string, error)
}

// Evaluator is the answer scoring dependency of the AI routes.
type Evaluator interface {
	Evaluate(ctx context.Context, transcript, questionText string) evaluation.Result
}

// Server exposes the interview service over HTTP.
type Server struct {
	interviews  *interview.Service
	transcriber Transcriber
	evaluator   Evaluator
	issuer      *auth.Issuer
	cfg         config.HTTPConfig
	logger      *slog.Logger
}

func New(interviews *interview.Service, transcriber Transcriber, evaluator Evaluator, issuer *auth.Issuer, cfg config.HTTPConfig, logger *slog.Logger) *Server {
	return &Server{
		interviews:  interviews,
		transcriber: transcriber,
		evaluator:   evaluator,
		issuer:      issuer,
		cfg:         cfg,
		logger:      logger.With(slog.String("component", "http")),
	}
}

// NewEngine returns a gin engine with recovery, request logging and CORS.
func NewEngine(cfg config.HTTPConfig, logger *slog.Logger) *gin.Engine {
	engine := gin.New()
	engine.Use(gin.Recovery(), requestLogger(logger))
	engine.Use(cors.New(corsConfig(cfg.CORSOrigins)))
	return engine
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	for _, o := range origins {
		if o == "*" {
			cfg.AllowOriginFunc = func(string) bool { return true }
			return cfg
		}
	}
	cfg.AllowOrigins = origins
	if len(cfg.AllowOrigins) == 0 {
		cfg.AllowOriginFunc = func(string) bool { return false }
	}
	return cfg
}

// Register mounts every API route on engine.
func (s *Server) Register(engine *gin.Engine) {
	engine.GET("/", s.handleRoot)
	engine.GET("/health", s.handleHealth)
	engine.GET("/interview/:link_code", s.handleInterviewByLink)

	admin := engine.Group("/admin")
	admin.POST("/signup", s.handleAdminSignup)
	admin.POST("/login", s.handleAdminLogin)

	adminAuth := admin.Group("", auth.Middleware(s.issuer, auth.RoleAdmin, s.interviews.AdminExists))
	{
		adminAuth.POST("/create-interview", s.handleCreateInterview)
		adminAuth.POST("/add-question", s.handleAddQuestion)
		adminAuth.GET("/interviews", s.handleListInterviews)
		adminAuth.GET("/interview/:id/dashboard", s.handleDashboard)
		adminAuth.GET("/interview/:id/candidates", s.handleCandidates)
		adminAuth.GET("/interview/:id/download-excel", s.handleDownloadExcel)
		adminAuth.DELETE("/interview/:id", s.handleDeleteInterview)
		adminAuth.GET("/report/:candidate_id", s.handleReport)
	}

	candidate := engine.Group("/candidate")
	candidate.POST("/register", s.handleRegister)
	candidate.POST("/login", s.handleCandidateLogin)

	candidateMiddleware := auth.Middleware(s.issuer, auth.RoleCandidate, s.interviews.CandidateExists)
	candidateAuth := candidate.Group("", candidateMiddleware)
	{
		candidateAuth.POST("/start", s.handleStart)
		candidateAuth.POST("/save-answer", s.handleSaveAnswer)
	}

	ai := engine.Group("/ai", candidateMiddleware)
	{
		ai.POST("/transcribe", s.handleTranscribe)
		ai.POST("/evaluate", s.handleEvaluate)
	}
}

func requestLogger(logger *slog.Logger) gin.HandlerFunc {
	logger = logger.With(slog.String("component", "http"))
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		status := c.Writer.Status()
		attrs := []any{
			slog.String("method", c.Request.Method),
			slog.String("route", c.FullPath()),
			slog.Int("status", status),
			slog.Duration("latency", time.Since(start)),
		}
		switch {
		case status >= 500:
			logger.Error("request failed", attrs...)
		case status >= 400:
			logger.Info("request rejected", attrs...)
		default:
			logger.Debug("request served", attrs...)
		}
	}
}
