package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"deardiary/internal/analysis"
	"deardiary/internal/journal"
	"deardiary/internal/logging"
	"deardiary/internal/prefs"
	"deardiary/internal/tts"
)

// Config configures the HTTP server.
type Config struct {
	Host         string
	Port         int
	EnableCORS   bool
	Debug        bool
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	JWTSecret    string
}

// Deps bundles everything the handlers need.
type Deps struct {
	Orchestrator *analysis.Orchestrator
	Store        journal.EntryStore
	PrefsStore   prefs.Store
	Personas     *prefs.Resolver
	Synthesizer  tts.Synthesizer // nil disables the speech endpoint
	Voices       tts.VoiceMap
}

// Server is the HTTP surface of the journaling service.
type Server struct {
	engine     *gin.Engine
	httpServer *http.Server

	orchestrator *analysis.Orchestrator
	store        journal.EntryStore
	prefsStore   prefs.Store
	personas     *prefs.Resolver
	synthesizer  tts.Synthesizer
	voices       tts.VoiceMap

	startTime time.Time
	logger    logging.Logger
}

// New creates the server and registers all routes.
func New(config Config, deps Deps) *Server {
	if !config.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(gin.Recovery())

	if config.EnableCORS {
		corsConfig := cors.DefaultConfig()
		corsConfig.AllowAllOrigins = true
		corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
		corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-User-ID"}
		engine.Use(cors.New(corsConfig))
	}

	server := &Server{
		engine:       engine,
		orchestrator: deps.Orchestrator,
		store:        deps.Store,
		prefsStore:   deps.PrefsStore,
		personas:     deps.Personas,
		synthesizer:  deps.Synthesizer,
		voices:       deps.Voices,
		startTime:    time.Now(),
		logger:       logging.NewComponentLogger("server"),
	}

	server.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", config.Host, config.Port),
		Handler:      engine,
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
	}

	server.setupRoutes(config.JWTSecret)
	return server
}

func (s *Server) setupRoutes(jwtSecret string) {
	s.engine.GET("/health", s.handleHealth)

	api := s.engine.Group("/api")
	api.Use(authMiddleware(jwtSecret))
	{
		api.POST("/journal/entries", s.handleSubmitEntry)
		api.GET("/journal/entries", s.handleListEntries)
		api.POST("/journal/entries/:id/speech", s.handleEntrySpeech)
		api.GET("/preferences", s.handleGetPreferences)
		api.PUT("/preferences", s.handleUpdatePreferences)
	}
}

// Start serves until the listener fails or Shutdown is called.
func (s *Server) Start() error {
	s.logger.Info("listening on %s", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

// Shutdown gracefully drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// Handler exposes the gin engine for tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) uptime() time.Duration {
	return time.Since(s.startTime).Round(time.Second)
}
