// Package server is a development API server speaking the decisionhub wire
// contract: auth, profile and notification endpoints backed by SQLite.
package server

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/decisionhub/decisionhub/internal/auth"
	"github.com/decisionhub/decisionhub/internal/config"
	"github.com/decisionhub/decisionhub/internal/models"
)

// Server represents the HTTP server
type Server struct {
	router  *gin.Engine
	db      *gorm.DB
	config  *config.Config
	logger  zerolog.Logger
	version string
}

// New creates a new server instance
func New(cfg *config.Config, zlog zerolog.Logger, version string) (*Server, error) {
	// Initialize database
	db, err := initDatabase(cfg, zlog)
	if err != nil {
		return nil, err
	}

	// Run database migrations
	if err := models.AutoMigrate(db); err != nil {
		return nil, err
	}

	auth.InitializeJWT(cfg.JWT.Secret, cfg.JWT.RefreshSecret)

	server := &Server{
		db:      db,
		config:  cfg,
		logger:  zlog,
		version: version,
	}

	if cfg.SeedDemo {
		if err := server.seedDemo(); err != nil {
			return nil, fmt.Errorf("failed to seed demo data: %w", err)
		}
	}

	// Setup router
	server.setupRouter()

	return server, nil
}

// initDatabase initializes the database connection
func initDatabase(cfg *config.Config, zlog zerolog.Logger) (*gorm.DB, error) {
	const (
		maxOpenConns    = 8
		maxIdleConns    = 4
		connMaxLifetime = 300 // 5 minutes
		busyTimeout     = 5000
	)

	db, err := gorm.Open(sqlite.Open(cfg.Database.URL), &gorm.Config{
		Logger: logger.New(
			log.New(os.Stdout, "\r\n", log.LstdFlags),
			logger.Config{
				LogLevel:                  logger.Error,
				IgnoreRecordNotFoundError: true,
				SlowThreshold:             200 * time.Millisecond,
			},
		),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Get underlying sql.DB to configure connection pool
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	// In-memory databases live per connection
	if isMemoryDSN(cfg.Database.URL) {
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxOpenConns(maxOpenConns)
		sqlDB.SetMaxIdleConns(maxIdleConns)
	}
	sqlDB.SetConnMaxLifetime(time.Duration(connMaxLifetime) * time.Second)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		fmt.Sprintf("PRAGMA busy_timeout=%d", busyTimeout),
		"PRAGMA foreign_keys=1",
	}

	for _, pragma := range pragmas {
		if err := db.Exec(pragma).Error; err != nil {
			zlog.Warn().Str("pragma", pragma).Err(err).Msg("Failed to apply pragma")
		}
	}

	return db, nil
}

func isMemoryDSN(dsn string) bool {
	return dsn == ":memory:" || strings.Contains(dsn, "mode=memory")
}

// setupRouter configures the Gin router with routes and middleware
func (s *Server) setupRouter() {
	gin.SetMode(gin.ReleaseMode)

	s.router = gin.New()

	// Add middleware
	s.router.Use(gin.Recovery())
	s.router.Use(s.loggingMiddleware())

	// CORS middleware, defaulting to the web app origin
	origins := s.config.Server.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{s.config.Server.AppURL}
	}
	s.router.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Length", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	s.router.GET("/health", s.healthCheck)

	authRoutes := s.router.Group("/auth")
	{
		// Public
		authRoutes.POST("/signup", s.signup)
		authRoutes.POST("/login", s.login)
		authRoutes.GET("/logout", s.logout)
		authRoutes.GET("/accountConfirm/:token", s.accountConfirm)
		authRoutes.GET("/confirmEmailChange/:token", s.confirmEmailChange)

		// Refresh cookie
		authRoutes.GET("/refresh", RefreshCookieMiddleware(s.db, s.logger), s.refresh)

		// Bearer token
		protected := authRoutes.Group("")
		protected.Use(JWTAuthMiddleware(s.db, s.logger))
		{
			protected.GET("/protected", s.protected)
			protected.DELETE("/deleteAccount", s.deleteAccount)
			protected.PUT("/updatePassword", s.updatePassword)
			protected.PUT("/modifyUniversity", s.modifyUniversity)
			protected.PUT("/modifyName", s.modifyName)
			protected.PUT("/modifyEmail", s.modifyEmail)
			protected.GET("/admin/check", AdminOnlyMiddleware(s.logger), s.adminCheck)
		}
	}

	issueRoutes := s.router.Group("/issues")
	issueRoutes.Use(JWTAuthMiddleware(s.db, s.logger))
	{
		issueRoutes.GET("/getNotifications", s.getNotifications)
		issueRoutes.POST("/markAllNotificationsAsRead", s.markAllNotificationsAsRead)
		issueRoutes.POST("/removeNotificationById", s.removeNotificationByID)
		issueRoutes.POST("/changeInvitationStatus", s.changeInvitationStatus)
		issueRoutes.GET("/getAllActiveIssues", s.getAllActiveIssues)
	}
}

// loggingMiddleware creates a custom logging middleware using zerolog
func (s *Server) loggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		duration := time.Since(start)

		s.logger.Info().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("duration", duration).
			Str("client_ip", c.ClientIP()).
			Msg("HTTP request")
	}
}

func (s *Server) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "online",
		"timestamp": time.Now().UTC(),
		"service":   "decisionhub-api",
		"version":   s.version,
	})
}

// Handler returns the HTTP handler, for tests and embedding
func (s *Server) Handler() http.Handler {
	return s.router
}

// GetDB returns the database connection
func (s *Server) GetDB() *gorm.DB {
	return s.db
}

// Close closes the database connection
func (s *Server) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Start starts the HTTP server and blocks until SIGINT or SIGTERM
func (s *Server) Start() error {
	port := ":" + s.config.Server.Port

	// Setup signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	srv := &http.Server{
		Addr:              port,
		Handler:           s.router,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		s.logger.Info().Str("port", port).Msg("Starting HTTP server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	// Wait for shutdown signal
	select {
	case <-sigChan:
		s.logger.Info().Msg("Received shutdown signal, shutting down gracefully...")
	case err := <-errChan:
		s.logger.Error().Err(err).Msg("HTTP server error")
		return err
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		s.logger.Error().Err(err).Msg("Error shutting down HTTP server")
		return err
	}

	// Close database connection to flush WAL writes
	if err := s.Close(); err != nil {
		s.logger.Error().Err(err).Msg("Error closing database")
	} else {
		s.logger.Info().Msg("Database closed successfully")
	}

	s.logger.Info().Msg("Server shutdown complete")
	return nil
}
