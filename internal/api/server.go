package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"shelftrack/internal/api/handlers"
	"shelftrack/internal/api/middleware"
	"shelftrack/internal/config"
	"shelftrack/internal/controllers"
	"shelftrack/internal/models"
	"shelftrack/internal/targets"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

// Controllers bundles everything the HTTP layer serves
type Controllers struct {
	Import    *controllers.ImportController
	Cleanup   *controllers.CleanupController
	Progress  *controllers.ProgressController
	Playback  *controllers.PlaybackController
	Recommend *controllers.RecommendController
	Matching  *controllers.MatchingController
	Tracked   *controllers.TrackedController
	Accounts  *controllers.AccountsController
	Targets   *targets.Writer
}

// Server represents the HTTP server
type Server struct {
	server *http.Server
	db     *models.Database
	ctrls  *Controllers
	logger *logrus.Logger
}

// NewServer creates a new HTTP server
func NewServer(cfg *config.Config, db *models.Database, ctrls *Controllers, logger *logrus.Logger) *Server {
	s := &Server{
		db:     db,
		ctrls:  ctrls,
		logger: logger,
	}

	mux := http.NewServeMux()
	s.setupRoutes(mux, cfg)

	s.server = &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      middleware.Logging(mux, logger),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes(mux *http.ServeMux, cfg *config.Config) {
	owner := cfg.DefaultOwnerID

	healthHandler := handlers.NewHealthHandler(s.logger)
	mux.HandleFunc("/health", healthHandler.ServeHTTP)

	statusHandler := handlers.NewStatusHandler(s.db, owner, s.logger)
	mux.HandleFunc("/status", statusHandler.ServeHTTP)

	mux.Handle("/metrics", promhttp.Handler())

	homeHandler := handlers.NewHomeHandler(s.ctrls.Recommend, owner, s.logger)
	mux.HandleFunc("/api/home", homeHandler.ServeHTTP)

	accountsHandler := handlers.NewAccountsHandler(s.ctrls.Accounts, owner, s.logger)
	mux.HandleFunc("/api/accounts", accountsHandler.ServeHTTP)

	trackedHandler := handlers.NewTrackedHandler(s.ctrls.Tracked, owner, s.logger)
	mux.HandleFunc("/api/tracked", trackedHandler.ServeHTTP)
	mux.HandleFunc("/api/tracked/mark-heard", trackedHandler.MarkHeard)
	mux.HandleFunc("/api/search", trackedHandler.Search)

	matchingHandler := handlers.NewMatchingHandler(s.ctrls.Matching, owner, s.logger)
	mux.HandleFunc("/api/matching", matchingHandler.ServeHTTP)
	mux.HandleFunc("/api/match", matchingHandler.ManualMatch)

	jobsHandler := handlers.NewJobsHandler(s.ctrls.Import, s.ctrls.Cleanup, s.ctrls.Progress, s.ctrls.Targets, owner, s.logger)
	mux.HandleFunc("/api/import", jobsHandler.Import)
	mux.HandleFunc("/api/cleanup", jobsHandler.Cleanup)
	mux.HandleFunc("/api/rebuild-progress", jobsHandler.RebuildProgress)
	mux.HandleFunc("/api/sync/run-now", jobsHandler.SyncNow)

	playbackHandler := handlers.NewPlaybackHandler(s.ctrls.Progress, s.ctrls.Playback, owner, s.logger)
	mux.HandleFunc("/api/books/mark-heard", playbackHandler.MarkHeard)
	mux.HandleFunc("/api/books/mark-unheard", playbackHandler.MarkUnheard)
	mux.HandleFunc("/api/podcasts/open-next", playbackHandler.OpenNext)
	mux.HandleFunc("/cover/", playbackHandler.Cover)
}

// Start starts the HTTP server
func (s *Server) Start(ctx context.Context) error {
	s.logger.WithField("port", s.server.Addr).Info("Starting HTTP server")

	errChan := make(chan error, 1)
	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	select {
	case err := <-errChan:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
		return s.Shutdown(context.Background())
	}
}

// Shutdown gracefully shuts down the HTTP server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return s.server.Shutdown(shutdownCtx)
}
