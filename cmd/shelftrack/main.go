package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"shelftrack/internal/api"
	"shelftrack/internal/config"
	"shelftrack/internal/controllers"
	"shelftrack/internal/crypto"
	"shelftrack/internal/models"
	"shelftrack/internal/scheduler"
	"shelftrack/internal/services/audible"
	"shelftrack/internal/services/feed"
	"shelftrack/internal/services/itunes"
	"shelftrack/internal/services/openlibrary"
	"shelftrack/internal/targets"
	"shelftrack/internal/utils"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// app bundles the wired components shared by the commands
type app struct {
	cfg    *config.Config
	db     *models.Database
	ctrls  *api.Controllers
	logger *logrus.Logger
}

func main() {
	root := &cobra.Command{
		Use:          "shelftrack",
		Short:        "Track audiobook and podcast listening across servers",
		SilenceUsage: true,
	}
	root.AddCommand(serveCmd(), importCmd(), cleanupCmd(), rebuildCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// newApp loads the configuration and wires every component
func newApp() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger := utils.NewLogger(cfg.LogLevel)
	logger.WithField("config_dir", filepath.Dir(cfg.DatabaseFile)).Info("Configuration loaded")

	db, err := models.NewDatabase(cfg.DatabaseFile)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	if err := db.EnsureSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	logger.Info("Database initialized")

	box := crypto.NewBox(cfg.EncryptionSecret)
	writer := targets.NewWriter(db, box, cfg.TargetsFile, cfg.TriggerFile, logger)

	feedClient := feed.NewClient(logger)
	audibleClient := audible.NewClient(cfg.AudibleAPIURL, cfg.AudibleToken, cfg.AudibleMarketplace, logger)
	itunesClient := itunes.NewClient(logger)
	openlibraryClient := openlibrary.NewClient(logger)
	if audibleClient.Enabled() {
		logger.Info("Audible client enabled")
	}

	ingestor := controllers.NewIngestor(feedClient, audibleClient, logger)
	ctrls := &api.Controllers{
		Import:    controllers.NewImportController(db, box, itunesClient, ingestor, logger),
		Cleanup:   controllers.NewCleanupController(db, box, logger),
		Progress:  controllers.NewProgressController(db, box, writer, logger),
		Playback:  controllers.NewPlaybackController(db, box, logger),
		Recommend: controllers.NewRecommendController(db, logger),
		Matching:  controllers.NewMatchingController(db, writer, logger),
		Tracked:   controllers.NewTrackedController(db, audibleClient, openlibraryClient, logger),
		Accounts:  controllers.NewAccountsController(db, box, writer, cfg.SyncIntervalSeconds, logger),
		Targets:   writer,
	}
	logger.Info("Controllers initialized")

	return &app{cfg: cfg, db: db, ctrls: ctrls, logger: logger}, nil
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server and background scheduler",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.db.Close()
			return a.serve()
		},
	}
}

func (a *app) serve() error {
	a.logger.Info("Starting shelftrack")

	sched := scheduler.NewScheduler(
		a.ctrls.Import,
		a.ctrls.Cleanup,
		a.db,
		a.cfg.TriggerFile,
		a.cfg.SyncIntervalSeconds,
		a.logger,
	)
	if err := sched.Start(); err != nil {
		return fmt.Errorf("failed to start scheduler: %w", err)
	}
	defer sched.Stop()

	server := api.NewServer(a.cfg, a.db, a.ctrls, a.logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	serverErrChan := make(chan error, 1)
	go func() {
		if err := server.Start(ctx); err != nil {
			serverErrChan <- err
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	a.logger.Info("Shelftrack is running")

	select {
	case err := <-serverErrChan:
		return fmt.Errorf("server error: %w", err)
	case sig := <-sigChan:
		a.logger.WithField("signal", sig).Info("Received shutdown signal")
		cancel()
		if err := server.Shutdown(context.Background()); err != nil {
			a.logger.WithError(err).Error("Error during server shutdown")
		}
	}

	a.logger.Info("Shelftrack stopped")
	return nil
}

func importCmd() *cobra.Command {
	opts := controllers.DefaultImportOptions()
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import libraries from enabled accounts once",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.db.Close()

			summary, err := a.ctrls.Import.ImportAll(cmd.Context(), opts)
			if err != nil {
				return err
			}
			a.logger.WithFields(logrus.Fields{
				"accounts": summary.Accounts,
				"books":    summary.Books,
				"podcasts": summary.Podcasts,
				"episodes": summary.Episodes,
				"errors":   summary.Errors,
			}).Info("Import completed")
			return nil
		},
	}
	cmd.Flags().IntVar(&opts.Owner, "owner", 0, "owner to import (defaults to every owner)")
	cmd.Flags().BoolVar(&opts.IncludeBooks, "books", true, "import book libraries")
	cmd.Flags().BoolVar(&opts.IncludePodcasts, "podcasts", true, "import podcast libraries")
	cmd.Flags().BoolVar(&opts.EnrichPodcasts, "enrich", true, "enrich incomplete podcast metadata from iTunes")
	return cmd
}

func cleanupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cleanup",
		Short: "Refresh presence and merge duplicate books once",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.db.Close()

			summary, err := a.ctrls.Cleanup.Run(cmd.Context())
			if err != nil {
				return err
			}
			a.logger.WithFields(logrus.Fields{
				"targets": summary.Targets,
				"groups":  summary.Groups,
				"deleted": summary.Deleted,
				"errors":  summary.Errors,
			}).Info("Cleanup completed")
			return nil
		},
	}
}

func rebuildCmd() *cobra.Command {
	var owner int
	cmd := &cobra.Command{
		Use:   "rebuild",
		Short: "Rebuild book progress from the servers once",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.db.Close()

			if owner <= 0 {
				owner = a.cfg.DefaultOwnerID
			}
			summary, err := a.ctrls.Progress.Rebuild(cmd.Context(), owner)
			if err != nil {
				return err
			}
			a.logger.WithFields(logrus.Fields{
				"scanned":     summary.Scanned,
				"updated":     summary.Updated,
				"completed":   summary.Completed,
				"in_progress": summary.InProgress,
				"missing":     summary.Missing,
			}).Info("Progress rebuild completed")
			return nil
		},
	}
	cmd.Flags().IntVar(&owner, "owner", 0, "owner to rebuild (defaults to DEFAULT_OWNER_ID)")
	return cmd
}
