package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/alfredjeanlab/nethub/internal/archive"
	"github.com/alfredjeanlab/nethub/internal/config"
	"github.com/alfredjeanlab/nethub/internal/eventlog"
	"github.com/alfredjeanlab/nethub/internal/events"
	"github.com/alfredjeanlab/nethub/internal/hub"
	"github.com/alfredjeanlab/nethub/internal/incoming"
	"github.com/alfredjeanlab/nethub/internal/presence"
	"github.com/alfredjeanlab/nethub/internal/server"
	"github.com/alfredjeanlab/nethub/internal/store/postgres"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:     "serve",
	Short:   "Start the hub server",
	GroupID: "system",
	// Override PersistentPreRunE so we don't create an API client.
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		logger := cfg.NewLogger(os.Stderr)

		store, err := postgres.New(cfg.DatabaseURL)
		if err != nil {
			return err
		}

		var publisher events.Publisher
		if cfg.NATSURL != "" {
			pub, err := events.NewNATSPublisher(cfg.NATSURL)
			if err != nil {
				store.Close()
				return err
			}
			publisher = pub
			logger.Info("events enabled", "nats_url", cfg.NATSURL)
		} else {
			publisher = events.NoopPublisher{}
			logger.Info("events disabled (HUB_NATS_URL not set)")
		}

		// Recorded-event notifications stay in process and feed the node
		// roster; only apply failures go out on the bus.
		tracker := presence.New(logger)
		if cfg.NodeQuietAfter > 0 {
			tracker.StartSweep(presence.SweepConfig{QuietAfter: cfg.NodeQuietAfter})
		}
		notify := events.Fanout{events.Only(publisher, events.TopicApplyFailed), tracker}

		registry := incoming.DefaultRegistry()
		eventLog := eventlog.New(store, registry, logger)
		processor := hub.NewProcessor(registry, eventLog, store, notify, logger)
		hubServer := server.NewHubServer(processor, eventLog, registry, server.Options{
			DefaultPageSize: cfg.DefaultPageSize,
			Health:          store,
			Nodes:           tracker,
			Logger:          logger,
		})

		httpServer := &http.Server{
			Addr:    cfg.HTTPAddr,
			Handler: hubServer.NewHTTPHandler(cfg.AuthToken),
		}
		go func() {
			logger.Info("HTTP server listening", "addr", cfg.HTTPAddr, "auth", cfg.AuthToken != "")
			if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("HTTP server error", "err", err)
			}
		}()

		// Nodes may also publish events on the bus instead of calling the API.
		var (
			consumerCancel context.CancelFunc
			consumerDone   chan struct{}
		)
		if cfg.NATSURL != "" {
			sub, err := events.NewNATSSubscriber(cfg.NATSURL)
			if err != nil {
				logger.Error("failed to create ingest subscriber", "err", err)
			} else {
				consumer := hub.NewConsumer(processor, sub, cfg.IngestSubject, logger)
				var consumerCtx context.Context
				consumerCtx, consumerCancel = context.WithCancel(context.Background())
				consumerDone = make(chan struct{})
				go func() {
					defer close(consumerDone)
					if err := consumer.Run(consumerCtx); err != nil {
						logger.Error("ingest consumer error", "err", err)
					}
					sub.Close()
				}()
				logger.Info("ingest consumer started", "subject", cfg.IngestSubject)
			}
		}

		var scheduler *archive.Scheduler
		if cfg.Archive.Enabled() {
			dest, err := archive.NewS3Destination(
				context.Background(),
				cfg.Archive.S3Bucket,
				cfg.Archive.S3Key,
				cfg.Archive.S3Region,
				cfg.Archive.S3Endpoint,
			)
			if err != nil {
				logger.Error("failed to create S3 archive destination", "err", err)
			} else {
				scheduler = archive.NewScheduler(store, []archive.Destination{dest}, cfg.Archive.Interval, logger)
				scheduler.Start()
				logger.Info("archive scheduler started",
					"bucket", cfg.Archive.S3Bucket,
					"key", cfg.Archive.S3Key,
					"interval", cfg.Archive.Interval,
				)
			}
		}

		logger.Info("hub started", "actions", registry.Actions())

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigCh
		logger.Info("received signal, shutting down", "signal", sig)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", "err", err)
		}
		logger.Info("HTTP server stopped")

		if consumerCancel != nil {
			consumerCancel()
			select {
			case <-consumerDone:
			case <-shutdownCtx.Done():
				logger.Warn("ingest consumer did not stop before timeout")
			}
			logger.Info("ingest consumer stopped")
		}

		if scheduler != nil {
			scheduler.Stop()
			logger.Info("archive scheduler stopped")
		}

		// Closes the NATS publisher and stops the node sweep.
		if err := notify.Close(); err != nil {
			logger.Error("error closing publishers", "err", err)
		}
		if err := store.Close(); err != nil {
			logger.Error("error closing store", "err", err)
		}

		logger.Info("shutdown complete")
		return nil
	},
}
