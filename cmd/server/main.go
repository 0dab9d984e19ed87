// Package main is the entry point for the Agent-E economy control service.
// The service receives economy snapshots from a game host, diagnoses them
// against its principle catalog, and answers with parameter adjustments.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/GameDesignerMohamed/Agent-E-sub001/internal/config"
	"github.com/GameDesignerMohamed/Agent-E-sub001/internal/database"
	"github.com/GameDesignerMohamed/Agent-E-sub001/internal/decisionlog"
	"github.com/GameDesignerMohamed/Agent-E-sub001/internal/engine"
	"github.com/GameDesignerMohamed/Agent-E-sub001/internal/reliability"
	"github.com/GameDesignerMohamed/Agent-E-sub001/internal/scheduler"
	"github.com/GameDesignerMohamed/Agent-E-sub001/internal/server"
	"github.com/GameDesignerMohamed/Agent-E-sub001/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fallbackLog := logger.New(logger.Config{Level: "info", Pretty: true})
		fallbackLog.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.Pretty,
	})

	log.Info().Msg("Starting Agent-E")

	eng := engine.New(engine.Config{
		Mode:         cfg.Mode,
		TickDeadline: cfg.TickDeadline,
	}, log)

	sched := scheduler.New(log)

	// The decision archive is optional; without a data directory the log
	// stays purely in memory.
	var archive *database.Archive
	if cfg.DataDir != "" {
		archive, err = database.OpenArchive(cfg.DataDir, log)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to open decision archive")
		}
		defer archive.Close()

		restored, err := archive.Load(decisionlog.DefaultMaxEntries)
		if err != nil {
			log.Warn().Err(err).Msg("Failed to load archived decisions")
		} else if len(restored) > 0 {
			eng.Decisions().Restore(restored)
			log.Info().Int("entries", len(restored)).Msg("Restored decision history")
		}
		eng.Decisions().SetArchiver(archive)

		if err := sched.AddJob("@hourly", scheduler.NewWALCheckpointJob(archive)); err != nil {
			log.Fatal().Err(err).Msg("Failed to register WAL checkpoint job")
		}
	}

	if cfg.Backup.Enabled() {
		if archive == nil {
			log.Fatal().Msg("Backups require AGENTE_DATA_DIR to be set")
		}
		store, err := reliability.NewS3Client(context.Background(), reliability.S3Config{
			Bucket:    cfg.Backup.Bucket,
			Endpoint:  cfg.Backup.Endpoint,
			Region:    cfg.Backup.Region,
			AccessKey: cfg.Backup.AccessKey,
			SecretKey: cfg.Backup.SecretKey,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create backup store client")
		}
		backups := reliability.NewBackupService(store, archive.Path(), cfg.DataDir, log)
		job := scheduler.NewBackupJob(archive, backups, cfg.Backup.RetentionDays)
		if err := sched.AddJob(cfg.Backup.Schedule, job); err != nil {
			log.Fatal().Err(err).Str("schedule", cfg.Backup.Schedule).Msg("Failed to register backup job")
		}
	}

	if err := sched.AddJob("@every 5m", scheduler.NewHealthLogJob(eng, log)); err != nil {
		log.Fatal().Err(err).Msg("Failed to register health log job")
	}
	sched.Start()

	srv := server.New(server.Config{Addr: cfg.Addr()}, eng, log)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()
	log.Info().Str("addr", cfg.Addr()).Str("mode", string(cfg.Mode)).Msg("Server started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil {
			sched.Stop()
			log.Error().Err(err).Msg("Server failed")
			os.Exit(1)
		}
	case sig := <-quit:
		log.Info().Str("signal", sig.String()).Msg("Shutting down")
	}

	sched.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Stopped")
}
