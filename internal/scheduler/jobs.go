package scheduler

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/GameDesignerMohamed/Agent-E-sub001/internal/database"
	"github.com/GameDesignerMohamed/Agent-E-sub001/internal/engine"
	"github.com/GameDesignerMohamed/Agent-E-sub001/internal/reliability"
)

// HealthLogJob periodically writes the engine's health summary to the log,
// giving operators a heartbeat even when the host stops submitting ticks.
type HealthLogJob struct {
	engine *engine.Engine
	log    zerolog.Logger
}

// NewHealthLogJob creates the heartbeat job.
func NewHealthLogJob(eng *engine.Engine, log zerolog.Logger) *HealthLogJob {
	return &HealthLogJob{
		engine: eng,
		log:    log.With().Str("component", "health_log").Logger(),
	}
}

// Name implements Job.
func (j *HealthLogJob) Name() string { return "health_log" }

// Run implements Job.
func (j *HealthLogJob) Run() error {
	status := j.engine.Status()
	j.log.Info().
		Float64("health", status.Health).
		Int("tick", status.Tick).
		Str("mode", string(status.Mode)).
		Int("activePlans", status.ActivePlans).
		Bool("divergence", status.Divergence).
		Msg("engine status")
	return nil
}

// WALCheckpointJob truncates the decision archive's write-ahead log.
type WALCheckpointJob struct {
	archive *database.Archive
}

// NewWALCheckpointJob creates the checkpoint job.
func NewWALCheckpointJob(archive *database.Archive) *WALCheckpointJob {
	return &WALCheckpointJob{archive: archive}
}

// Name implements Job.
func (j *WALCheckpointJob) Name() string { return "wal_checkpoint" }

// Run implements Job.
func (j *WALCheckpointJob) Run() error {
	return j.archive.Checkpoint()
}

// BackupJob uploads an archive snapshot and rotates old backups.
type BackupJob struct {
	archive       *database.Archive
	backups       *reliability.BackupService
	retentionDays int
}

// NewBackupJob creates the backup job.
func NewBackupJob(archive *database.Archive, backups *reliability.BackupService, retentionDays int) *BackupJob {
	return &BackupJob{archive: archive, backups: backups, retentionDays: retentionDays}
}

// Name implements Job.
func (j *BackupJob) Name() string { return "archive_backup" }

// Run implements Job. The WAL is checkpointed first so the copied database
// file is self-contained.
func (j *BackupJob) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	if err := j.archive.Checkpoint(); err != nil {
		return err
	}
	if err := j.backups.CreateAndUpload(ctx); err != nil {
		return err
	}
	return j.backups.RotateOldBackups(ctx, j.retentionDays)
}
