package database

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/GameDesignerMohamed/Agent-E-sub001/internal/domain"
)

const archiveSchema = `
CREATE TABLE IF NOT EXISTS decisions (
	id          TEXT PRIMARY KEY,
	tick        INTEGER NOT NULL,
	result      TEXT    NOT NULL,
	principle   TEXT,
	parameter   TEXT,
	recorded_at TEXT    NOT NULL,
	payload     BLOB    NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_decisions_tick ON decisions(tick);
CREATE INDEX IF NOT EXISTS idx_decisions_result ON decisions(result);
`

// Archive is the durable sink behind the in-memory decision log. Rows are
// msgpack blobs keyed by the entry id; columns exist only for querying.
type Archive struct {
	db  *DB
	log zerolog.Logger
}

// OpenArchive opens (or creates) the decision archive under dataDir.
func OpenArchive(dataDir string, log zerolog.Logger) (*Archive, error) {
	db, err := Open(Config{
		Path:    filepath.Join(dataDir, "decisions.db"),
		Profile: ProfileLedger,
		Name:    "decisions",
	})
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(archiveSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply decision archive schema: %w", err)
	}
	return &Archive{
		db:  db,
		log: log.With().Str("component", "archive").Logger(),
	}, nil
}

// Archive stores one decision entry. Implements decisionlog.Archiver.
func (a *Archive) Archive(entry *domain.DecisionEntry) error {
	payload, err := msgpack.Marshal(entry)
	if err != nil {
		return fmt.Errorf("encode decision %s: %w", entry.ID, err)
	}

	principle := ""
	if entry.Diagnosis != nil {
		principle = entry.Diagnosis.Principle.ID
	}
	parameter := ""
	if entry.Plan != nil {
		parameter = entry.Plan.Parameter
	}

	_, err = a.db.Exec(
		`INSERT OR REPLACE INTO decisions (id, tick, result, principle, parameter, recorded_at, payload)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		entry.ID, entry.Tick, string(entry.Result), principle, parameter,
		entry.Timestamp.UTC().Format(time.RFC3339Nano), payload,
	)
	if err != nil {
		return fmt.Errorf("insert decision %s: %w", entry.ID, err)
	}
	return nil
}

// Load returns up to limit of the most recent entries, ordered oldest
// first, for re-seeding the in-memory ring at startup. limit <= 0 loads
// everything.
func (a *Archive) Load(limit int) ([]*domain.DecisionEntry, error) {
	query := `SELECT payload FROM decisions ORDER BY tick DESC, recorded_at DESC`
	args := []interface{}{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := a.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("load decision archive: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []*domain.DecisionEntry
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scan decision row: %w", err)
		}
		var entry domain.DecisionEntry
		if err := msgpack.Unmarshal(payload, &entry); err != nil {
			a.log.Warn().Err(err).Msg("skipping undecodable archive row")
			continue
		}
		out = append(out, &entry)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	// Rows arrive newest first; the ring wants append order.
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}

// Count returns the number of archived decisions.
func (a *Archive) Count() (int, error) {
	var n int
	if err := a.db.QueryRow(`SELECT COUNT(*) FROM decisions`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count decisions: %w", err)
	}
	return n, nil
}

// Checkpoint truncates the WAL so the log file stays bounded between
// maintenance runs.
func (a *Archive) Checkpoint() error {
	return a.db.WALCheckpoint("TRUNCATE")
}

// Path returns the archive database file path.
func (a *Archive) Path() string {
	return a.db.Path()
}

// Close releases the underlying database.
func (a *Archive) Close() error {
	return a.db.Close()
}
