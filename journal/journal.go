// Package journal records collection passes and reclaimed handles in SQLite
// so long-running hosts can look back at reclamation behavior.
package journal

import (
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/tliron/commonlog"
	_ "modernc.org/sqlite"

	"github.com/chazu/gcbridge/bridge"
)

// ErrRunNotFound indicates the requested run doesn't exist
var ErrRunNotFound = errors.New("run not found")

var log = commonlog.GetLogger("gcbridge.journal")

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id      TEXT PRIMARY KEY,
	started INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS passes (
	run_id      TEXT NOT NULL REFERENCES runs(id),
	pass        INTEGER NOT NULL,
	traced      INTEGER NOT NULL,
	roots       INTEGER NOT NULL,
	marked      INTEGER NOT NULL,
	demoted     INTEGER NOT NULL,
	swept       INTEGER NOT NULL,
	live        INTEGER NOT NULL,
	dead        INTEGER NOT NULL,
	duration_ns INTEGER NOT NULL,
	at          INTEGER NOT NULL,
	PRIMARY KEY (run_id, pass)
);
CREATE TABLE IF NOT EXISTS reclaimed (
	run_id    TEXT NOT NULL REFERENCES runs(id),
	handle    INTEGER NOT NULL,
	kind      TEXT NOT NULL,
	data_type TEXT NOT NULL,
	host_gone INTEGER NOT NULL,
	at        INTEGER NOT NULL
);`

// Journal handles SQLite storage for pass history
type Journal struct {
	db     *sql.DB
	dbPath string
	mu     sync.Mutex
}

// Open opens or creates the journal database at dbPath.
func Open(dbPath string) (*Journal, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	// In-memory databases exist per connection.
	db.SetMaxOpenConns(1)

	// Set busy timeout for concurrent access
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating tables: %w", err)
	}

	return &Journal{db: db, dbPath: dbPath}, nil
}

// Close closes the database connection
func (j *Journal) Close() error {
	if j.db != nil {
		return j.db.Close()
	}
	return nil
}

// NewRun starts a run and returns its ID.
func (j *Journal) NewRun() (string, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	id := uuid.NewString()
	if _, err := j.db.Exec("INSERT INTO runs (id, started) VALUES (?, ?)", id, time.Now().UnixNano()); err != nil {
		return "", fmt.Errorf("creating run: %w", err)
	}
	log.Debugf("run %s started in %s", id, j.dbPath)
	return id, nil
}

// RecordPass stores the stats of one collection pass.
func (j *Journal) RecordPass(runID string, s *bridge.PassStats) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	_, err := j.db.Exec(
		`INSERT INTO passes (run_id, pass, traced, roots, marked, demoted, swept, live, dead, duration_ns, at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		runID, int64(s.Pass), s.Traced, s.Roots, s.Marked, s.Demoted, s.Swept, s.Live, s.Dead,
		s.Duration.Nanoseconds(), s.Timestamp.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("recording pass %d: %w", s.Pass, err)
	}
	return nil
}

// RecordReclaimed stores one handle drained by the host.
func (j *Journal) RecordReclaimed(runID string, r bridge.Reclaimed) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	dataType := ""
	if r.DataType != nil {
		dataType = r.DataType.Name
	}
	_, err := j.db.Exec(
		"INSERT INTO reclaimed (run_id, handle, kind, data_type, host_gone, at) VALUES (?, ?, ?, ?, ?, ?)",
		runID, int64(r.ID), r.Kind.String(), dataType, r.Object == nil, time.Now().UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("recording reclaimed handle %s: %w", r.ID, err)
	}
	return nil
}

// Passes returns every pass recorded for runID in order.
func (j *Journal) Passes(runID string) ([]bridge.PassStats, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	var exists int
	err := j.db.QueryRow("SELECT 1 FROM runs WHERE id = ?", runID).Scan(&exists)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRunNotFound
		}
		return nil, fmt.Errorf("querying run: %w", err)
	}

	rows, err := j.db.Query(
		`SELECT pass, traced, roots, marked, demoted, swept, live, dead, duration_ns, at
		 FROM passes WHERE run_id = ? ORDER BY pass`, runID)
	if err != nil {
		return nil, fmt.Errorf("querying passes: %w", err)
	}
	defer rows.Close()

	var out []bridge.PassStats
	for rows.Next() {
		var s bridge.PassStats
		var pass, durNs, at int64
		if err := rows.Scan(&pass, &s.Traced, &s.Roots, &s.Marked, &s.Demoted, &s.Swept,
			&s.Live, &s.Dead, &durNs, &at); err != nil {
			return nil, fmt.Errorf("scanning pass: %w", err)
		}
		s.Pass = uint64(pass)
		s.Duration = time.Duration(durNs)
		s.Timestamp = time.Unix(0, at)
		out = append(out, s)
	}
	return out, rows.Err()
}

// ReclaimedCount returns how many handles were recorded as reclaimed in runID.
func (j *Journal) ReclaimedCount(runID string) (int, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	var n int
	if err := j.db.QueryRow("SELECT COUNT(*) FROM reclaimed WHERE run_id = ?", runID).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting reclaimed: %w", err)
	}
	return n, nil
}

// Runs returns every run ID, oldest first.
func (j *Journal) Runs() ([]string, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	rows, err := j.db.Query("SELECT id FROM runs ORDER BY started, id")
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		out = append(out, id)
	}
	return out, rows.Err()
}
