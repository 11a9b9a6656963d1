// Package trace persists per-tick trace records and aggregate run metrics
// in SQLite. It is the metrics/persistence collaborator: the simulation
// core emits records, this package owns their storage and aggregation.
package trace

import (
	"database/sql"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/essencefield/fieldsim/internal/sim"
)

// #region schema
const schema = `
CREATE TABLE IF NOT EXISTS runs (
	run_id       TEXT PRIMARY KEY,
	name         TEXT NOT NULL,
	config_json  TEXT NOT NULL,
	started_at   TEXT NOT NULL,
	finished_at  TEXT
);

CREATE TABLE IF NOT EXISTS tick_trace (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id        TEXT NOT NULL,
	tick          INTEGER NOT NULL,
	entity_id     INTEGER NOT NULL,
	position      BLOB NOT NULL,
	velocity      BLOB NOT NULL,
	speed         REAL NOT NULL,
	potential     REAL NOT NULL,
	essence       REAL NOT NULL,
	preserve      REAL NOT NULL,
	curiosity     REAL NOT NULL,
	outcome_truth    TEXT NOT NULL,
	outcome_civility TEXT NOT NULL,
	outcome_morality TEXT NOT NULL,
	memory_nodes  INTEGER NOT NULL,
	clusters      INTEGER NOT NULL,
	FOREIGN KEY (run_id) REFERENCES runs(run_id)
);
CREATE INDEX IF NOT EXISTS idx_trace_run_tick ON tick_trace(run_id, tick);

CREATE TABLE IF NOT EXISTS warnings (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id     TEXT NOT NULL,
	tick       INTEGER NOT NULL,
	entity_id  INTEGER NOT NULL,
	kind       TEXT NOT NULL,
	detail     TEXT,
	FOREIGN KEY (run_id) REFERENCES runs(run_id)
);

CREATE TABLE IF NOT EXISTS tick_metrics (
	run_id              TEXT NOT NULL,
	tick                INTEGER NOT NULL,
	attention_entropy   REAL NOT NULL,
	memory_diversity    REAL NOT NULL,
	velocity_stability  REAL NOT NULL,
	identity_coherence  REAL NOT NULL,
	cluster_stability   REAL NOT NULL,
	affective_strength  REAL NOT NULL,
	average_essence     REAL NOT NULL,
	PRIMARY KEY (run_id, tick),
	FOREIGN KEY (run_id) REFERENCES runs(run_id)
);
`

// #endregion schema

// #region store

// Store manages trace persistence in SQLite.
type Store struct {
	db    *sql.DB
	runID string
}

// NewStore opens the database, runs migrations, and registers a new run
// with the given name and configuration.
func NewStore(dbPath, runName string, cfg any) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return nil, fmt.Errorf("pragma: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}

	cfgJSON, err := json.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("marshal config: %w", err)
	}

	runID := uuid.New().String()
	_, err = db.Exec(
		`INSERT INTO runs (run_id, name, config_json, started_at) VALUES (?, ?, ?, ?)`,
		runID, runName, string(cfgJSON), time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return nil, fmt.Errorf("register run: %w", err)
	}
	return &Store{db: db, runID: runID}, nil
}

// RunID returns the identifier of the current run.
func (s *Store) RunID() string { return s.runID }

// Close marks the run finished and closes the database.
func (s *Store) Close() error {
	_, err := s.db.Exec(
		`UPDATE runs SET finished_at = ? WHERE run_id = ?`,
		time.Now().UTC().Format(time.RFC3339Nano), s.runID,
	)
	if cerr := s.db.Close(); err == nil {
		err = cerr
	}
	return err
}

// DB exposes the underlying handle for read-only inspection tools.
func (s *Store) DB() *sql.DB { return s.db }

// #endregion store

// #region record-tick

// RecordTick persists one committed tick: every trace record, every
// warning, and the aggregate metrics row, in a single transaction.
func (s *Store) RecordTick(res sim.StepResult) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	for _, r := range res.Records {
		_, err := tx.Exec(
			`INSERT INTO tick_trace (run_id, tick, entity_id, position, velocity, speed, potential,
			 essence, preserve, curiosity, outcome_truth, outcome_civility, outcome_morality,
			 memory_nodes, clusters)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			s.runID, r.Tick, r.EntityID, encodeVector(r.Position), encodeVector(r.Velocity),
			r.Speed, r.Potential, r.Essence, r.Preserve, r.Curiosity,
			r.Outcomes[0], r.Outcomes[1], r.Outcomes[2], r.MemoryNodes, r.Clusters,
		)
		if err != nil {
			return fmt.Errorf("insert trace: %w", err)
		}
	}

	for _, w := range res.Warnings {
		_, err := tx.Exec(
			`INSERT INTO warnings (run_id, tick, entity_id, kind, detail) VALUES (?, ?, ?, ?, ?)`,
			s.runID, w.Tick, w.EntityID, string(w.Kind), w.Detail,
		)
		if err != nil {
			return fmt.Errorf("insert warning: %w", err)
		}
	}

	m := Aggregate(res.Records)
	_, err = tx.Exec(
		`INSERT INTO tick_metrics (run_id, tick, attention_entropy, memory_diversity,
		 velocity_stability, identity_coherence, cluster_stability, affective_strength, average_essence)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		s.runID, res.Tick, m.AttentionEntropy, m.MemoryDiversity, m.VelocityStability,
		m.IdentityCoherence, m.ClusterStability, m.AffectiveStrength, m.AverageEssence,
	)
	if err != nil {
		return fmt.Errorf("insert metrics: %w", err)
	}

	return tx.Commit()
}

// #endregion record-tick

// #region queries

// MetricsHistory returns the per-tick metrics of a run in tick order.
func (s *Store) MetricsHistory(runID string) ([]Metrics, error) {
	rows, err := s.db.Query(
		`SELECT tick, attention_entropy, memory_diversity, velocity_stability,
		 identity_coherence, cluster_stability, affective_strength, average_essence
		 FROM tick_metrics WHERE run_id = ? ORDER BY tick`, runID,
	)
	if err != nil {
		return nil, fmt.Errorf("query metrics: %w", err)
	}
	defer rows.Close()

	var out []Metrics
	for rows.Next() {
		var m Metrics
		if err := rows.Scan(&m.Tick, &m.AttentionEntropy, &m.MemoryDiversity,
			&m.VelocityStability, &m.IdentityCoherence, &m.ClusterStability,
			&m.AffectiveStrength, &m.AverageEssence); err != nil {
			return nil, fmt.Errorf("scan metrics: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// WarningCount returns the number of warnings recorded for a run.
func (s *Store) WarningCount(runID string) (int, error) {
	var n int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM warnings WHERE run_id = ?`, runID).Scan(&n)
	return n, err
}

// #endregion queries

// #region vector-encoding

func encodeVector(v []float32) []byte {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// DecodeVector unpacks a position/velocity blob.
func DecodeVector(b []byte) []float32 {
	v := make([]float32, len(b)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return v
}

// #endregion vector-encoding
