// Package history persists per-generation outcomes of ensemble runs to
// SQLite so finished runs can be inspected after the fact.
package history

import (
	"database/sql"
	"encoding/json"
	"sync"

	_ "github.com/mattn/go-sqlite3"

	"github.com/strataml/cubefit/pkg/errors"
	"github.com/strataml/cubefit/pkg/scoring"
)

// Recorder implements the engine's RunRecorder interface on a SQLite
// database. If path is ":memory:", the database is created in-memory.
type Recorder struct {
	db   *sql.DB
	mu   sync.Mutex
	path string

	initialized sync.Once
}

// NewRecorder opens (or creates) the database at path.
func NewRecorder(path string) (*Recorder, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, errors.WithFields(
			errors.Wrap(err, errors.Unknown, "failed to open SQLite database"),
			errors.Fields{"path": path},
		)
	}

	r := &Recorder{db: db, path: path}
	if err := r.ensureInitialized(); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *Recorder) ensureInitialized() error {
	var initErr error
	r.initialized.Do(func() {
		// Enable WAL mode for better concurrency
		if _, err := r.db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
			initErr = errors.Wrap(err, errors.Unknown, "failed to enable WAL mode")
			return
		}

		query := `
        CREATE TABLE IF NOT EXISTS score_records (
            run_id TEXT NOT NULL,
            generation INTEGER NOT NULL,
            tag TEXT NOT NULL,
            scores TEXT,
            weights TEXT,
            created_at DATETIME DEFAULT CURRENT_TIMESTAMP
        );
        CREATE INDEX IF NOT EXISTS idx_score_records_run
        ON score_records(run_id, generation);

        CREATE TABLE IF NOT EXISTS failures (
            run_id TEXT NOT NULL,
            generation INTEGER NOT NULL,
            tag TEXT NOT NULL,
            phase TEXT NOT NULL,
            error TEXT NOT NULL,
            created_at DATETIME DEFAULT CURRENT_TIMESTAMP
        );
        CREATE INDEX IF NOT EXISTS idx_failures_run
        ON failures(run_id, generation);
        `

		if _, err := r.db.Exec(query); err != nil {
			initErr = errors.Wrap(err, errors.Unknown, "failed to initialize database")
			return
		}
	})
	return initErr
}

// RecordScores writes one row per score record of a generation.
func (r *Recorder) RecordScores(runID string, generation int, records []scoring.ScoreRecord) error {
	if err := r.ensureInitialized(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	tx, err := r.db.Begin()
	if err != nil {
		return errors.Wrap(err, errors.Unknown, "beginning score transaction")
	}
	defer func() {
		_ = tx.Rollback()
	}()

	stmt, err := tx.Prepare(
		"INSERT INTO score_records (run_id, generation, tag, scores, weights) VALUES (?, ?, ?, ?, ?)")
	if err != nil {
		return errors.Wrap(err, errors.Unknown, "preparing score insert")
	}
	defer stmt.Close()

	for _, rec := range records {
		scores, err := json.Marshal(rec.Scores)
		if err != nil {
			return errors.Wrap(err, errors.Unknown, "encoding scores")
		}
		weights, err := json.Marshal(rec.Weights)
		if err != nil {
			return errors.Wrap(err, errors.Unknown, "encoding weights")
		}
		if _, err := stmt.Exec(runID, generation, rec.Tag, string(scores), string(weights)); err != nil {
			return errors.WithFields(
				errors.Wrap(err, errors.Unknown, "inserting score record"),
				errors.Fields{"tag": rec.Tag, "generation": generation},
			)
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, errors.Unknown, "committing score records")
	}
	return nil
}

// RecordFailure writes one member failure (fit or predict phase).
func (r *Recorder) RecordFailure(runID string, generation int, tag, phase string, failure error) error {
	if err := r.ensureInitialized(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(
		"INSERT INTO failures (run_id, generation, tag, phase, error) VALUES (?, ?, ?, ?, ?)",
		runID, generation, tag, phase, failure.Error())
	if err != nil {
		return errors.WithFields(
			errors.Wrap(err, errors.Unknown, "inserting failure record"),
			errors.Fields{"tag": tag, "generation": generation, "phase": phase},
		)
	}
	return nil
}

// ScoreRow is one persisted score record.
type ScoreRow struct {
	Generation int
	Tag        string
	Scores     []float64
	Weights    []float64
}

// Scores returns every score record of a run, ordered by generation then
// insertion order.
func (r *Recorder) Scores(runID string) ([]ScoreRow, error) {
	if err := r.ensureInitialized(); err != nil {
		return nil, err
	}

	rows, err := r.db.Query(
		"SELECT generation, tag, scores, weights FROM score_records WHERE run_id = ? ORDER BY generation, rowid",
		runID)
	if err != nil {
		return nil, errors.Wrap(err, errors.Unknown, "querying score records")
	}
	defer rows.Close()

	var out []ScoreRow
	for rows.Next() {
		var row ScoreRow
		var scores, weights string
		if err := rows.Scan(&row.Generation, &row.Tag, &scores, &weights); err != nil {
			return nil, errors.Wrap(err, errors.Unknown, "scanning score record")
		}
		if err := json.Unmarshal([]byte(scores), &row.Scores); err != nil {
			return nil, errors.Wrap(err, errors.Unknown, "decoding scores")
		}
		if err := json.Unmarshal([]byte(weights), &row.Weights); err != nil {
			return nil, errors.Wrap(err, errors.Unknown, "decoding weights")
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// FailureRow is one persisted failure record.
type FailureRow struct {
	Generation int
	Tag        string
	Phase      string
	Error      string
}

// Failures returns every failure record of a run.
func (r *Recorder) Failures(runID string) ([]FailureRow, error) {
	if err := r.ensureInitialized(); err != nil {
		return nil, err
	}

	rows, err := r.db.Query(
		"SELECT generation, tag, phase, error FROM failures WHERE run_id = ? ORDER BY generation, rowid",
		runID)
	if err != nil {
		return nil, errors.Wrap(err, errors.Unknown, "querying failure records")
	}
	defer rows.Close()

	var out []FailureRow
	for rows.Next() {
		var row FailureRow
		if err := rows.Scan(&row.Generation, &row.Tag, &row.Phase, &row.Error); err != nil {
			return nil, errors.Wrap(err, errors.Unknown, "scanning failure record")
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// Close releases the underlying database handle.
func (r *Recorder) Close() error {
	return r.db.Close()
}
