// Package store persists run metadata and per-city summaries in SQLite so
// summary and what-if commands can read cached results without recomputing.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/libraryreach/reach-cli/internal/summary"
)

// Run is one recorded engine run.
type Run struct {
	ID              string    `json:"id"`
	Scenario        string    `json:"scenario"`
	ReferenceLatDeg float64   `json:"reference_lat_deg"`
	Cities          []string  `json:"cities"`
	CreatedAt       time.Time `json:"created_at"`
}

// Store implements run and summary persistence using modernc.org/sqlite.
type Store struct {
	db *sql.DB
}

// Open opens a SQLite database at the given path and configures WAL mode.
func Open(dsn string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "store: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "store: exec %s", pragma)
		}
	}
	return &Store{db: db}, nil
}

const migration = `
CREATE TABLE IF NOT EXISTS runs (
	id            TEXT PRIMARY KEY,
	scenario      TEXT NOT NULL,
	reference_lat REAL NOT NULL,
	cities        TEXT NOT NULL,
	created_at    DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS summaries (
	run_id  TEXT NOT NULL REFERENCES runs(id),
	city    TEXT NOT NULL,
	payload TEXT NOT NULL,
	PRIMARY KEY (run_id, city)
);

CREATE INDEX IF NOT EXISTS idx_runs_scenario ON runs(scenario, created_at);
`

func (s *Store) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, migration)
	return eris.Wrap(err, "store: migrate")
}

func (s *Store) Close() error {
	return s.db.Close()
}

// SaveRun records a run and returns it with a fresh ID and timestamp.
func (s *Store) SaveRun(ctx context.Context, scenario string, referenceLatDeg float64, cities []string) (*Run, error) {
	run := &Run{
		ID:              uuid.New().String(),
		Scenario:        scenario,
		ReferenceLatDeg: referenceLatDeg,
		Cities:          cities,
		CreatedAt:       time.Now().UTC(),
	}

	citiesJSON, err := json.Marshal(run.Cities)
	if err != nil {
		return nil, eris.Wrap(err, "store: marshal cities")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO runs (id, scenario, reference_lat, cities, created_at) VALUES (?, ?, ?, ?, ?)`,
		run.ID, run.Scenario, run.ReferenceLatDeg, string(citiesJSON), run.CreatedAt,
	)
	if err != nil {
		return nil, eris.Wrap(err, "store: insert run")
	}
	return run, nil
}

// SaveCitySummary upserts one city's summary payload for a run.
func (s *Store) SaveCitySummary(ctx context.Context, runID, city string, sum summary.Summary) error {
	payload, err := json.Marshal(sum)
	if err != nil {
		return eris.Wrapf(err, "store: marshal summary for %s", city)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO summaries (run_id, city, payload) VALUES (?, ?, ?)
		 ON CONFLICT (run_id, city) DO UPDATE SET payload = excluded.payload`,
		runID, city, string(payload),
	)
	return eris.Wrapf(err, "store: save summary %s/%s", runID, city)
}

// LatestRun returns the most recent run for a scenario, or nil when the
// scenario has never been recorded.
func (s *Store) LatestRun(ctx context.Context, scenario string) (*Run, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, scenario, reference_lat, cities, created_at FROM runs
		 WHERE scenario = ? ORDER BY created_at DESC, id DESC LIMIT 1`,
		scenario,
	)

	var (
		run        Run
		citiesJSON string
	)
	err := row.Scan(&run.ID, &run.Scenario, &run.ReferenceLatDeg, &citiesJSON, &run.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "store: scan run")
	}
	if err := json.Unmarshal([]byte(citiesJSON), &run.Cities); err != nil {
		return nil, eris.Wrap(err, "store: unmarshal cities")
	}
	return &run, nil
}

// CitySummaries loads every stored per-city summary for a run.
func (s *Store) CitySummaries(ctx context.Context, runID string) (map[string]summary.Summary, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT city, payload FROM summaries WHERE run_id = ?`,
		runID,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "store: list summaries %s", runID)
	}
	defer rows.Close()

	out := make(map[string]summary.Summary)
	for rows.Next() {
		var (
			city    string
			payload string
		)
		if err := rows.Scan(&city, &payload); err != nil {
			return nil, eris.Wrap(err, "store: scan summary")
		}
		var sum summary.Summary
		if err := json.Unmarshal([]byte(payload), &sum); err != nil {
			return nil, eris.Wrapf(err, "store: unmarshal summary for %s", city)
		}
		out[city] = sum
	}
	return out, eris.Wrap(rows.Err(), "store: iterate summaries")
}
