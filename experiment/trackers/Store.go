package trackers

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	ts "github.com/samuelfneumann/gowarehouse/timestep"
)

// EpisodeRecord summarises a single finished episode
type EpisodeRecord struct {
	Episode    int
	Steps      int
	Return     float64
	Deliveries int
	End        string
}

// Store tracks a summary of each episode in an experiment and saves
// the summaries as rows of an SQLite database. Rows are keyed by a run
// name and the episode index, so several runs can share a database and
// saving a run again replaces its rows.
type Store struct {
	env  Snapshotter
	path string
	run  string

	currentReturn float64
	records       []EpisodeRecord
}

// NewStore returns a new Store tracking env which will save its data
// to the SQLite database at path under the argument run name
func NewStore(path, run string, env Snapshotter) *Store {
	return &Store{env: env, path: path, run: run}
}

// Track accumulates the return of the current episode and caches its
// summary when the episode ends
func (s *Store) Track(t ts.TimeStep) {
	if t.First() {
		s.currentReturn = 0.0
	}
	s.currentReturn += t.Reward

	if t.Last() {
		s.records = append(s.records, EpisodeRecord{
			Episode:    len(s.records),
			Steps:      t.Number,
			Return:     s.currentReturn,
			Deliveries: s.env.Snapshot().Deliveries,
			End:        t.EndType().String(),
		})
		s.currentReturn = 0.0
	}
}

// Records returns the summaries of all finished episodes
func (s *Store) Records() []EpisodeRecord {
	return append([]EpisodeRecord(nil), s.records...)
}

// Save writes the cached summaries to the database
func (s *Store) Save() error {
	db, err := openStore(s.path)
	if err != nil {
		return fmt.Errorf("save: %w", err)
	}
	defer db.Close()

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("save: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(`DELETE FROM episodes WHERE run = ?`,
		s.run); err != nil {
		return fmt.Errorf("save: %w", err)
	}

	stmt, err := tx.Prepare(`INSERT INTO episodes
		(run, episode, steps, episode_return, deliveries, end_type)
		VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("save: %w", err)
	}
	defer stmt.Close()

	for _, r := range s.records {
		if _, err := stmt.Exec(s.run, r.Episode, r.Steps, r.Return,
			r.Deliveries, r.End); err != nil {
			return fmt.Errorf("save: episode %v: %w", r.Episode, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("save: %w", err)
	}
	return nil
}

// LoadEpisodes returns the episode summaries of a run saved by a Store,
// ordered by episode
func LoadEpisodes(path, run string) ([]EpisodeRecord, error) {
	db, err := openStore(path)
	if err != nil {
		return nil, fmt.Errorf("loadEpisodes: %w", err)
	}
	defer db.Close()

	rows, err := db.Query(`SELECT episode, steps, episode_return, deliveries, end_type
		FROM episodes WHERE run = ? ORDER BY episode`, run)
	if err != nil {
		return nil, fmt.Errorf("loadEpisodes: %w", err)
	}
	defer rows.Close()

	var records []EpisodeRecord
	for rows.Next() {
		var r EpisodeRecord
		if err := rows.Scan(&r.Episode, &r.Steps, &r.Return, &r.Deliveries,
			&r.End); err != nil {
			return nil, fmt.Errorf("loadEpisodes: %w", err)
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("loadEpisodes: %w", err)
	}
	return records, nil
}

func openStore(path string) (*sql.DB, error) {
	if path == "" {
		return nil, fmt.Errorf("empty db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)

	stmts := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA busy_timeout=5000;",
		`CREATE TABLE IF NOT EXISTS episodes (
			run TEXT NOT NULL,
			episode INTEGER NOT NULL,
			steps INTEGER NOT NULL,
			episode_return REAL NOT NULL,
			deliveries INTEGER NOT NULL,
			end_type TEXT NOT NULL,
			PRIMARY KEY (run, episode)
		);`,
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			_ = db.Close()
			return nil, err
		}
	}
	return db, nil
}
