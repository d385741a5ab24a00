// Package store persists backtest output to Postgres so runs can be
// compared and reported on later.
package store

import (
	"database/sql"
	"fmt"

	// Register postgres driver
	_ "github.com/lib/pq"

	"github.com/quantdesk/volcarry/backtest"
	"github.com/quantdesk/volcarry/timeseries"
)

const dateLayout = "2006-01-02"

// Store writes combined results and performance panels to Postgres.
type Store struct {
	db *sql.DB
}

// Open connects to Postgres with the given DSN.
func Open(dsn string) (*Store, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("store.Open: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("store.Open: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the connection pool.
func (s *Store) Close() error { return s.db.Close() }

// InitSchema creates the result tables if they do not exist.
func (s *Store) InitSchema() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS combined_results(
			run_id     TEXT             NOT NULL,
			instrument TEXT             NOT NULL,
			obs_date   DATE             NOT NULL,
			column_name TEXT            NOT NULL,
			value      DOUBLE PRECISION,
			PRIMARY KEY(run_id, instrument, obs_date, column_name)
		);
		CREATE TABLE IF NOT EXISTS performance(
			run_id    TEXT             NOT NULL,
			variant   TEXT             NOT NULL,
			component TEXT             NOT NULL,
			obs_date  DATE             NOT NULL,
			value     DOUBLE PRECISION NOT NULL,
			PRIMARY KEY(run_id, variant, component, obs_date)
		);`)
	if err != nil {
		return fmt.Errorf("store.InitSchema: %w", err)
	}
	return nil
}

// SaveResult persists a full backtest result under runID.
func (s *Store) SaveResult(runID string, res *backtest.Result) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("store.SaveResult: %w", err)
	}
	defer tx.Rollback()

	for _, key := range res.Keys {
		combined := res.Combined[key]
		dates := combined.Frame.Dates()
		for _, name := range combined.Frame.Names() {
			col, err := combined.Frame.Column(name)
			if err != nil {
				return fmt.Errorf("store.SaveResult: %w", err)
			}
			for i, d := range dates {
				if _, err := tx.Exec(
					`INSERT INTO combined_results(run_id, instrument, obs_date, column_name, value)
					 VALUES($1,$2,$3,$4,$5)
					 ON CONFLICT (run_id, instrument, obs_date, column_name) DO UPDATE SET value=EXCLUDED.value`,
					runID, string(key), d.Format(dateLayout), name, nullableFloat(col[i]),
				); err != nil {
					return fmt.Errorf("store.SaveResult: %w", err)
				}
			}
		}
	}

	if err := savePerformance(tx, runID, "hedged", res.Hedged); err != nil {
		return err
	}
	if err := savePerformance(tx, runID, "unhedged", res.Unhedged); err != nil {
		return err
	}
	return tx.Commit()
}

func savePerformance(tx *sql.Tx, runID, variant string, perf backtest.Performance) error {
	components := []struct {
		name   string
		series timeseries.Series
	}{
		{"premium", perf.Premium},
		{"payoff", perf.Payoff},
		{"mtm", perf.MTM},
	}
	for _, c := range components {
		for _, p := range c.series.Points() {
			if _, err := tx.Exec(
				`INSERT INTO performance(run_id, variant, component, obs_date, value)
				 VALUES($1,$2,$3,$4,$5)
				 ON CONFLICT (run_id, variant, component, obs_date) DO UPDATE SET value=EXCLUDED.value`,
				runID, variant, c.name, p.Date.Format(dateLayout), p.Value,
			); err != nil {
				return fmt.Errorf("store.savePerformance %s/%s: %w", variant, c.name, err)
			}
		}
	}
	return nil
}

// nullableFloat maps NaN cells to SQL NULL.
func nullableFloat(v float64) any {
	if v != v {
		return nil
	}
	return v
}
