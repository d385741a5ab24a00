package pricing

import (
	"database/sql"
	"fmt"
	"time"

	// Register sqlite3 driver
	_ "github.com/mattn/go-sqlite3"

	"github.com/quantdesk/volcarry/timeseries"
)

const dateLayout = "2006-01-02"

// SQLiteCache persists completed results on disk so repeated backtest
// runs skip vendor calls for ranges already computed. A range is only a
// hit once its whole request completed; partial rows never satisfy Get.
type SQLiteCache struct {
	db *sql.DB
}

// OpenSQLiteCache opens (or creates) a cache database at path.
func OpenSQLiteCache(path string) (*SQLiteCache, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("OpenSQLiteCache: %w", err)
	}
	c := &SQLiteCache{db: db}
	if err := c.initSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return c, nil
}

func (c *SQLiteCache) initSchema() error {
	_, err := c.db.Exec(`
		CREATE TABLE IF NOT EXISTS completed_requests(
			instrument TEXT NOT NULL,
			measure    TEXT NOT NULL,
			start_date TEXT NOT NULL,
			end_date   TEXT NOT NULL,
			PRIMARY KEY(instrument, measure, start_date, end_date)
		);
		CREATE TABLE IF NOT EXISTS observations(
			instrument TEXT NOT NULL,
			measure    TEXT NOT NULL,
			obs_date   TEXT NOT NULL,
			value      REAL NOT NULL,
			PRIMARY KEY(instrument, measure, obs_date)
		);`)
	if err != nil {
		return fmt.Errorf("SQLiteCache.initSchema: %w", err)
	}
	return nil
}

// Close releases the underlying database handle.
func (c *SQLiteCache) Close() error { return c.db.Close() }

// Get reports the cached series for req if the exact request range was
// completed before. Internal errors degrade to a miss.
func (c *SQLiteCache) Get(req Request) (timeseries.Series, bool) {
	var one int
	err := c.db.QueryRow(
		`SELECT 1 FROM completed_requests WHERE instrument=? AND measure=? AND start_date=? AND end_date=?`,
		string(req.InstrumentKey()), string(req.Measure),
		req.Start.Format(dateLayout), req.End.Format(dateLayout),
	).Scan(&one)
	if err != nil {
		return timeseries.Series{}, false
	}

	rows, err := c.db.Query(
		`SELECT obs_date, value FROM observations
		 WHERE instrument=? AND measure=? AND obs_date>=? AND obs_date<=?
		 ORDER BY obs_date ASC`,
		string(req.InstrumentKey()), string(req.Measure),
		req.Start.Format(dateLayout), req.End.Format(dateLayout),
	)
	if err != nil {
		return timeseries.Series{}, false
	}
	defer rows.Close()

	var points []timeseries.Point
	for rows.Next() {
		var ds string
		var v float64
		if err := rows.Scan(&ds, &v); err != nil {
			return timeseries.Series{}, false
		}
		d, err := time.Parse(dateLayout, ds)
		if err != nil {
			return timeseries.Series{}, false
		}
		points = append(points, timeseries.Point{Date: d, Value: v})
	}
	if err := rows.Err(); err != nil {
		return timeseries.Series{}, false
	}
	s, err := timeseries.New(points)
	if err != nil {
		return timeseries.Series{}, false
	}
	return s, true
}

// Put stores the series and marks the request range complete in one
// transaction.
func (c *SQLiteCache) Put(req Request, s timeseries.Series) error {
	tx, err := c.db.Begin()
	if err != nil {
		return fmt.Errorf("SQLiteCache.Put: %w", err)
	}
	defer tx.Rollback()

	for _, p := range s.Points() {
		if _, err := tx.Exec(
			`INSERT OR REPLACE INTO observations(instrument, measure, obs_date, value) VALUES(?,?,?,?)`,
			string(req.InstrumentKey()), string(req.Measure), p.Date.Format(dateLayout), p.Value,
		); err != nil {
			return fmt.Errorf("SQLiteCache.Put: %w", err)
		}
	}
	if _, err := tx.Exec(
		`INSERT OR REPLACE INTO completed_requests(instrument, measure, start_date, end_date) VALUES(?,?,?,?)`,
		string(req.InstrumentKey()), string(req.Measure),
		req.Start.Format(dateLayout), req.End.Format(dateLayout),
	); err != nil {
		return fmt.Errorf("SQLiteCache.Put: %w", err)
	}
	return tx.Commit()
}
