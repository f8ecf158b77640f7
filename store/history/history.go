package history

import (
	"database/sql"

	"github.com/pkg/errors"
	_ "modernc.org/sqlite"

	"clickpulse/model"
)

// Store persists the daily revenue series across runs. It is the only state
// that outlives a pipeline run; the drift monitor reads it for baselines.
type Store struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS daily_revenue (
	date      TEXT PRIMARY KEY,
	revenue   REAL NOT NULL,
	purchases INTEGER NOT NULL
);`

func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open history db")
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "failed to init history schema")
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Upsert writes one run's daily revenue rows, replacing any previous value
// for the same day. Re-running a day is idempotent.
func (s *Store) Upsert(days []model.DailyRevenue) error {
	tx, err := s.db.Begin()
	if err != nil {
		return errors.Wrap(err, "failed to begin history tx")
	}
	stmt, err := tx.Prepare(`INSERT INTO daily_revenue (date, revenue, purchases)
		VALUES (?, ?, ?)
		ON CONFLICT(date) DO UPDATE SET revenue = excluded.revenue, purchases = excluded.purchases`)
	if err != nil {
		tx.Rollback()
		return errors.Wrap(err, "failed to prepare history upsert")
	}
	defer stmt.Close()

	for _, day := range days {
		if _, err := stmt.Exec(day.Date, day.Revenue, day.Purchases); err != nil {
			tx.Rollback()
			return errors.Wrapf(err, "failed to upsert history for %s", day.Date)
		}
	}
	return errors.Wrap(tx.Commit(), "failed to commit history tx")
}

// LastN returns up to n days, most recent first.
func (s *Store) LastN(n int) ([]model.DailyRevenue, error) {
	rows, err := s.db.Query(
		`SELECT date, revenue, purchases FROM daily_revenue ORDER BY date DESC LIMIT ?`, n)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query history")
	}
	defer rows.Close()

	days := make([]model.DailyRevenue, 0, n)
	for rows.Next() {
		var day model.DailyRevenue
		if err := rows.Scan(&day.Date, &day.Revenue, &day.Purchases); err != nil {
			return nil, errors.Wrap(err, "failed to scan history row")
		}
		if day.Purchases > 0 {
			day.AvgOrderValue = day.Revenue / float64(day.Purchases)
		}
		days = append(days, day)
	}
	return days, rows.Err()
}
