// Package store keeps a local sqlite history of downloaded activities.
package store

import (
	"context"
	"database/sql"

	"github.com/briangreenhill/gpxfetch/internal/activity"
)

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) (*Store, error) {
	_, err := db.Exec(`
        CREATE TABLE IF NOT EXISTS downloads (
        activity_id TEXT PRIMARY KEY,
        name TEXT,
        type TEXT,
        filename TEXT,
        run_id TEXT,
        created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP)`)
	if err != nil {
		return nil, err
	}
	return &Store{db: db}, nil
}

func (s *Store) Record(ctx context.Context, a activity.Activity, filename, runID string) error {
	_, err := s.db.ExecContext(ctx, `
        INSERT OR REPLACE INTO downloads
        (activity_id, name, type, filename, run_id)
        VALUES (?, ?, ?, ?, ?)`,
		a.ID, a.Name, a.Type, filename, runID)
	return err
}

func (s *Store) Seen(ctx context.Context, activityID string) (bool, error) {
	row := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM downloads WHERE activity_id = ?", activityID)
	var count int
	if err := row.Scan(&count); err != nil {
		return false, err
	}
	return count > 0, nil
}

func (s *Store) List(ctx context.Context) ([]activity.DownloadRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT activity_id, name, type, filename, run_id, created_at FROM downloads ORDER BY created_at DESC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := []activity.DownloadRecord{}
	for rows.Next() {
		var r activity.DownloadRecord
		// The driver hands TIMESTAMP columns back as time.Time.
		if err := rows.Scan(&r.ActivityID, &r.Name, &r.Type, &r.Filename, &r.RunID, &r.CreatedAt); err != nil {
			return nil, err
		}
		records = append(records, r)
	}

	return records, rows.Err()
}
