package store

import (
	"database/sql"
	"errors"
	"time"
)

// Snapshot is a persisted copy of a fetched order-list projection,
// used to warm-start the in-memory cache before the first refresh.
type Snapshot struct {
	View      string
	Payload   []byte
	FetchedAt time.Time
}

// SaveSnapshot upserts the serialized projection for a view.
func (db *DB) SaveSnapshot(view string, payload []byte) error {
	if db.driver == "postgres" {
		_, err := db.Exec(db.Q(`INSERT INTO snapshots (view, payload, fetched_at) VALUES (?, ?, NOW())
			ON CONFLICT (view) DO UPDATE SET payload = EXCLUDED.payload, fetched_at = NOW()`), view, payload)
		return err
	}
	_, err := db.Exec(`INSERT INTO snapshots (view, payload, fetched_at) VALUES (?, ?, datetime('now','localtime'))
		ON CONFLICT (view) DO UPDATE SET payload = excluded.payload, fetched_at = datetime('now','localtime')`, view, payload)
	return err
}

// LoadSnapshot returns the last saved projection for a view, or
// (nil, zero time, nil) when no snapshot exists.
func (db *DB) LoadSnapshot(view string) ([]byte, time.Time, error) {
	var payload []byte
	var fetchedAt any
	err := db.QueryRow(db.Q(`SELECT payload, fetched_at FROM snapshots WHERE view=?`), view).
		Scan(&payload, &fetchedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, time.Time{}, nil
	}
	if err != nil {
		return nil, time.Time{}, err
	}
	return payload, parseTime(fetchedAt), nil
}

// DeleteSnapshot removes a view's snapshot (used on identity change,
// so a new provider never warm-starts from another account's data).
func (db *DB) DeleteSnapshot(view string) error {
	_, err := db.Exec(db.Q(`DELETE FROM snapshots WHERE view=?`), view)
	return err
}
