package store

import "time"

// WithdrawalRecord mirrors a server-side withdrawal request. Records
// are append-only from the client's perspective: the only local
// mutation is reflecting a server-reported status change.
type WithdrawalRecord struct {
	ID          string
	Amount      string
	Method      string
	Status      string
	RequestedAt time.Time
	ProcessedAt *time.Time
}

// UpsertWithdrawal mirrors a withdrawal record reported by the server.
func (db *DB) UpsertWithdrawal(w *WithdrawalRecord) error {
	if db.driver == "postgres" {
		_, err := db.Exec(db.Q(`INSERT INTO withdrawals (id, amount, method, status, processed_at) VALUES (?, ?, ?, ?, ?)
			ON CONFLICT (id) DO UPDATE SET status = EXCLUDED.status, processed_at = EXCLUDED.processed_at`),
			w.ID, w.Amount, w.Method, w.Status, w.ProcessedAt)
		return err
	}
	var processedAt any
	if w.ProcessedAt != nil {
		processedAt = w.ProcessedAt.Format("2006-01-02 15:04:05")
	}
	_, err := db.Exec(`INSERT INTO withdrawals (id, amount, method, status, processed_at) VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET status = excluded.status, processed_at = excluded.processed_at`,
		w.ID, w.Amount, w.Method, w.Status, processedAt)
	return err
}

// ListWithdrawals returns the mirrored history, newest first.
func (db *DB) ListWithdrawals() ([]WithdrawalRecord, error) {
	rows, err := db.Query(`SELECT id, amount, method, status, requested_at, processed_at FROM withdrawals ORDER BY requested_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var records []WithdrawalRecord
	for rows.Next() {
		var w WithdrawalRecord
		var requestedAt any
		var processedAt any
		if err := rows.Scan(&w.ID, &w.Amount, &w.Method, &w.Status, &requestedAt, &processedAt); err != nil {
			return nil, err
		}
		w.RequestedAt = parseTime(requestedAt)
		if processedAt != nil {
			t := parseTime(processedAt)
			if !t.IsZero() {
				w.ProcessedAt = &t
			}
		}
		records = append(records, w)
	}
	return records, rows.Err()
}
