package store

import (
	"database/sql"
	"errors"
)

// MediaItem is a cached media blob keyed by storeName:entityId. It is
// a fallback copy of previously uploaded media so quote attachments
// can be re-shown without refetching from the backend.
type MediaItem struct {
	StoreName string
	EntityID  string
	Kind      string
	Data      []byte
}

func (db *DB) PutMedia(storeName, entityID, kind string, data []byte) error {
	if db.driver == "postgres" {
		_, err := db.Exec(db.Q(`INSERT INTO media_cache (store_name, entity_id, kind, data) VALUES (?, ?, ?, ?)
			ON CONFLICT (store_name, entity_id) DO UPDATE SET kind = EXCLUDED.kind, data = EXCLUDED.data`),
			storeName, entityID, kind, data)
		return err
	}
	_, err := db.Exec(`INSERT INTO media_cache (store_name, entity_id, kind, data) VALUES (?, ?, ?, ?)
		ON CONFLICT (store_name, entity_id) DO UPDATE SET kind = excluded.kind, data = excluded.data`,
		storeName, entityID, kind, data)
	return err
}

// GetMedia returns the cached blob, or (nil, nil) on a cache miss.
func (db *DB) GetMedia(storeName, entityID string) (*MediaItem, error) {
	m := &MediaItem{StoreName: storeName, EntityID: entityID}
	err := db.QueryRow(db.Q(`SELECT kind, data FROM media_cache WHERE store_name=? AND entity_id=?`),
		storeName, entityID).Scan(&m.Kind, &m.Data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return m, nil
}

func (db *DB) DeleteMedia(storeName, entityID string) error {
	_, err := db.Exec(db.Q(`DELETE FROM media_cache WHERE store_name=? AND entity_id=?`), storeName, entityID)
	return err
}
