package store

const schemaSQLite = `
CREATE TABLE IF NOT EXISTS snapshots (
    view        TEXT PRIMARY KEY,
    payload     BLOB NOT NULL,
    fetched_at  TEXT NOT NULL DEFAULT (datetime('now','localtime'))
);

CREATE TABLE IF NOT EXISTS media_cache (
    store_name  TEXT NOT NULL,
    entity_id   TEXT NOT NULL,
    kind        TEXT NOT NULL DEFAULT '',
    data        BLOB NOT NULL,
    created_at  TEXT NOT NULL DEFAULT (datetime('now','localtime')),
    PRIMARY KEY (store_name, entity_id)
);

CREATE TABLE IF NOT EXISTS withdrawals (
    id           TEXT PRIMARY KEY,
    amount       TEXT NOT NULL DEFAULT '0',
    method       TEXT NOT NULL DEFAULT '',
    status       TEXT NOT NULL DEFAULT 'pending',
    requested_at TEXT NOT NULL DEFAULT (datetime('now','localtime')),
    processed_at TEXT
);
CREATE INDEX IF NOT EXISTS idx_withdrawals_status ON withdrawals(status);

CREATE TABLE IF NOT EXISTS admin_users (
    id            INTEGER PRIMARY KEY AUTOINCREMENT,
    username      TEXT NOT NULL UNIQUE,
    password_hash TEXT NOT NULL,
    created_at    TEXT NOT NULL DEFAULT (datetime('now','localtime'))
);
`
