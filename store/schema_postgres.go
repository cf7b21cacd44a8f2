package store

const schemaPostgres = `
CREATE TABLE IF NOT EXISTS snapshots (
    view        TEXT PRIMARY KEY,
    payload     BYTEA NOT NULL,
    fetched_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS media_cache (
    store_name  TEXT NOT NULL,
    entity_id   TEXT NOT NULL,
    kind        TEXT NOT NULL DEFAULT '',
    data        BYTEA NOT NULL,
    created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    PRIMARY KEY (store_name, entity_id)
);

CREATE TABLE IF NOT EXISTS withdrawals (
    id           TEXT PRIMARY KEY,
    amount       TEXT NOT NULL DEFAULT '0',
    method       TEXT NOT NULL DEFAULT '',
    status       TEXT NOT NULL DEFAULT 'pending',
    requested_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    processed_at TIMESTAMPTZ
);
CREATE INDEX IF NOT EXISTS idx_withdrawals_status ON withdrawals(status);

CREATE TABLE IF NOT EXISTS admin_users (
    id            BIGSERIAL PRIMARY KEY,
    username      TEXT NOT NULL UNIQUE,
    password_hash TEXT NOT NULL,
    created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
`
