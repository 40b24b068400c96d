package store

// Schema is owner-created and versionless: opening a store against a fresh
// file creates everything, opening against an existing file reuses it.
// Schema changes require a fresh file.
//
// Hide columns are TEXT so SQLite keeps the exact decimal string the loader
// produced; they are never passed through floating point.
//
// The FTS table is a plain FTS5 table (default unicode61 tokenizer: match on
// whole words, `term*` for prefix) whose rowid mirrors the landholders rowid.
// Upsert maintains both inside one transaction, so the index cannot drift
// from the primary table.
const schema = `
CREATE TABLE IF NOT EXISTS landholders (
    name              TEXT,
    gender            TEXT,
    pase_name         TEXT NOT NULL PRIMARY KEY,
    description       TEXT NOT NULL,
    holder_1066       TEXT NOT NULL,
    lord_1066         TEXT NOT NULL,
    demesne_1086      TEXT NOT NULL,
    subtenanted_1086  TEXT NOT NULL,
    subtenant_1086    TEXT NOT NULL,
    editor            TEXT,
    editorial_status  TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_landholders_gender ON landholders(gender);

CREATE VIRTUAL TABLE IF NOT EXISTS landholders_fts USING fts5 (
    name,
    pase_name,
    description
);

CREATE TABLE IF NOT EXISTS imports (
    id           TEXT NOT NULL PRIMARY KEY,
    source       TEXT NOT NULL,
    total_rows   INTEGER NOT NULL,
    imported     INTEGER NOT NULL,
    skipped      INTEGER NOT NULL,
    started_at   TEXT NOT NULL,
    duration_ms  INTEGER NOT NULL
);
`
