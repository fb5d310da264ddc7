// Package database keeps a Postgres-backed history of pushed snapshots.
// The spreadsheet endpoint is a non-confirming transport, so the archive is
// the one mirror we can actually query back; it doubles as the last fallback
// tier on startup. Entirely optional: wired only when a database URL is
// configured.
package database

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/nwschool/clubreg/core/registry"
)

const schema = `
CREATE TABLE IF NOT EXISTS snapshots (
	id       SERIAL PRIMARY KEY,
	taken_at TIMESTAMPTZ NOT NULL,
	doc      JSONB NOT NULL
);`

type SnapshotArchive struct {
	db        *sqlx.DB
	retention time.Duration
}

// Open connects and ensures the schema. retention bounds how far back Prune
// keeps history; zero disables pruning.
func Open(url string, retention time.Duration) (*SnapshotArchive, error) {
	db, err := sqlx.Connect("postgres", url)
	if err != nil {
		return nil, errors.Wrap(err, "connecting to archive database")
	}
	if _, err = db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "ensuring snapshots table")
	}
	return &SnapshotArchive{db: db, retention: retention}, nil
}

func (a *SnapshotArchive) Close() error {
	return a.db.Close()
}

func (a *SnapshotArchive) Save(ctx context.Context, snap registry.Snapshot) error {
	doc, err := json.Marshal(snap)
	if err != nil {
		return errors.Wrap(err, "encoding snapshot")
	}
	_, err = a.db.ExecContext(ctx,
		`INSERT INTO snapshots (taken_at, doc) VALUES ($1, $2)`,
		time.Now().UTC(), doc,
	)
	return errors.Wrap(err, "archiving snapshot")
}

// Latest returns the most recently archived snapshot.
func (a *SnapshotArchive) Latest(ctx context.Context) (registry.Snapshot, error) {
	var doc []byte
	err := a.db.GetContext(ctx, &doc,
		`SELECT doc FROM snapshots ORDER BY taken_at DESC, id DESC LIMIT 1`)
	if err != nil {
		return registry.Snapshot{}, errors.Wrap(err, "loading latest snapshot")
	}
	var snap registry.Snapshot
	if err = json.Unmarshal(doc, &snap); err != nil {
		return registry.Snapshot{}, errors.Wrap(err, "decoding archived snapshot")
	}
	return snap, nil
}

// Prune drops archived snapshots older than the retention window, keeping at
// least one row.
func (a *SnapshotArchive) Prune(ctx context.Context) error {
	if a.retention <= 0 {
		return nil
	}
	_, err := a.db.ExecContext(ctx, `
		DELETE FROM snapshots
		WHERE taken_at < $1
		  AND id <> (SELECT id FROM snapshots ORDER BY taken_at DESC, id DESC LIMIT 1)`,
		time.Now().UTC().Add(-a.retention),
	)
	return errors.Wrap(err, "pruning snapshots")
}
