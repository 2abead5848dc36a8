// Package ledger tracks a content fingerprint per source document so the
// ingestion controller can skip documents whose content has not changed.
package ledger

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

// ErrStorage indicates a read or write failure against the ledger database.
var ErrStorage = errors.New("ledger storage failure")

const schema = `
CREATE TABLE IF NOT EXISTS document_hashes (
	filename         TEXT PRIMARY KEY,
	content_hash     TEXT NOT NULL,
	last_ingested_at TIMESTAMP NOT NULL
);
`

// Record is one ledger entry: a source filename together with the hash of
// the raw content it was last ingested from.
type Record struct {
	Filename       string
	ContentHash    string
	LastIngestedAt time.Time
}

// ChunkCounter reports how many chunks a source currently has in the
// retrieval store. The ledger uses it to detect records whose chunks were
// deleted without the hash being cleared.
type ChunkCounter interface {
	CountBySource(ctx context.Context, source string) (int, error)
}

// Ledger persists document hashes in a SQLite database.
type Ledger struct {
	db     *sql.DB
	logger *zap.Logger
}

// Open opens (creating if necessary) the ledger database at path.
func Open(path string, logger *zap.Logger) (*Ledger, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("%w: opening %s: %v", ErrStorage, path, err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: creating schema: %v", ErrStorage, err)
	}

	logger.Info("ledger opened", zap.String("path", path))

	return &Ledger{db: db, logger: logger}, nil
}

// Fingerprint returns the SHA-256 digest of content as a 64-character hex
// string. The digest is taken over the raw, pre-clean content.
func Fingerprint(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}

// Get returns the ledger record for filename, or nil if none exists.
func (l *Ledger) Get(ctx context.Context, filename string) (*Record, error) {
	row := l.db.QueryRowContext(ctx,
		`SELECT filename, content_hash, last_ingested_at FROM document_hashes WHERE filename = ?`,
		filename)

	var rec Record
	if err := row.Scan(&rec.Filename, &rec.ContentHash, &rec.LastIngestedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: reading record for %s: %v", ErrStorage, filename, err)
	}
	return &rec, nil
}

// NeedsReingestion reports whether filename must be (re)ingested given its
// current raw content. True when no record exists, when the stored hash
// differs from the content fingerprint, or when the hash matches but the
// retrieval store holds no chunks for the source (a partial-failure state
// the caller heals by re-ingesting).
func (l *Ledger) NeedsReingestion(ctx context.Context, filename string, raw []byte, counter ChunkCounter) (bool, error) {
	rec, err := l.Get(ctx, filename)
	if err != nil {
		return false, err
	}
	if rec == nil {
		return true, nil
	}

	if rec.ContentHash != Fingerprint(raw) {
		return true, nil
	}

	count, err := counter.CountBySource(ctx, filename)
	if err != nil {
		return false, err
	}
	if count == 0 {
		l.logger.Warn("ledger record has no chunks in store, forcing re-ingestion",
			zap.String("filename", filename))
		return true, nil
	}

	return false, nil
}

// Upsert records the fingerprint of raw for filename with the current time.
// Call only after the chunks for filename have been persisted: a crash
// before chunk insertion leaves the old hash in place and the document is
// retried on the next run.
func (l *Ledger) Upsert(ctx context.Context, filename string, raw []byte) error {
	_, err := l.db.ExecContext(ctx,
		`INSERT INTO document_hashes (filename, content_hash, last_ingested_at)
		 VALUES (?, ?, ?)
		 ON CONFLICT(filename) DO UPDATE SET
		   content_hash = excluded.content_hash,
		   last_ingested_at = excluded.last_ingested_at`,
		filename, Fingerprint(raw), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("%w: upserting record for %s: %v", ErrStorage, filename, err)
	}
	return nil
}

// Close closes the underlying database.
func (l *Ledger) Close() error {
	return l.db.Close()
}
