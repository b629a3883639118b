package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"sync"

	"github.com/custodia-labs/taskman/internal/core/domain"
	"github.com/custodia-labs/taskman/internal/core/ports/driven"
	"github.com/custodia-labs/taskman/internal/logger"
)

// Ensure VectorIndex implements the interface.
var _ driven.VectorIndex = (*VectorIndex)(nil)

// VectorIndex is the episodic-memory sidecar. It lives in the same database
// file as the task store but owns a separate single-connection handle, so
// sidecar writes are serialised and never hold up task reads.
//
// The connection is opened lazily, after the vec_l2 function has been
// registered with the driver.
type VectorIndex struct {
	path      string
	dimension int
	ext       *extension

	mu          sync.Mutex
	db          *sql.DB
	schemaReady bool
}

// NewVectorIndex creates a sidecar on the database file at path for
// vectors of the given length. Nothing is opened until first use.
func NewVectorIndex(path string, dimension int) *VectorIndex {
	return &VectorIndex{
		path:      path,
		dimension: dimension,
		ext:       sharedExtension,
	}
}

// EnsureSchema creates the sidecar tables if absent and checks that the
// recorded dimension matches.
func (v *VectorIndex) EnsureSchema(ctx context.Context) error {
	_, err := v.conn(ctx)
	return err
}

// Upsert replaces the entry for taskID inside one transaction.
func (v *VectorIndex) Upsert(ctx context.Context, taskID int64, embedding []float32) error {
	if len(embedding) != v.dimension {
		return fmt.Errorf("embedding has %d components, want %d: %w",
			len(embedding), v.dimension, domain.ErrDimensionMismatch)
	}

	db, err := v.conn(ctx)
	if err != nil {
		return err
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning upsert: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	if _, err := tx.ExecContext(ctx, `DELETE FROM vec_tasks WHERE task_id = ?`, taskID); err != nil {
		return fmt.Errorf("clearing embedding: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO vec_tasks (task_id, embedding) VALUES (?, ?)`,
		taskID, float32SliceToBytes(embedding)); err != nil {
		return fmt.Errorf("inserting embedding: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing upsert: %w", err)
	}
	return nil
}

// Delete removes the entry for taskID. Absent entries are a no-op.
func (v *VectorIndex) Delete(ctx context.Context, taskID int64) error {
	db, err := v.conn(ctx)
	if err != nil {
		return err
	}
	if _, err := db.ExecContext(ctx, `DELETE FROM vec_tasks WHERE task_id = ?`, taskID); err != nil {
		return fmt.Errorf("deleting embedding: %w", err)
	}
	return nil
}

// Nearest returns up to k entries ordered by ascending L2 distance,
// ties broken by ascending task ID. Stored blobs of the wrong size are
// skipped.
func (v *VectorIndex) Nearest(ctx context.Context, query []float32, k int) ([]driven.VectorHit, error) {
	if len(query) != v.dimension {
		return nil, fmt.Errorf("query has %d components, want %d: %w",
			len(query), v.dimension, domain.ErrDimensionMismatch)
	}
	if k <= 0 {
		return []driven.VectorHit{}, nil
	}

	db, err := v.conn(ctx)
	if err != nil {
		return nil, err
	}

	v.logCorruptEntries(ctx, db)

	rows, err := db.QueryContext(ctx, `
		SELECT task_id, distance FROM (
			SELECT task_id, `+vecL2Function+`(embedding, ?) AS distance FROM vec_tasks
		)
		WHERE distance IS NOT NULL
		ORDER BY distance ASC, task_id ASC
		LIMIT ?
	`, float32SliceToBytes(query), k)
	if err != nil {
		return nil, fmt.Errorf("querying nearest: %w", err)
	}
	defer rows.Close()

	hits := make([]driven.VectorHit, 0, k)
	for rows.Next() {
		var hit driven.VectorHit
		if err := rows.Scan(&hit.TaskID, &hit.Distance); err != nil {
			return nil, fmt.Errorf("scanning hit: %w", err)
		}
		hits = append(hits, hit)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating hits: %w", err)
	}
	return hits, nil
}

// Reset drops the sidecar tables. They are recreated on next use.
func (v *VectorIndex) Reset(ctx context.Context) error {
	if err := v.ext.load(); err != nil {
		return fmt.Errorf("%w: registering %s: %w", domain.ErrVectorIndexUnavailable, vecL2Function, err)
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	if v.db == nil {
		if err := v.open(); err != nil {
			return err
		}
	}
	if _, err := v.db.ExecContext(ctx, `
		DROP TABLE IF EXISTS vec_tasks;
		DROP TABLE IF EXISTS vec_tasks_meta;
	`); err != nil {
		return fmt.Errorf("dropping sidecar: %w", err)
	}
	v.schemaReady = false
	logger.Info("Vector sidecar reset")
	return nil
}

// Count returns the number of indexed entries.
func (v *VectorIndex) Count(ctx context.Context) (int, error) {
	db, err := v.conn(ctx)
	if err != nil {
		return 0, err
	}
	var n int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM vec_tasks`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting embeddings: %w", err)
	}
	return n, nil
}

// Dimension returns the configured vector length.
func (v *VectorIndex) Dimension() int {
	return v.dimension
}

// Close releases the sidecar connection.
func (v *VectorIndex) Close() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.db == nil {
		return nil
	}
	err := v.db.Close()
	v.db = nil
	v.schemaReady = false
	return err
}

// conn returns the sidecar handle, registering the extension, opening the
// connection and creating the schema as needed.
func (v *VectorIndex) conn(ctx context.Context) (*sql.DB, error) {
	if err := v.ext.load(); err != nil {
		return nil, fmt.Errorf("%w: registering %s: %w", domain.ErrVectorIndexUnavailable, vecL2Function, err)
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	if v.db == nil {
		if err := v.open(); err != nil {
			return nil, err
		}
	}

	if !v.schemaReady {
		if err := v.createSchema(ctx); err != nil {
			return nil, err
		}
		v.schemaReady = true
	}
	return v.db, nil
}

// open connects to the database file (caller must hold lock).
func (v *VectorIndex) open() error {
	db, err := sql.Open("sqlite", dsn(v.path))
	if err != nil {
		return fmt.Errorf("%w: opening sidecar: %w", domain.ErrVectorIndexUnavailable, err)
	}
	db.SetMaxOpenConns(1)
	v.db = db
	v.schemaReady = false
	return nil
}

// createSchema creates the sidecar tables (caller must hold lock).
func (v *VectorIndex) createSchema(ctx context.Context) error {
	if _, err := v.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS vec_tasks (
			task_id INTEGER PRIMARY KEY,
			embedding BLOB NOT NULL
		);
		CREATE TABLE IF NOT EXISTS vec_tasks_meta (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);
	`); err != nil {
		return fmt.Errorf("%w: creating sidecar schema: %w", domain.ErrVectorIndexUnavailable, err)
	}

	if _, err := v.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO vec_tasks_meta (key, value) VALUES ('dimension', ?)`,
		strconv.Itoa(v.dimension)); err != nil {
		return fmt.Errorf("%w: recording dimension: %w", domain.ErrVectorIndexUnavailable, err)
	}

	var stored string
	if err := v.db.QueryRowContext(ctx,
		`SELECT value FROM vec_tasks_meta WHERE key = 'dimension'`).Scan(&stored); err != nil {
		return fmt.Errorf("%w: reading dimension: %w", domain.ErrVectorIndexUnavailable, err)
	}
	if stored != strconv.Itoa(v.dimension) {
		return fmt.Errorf("sidecar was built for dimension %s, configured %d (reindex with --reset): %w",
			stored, v.dimension, domain.ErrDimensionMismatch)
	}
	return nil
}

// logCorruptEntries warns about blobs that vec_l2 will ignore.
func (v *VectorIndex) logCorruptEntries(ctx context.Context, db *sql.DB) {
	var n int
	err := db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM vec_tasks WHERE length(embedding) != ?`, v.dimension*4).Scan(&n)
	if err == nil && n > 0 {
		logger.Warn("Skipping %d sidecar entries with unexpected size", n)
	}
}
