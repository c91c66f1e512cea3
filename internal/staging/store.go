// Package staging implements the analytical staging store: a single
// embedded DuckDB database holding raw ingested JSON records, batch
// tracking, and versioned inferred schemas.
package staging

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	_ "github.com/duckdb/duckdb-go/v2"
)

// Store wraps a single-process-owned DuckDB connection. Construct via Open
// or Memory, then call Init (idempotent) before any other operation.
type Store struct {
	db   *sql.DB
	path string
	log  *slog.Logger
}

// Open opens (creating if absent) a DuckDB database file at path.
func Open(path string, log *slog.Logger) (*Store, error) {
	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, fmt.Errorf("staging: open %s: %w", path, err)
	}
	db.SetMaxOpenConns(1) // store is opened by exactly one process/connection at a time
	if log == nil {
		log = slog.Default()
	}
	return &Store{db: db, path: path, log: log.With("component", "staging")}, nil
}

// Memory opens an in-memory DuckDB database, used by tests and dry runs.
func Memory(log *slog.Logger) (*Store, error) {
	return Open(":memory:", log)
}

// Close releases the underlying connection.
func (s *Store) Close() error { return s.db.Close() }

// Init creates every staging table (if absent) and records the current
// schema version. Safe to call repeatedly.
func (s *Store) Init(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, createTablesDDL); err != nil {
		return fmt.Errorf("staging: init: create tables: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, upsertSchemaVersionSQL, strconv.Itoa(SchemaVersion)); err != nil {
		return fmt.Errorf("staging: init: write schema version: %w", err)
	}
	s.log.Info("staging store initialized", "path", s.path, "schema_version", SchemaVersion)
	return nil
}

// IsInitialized reports whether schema_info exists and carries a version.
func (s *Store) IsInitialized(ctx context.Context) (bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx, selectSchemaVersionSQL).Scan(&value)
	switch {
	case err == sql.ErrNoRows:
		return false, nil
	case err != nil:
		// A missing table also surfaces here as a driver error; treat any
		// failure to resolve schema_info as "not initialized".
		return false, nil
	default:
		return true, nil
	}
}

// SchemaVersion returns the store's recorded schema_info.version, or an
// error if the store has never been initialized.
func (s *Store) SchemaVersion(ctx context.Context) (int, error) {
	var value string
	if err := s.db.QueryRowContext(ctx, selectSchemaVersionSQL).Scan(&value); err != nil {
		return 0, &NotInitializedError{Path: s.path}
	}
	version, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("staging: corrupt schema_info.version %q: %w", value, err)
	}
	return version, nil
}

// CheckSchemaVersion is a convenience wrapper: loads the store's recorded
// version and returns SchemaVersionMismatchError if it disagrees with the
// compiled-in SchemaVersion.
func (s *Store) CheckSchemaVersion(ctx context.Context) error {
	found, err := s.SchemaVersion(ctx)
	if err != nil {
		return err
	}
	if found != SchemaVersion {
		return &SchemaVersionMismatchError{Expected: SchemaVersion, Found: found}
	}
	return nil
}

// StagedRecord is one row to insert into staged_json.
type StagedRecord struct {
	FilePath      string
	RecordIndex   int
	PartitionKey  string
	RawJSON       json.RawMessage
	ContentHash   string
	FileSizeBytes int64
}

const insertStagedJSONSQL = `
INSERT INTO staged_json (file_path, record_index, partition_key, raw_json, content_hash, file_size_bytes, ingested_at)
VALUES (?, ?, NULLIF(?, ''), ?, NULLIF(?, ''), ?, ?)
ON CONFLICT (file_path, record_index) DO NOTHING
`

// Ingest inserts a batch of staged records in a single transaction.
// Duplicate (file_path, record_index) pairs are silently skipped
// (re-ingesting the same file under ByPath/Both is a no-op), preserving the
// UNIQUE(file_path, record_index) invariant.
//
// Parallelism in ingestion is confined to the pre-insert hash/parse stages;
// Ingest itself submits its batch as one sequential transaction.
func (s *Store) Ingest(ctx context.Context, records []StagedRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return &InsertError{Err: err}
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, insertStagedJSONSQL)
	if err != nil {
		return &InsertError{Err: err}
	}
	defer stmt.Close()

	now := time.Now().UTC()
	for _, r := range records {
		if _, err := stmt.ExecContext(ctx, r.FilePath, r.RecordIndex, r.PartitionKey, string(r.RawJSON), r.ContentHash, r.FileSizeBytes, now); err != nil {
			return &InsertError{Err: err}
		}
	}

	if err := tx.Commit(); err != nil {
		return &InsertError{Err: err}
	}
	return nil
}

// ExistingFilePaths returns the distinct set of file_path values already
// staged, used by the ingestion pipeline's ByPath/Both dedup prefilter.
func (s *Store) ExistingFilePaths(ctx context.Context) (map[string]bool, error) {
	const sqlText = `SELECT DISTINCT file_path FROM staged_json`
	rows, err := s.db.QueryContext(ctx, sqlText)
	if err != nil {
		return nil, &QueryError{SQL: sqlText, Err: err}
	}
	defer rows.Close()

	out := make(map[string]bool)
	for rows.Next() {
		var path string
		if err := rows.Scan(&path); err != nil {
			return nil, &QueryError{SQL: sqlText, Err: err}
		}
		out[path] = true
	}
	return out, rows.Err()
}

// ExistingContentHashes returns the distinct set of non-empty content_hash
// values already staged, used by the ingestion pipeline's ByContent/Both
// dedup prefilter.
func (s *Store) ExistingContentHashes(ctx context.Context) (map[string]bool, error) {
	const sqlText = `SELECT DISTINCT content_hash FROM staged_json WHERE content_hash IS NOT NULL`
	rows, err := s.db.QueryContext(ctx, sqlText)
	if err != nil {
		return nil, &QueryError{SQL: sqlText, Err: err}
	}
	defer rows.Close()

	out := make(map[string]bool)
	for rows.Next() {
		var hash string
		if err := rows.Scan(&hash); err != nil {
			return nil, &QueryError{SQL: sqlText, Err: err}
		}
		out[hash] = true
	}
	return out, rows.Err()
}

// Query executes a read-only SQL statement and returns the column names
// plus each resulting row as a slice of values in that column order.
func (s *Store) Query(ctx context.Context, sqlText string) ([]string, [][]any, error) {
	rows, err := s.db.QueryContext(ctx, sqlText)
	if err != nil {
		return nil, nil, &QueryError{SQL: sqlText, Err: err}
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, nil, &QueryError{SQL: sqlText, Err: err}
	}

	var out [][]any
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, nil, &QueryError{SQL: sqlText, Err: err}
		}
		out = append(out, values)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, &QueryError{SQL: sqlText, Err: err}
	}
	return cols, out, nil
}

// GetSample returns up to n raw_json values, optionally restricted to one
// partition, using DuckDB's reservoir sampling for an unbiased draw.
func (s *Store) GetSample(ctx context.Context, n int, partition string) ([]json.RawMessage, error) {
	sqlText := "SELECT raw_json FROM staged_json"
	args := []any{}
	if partition != "" {
		sqlText += " WHERE partition_key = ?"
		args = append(args, partition)
	}
	sqlText += " USING SAMPLE ? ROWS"
	args = append(args, n)

	rows, err := s.db.QueryContext(ctx, sqlText, args...)
	if err != nil {
		return nil, &QueryError{SQL: sqlText, Err: err}
	}
	defer rows.Close()

	var out []json.RawMessage
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, &QueryError{SQL: sqlText, Err: err}
		}
		out = append(out, json.RawMessage(raw))
	}
	return out, rows.Err()
}

// RecordCount returns the number of staged_json rows, optionally filtered by
// partition.
func (s *Store) RecordCount(ctx context.Context, partition string) (int64, error) {
	sqlText := "SELECT count(*) FROM staged_json"
	args := []any{}
	if partition != "" {
		sqlText += " WHERE partition_key = ?"
		args = append(args, partition)
	}
	var count int64
	if err := s.db.QueryRowContext(ctx, sqlText, args...).Scan(&count); err != nil {
		return 0, &QueryError{SQL: sqlText, Err: err}
	}
	return count, nil
}

// PartitionStat summarizes one partition's row count.
type PartitionStat struct {
	Partition string
	Count     int64
}

// PartitionStats returns a row count per distinct partition_key.
func (s *Store) PartitionStats(ctx context.Context) ([]PartitionStat, error) {
	const sqlText = `
		SELECT coalesce(partition_key, ''), count(*)
		FROM staged_json
		GROUP BY partition_key
		ORDER BY partition_key
	`
	rows, err := s.db.QueryContext(ctx, sqlText)
	if err != nil {
		return nil, &QueryError{SQL: sqlText, Err: err}
	}
	defer rows.Close()

	var out []PartitionStat
	for rows.Next() {
		var stat PartitionStat
		if err := rows.Scan(&stat.Partition, &stat.Count); err != nil {
			return nil, &QueryError{SQL: sqlText, Err: err}
		}
		out = append(out, stat)
	}
	return out, rows.Err()
}

// ListBatches returns the most recent processing_batches rows, newest first.
func (s *Store) ListBatches(ctx context.Context, limit int) ([]Batch, error) {
	const sqlText = `
		SELECT id, source_path, source_type, coalesce(partition_key, ''), pattern, status,
		       files_total, files_processed, files_skipped, records_ingested,
		       bytes_processed, errors_count,
		       coalesce(last_file_path, ''), last_record_index,
		       started_at, updated_at, completed_at, coalesce(error_message, '')
		FROM processing_batches
		ORDER BY started_at DESC
		LIMIT ?
	`
	rows, err := s.db.QueryContext(ctx, sqlText, limit)
	if err != nil {
		return nil, &QueryError{SQL: sqlText, Err: err}
	}
	defer rows.Close()

	var out []Batch
	for rows.Next() {
		var b Batch
		var lastRecordIndex sql.NullInt64
		var completedAt sql.NullTime
		if err := rows.Scan(&b.ID, &b.SourcePath, &b.SourceType, &b.PartitionKey, &b.Pattern, &b.Status,
			&b.FilesTotal, &b.FilesProcessed, &b.FilesSkipped, &b.RecordsIngested,
			&b.BytesProcessed, &b.ErrorsCount,
			&b.LastFilePath, &lastRecordIndex,
			&b.StartedAt, &b.UpdatedAt, &completedAt, &b.ErrorMessage); err != nil {
			return nil, &QueryError{SQL: sqlText, Err: err}
		}
		if lastRecordIndex.Valid {
			v := int(lastRecordIndex.Int64)
			b.LastRecordIndex = &v
		}
		if completedAt.Valid {
			t := completedAt.Time
			b.CompletedAt = &t
		}
		out = append(out, b)
	}
	return out, rows.Err()
}
