package staging

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// BatchStatus is the lifecycle state of a ProcessingBatch.
type BatchStatus string

const (
	BatchRunning   BatchStatus = "running"
	BatchCompleted BatchStatus = "completed"
	BatchFailed    BatchStatus = "failed"
	BatchCancelled BatchStatus = "cancelled"
)

// Batch is the Go projection of a processing_batches row.
type Batch struct {
	ID              string
	SourcePath      string
	SourceType      string
	PartitionKey    string
	Pattern         string
	Status          string
	FilesTotal      int
	FilesProcessed  int
	FilesSkipped    int
	RecordsIngested int64
	BytesProcessed  int64
	ErrorsCount     int
	LastFilePath    string
	LastRecordIndex *int
	StartedAt       time.Time
	UpdatedAt       time.Time
	CompletedAt     *time.Time
	ErrorMessage    string
}

// NewBatch starts a Batch record in the Running state with a fresh UUID,
// ready to be persisted via StartBatch.
func NewBatch(sourcePath, sourceType, partitionKey, pattern string, now time.Time) *Batch {
	return &Batch{
		ID:           uuid.NewString(),
		SourcePath:   sourcePath,
		SourceType:   sourceType,
		PartitionKey: partitionKey,
		Pattern:      pattern,
		Status:       string(BatchRunning),
		StartedAt:    now,
		UpdatedAt:    now,
	}
}

const insertBatchSQL = `
INSERT INTO processing_batches
	(id, source_path, source_type, partition_key, pattern, status,
	 files_total, files_processed, files_skipped, records_ingested,
	 bytes_processed, errors_count, started_at, updated_at)
VALUES (?, ?, ?, NULLIF(?, ''), ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`

// StartBatch persists a new Batch row.
func (s *Store) StartBatch(ctx context.Context, b *Batch) error {
	_, err := s.db.ExecContext(ctx, insertBatchSQL,
		b.ID, b.SourcePath, b.SourceType, b.PartitionKey, b.Pattern, b.Status,
		b.FilesTotal, b.FilesProcessed, b.FilesSkipped, b.RecordsIngested,
		b.BytesProcessed, b.ErrorsCount, b.StartedAt, b.UpdatedAt)
	if err != nil {
		return &InsertError{Err: err}
	}
	return nil
}

const updateBatchProgressSQL = `
UPDATE processing_batches
SET files_processed = ?, files_skipped = ?, records_ingested = ?,
    bytes_processed = ?, errors_count = ?,
    last_file_path = NULLIF(?, ''), last_record_index = ?, updated_at = ?
WHERE id = ?
`

// UpdateBatchProgress persists b's current counters, used for resume
// bookmarks mid-ingestion.
func (s *Store) UpdateBatchProgress(ctx context.Context, b *Batch, now time.Time) error {
	b.UpdatedAt = now
	_, err := s.db.ExecContext(ctx, updateBatchProgressSQL,
		b.FilesProcessed, b.FilesSkipped, b.RecordsIngested, b.BytesProcessed, b.ErrorsCount,
		b.LastFilePath, b.LastRecordIndex, b.UpdatedAt, b.ID)
	if err != nil {
		return &InsertError{Err: err}
	}
	return nil
}

const selectBatchSQL = `
SELECT id, source_path, source_type, coalesce(partition_key, ''), pattern, status,
       files_total, files_processed, files_skipped, records_ingested,
       bytes_processed, errors_count,
       coalesce(last_file_path, ''), last_record_index,
       started_at, updated_at, completed_at, coalesce(error_message, '')
FROM processing_batches
WHERE id = ?
`

// GetBatch loads a single batch by id, used to resolve resume bookmarks.
func (s *Store) GetBatch(ctx context.Context, id string) (*Batch, error) {
	var b Batch
	var lastRecordIndex sql.NullInt64
	var completedAt sql.NullTime
	err := s.db.QueryRowContext(ctx, selectBatchSQL, id).Scan(
		&b.ID, &b.SourcePath, &b.SourceType, &b.PartitionKey, &b.Pattern, &b.Status,
		&b.FilesTotal, &b.FilesProcessed, &b.FilesSkipped, &b.RecordsIngested,
		&b.BytesProcessed, &b.ErrorsCount,
		&b.LastFilePath, &lastRecordIndex,
		&b.StartedAt, &b.UpdatedAt, &completedAt, &b.ErrorMessage)
	if err != nil {
		return nil, &QueryError{SQL: selectBatchSQL, Err: err}
	}
	if lastRecordIndex.Valid {
		v := int(lastRecordIndex.Int64)
		b.LastRecordIndex = &v
	}
	if completedAt.Valid {
		t := completedAt.Time
		b.CompletedAt = &t
	}
	return &b, nil
}

const finishBatchSQL = `
UPDATE processing_batches
SET status = ?, completed_at = ?, updated_at = ?, error_message = NULLIF(?, '')
WHERE id = ?
`

// FinishBatch transitions a batch to a terminal status (Completed, Failed,
// or Cancelled); batches are never mutated after this point except for
// archival.
func (s *Store) FinishBatch(ctx context.Context, b *Batch, status BatchStatus, errMsg string, now time.Time) error {
	b.Status = string(status)
	b.CompletedAt = &now
	b.UpdatedAt = now
	b.ErrorMessage = errMsg
	_, err := s.db.ExecContext(ctx, finishBatchSQL, b.Status, now, now, errMsg, b.ID)
	if err != nil {
		return &InsertError{Err: err}
	}
	return nil
}
