package staging

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/flowforge/ingestcore/internal/schema"
)

// SchemaRecord is the Go projection of one inferred_schemas row: a versioned,
// append-only snapshot with an optional parent pointer for lineage.
type SchemaRecord struct {
	ID           string
	SchemaName   string
	PartitionKey string
	Schema       *schema.InferredSchema
	SampleCount  int
	Version      int
	ParentID     string
	CreatedAt    time.Time
}

const insertInferredSchemaSQL = `
INSERT INTO inferred_schemas (id, schema_name, partition_key, schema_json, sample_count, version, parent_id, created_at)
VALUES (?, ?, NULLIF(?, ''), ?, ?, ?, NULLIF(?, ''), ?)
`

// SaveSchema persists a new schema version, assigning it a fresh UUID.
// version should be one greater than the highest existing version for
// schemaName+partitionKey, or 1 for the first snapshot; callers determine
// this via LatestSchemaVersion.
func (s *Store) SaveSchema(ctx context.Context, rec *SchemaRecord, now time.Time) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	rec.CreatedAt = now

	payload, err := json.Marshal(rec.Schema)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, insertInferredSchemaSQL,
		rec.ID, rec.SchemaName, rec.PartitionKey, string(payload), rec.SampleCount, rec.Version, rec.ParentID, rec.CreatedAt)
	if err != nil {
		return &InsertError{Err: err}
	}
	return nil
}

const latestSchemaVersionSQL = `
SELECT coalesce(max(version), 0) FROM inferred_schemas
WHERE schema_name = ? AND coalesce(partition_key, '') = ?
`

// LatestSchemaVersion returns the highest existing version for
// schemaName+partitionKey, or 0 if none exist.
func (s *Store) LatestSchemaVersion(ctx context.Context, schemaName, partitionKey string) (int, error) {
	var version int
	err := s.db.QueryRowContext(ctx, latestSchemaVersionSQL, schemaName, partitionKey).Scan(&version)
	if err != nil {
		return 0, &QueryError{SQL: latestSchemaVersionSQL, Err: err}
	}
	return version, nil
}
