package staging

// SchemaVersion is the current schema_info.version written by Init and
// checked by Open. Bumping it is a breaking change for existing stores.
const SchemaVersion = 1

// createTablesDDL is the DuckDB DDL for every staging table plus its
// required indexes. Run once inside Init's transaction.
const createTablesDDL = `
CREATE TABLE IF NOT EXISTS schema_info (
	key VARCHAR PRIMARY KEY,
	value VARCHAR NOT NULL
);

CREATE SEQUENCE IF NOT EXISTS staged_json_id_seq START 1;

CREATE TABLE IF NOT EXISTS staged_json (
	id BIGINT PRIMARY KEY DEFAULT nextval('staged_json_id_seq'),
	file_path VARCHAR NOT NULL,
	record_index INTEGER NOT NULL,
	partition_key VARCHAR,
	raw_json JSON NOT NULL,
	content_hash VARCHAR,
	file_size_bytes BIGINT,
	ingested_at TIMESTAMP DEFAULT current_timestamp,
	UNIQUE(file_path, record_index)
);

CREATE TABLE IF NOT EXISTS processing_batches (
	id VARCHAR PRIMARY KEY,
	source_path VARCHAR NOT NULL,
	source_type VARCHAR NOT NULL,
	partition_key VARCHAR,
	pattern VARCHAR NOT NULL,
	status VARCHAR NOT NULL,
	files_total INTEGER DEFAULT 0,
	files_processed INTEGER DEFAULT 0,
	files_skipped INTEGER DEFAULT 0,
	records_ingested BIGINT DEFAULT 0,
	bytes_processed BIGINT DEFAULT 0,
	errors_count INTEGER DEFAULT 0,
	last_file_path VARCHAR,
	last_record_index INTEGER,
	started_at TIMESTAMP,
	updated_at TIMESTAMP,
	completed_at TIMESTAMP,
	error_message VARCHAR
);

CREATE TABLE IF NOT EXISTS inferred_schemas (
	id VARCHAR PRIMARY KEY,
	schema_name VARCHAR NOT NULL,
	partition_key VARCHAR,
	schema_json JSON NOT NULL,
	sample_count INTEGER,
	version INTEGER DEFAULT 1,
	parent_id VARCHAR,
	created_at TIMESTAMP DEFAULT current_timestamp
);

CREATE INDEX IF NOT EXISTS idx_staged_partition ON staged_json(partition_key);
CREATE INDEX IF NOT EXISTS idx_staged_file ON staged_json(file_path);
CREATE INDEX IF NOT EXISTS idx_staged_hash ON staged_json(content_hash);
CREATE INDEX IF NOT EXISTS idx_batches_status ON processing_batches(status);
CREATE INDEX IF NOT EXISTS idx_schemas_partition ON inferred_schemas(partition_key);
`

const upsertSchemaVersionSQL = `
INSERT INTO schema_info (key, value) VALUES ('version', ?)
ON CONFLICT (key) DO UPDATE SET value = excluded.value
`

const selectSchemaVersionSQL = `SELECT value FROM schema_info WHERE key = 'version'`
