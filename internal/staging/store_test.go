package staging

import (
	"context"
	"encoding/json"
	"testing"
	"time"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Memory(nil)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { s.Close() })
	if err := s.Init(context.Background()); err != nil {
		t.Fatal(err)
	}
	return s
}

func TestInitIsIdempotent(t *testing.T) {
	s := newTestStore(t)
	if err := s.Init(context.Background()); err != nil {
		t.Fatalf("second Init call should be harmless: %v", err)
	}
}

func TestIsInitializedAndSchemaVersion(t *testing.T) {
	s := newTestStore(t)
	ok, err := s.IsInitialized(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Fatalf("expected store to report initialized")
	}

	version, err := s.SchemaVersion(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if version != SchemaVersion {
		t.Fatalf("expected schema version %d, got %d", SchemaVersion, version)
	}
}

func TestUninitializedStoreReportsFalse(t *testing.T) {
	s, err := Memory(nil)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	ok, err := s.IsInitialized(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Fatalf("fresh store should not report initialized")
	}
}

func TestIngestDeduplicatesByFilePathAndRecordIndex(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	records := []StagedRecord{
		{FilePath: "a.jsonl", RecordIndex: 0, RawJSON: json.RawMessage(`{"x":1}`)},
		{FilePath: "a.jsonl", RecordIndex: 0, RawJSON: json.RawMessage(`{"x":1}`)}, // duplicate
		{FilePath: "a.jsonl", RecordIndex: 1, RawJSON: json.RawMessage(`{"x":2}`)},
	}
	if err := s.Ingest(ctx, records); err != nil {
		t.Fatal(err)
	}

	count, err := s.RecordCount(ctx, "")
	if err != nil {
		t.Fatal(err)
	}
	if count != 2 {
		t.Fatalf("expected 2 rows after deduplication, got %d", count)
	}
}

func TestRecordCountByPartition(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	records := []StagedRecord{
		{FilePath: "a.jsonl", RecordIndex: 0, PartitionKey: "east", RawJSON: json.RawMessage(`{}`)},
		{FilePath: "b.jsonl", RecordIndex: 0, PartitionKey: "west", RawJSON: json.RawMessage(`{}`)},
	}
	if err := s.Ingest(ctx, records); err != nil {
		t.Fatal(err)
	}

	count, err := s.RecordCount(ctx, "east")
	if err != nil {
		t.Fatal(err)
	}
	if count != 1 {
		t.Fatalf("expected 1 row in partition east, got %d", count)
	}
}

func TestBatchLifecycle(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	b := NewBatch("/data/in", "local", "", "**/*.jsonl", now)
	if err := s.StartBatch(ctx, b); err != nil {
		t.Fatal(err)
	}

	b.FilesProcessed = 3
	b.RecordsIngested = 30
	if err := s.UpdateBatchProgress(ctx, b, now.Add(time.Second)); err != nil {
		t.Fatal(err)
	}

	if err := s.FinishBatch(ctx, b, BatchCompleted, "", now.Add(2*time.Second)); err != nil {
		t.Fatal(err)
	}

	batches, err := s.ListBatches(ctx, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(batches) != 1 {
		t.Fatalf("expected 1 batch, got %d", len(batches))
	}
	if batches[0].Status != string(BatchCompleted) {
		t.Fatalf("expected status completed, got %q", batches[0].Status)
	}
	if batches[0].RecordsIngested != 30 {
		t.Fatalf("expected 30 records ingested, got %d", batches[0].RecordsIngested)
	}
}

func TestLatestSchemaVersionZeroWithoutSchemas(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	v, err := s.LatestSchemaVersion(ctx, "users", "")
	if err != nil {
		t.Fatal(err)
	}
	if v != 0 {
		t.Fatalf("expected 0 for no existing schema, got %d", v)
	}
}
