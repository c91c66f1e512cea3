package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/flowforge/ingestcore/internal/staging"
)

// Stats is the result of one Ingest call.
type Stats struct {
	FilesProcessed  int
	FilesSkipped    int
	RecordsIngested int64
	BytesProcessed  int64
	ErrorsCount     int
	Errors          []error
	Duration        time.Duration
	BatchID         string
}

// fileWork is one file carried from discovery through to insertion.
type fileWork struct {
	DiscoveredFile
	startIndex int // resume bookmark: first record index to keep, 0 normally
}

// parsedRecord is one record produced by the parse phase, still bound to
// its source file.
type parsedRecord struct {
	filePath string
	index    int
	raw      json.RawMessage
	size     int64
	hash     string
}

// Ingest runs the full six-phase discover/dedup/hash/parse/insert/track
// pipeline against store, returning aggregate Stats. Errors returned are
// fatal (discovery/config failures); per-file and per-record failures are
// recorded in Stats.Errors and do not abort the run.
func Ingest(ctx context.Context, store *staging.Store, cfg Config, log *slog.Logger) (*Stats, error) {
	if log == nil {
		log = slog.Default()
	}
	log = log.With("component", "ingest")
	start := time.Now()

	if cfg.Source == nil {
		return nil, fmt.Errorf("ingest: config has no source")
	}

	files, err := cfg.Source.List(ctx, cfg.Pattern)
	if err != nil {
		return nil, err
	}

	work := make([]fileWork, len(files))
	for i, f := range files {
		work[i] = fileWork{DiscoveredFile: f}
	}

	var resumeBatch *staging.Batch
	if cfg.Resume && cfg.BatchID != "" {
		resumeBatch, err = store.GetBatch(ctx, cfg.BatchID)
		if err != nil {
			return nil, fmt.Errorf("ingest: resolving resume batch %s: %w", cfg.BatchID, err)
		}
		if resumeBatch.Status != string(staging.BatchRunning) && resumeBatch.Status != string(staging.BatchFailed) {
			return nil, &BatchCompletedError{BatchID: cfg.BatchID, Status: resumeBatch.Status}
		}
		work = filterResumeWork(work, resumeBatch)
	}

	stats := &Stats{}

	batch := resumeBatch
	if batch == nil {
		b := staging.NewBatch(cfg.Source.RootLabel(), cfg.Source.Type(), cfg.Partition, cfg.Pattern, start)
		b.FilesTotal = len(work)
		if err := store.StartBatch(ctx, b); err != nil {
			return nil, err
		}
		batch = b
	}
	stats.BatchID = batch.ID

	// Phase 2: dedup prefilter by path. The resumed file itself (if any) is
	// exempt: it is continued, not skipped, even though it already has rows.
	if cfg.Dedup.checksPath() {
		existing, err := store.ExistingFilePaths(ctx)
		if err != nil {
			return nil, err
		}
		filtered := work[:0]
		for _, w := range work {
			if w.startIndex == 0 && existing[w.Path] {
				stats.FilesSkipped++
				continue
			}
			filtered = append(filtered, w)
		}
		work = filtered
	}

	// Phase 3: hash (parallel), only when content-based dedup is requested.
	contentCache := make(map[string][]byte)
	fileHashes := make(map[string]string)
	if cfg.Dedup.checksContent() {
		existingHashes, err := store.ExistingContentHashes(ctx)
		if err != nil {
			return nil, err
		}

		var mu sync.Mutex
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(cfg.workers())
		for _, w := range work {
			w := w
			g.Go(func() error {
				data, err := cfg.Source.Fetch(gctx, w.Path)
				if err != nil {
					mu.Lock()
					stats.Errors = append(stats.Errors, &FileError{FilePath: w.Path, Stage: "hash", Err: err})
					stats.ErrorsCount++
					mu.Unlock()
					return nil
				}
				h := contentHash(data)
				mu.Lock()
				contentCache[w.Path] = data
				fileHashes[w.Path] = h
				mu.Unlock()
				return nil
			})
		}
		_ = g.Wait()

		filtered := work[:0]
		for _, w := range work {
			h, ok := fileHashes[w.Path]
			if ok && existingHashes[h] {
				stats.FilesSkipped++
				continue
			}
			filtered = append(filtered, w)
		}
		work = filtered
	}

	// Phase 4: parse (parallel). Each file is fetched (or reused from the
	// hash cache) and split into records.
	perFile := make([][]parsedRecord, len(work))
	{
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(cfg.workers())
		var mu sync.Mutex
		for i, w := range work {
			i, w := i, w
			g.Go(func() error {
				data, ok := contentCache[w.Path]
				if !ok {
					var err error
					data, err = cfg.Source.Fetch(gctx, w.Path)
					if err != nil {
						mu.Lock()
						stats.Errors = append(stats.Errors, &FileError{FilePath: w.Path, Stage: "read", Err: err})
						stats.ErrorsCount++
						mu.Unlock()
						return nil
					}
				}
				hash, ok := fileHashes[w.Path]
				if !ok {
					hash = ""
				}

				var recs []parsedRecord
				records := parseRecords(data, func(index int, err error) {
					mu.Lock()
					stats.Errors = append(stats.Errors, &RecordError{FilePath: w.Path, RecordIndex: index, Err: err})
					stats.ErrorsCount++
					mu.Unlock()
				})
				for idx, r := range records {
					if idx < w.startIndex {
						continue
					}
					recs = append(recs, parsedRecord{
						filePath: w.Path,
						index:    idx,
						raw:      r,
						size:     int64(len(data)),
						hash:     hash,
					})
				}
				perFile[i] = recs
				return nil
			})
		}
		_ = g.Wait()
	}

	// Phase 5+6: insert (serial, batched) with batch-progress tracking.
	var pending []staging.StagedRecord
	var lastFilePath string
	var lastRecordIndex int
	flush := func() error {
		if len(pending) == 0 {
			return nil
		}
		if err := store.Ingest(ctx, pending); err != nil {
			return err
		}
		stats.RecordsIngested += int64(len(pending))
		pending = pending[:0]

		batch.LastFilePath = lastFilePath
		batch.LastRecordIndex = &lastRecordIndex
		return store.UpdateBatchProgress(ctx, batch, time.Now())
	}

	var runErr error
	for i, w := range work {
		select {
		case <-ctx.Done():
			runErr = ctx.Err()
		default:
		}
		if runErr != nil {
			break
		}

		recs := perFile[i]
		for _, r := range recs {
			pending = append(pending, staging.StagedRecord{
				FilePath:      r.filePath,
				RecordIndex:   r.index,
				PartitionKey:  cfg.Partition,
				RawJSON:       r.raw,
				ContentHash:   r.hash,
				FileSizeBytes: r.size,
			})
			lastFilePath = r.filePath
			lastRecordIndex = r.index
			stats.BytesProcessed += int64(len(r.raw))

			if len(pending) >= cfg.batchSize() {
				if err := flush(); err != nil {
					runErr = err
					break
				}
			}
		}
		if runErr != nil {
			break
		}
		stats.FilesProcessed++
		batch.FilesProcessed = stats.FilesProcessed
		batch.FilesSkipped = stats.FilesSkipped
		batch.ErrorsCount = stats.ErrorsCount
	}

	if runErr == nil {
		runErr = flush()
	}

	stats.Duration = time.Since(start)

	switch {
	case runErr != nil && runErr == context.Canceled:
		_ = store.FinishBatch(ctx, batch, staging.BatchCancelled, "", time.Now())
		return stats, runErr
	case runErr != nil:
		_ = store.FinishBatch(ctx, batch, staging.BatchFailed, runErr.Error(), time.Now())
		return stats, runErr
	default:
		if err := store.FinishBatch(ctx, batch, staging.BatchCompleted, "", time.Now()); err != nil {
			return stats, err
		}
	}

	log.Info("ingest complete",
		"files_processed", stats.FilesProcessed,
		"files_skipped", stats.FilesSkipped,
		"records_ingested", stats.RecordsIngested,
		"errors", stats.ErrorsCount,
		"duration", stats.Duration,
	)

	return stats, nil
}

// filterResumeWork restricts work to files strictly after the batch's
// last_file_path bookmark, and marks the matching file (if still present
// in the listing) to continue after last_record_index.
func filterResumeWork(work []fileWork, batch *staging.Batch) []fileWork {
	if batch.LastFilePath == "" {
		return work
	}
	var out []fileWork
	for _, w := range work {
		switch {
		case w.Path < batch.LastFilePath:
			continue
		case w.Path == batch.LastFilePath:
			if batch.LastRecordIndex != nil {
				w.startIndex = *batch.LastRecordIndex + 1
			}
			out = append(out, w)
		default:
			out = append(out, w)
		}
	}
	return out
}
