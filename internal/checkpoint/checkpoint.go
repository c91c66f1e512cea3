// Package checkpoint persists a pipeline run's progress to a
// "<stem>.checkpoint.json" file alongside the staging store. Writes are
// whole-file replacements via a temp-file-plus-rename so a crash mid-write
// never leaves a torn checkpoint; reads tolerate unknown fields for forward
// compatibility.
package checkpoint

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Status is the run-level lifecycle state, mirrored by ProcessingBatch's
// status in internal/staging.
type Status string

const (
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
)

// StageOutput records one completed (or skipped) pipeline stage's result.
type StageOutput struct {
	Success    bool                   `json:"success"`
	Skipped    bool                   `json:"skipped"`
	SkipReason string                 `json:"skip_reason,omitempty"`
	Files      []string               `json:"files,omitempty"`
	Metadata   map[string]json.RawMessage `json:"metadata,omitempty"`
	DurationMs int64                  `json:"duration_ms"`
	Timestamp  time.Time              `json:"timestamp"`
}

// Checkpoint is the full persisted state of one pipeline run.
type Checkpoint struct {
	RunID           string                 `json:"run_id"`
	Name            string                 `json:"name,omitempty"`
	StartedAt       time.Time              `json:"started_at"`
	UpdatedAt       time.Time              `json:"updated_at"`
	Status          Status                 `json:"status"`
	CompletedStages []string               `json:"completed_stages"`
	CurrentStage    string                 `json:"current_stage,omitempty"`
	StageOutputs    map[string]StageOutput `json:"stage_outputs"`
	Error           string                 `json:"error,omitempty"`
	ConfigHash      string                 `json:"config_hash"`
}

// New returns a fresh Checkpoint in the Running state.
func New(runID, configHash string, now time.Time) *Checkpoint {
	return &Checkpoint{
		RunID:        runID,
		StartedAt:    now,
		UpdatedAt:    now,
		Status:       StatusRunning,
		StageOutputs: make(map[string]StageOutput),
		ConfigHash:   configHash,
	}
}

// MarkStageComplete records a stage's output and appends it to
// CompletedStages unless it was skipped.
func (c *Checkpoint) MarkStageComplete(stage string, out StageOutput, now time.Time) {
	c.StageOutputs[stage] = out
	if !out.Skipped {
		c.CompletedStages = append(c.CompletedStages, stage)
	}
	c.UpdatedAt = now
}

// MarkFailed transitions the checkpoint to Failed, recording err.
func (c *Checkpoint) MarkFailed(err error, now time.Time) {
	c.Status = StatusFailed
	c.Error = err.Error()
	c.UpdatedAt = now
}

// MarkCompleted transitions the checkpoint to Completed.
func (c *Checkpoint) MarkCompleted(now time.Time) {
	c.Status = StatusCompleted
	c.UpdatedAt = now
}

// PathFor returns the checkpoint path alongside a staging store at
// storePath: "<stem>.checkpoint.json".
func PathFor(storePath string) string {
	ext := filepath.Ext(storePath)
	stem := storePath[:len(storePath)-len(ext)]
	return stem + ".checkpoint.json"
}

// Load reads and decodes a checkpoint file. Unknown JSON fields are ignored
// by encoding/json's default behavior, satisfying the forward-compatibility
// requirement without any extra bookkeeping.
func Load(path string) (*Checkpoint, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("checkpoint: load %s: %w", path, err)
	}
	var c Checkpoint
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("checkpoint: decode %s: %w", path, err)
	}
	return &c, nil
}

// Save whole-file-replaces path with c's JSON encoding: write to a temp file
// in the same directory, fsync, then rename over the destination. The
// rename is atomic on POSIX filesystems, so a reader never observes a
// partially written checkpoint.
func Save(path string, c *Checkpoint) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("checkpoint: encode: %w", err)
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".checkpoint-*.tmp")
	if err != nil {
		return fmt.Errorf("checkpoint: create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("checkpoint: write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("checkpoint: sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("checkpoint: close temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("checkpoint: rename into place: %w", err)
	}
	return nil
}

// CanResume reports whether a loaded checkpoint may be resumed against the
// current configuration: its Status must not be Completed, and its
// ConfigHash must match currentConfigHash exactly.
func (c *Checkpoint) CanResume(currentConfigHash string) bool {
	return c.Status != StatusCompleted && c.ConfigHash == currentConfigHash
}
