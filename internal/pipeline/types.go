// Package pipeline implements the six-stage run executor that drives
// ingestion, schema inference, optional LLM refinement, schema mapping,
// export, and transform generation as one checkpointed unit of work.
package pipeline

// ExitCode represents the process exit code returned by the ingestctl CLI.
type ExitCode int

const (
	// ExitSuccess indicates the run completed successfully.
	ExitSuccess ExitCode = 0

	// ExitUsage indicates invalid flags/configuration; the run never
	// started.
	ExitUsage ExitCode = 1

	// ExitIOError indicates a failure reading or writing the staging
	// store, a checkpoint file, or another on-disk/network dependency.
	ExitIOError ExitCode = 2

	// ExitStageFailure indicates a pipeline stage failed while executing.
	ExitStageFailure ExitCode = 3
)

// Stage names one node of the pipeline DAG, in execution order.
type Stage string

const (
	StageIngest   Stage = "ingest"
	StageInfer    Stage = "infer"
	StageRefine   Stage = "refine"
	StageMap      Stage = "map"
	StageExport   Stage = "export"
	StageGenerate Stage = "generate"
)

// Stages lists every stage in the fixed execution order the executor walks.
var Stages = []Stage{StageIngest, StageInfer, StageRefine, StageMap, StageExport, StageGenerate}

// StageStatus is the outcome of one stage's execution within a Report.
type StageStatus string

const (
	StageCompleted StageStatus = "completed"
	StageSkipped   StageStatus = "skipped"
	StageFailed    StageStatus = "failed"
)

// StageResult summarizes one stage's contribution to a Report.
type StageResult struct {
	Stage      Stage       `json:"stage"`
	Status     StageStatus `json:"status"`
	SkipReason string      `json:"skip_reason,omitempty"`
	Error      string      `json:"error,omitempty"`
	DurationMs int64       `json:"duration_ms"`
}

// Report is the full summary of one pipeline run, returned by Run in
// addition to whatever checkpoint was written to disk.
type Report struct {
	RunID         string        `json:"run_id"`
	Status        string        `json:"status"`
	StartedAt     string        `json:"started_at"`
	FinishedAt    string        `json:"finished_at"`
	Stages        []StageResult `json:"stages"`
	TotalDuration int64         `json:"total_duration_ms"`
}
