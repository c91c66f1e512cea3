package pipeline

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/flowforge/ingestcore/internal/checkpoint"
	"github.com/flowforge/ingestcore/internal/codec"
	"github.com/flowforge/ingestcore/internal/ingest"
	"github.com/flowforge/ingestcore/internal/inference"
	"github.com/flowforge/ingestcore/internal/llm"
	"github.com/flowforge/ingestcore/internal/matcher"
	"github.com/flowforge/ingestcore/internal/schema"
	"github.com/flowforge/ingestcore/internal/secrets"
	"github.com/flowforge/ingestcore/internal/staging"
	"github.com/flowforge/ingestcore/internal/transform"
)

// RunConfig is the resolved, validated configuration for one pipeline run.
type RunConfig struct {
	// CheckpointPath is the "<stem>.checkpoint.json" file for this run. See
	// internal/checkpoint.PathFor.
	CheckpointPath string

	// DryRun validates configuration and reports what would happen, without
	// ingesting, writing output files, or calling the model.
	DryRun bool

	// Resume loads CheckpointPath and continues from the first incomplete
	// stage, provided its config hash still matches.
	Resume bool

	Ingest    ingest.Config
	Inference inference.Config
	Matcher   matcher.Config

	// Model is the optional Refine-stage backend. A nil Model, or one whose
	// IsReady() returns false, skips Refine entirely.
	Model llm.Model

	// TargetSchema gates the Map (and transitively Generate) stage. A nil
	// value skips both.
	TargetSchema *schema.InferredType

	TransformFormat transform.Format
	Codec           codec.Codec

	OutputPath          string
	TransformOutputPath string
}

// configHash fingerprints the parts of RunConfig that must not change across
// a resumed run: the ingest pattern and dedup mode, whether a target schema
// is set, and the transform format. The source itself is not hashed. Unrelated
// fields (DryRun, Resume itself) are deliberately excluded.
func (cfg RunConfig) configHash() string {
	h := sha256.New()
	fmt.Fprintf(h, "pattern=%s\n", cfg.Ingest.Pattern)
	fmt.Fprintf(h, "dedup=%d\n", cfg.Ingest.Dedup)
	fmt.Fprintf(h, "has_target_schema=%t\n", cfg.TargetSchema != nil)
	fmt.Fprintf(h, "transform_format=%s\n", cfg.TransformFormat)
	return hex.EncodeToString(h.Sum(nil))[:16]
}

// execState carries intermediate results between stage functions.
type execState struct {
	store       *staging.Store
	cfg         RunConfig
	log         *slog.Logger
	now         func() time.Time
	stats       *ingest.Stats
	inferred    *schema.InferredSchema
	mapping     *matcher.SchemaMapping
	transformed *transform.Result
}

// Run drives the six-stage pipeline (Ingest, Infer, Refine?, Map?, Export,
// Generate?) to completion, persisting a checkpoint after every stage.
// DryRun validates configuration and reports the stages that would run
// without any side effects. Resume continues an interrupted run provided
// its checkpoint's config hash still matches cfg's.
func Run(ctx context.Context, store *staging.Store, cfg RunConfig, log *slog.Logger) (*Report, error) {
	return run(ctx, store, cfg, log, time.Now)
}

func run(ctx context.Context, store *staging.Store, cfg RunConfig, log *slog.Logger, now func() time.Time) (*Report, error) {
	if log == nil {
		log = slog.Default()
	}
	hash := cfg.configHash()

	var ckpt *checkpoint.Checkpoint
	if cfg.Resume {
		loaded, err := checkpoint.Load(cfg.CheckpointPath)
		switch {
		case err == nil && loaded.CanResume(hash):
			ckpt = loaded
			log.Info("resuming pipeline run", "run_id", ckpt.RunID, "completed_stages", ckpt.CompletedStages)
		case err == nil:
			log.Warn("checkpoint config hash mismatch or already completed; starting a fresh run",
				"run_id", loaded.RunID)
		default:
			log.Debug("no resumable checkpoint found, starting fresh", "error", err)
		}
	}
	if ckpt == nil {
		ckpt = checkpoint.New(uuid.NewString(), hash, now())
	}

	state := &execState{store: store, cfg: cfg, log: log, now: now}
	completed := make(map[Stage]bool, len(ckpt.CompletedStages))
	for _, s := range ckpt.CompletedStages {
		completed[Stage(s)] = true
	}

	report := &Report{RunID: ckpt.RunID, StartedAt: ckpt.StartedAt.Format(time.RFC3339)}
	runStart := now()

	var firstFatal error
	for _, stage := range Stages {
		if completed[stage] {
			if err := rehydrateStage(stage, ckpt.StageOutputs[string(stage)], state); err != nil {
				firstFatal = fmt.Errorf("resuming %s: %w", stage, err)
				ckpt.MarkFailed(firstFatal, now())
				break
			}
			report.Stages = append(report.Stages, StageResult{Stage: stage, Status: StageSkipped, SkipReason: "resumed from checkpoint"})
			continue
		}

		result, stageErr := runStage(ctx, stage, state)
		report.Stages = append(report.Stages, result)

		out := checkpoint.StageOutput{
			Success:    result.Status == StageCompleted,
			Skipped:    result.Status == StageSkipped,
			SkipReason: result.SkipReason,
			DurationMs: result.DurationMs,
			Timestamp:  now(),
		}
		if result.Status == StageCompleted {
			out.Metadata = stageMetadata(stage, state)
		}
		ckpt.MarkStageComplete(string(stage), out, now())

		if stageErr != nil {
			if stage == StageRefine {
				// Refine is optional and skippable for missing prerequisites,
				// not for in-flight failures -- but a failure here still must
				// not abort the run, since nothing downstream requires it.
				log.Warn("refine stage failed, continuing without refinement", "error", stageErr)
				continue
			}
			firstFatal = stageErr
			ckpt.MarkFailed(errors.New(secrets.Redact(stageErr.Error())), now())
			break
		}

		if !cfg.DryRun {
			if err := checkpoint.Save(cfg.CheckpointPath, ckpt); err != nil {
				log.Error("failed to save checkpoint", "error", err)
			}
		}
	}

	report.TotalDuration = now().Sub(runStart).Milliseconds()

	if firstFatal != nil {
		report.Status = string(checkpoint.StatusFailed)
		report.FinishedAt = now().Format(time.RFC3339)
		if !cfg.DryRun {
			_ = checkpoint.Save(cfg.CheckpointPath, ckpt)
		}
		return report, NewStageError("pipeline run failed", firstFatal)
	}

	ckpt.MarkCompleted(now())
	report.Status = string(checkpoint.StatusCompleted)
	report.FinishedAt = now().Format(time.RFC3339)
	if !cfg.DryRun {
		if err := checkpoint.Save(cfg.CheckpointPath, ckpt); err != nil {
			return report, NewIOError("failed to save final checkpoint", err)
		}
	}

	var refineErr string
	for _, s := range report.Stages {
		if s.Stage == StageRefine && s.Status == StageFailed {
			refineErr = s.Error
		}
	}
	if refineErr != "" {
		return report, NewStageError(fmt.Sprintf("refine stage failed: %s", refineErr), nil)
	}

	return report, nil
}

func runStage(ctx context.Context, stage Stage, state *execState) (StageResult, error) {
	start := state.now()
	var err error
	var skipReason string

	switch stage {
	case StageIngest:
		err = stageIngest(ctx, state)
	case StageInfer:
		err = stageInfer(ctx, state)
	case StageRefine:
		skipReason, err = stageRefine(ctx, state)
	case StageMap:
		skipReason, err = stageMap(ctx, state)
	case StageExport:
		err = stageExport(ctx, state)
	case StageGenerate:
		skipReason, err = stageGenerate(ctx, state)
	}

	result := StageResult{
		Stage:      stage,
		DurationMs: state.now().Sub(start).Milliseconds(),
	}
	switch {
	case skipReason != "":
		result.Status = StageSkipped
		result.SkipReason = skipReason
	case err != nil:
		result.Status = StageFailed
		result.Error = err.Error()
	default:
		result.Status = StageCompleted
	}
	if skipReason != "" {
		return result, nil
	}
	return result, err
}

// stageMetadata captures the in-memory product of a successfully completed
// stage so a later resumed run can rehydrate execState without re-deriving
// it. Only stages whose output feeds a later stage need an entry here.
func stageMetadata(stage Stage, state *execState) map[string]json.RawMessage {
	meta := make(map[string]json.RawMessage)
	switch stage {
	case StageInfer, StageRefine:
		if state.inferred != nil {
			if data, err := json.Marshal(state.inferred); err == nil {
				meta["inferred_schema"] = data
			}
		}
	case StageMap:
		if state.mapping != nil {
			if data, err := json.Marshal(state.mapping); err == nil {
				meta["mapping"] = data
			}
		}
	}
	if len(meta) == 0 {
		return nil
	}
	return meta
}

// rehydrateStage restores execState fields a skipped-on-resume stage would
// otherwise have produced, from the metadata a prior run persisted.
func rehydrateStage(stage Stage, out checkpoint.StageOutput, state *execState) error {
	switch stage {
	case StageInfer, StageRefine:
		raw, ok := out.Metadata["inferred_schema"]
		if !ok {
			return nil
		}
		var inferred schema.InferredSchema
		if err := json.Unmarshal(raw, &inferred); err != nil {
			return fmt.Errorf("decoding persisted inferred schema: %w", err)
		}
		state.inferred = &inferred
	case StageMap:
		raw, ok := out.Metadata["mapping"]
		if !ok {
			return nil
		}
		var mapping matcher.SchemaMapping
		if err := json.Unmarshal(raw, &mapping); err != nil {
			return fmt.Errorf("decoding persisted schema mapping: %w", err)
		}
		state.mapping = &mapping
	}
	return nil
}

func stageIngest(ctx context.Context, state *execState) error {
	if state.cfg.DryRun {
		if state.cfg.Ingest.Source == nil {
			return fmt.Errorf("ingest: no source configured")
		}
		return nil
	}
	stats, err := ingest.Ingest(ctx, state.store, state.cfg.Ingest, state.log)
	if err != nil {
		return fmt.Errorf("ingest: %w", err)
	}
	state.stats = stats
	return nil
}

func stageInfer(ctx context.Context, state *execState) error {
	if state.cfg.DryRun {
		return nil
	}
	engine := inference.New(state.cfg.Inference)

	n := state.cfg.Inference.SampleSize
	if n <= 0 {
		total, err := state.store.RecordCount(ctx, state.cfg.Ingest.Partition)
		if err != nil {
			return fmt.Errorf("infer: counting staged records: %w", err)
		}
		n = int(total)
	}
	if n == 0 {
		state.inferred = &schema.InferredSchema{Root: schema.Unknown()}
		return nil
	}

	samples, err := state.store.GetSample(ctx, n, state.cfg.Ingest.Partition)
	if err != nil {
		return fmt.Errorf("infer: fetching staged records: %w", err)
	}
	for _, raw := range samples {
		engine.AddRecord(raw)
	}

	inferred, err := engine.Finalize()
	if err != nil {
		return fmt.Errorf("infer: finalize: %w", err)
	}
	state.inferred = inferred
	return nil
}

func stageRefine(ctx context.Context, state *execState) (string, error) {
	if state.cfg.Model == nil || !state.cfg.Model.IsReady() {
		return "no model configured", nil
	}
	if state.cfg.DryRun {
		return "dry run", nil
	}
	if state.inferred == nil {
		return "", fmt.Errorf("refine: no inferred schema available")
	}

	encoded, err := state.cfg.Codec.EncodeSchema(state.inferred)
	if err != nil {
		return "", &llm.Error{Kind: llm.ParseError, Message: "encoding schema for refinement prompt", Err: err}
	}

	prompt := fmt.Sprintf(
		"Suggest field descriptions and tighten ambiguous string formats for this inferred JSON schema. Respond with the same JSON document, only descriptions/formats changed:\n\n%s",
		string(encoded),
	)
	response, err := state.cfg.Model.Complete(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("refine: %w", err)
	}

	_, refined, err := state.cfg.Codec.Decode([]byte(response))
	if err != nil || refined == nil {
		return "", &llm.Error{Kind: llm.RefinementError, Message: "model response was not a valid schema document", Err: err}
	}
	state.inferred = refined
	return "", nil
}

func stageMap(_ context.Context, state *execState) (string, error) {
	if state.cfg.TargetSchema == nil {
		return "no target schema configured", nil
	}
	if state.cfg.DryRun {
		return "dry run", nil
	}
	if state.inferred == nil {
		return "", fmt.Errorf("map: no inferred schema available")
	}

	m := matcher.New(state.cfg.Matcher)
	mapping, err := m.Match(state.inferred.Root, *state.cfg.TargetSchema)
	if err != nil {
		return "", fmt.Errorf("map: %w", err)
	}
	state.mapping = mapping
	return "", nil
}

func stageExport(_ context.Context, state *execState) error {
	if state.cfg.DryRun {
		return nil
	}
	if state.inferred == nil {
		return fmt.Errorf("export: no inferred schema available")
	}
	if state.cfg.OutputPath == "" {
		return nil
	}

	var data []byte
	var err error
	if state.mapping != nil {
		model := mappingToDataModel(state.mapping)
		data, err = state.cfg.Codec.Encode(model)
	} else {
		data, err = state.cfg.Codec.EncodeSchema(state.inferred)
	}
	if err != nil {
		return fmt.Errorf("export: encode: %w", err)
	}

	if err := os.WriteFile(state.cfg.OutputPath, data, 0o644); err != nil {
		return fmt.Errorf("export: write %s: %w", state.cfg.OutputPath, err)
	}
	return nil
}

func stageGenerate(_ context.Context, state *execState) (string, error) {
	if state.mapping == nil {
		return "no schema mapping available", nil
	}
	if state.cfg.DryRun {
		return "dry run", nil
	}
	if state.cfg.TransformOutputPath == "" {
		return "no transform output path configured", nil
	}

	result, err := transform.Generate(state.mapping, state.cfg.TransformFormat, "source", "target")
	if err != nil {
		return "", fmt.Errorf("generate: %w", err)
	}
	state.transformed = result

	for _, w := range result.Warnings {
		state.log.Warn("transform generation warning", "warning", w)
	}

	if err := os.WriteFile(state.cfg.TransformOutputPath, []byte(result.Script), 0o644); err != nil {
		return "", fmt.Errorf("generate: write %s: %w", state.cfg.TransformOutputPath, err)
	}
	return "", nil
}

// mappingToDataModel projects a SchemaMapping's claimed target fields into a
// single-table DataModel for the Export stage's default codec.
func mappingToDataModel(mapping *matcher.SchemaMapping) *codec.DataModel {
	columns := make([]codec.Column, 0, len(mapping.DirectMappings)+len(mapping.Transformations))
	for _, fm := range mapping.DirectMappings {
		columns = append(columns, codec.Column{Name: fm.TargetPath, Type: "string"})
	}
	for _, tm := range mapping.Transformations {
		columns = append(columns, codec.Column{Name: tm.TargetPath, Type: tm.To})
	}
	for _, gap := range mapping.Gaps {
		col := codec.Column{Name: gap.TargetPath, Nullable: !gap.Required}
		if len(gap.Default) > 0 {
			col.Type = "string"
		}
		columns = append(columns, col)
	}

	return &codec.DataModel{Tables: []codec.Table{{Name: "target", Columns: columns}}}
}

// MarshalReport renders a Report as indented JSON, for CLI status reporting.
func MarshalReport(r *Report) ([]byte, error) {
	return json.MarshalIndent(r, "", "  ")
}
