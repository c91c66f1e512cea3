package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/flowforge/ingestcore/internal/checkpoint"
	"github.com/flowforge/ingestcore/internal/codec"
	"github.com/flowforge/ingestcore/internal/ingest"
	"github.com/flowforge/ingestcore/internal/inference"
	"github.com/flowforge/ingestcore/internal/llm"
	"github.com/flowforge/ingestcore/internal/matcher"
	"github.com/flowforge/ingestcore/internal/schema"
	"github.com/flowforge/ingestcore/internal/staging"
	"github.com/flowforge/ingestcore/internal/transform"
)

// memSource is a minimal in-memory ingest.Source for pipeline tests, avoiding
// any real filesystem walk.
type memSource struct {
	files map[string][]byte
}

func (m *memSource) Type() string      { return "local" }
func (m *memSource) RootLabel() string { return "mem://" }
func (m *memSource) List(_ context.Context, _ string) ([]ingest.DiscoveredFile, error) {
	out := make([]ingest.DiscoveredFile, 0, len(m.files))
	for path, data := range m.files {
		out = append(out, ingest.DiscoveredFile{Path: path, SizeBytes: int64(len(data))})
	}
	return out, nil
}
func (m *memSource) Fetch(_ context.Context, path string) ([]byte, error) {
	data, ok := m.files[path]
	if !ok {
		return nil, errors.New("not found")
	}
	return data, nil
}

func newStore(t *testing.T) *staging.Store {
	t.Helper()
	s, err := staging.Memory(nil)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { s.Close() })
	if err := s.Init(context.Background()); err != nil {
		t.Fatal(err)
	}
	return s
}

func baseConfig(t *testing.T) RunConfig {
	src := &memSource{files: map[string][]byte{
		"a.jsonl": []byte(`{"id":1,"name":"alpha"}` + "\n" + `{"id":2,"name":"beta"}`),
	}}
	return RunConfig{
		CheckpointPath:  filepath.Join(t.TempDir(), "run.checkpoint.json"),
		Ingest:          ingest.Config{Source: src, Pattern: "**/*.jsonl"},
		Inference:       inference.DefaultConfig(),
		Matcher:         matcher.DefaultConfig(),
		TransformFormat: transform.SQL,
		Codec:           codec.JSONCodec{},
	}
}

func TestRunCompletesAllStagesWithoutModelOrTargetSchema(t *testing.T) {
	store := newStore(t)
	cfg := baseConfig(t)

	report, err := Run(context.Background(), store, cfg, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.Status != "completed" {
		t.Fatalf("expected completed status, got %s", report.Status)
	}

	byStage := map[Stage]StageResult{}
	for _, s := range report.Stages {
		byStage[s.Stage] = s
	}
	if byStage[StageIngest].Status != StageCompleted {
		t.Errorf("expected ingest completed, got %+v", byStage[StageIngest])
	}
	if byStage[StageInfer].Status != StageCompleted {
		t.Errorf("expected infer completed, got %+v", byStage[StageInfer])
	}
	if byStage[StageRefine].Status != StageSkipped {
		t.Errorf("expected refine skipped without a model, got %+v", byStage[StageRefine])
	}
	if byStage[StageMap].Status != StageSkipped {
		t.Errorf("expected map skipped without a target schema, got %+v", byStage[StageMap])
	}
	if byStage[StageGenerate].Status != StageSkipped {
		t.Errorf("expected generate skipped without a mapping, got %+v", byStage[StageGenerate])
	}
}

func TestRunExportsSchemaWhenOutputPathSet(t *testing.T) {
	store := newStore(t)
	cfg := baseConfig(t)
	cfg.OutputPath = filepath.Join(t.TempDir(), "schema.json")

	if _, err := Run(context.Background(), store, cfg, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := os.Stat(cfg.OutputPath); err != nil {
		t.Fatalf("expected export output file, got error: %v", err)
	}
}

func TestRunWithTargetSchemaMapsAndGenerates(t *testing.T) {
	store := newStore(t)
	cfg := baseConfig(t)
	target := schema.InferredType{
		Kind: schema.KindObject,
		Properties: map[string]*schema.InferredField{
			"id":   {Type: schema.Integer(), Required: true},
			"name": {Type: schema.InferredType{Kind: schema.KindString}, Required: true},
		},
	}
	cfg.TargetSchema = &target
	cfg.TransformOutputPath = filepath.Join(t.TempDir(), "transform.sql")

	report, err := Run(context.Background(), store, cfg, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var mapStatus, genStatus StageStatus
	for _, s := range report.Stages {
		if s.Stage == StageMap {
			mapStatus = s.Status
		}
		if s.Stage == StageGenerate {
			genStatus = s.Status
		}
	}
	if mapStatus != StageCompleted {
		t.Fatalf("expected map completed, got %s", mapStatus)
	}
	if genStatus != StageCompleted {
		t.Fatalf("expected generate completed, got %s", genStatus)
	}
	if _, err := os.Stat(cfg.TransformOutputPath); err != nil {
		t.Fatalf("expected transform output file, got error: %v", err)
	}
}

func TestRunRefinesWithReadyModel(t *testing.T) {
	store := newStore(t)
	cfg := baseConfig(t)

	fake := &llm.FakeModel{Ready: true, Response: `{"kind":"inferred_schema","schema":{"root":{"kind":"object"}}}`}
	cfg.Model = fake

	report, err := Run(context.Background(), store, cfg, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, s := range report.Stages {
		if s.Stage == StageRefine && s.Status != StageCompleted {
			t.Fatalf("expected refine completed, got %+v", s)
		}
	}
	if fake.Calls != 1 {
		t.Fatalf("expected model to be called once, got %d", fake.Calls)
	}
}

func TestRunContinuesWhenRefineFailsAndReturnsStageError(t *testing.T) {
	store := newStore(t)
	cfg := baseConfig(t)
	cfg.Model = &llm.FakeModel{Ready: true, Err: errors.New("boom")}

	report, err := Run(context.Background(), store, cfg, nil)
	var coreErr *CoreError
	if !errors.As(err, &coreErr) {
		t.Fatalf("expected a *CoreError, got %v (%T)", err, err)
	}
	if coreErr.Code != int(ExitStageFailure) {
		t.Fatalf("expected stage-failure exit code, got %d", coreErr.Code)
	}
	if report.Status != "completed" {
		t.Fatalf("expected the run to still complete overall, got %s", report.Status)
	}

	found := false
	for _, s := range report.Stages {
		if s.Stage == StageRefine && s.Status == StageFailed {
			found = true
		}
		if s.Stage == StageExport && s.Status != StageCompleted {
			t.Fatalf("expected export to still run after refine failure, got %+v", s)
		}
	}
	if !found {
		t.Fatalf("expected refine stage recorded as failed, got %+v", report.Stages)
	}
}

func TestRunFailsFastOnRequiredStageError(t *testing.T) {
	store := newStore(t)
	cfg := baseConfig(t)
	cfg.Ingest.Source = nil // ingest will refuse to run

	_, err := Run(context.Background(), store, cfg, nil)
	var coreErr *CoreError
	if !errors.As(err, &coreErr) {
		t.Fatalf("expected a *CoreError, got %v (%T)", err, err)
	}
	if coreErr.Code != int(ExitStageFailure) {
		t.Fatalf("expected ExitStageFailure code, got %d", coreErr.Code)
	}
}

func TestRunDryRunWritesNoCheckpointOrFiles(t *testing.T) {
	store := newStore(t)
	cfg := baseConfig(t)
	cfg.DryRun = true
	cfg.OutputPath = filepath.Join(t.TempDir(), "schema.json")

	if _, err := Run(context.Background(), store, cfg, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := os.Stat(cfg.CheckpointPath); !os.IsNotExist(err) {
		t.Fatalf("expected no checkpoint file on dry run, stat error: %v", err)
	}
	if _, err := os.Stat(cfg.OutputPath); !os.IsNotExist(err) {
		t.Fatalf("expected no export file on dry run, stat error: %v", err)
	}
}

func TestRunResumeSkipsCompletedStages(t *testing.T) {
	store := newStore(t)
	cfg := baseConfig(t)

	// Fabricate a checkpoint from an interrupted run that got as far as
	// completing Ingest, then crashed before Infer.
	now := time.Now()
	ckpt := checkpoint.New("prior-run", cfg.configHash(), now)
	ckpt.MarkStageComplete(string(StageIngest), checkpoint.StageOutput{Success: true}, now)
	if err := checkpoint.Save(cfg.CheckpointPath, ckpt); err != nil {
		t.Fatal(err)
	}

	cfg.Resume = true
	report, err := Run(context.Background(), store, cfg, nil)
	if err != nil {
		t.Fatalf("resumed run failed: %v", err)
	}
	if report.RunID != "prior-run" {
		t.Fatalf("expected the resumed run to keep the prior run id, got %s", report.RunID)
	}

	byStage := map[Stage]StageResult{}
	for _, s := range report.Stages {
		byStage[s.Stage] = s
	}
	if byStage[StageIngest].Status != StageSkipped || byStage[StageIngest].SkipReason != "resumed from checkpoint" {
		t.Fatalf("expected ingest to be skipped as already completed, got %+v", byStage[StageIngest])
	}
	if byStage[StageInfer].Status != StageCompleted {
		t.Fatalf("expected infer to actually run after resume, got %+v", byStage[StageInfer])
	}
	if byStage[StageExport].Status != StageCompleted {
		t.Fatalf("expected export to actually run after resume, got %+v", byStage[StageExport])
	}
}

func TestCoreErrorUnwrapAndMessage(t *testing.T) {
	underlying := errors.New("disk full")
	err := NewIOError("export failed", underlying)
	if err.Code != int(ExitIOError) {
		t.Errorf("expected ExitIOError code, got %d", err.Code)
	}
	if !errors.Is(err, underlying) {
		t.Errorf("expected errors.Is to find the underlying error")
	}
	if err.Error() != "export failed: disk full" {
		t.Errorf("unexpected message: %s", err.Error())
	}
}

func TestNewUsageErrorHasNoUnderlyingErr(t *testing.T) {
	err := NewUsageError("missing --root")
	if err.Code != int(ExitUsage) {
		t.Errorf("expected ExitUsage code, got %d", err.Code)
	}
	if err.Error() != "missing --root" {
		t.Errorf("unexpected message: %s", err.Error())
	}
	if err.Unwrap() != nil {
		t.Errorf("expected no underlying error")
	}
}

func TestStagesConstantIsInFixedOrder(t *testing.T) {
	want := []Stage{StageIngest, StageInfer, StageRefine, StageMap, StageExport, StageGenerate}
	if len(Stages) != len(want) {
		t.Fatalf("expected %d stages, got %d", len(want), len(Stages))
	}
	for i, s := range want {
		if Stages[i] != s {
			t.Errorf("stage %d: expected %s, got %s", i, s, Stages[i])
		}
	}
}

func TestConfigHashStableAcrossEquivalentConfigs(t *testing.T) {
	a := baseConfig(t)
	b := baseConfig(t)
	b.CheckpointPath = a.CheckpointPath + ".other" // irrelevant to the hash

	if a.configHash() != b.configHash() {
		t.Errorf("expected equal config hashes for equivalent configs")
	}

	b.Ingest.Pattern = "**/*.ndjson"
	if a.configHash() == b.configHash() {
		t.Errorf("expected different config hashes after changing the pattern")
	}
}

func TestRunReportTimestampsAreSet(t *testing.T) {
	store := newStore(t)
	cfg := baseConfig(t)

	before := time.Now().Add(-time.Second)
	report, err := Run(context.Background(), store, cfg, nil)
	if err != nil {
		t.Fatal(err)
	}
	started, parseErr := time.Parse(time.RFC3339, report.StartedAt)
	if parseErr != nil {
		t.Fatalf("StartedAt not RFC3339: %v", parseErr)
	}
	if started.Before(before) {
		t.Errorf("StartedAt looks stale: %v", started)
	}
}
