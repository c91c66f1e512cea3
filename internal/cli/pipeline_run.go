package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/flowforge/ingestcore/internal/checkpoint"
	"github.com/flowforge/ingestcore/internal/codec"
	"github.com/flowforge/ingestcore/internal/ingest"
	"github.com/flowforge/ingestcore/internal/pipeline"
)

var pipelineCmd = &cobra.Command{
	Use:   "pipeline",
	Short: "Drive the full ingest-infer-map-generate pipeline as one checkpointed run",
}

var pipelineRunCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the pipeline end to end",
	Long: `run executes Ingest, Infer, Refine (if a model is configured),
Map (if --target-schema is set), Export, and Generate as one sequence,
persisting a checkpoint after each stage so an interrupted run can be
resumed with --resume.`,
	RunE: runPipelineRun,
}

var pipelineStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the last checkpointed run's status",
	RunE:  runPipelineStatus,
}

func init() {
	pipelineRunCmd.Flags().Bool("dry-run", false, "validate configuration and report stage plan without writing to the store or disk")
	pipelineRunCmd.Flags().String("checkpoint", "", "checkpoint file path (default: <store stem>.checkpoint.json)")
	pipelineCmd.AddCommand(pipelineRunCmd, pipelineStatusCmd)
	rootCmd.AddCommand(pipelineCmd)
}

func checkpointPathFor(cmd *cobra.Command, storePath string) string {
	if p, _ := cmd.Flags().GetString("checkpoint"); p != "" {
		return p
	}
	return checkpoint.PathFor(storePath)
}

func runPipelineRun(cmd *cobra.Command, args []string) error {
	resolved, err := resolveProfile()
	if err != nil {
		return pipeline.NewUsageError(err.Error())
	}
	profile := resolved.Profile

	store, err := openStagingStore(profile)
	if err != nil {
		return pipeline.NewIOError("opening staging store", err)
	}
	defer store.Close()

	source, err := buildSource(profile.Source)
	if err != nil {
		return pipeline.NewUsageError(err.Error())
	}

	runCfg := pipeline.RunConfig{
		CheckpointPath: checkpointPathFor(cmd, profile.StorePath),
		Resume:         flagValues.Resume,
		Ingest: ingest.Config{
			Source:    source,
			Pattern:   profile.Source.Pattern,
			Partition: profile.Source.Partition,
			Workers:   profile.Source.Workers,
			BatchSize: profile.Source.BatchSize,
			Dedup:     ingest.DedupMode(profile.Source.Dedup),
			Resume:    flagValues.Resume,
		},
		Inference:           toInferenceConfig(profile.Inference),
		Matcher:             toMatcherConfig(profile.Matcher),
		Model:               buildModel(profile.Model),
		TransformFormat:     resolveTransformFormat(profile.Transform.Format),
		Codec:               codec.JSONCodec{},
		OutputPath:          profile.OutputPath,
		TransformOutputPath: profile.TransformOutputPath,
	}

	if dryRun, _ := cmd.Flags().GetBool("dry-run"); dryRun {
		runCfg.DryRun = true
	}

	if profile.TargetSchemaPath != "" {
		ts, err := loadTargetSchema(profile.TargetSchemaPath)
		if err != nil {
			return pipeline.NewUsageError(err.Error())
		}
		runCfg.TargetSchema = ts
	}

	report, runErr := pipeline.Run(context.Background(), store, runCfg, slog.Default())

	data, marshalErr := pipeline.MarshalReport(report)
	if marshalErr == nil {
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
	}

	return runErr
}

func runPipelineStatus(cmd *cobra.Command, args []string) error {
	resolved, err := resolveProfile()
	if err != nil {
		return pipeline.NewUsageError(err.Error())
	}
	profile := resolved.Profile

	path := checkpointPathFor(cmd, profile.StorePath)
	if _, err := os.Stat(path); err != nil {
		return pipeline.NewIOError(fmt.Sprintf("no checkpoint found at %s", path), nil)
	}

	ckpt, err := checkpoint.Load(path)
	if err != nil {
		return pipeline.NewIOError("loading checkpoint", err)
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	if err := enc.Encode(ckpt); err != nil {
		return err
	}

	if ckpt.Status == checkpoint.StatusFailed {
		fmt.Fprintf(cmd.ErrOrStderr(), "last run failed: %s\n", strings.TrimSpace(ckpt.Error))
	}
	return nil
}
