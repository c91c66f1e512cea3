package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/flowforge/ingestcore/internal/codec"
	"github.com/flowforge/ingestcore/internal/inference"
	"github.com/flowforge/ingestcore/internal/pipeline"
)

var inferCmd = &cobra.Command{
	Use:   "infer",
	Short: "Infer a schema from the staged records",
	Long: `infer samples the staging store's records (or all of them, if the
profile's inference sample_size is 0 or unset) and runs the type-lattice
inference engine over them. The resulting schema, a JSON document, is written
to the profile's output path (--output) when one is set and printed to stdout
otherwise.`,
	RunE: runInfer,
}

func init() {
	rootCmd.AddCommand(inferCmd)
}

func runInfer(cmd *cobra.Command, args []string) error {
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

	ctx := context.Background()
	infCfg := toInferenceConfig(profile.Inference)

	n := infCfg.SampleSize
	if n <= 0 {
		total, err := store.RecordCount(ctx, profile.Source.Partition)
		if err != nil {
			return pipeline.NewIOError("counting staged records", err)
		}
		n = int(total)
	}

	engine := inference.New(infCfg)
	if n > 0 {
		samples, err := store.GetSample(ctx, n, profile.Source.Partition)
		if err != nil {
			return pipeline.NewIOError("fetching staged records", err)
		}
		for _, raw := range samples {
			engine.AddRecord(raw)
		}
	}

	inferred, err := engine.Finalize()
	if err != nil {
		return pipeline.NewStageError("inference failed", err)
	}

	data, err := (codec.JSONCodec{}).EncodeSchema(inferred)
	if err != nil {
		return pipeline.NewStageError("encoding inferred schema", err)
	}

	outputPath := profile.OutputPath
	if outputPath != "" {
		if err := os.WriteFile(outputPath, data, 0o644); err != nil {
			return pipeline.NewIOError(fmt.Sprintf("writing %s", outputPath), err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "wrote inferred schema to %s\n", outputPath)
		return nil
	}

	_, err = cmd.OutOrStdout().Write(append(data, '\n'))
	return err
}
