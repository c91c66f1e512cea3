package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/flowforge/ingestcore/internal/inference"
	"github.com/flowforge/ingestcore/internal/matcher"
	"github.com/flowforge/ingestcore/internal/pipeline"
	"github.com/flowforge/ingestcore/internal/transform"
)

var mapCmd = &cobra.Command{
	Use:   "map",
	Short: "Infer a schema and match it against a target schema",
	Long: `map runs inference over the staged records, then matches the
result against --target-schema, reporting direct mappings, suggested
transformations, and any unmatched fields on either side.`,
	RunE: runMap,
}

func init() {
	mapCmd.Flags().Bool("generate", false, "also generate the transform for the resulting mapping")
	mapCmd.Flags().Bool("explain", false, "print a flat, grep-friendly report instead of JSON")
	rootCmd.AddCommand(mapCmd)
}

func runMap(cmd *cobra.Command, args []string) error {
	resolved, err := resolveProfile()
	if err != nil {
		return pipeline.NewUsageError(err.Error())
	}
	profile := resolved.Profile

	if profile.TargetSchemaPath == "" {
		return pipeline.NewUsageError("map requires --target-schema")
	}
	target, err := loadTargetSchema(profile.TargetSchemaPath)
	if err != nil {
		return pipeline.NewIOError("reading target schema", err)
	}

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

	m := matcher.New(toMatcherConfig(profile.Matcher))
	mapping, err := m.Match(inferred.Root, *target)
	if err != nil {
		return pipeline.NewStageError("matching failed", err)
	}

	if explain, _ := cmd.Flags().GetBool("explain"); explain {
		for _, line := range matcher.Explain(mapping) {
			fmt.Fprintln(cmd.OutOrStdout(), line)
		}
	} else {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		if err := enc.Encode(mapping); err != nil {
			return err
		}
	}

	generate, _ := cmd.Flags().GetBool("generate")
	if !generate {
		return nil
	}

	format := resolveTransformFormat(profile.Transform.Format)
	result, err := transform.Generate(mapping, format, "source", "target")
	if err != nil {
		return pipeline.NewStageError("generating transform", err)
	}
	for _, w := range result.Warnings {
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: %s\n", w)
	}

	transformOutput := profile.TransformOutputPath
	if transformOutput == "" {
		_, err = fmt.Fprintln(cmd.OutOrStdout(), result.Script)
		return err
	}
	if err := os.WriteFile(transformOutput, []byte(result.Script), 0o644); err != nil {
		return pipeline.NewIOError(fmt.Sprintf("writing %s", transformOutput), err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "wrote transform to %s\n", transformOutput)
	return nil
}
