// Package cli implements the Cobra command hierarchy for the ingestctl CLI
// tool. The root command defined here is the entry point for all
// subcommands and handles cross-cutting concerns like logging
// initialization and error handling.
package cli

import (
	"errors"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/flowforge/ingestcore/internal/config"
	"github.com/flowforge/ingestcore/internal/pipeline"
	"github.com/flowforge/ingestcore/internal/secrets"
)

// flagValues holds the parsed global flag values, populated by
// config.BindFlags during command initialization and validated in
// PersistentPreRunE.
var flagValues *config.FlagValues

var rootCmd = &cobra.Command{
	Use:   "ingestctl",
	Short: "Stage, infer, and map semi-structured data into a target schema.",
	Long: `ingestctl ingests JSON and JSON-Lines data from a local tree, object
store, or remote volume into a staging store, infers its structure, optionally
refines that structure with a language model, maps it against a target
schema, and generates the transform to get there.

Each step can be run independently (staging, infer, map) or driven end to
end as one checkpointed run (pipeline run).`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := config.ValidateFlags(flagValues, cmd); err != nil {
			return pipeline.NewUsageError(err.Error())
		}

		level := config.ResolveLogLevel(flagValues.Verbose, flagValues.Quiet)
		format := config.ResolveLogFormat()
		config.SetupLogging(level, format)

		slog.Debug("logging initialized", "level", level, "format", format)
		return nil
	},
}

func init() {
	flagValues = config.BindFlags(rootCmd)

	rootCmd.RegisterFlagCompletionFunc("dedup", completeDedup)
	rootCmd.RegisterFlagCompletionFunc("transform-format", completeTransformFormat)
}

func completeDedup(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
	return []string{"none", "by_path", "by_content", "both"}, cobra.ShellCompDirectiveNoFileComp
}

func completeTransformFormat(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
	return []string{"sql", "filter", "script", "distributed_batch"}, cobra.ShellCompDirectiveNoFileComp
}

// Execute runs the root command and returns an appropriate exit code. If the
// error is a *pipeline.CoreError, its Code is used; any other error (e.g. a
// cobra arg/flag validation failure) returns ExitUsage (1); nil returns
// ExitSuccess (0).
func Execute() int {
	if err := rootCmd.Execute(); err != nil {
		slog.Error(secrets.Redact(err.Error()))
		return extractExitCode(err)
	}
	return int(pipeline.ExitSuccess)
}

func extractExitCode(err error) int {
	if err == nil {
		return int(pipeline.ExitSuccess)
	}
	var coreErr *pipeline.CoreError
	if errors.As(err, &coreErr) {
		return coreErr.Code
	}
	return int(pipeline.ExitUsage)
}

// RootCmd returns the root cobra.Command for use in testing and subcommand
// registration.
func RootCmd() *cobra.Command {
	return rootCmd
}

// GlobalFlags returns the parsed global flag values. This is available
// after PersistentPreRunE has run. Subcommands use this to access shared
// configuration.
func GlobalFlags() *config.FlagValues {
	return flagValues
}
