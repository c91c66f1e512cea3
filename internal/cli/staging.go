package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/flowforge/ingestcore/internal/ingest"
	"github.com/flowforge/ingestcore/internal/pipeline"
	"github.com/flowforge/ingestcore/internal/staging"
)

var stagingCmd = &cobra.Command{
	Use:   "staging",
	Short: "Manage the local staging store",
}

var stagingInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the staging store and its tables",
	RunE:  runStagingInit,
}

var stagingIngestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Discover and ingest records from the configured source",
	RunE:  runStagingIngest,
}

var stagingStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show staged record counts per partition",
	RunE:  runStagingStats,
}

var stagingBatchesCmd = &cobra.Command{
	Use:   "batches",
	Short: "List recent ingestion batches",
	RunE:  runStagingBatches,
}

var stagingQueryCmd = &cobra.Command{
	Use:   "query <sql>",
	Short: "Run a read-only SQL query against the staging store",
	Args:  cobra.ExactArgs(1),
	RunE:  runStagingQuery,
}

func init() {
	stagingBatchesCmd.Flags().Int("limit", 20, "maximum number of batches to list")
	stagingCmd.AddCommand(stagingInitCmd, stagingIngestCmd, stagingStatsCmd, stagingBatchesCmd, stagingQueryCmd)
	rootCmd.AddCommand(stagingCmd)
}

func runStagingInit(cmd *cobra.Command, args []string) error {
	resolved, err := resolveProfile()
	if err != nil {
		return pipeline.NewUsageError(err.Error())
	}
	store, err := openStagingStore(resolved.Profile)
	if err != nil {
		return pipeline.NewIOError("initializing staging store", err)
	}
	defer store.Close()

	fmt.Fprintf(cmd.OutOrStdout(), "staging store ready: %s\n", resolved.Profile.StorePath)
	return nil
}

func runStagingIngest(cmd *cobra.Command, args []string) error {
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

	cfg := ingest.Config{
		Source:    source,
		Pattern:   profile.Source.Pattern,
		Partition: profile.Source.Partition,
		Workers:   profile.Source.Workers,
		BatchSize: profile.Source.BatchSize,
		Dedup:     ingest.DedupMode(profile.Source.Dedup),
		Resume:    flagValues.Resume,
	}
	if flagValues.Resume {
		recent, err := store.ListBatches(context.Background(), 1)
		if err != nil {
			return pipeline.NewIOError("listing batches", err)
		}
		if len(recent) > 0 && (recent[0].Status == string(staging.BatchRunning) || recent[0].Status == string(staging.BatchFailed)) {
			cfg.BatchID = recent[0].ID
		}
	}

	stats, err := ingest.Ingest(context.Background(), store, cfg, slog.Default())
	if err != nil {
		return pipeline.NewIOError("ingest failed", err)
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(stats)
}

func runStagingStats(cmd *cobra.Command, args []string) error {
	resolved, err := resolveProfile()
	if err != nil {
		return pipeline.NewUsageError(err.Error())
	}
	store, err := openStagingStore(resolved.Profile)
	if err != nil {
		return pipeline.NewIOError("opening staging store", err)
	}
	defer store.Close()

	stats, err := store.PartitionStats(context.Background())
	if err != nil {
		return pipeline.NewIOError("reading partition stats", err)
	}

	for _, s := range stats {
		label := s.Partition
		if label == "" {
			label = "(none)"
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%-24s %d\n", label, s.Count)
	}
	return nil
}

func runStagingBatches(cmd *cobra.Command, args []string) error {
	resolved, err := resolveProfile()
	if err != nil {
		return pipeline.NewUsageError(err.Error())
	}
	store, err := openStagingStore(resolved.Profile)
	if err != nil {
		return pipeline.NewIOError("opening staging store", err)
	}
	defer store.Close()

	limit, _ := cmd.Flags().GetInt("limit")
	batches, err := store.ListBatches(context.Background(), limit)
	if err != nil {
		return pipeline.NewIOError("listing batches", err)
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(batches)
}

func runStagingQuery(cmd *cobra.Command, args []string) error {
	resolved, err := resolveProfile()
	if err != nil {
		return pipeline.NewUsageError(err.Error())
	}
	store, err := openStagingStore(resolved.Profile)
	if err != nil {
		return pipeline.NewIOError("opening staging store", err)
	}
	defer store.Close()

	cols, rows, err := store.Query(context.Background(), args[0])
	if err != nil {
		return pipeline.NewIOError("query failed", err)
	}

	result := make([]map[string]any, 0, len(rows))
	for _, row := range rows {
		record := make(map[string]any, len(cols))
		for i, col := range cols {
			record[col] = row[i]
		}
		result = append(result, record)
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}
