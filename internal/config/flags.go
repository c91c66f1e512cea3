package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

// DefaultStorePath is the default staging store path when --store is not
// specified.
const DefaultStorePath = "staging.duckdb"

// DefaultSkipLargeFiles is the default file size threshold (100MB) above
// which files are skipped during discovery.
const DefaultSkipLargeFiles int64 = 100 * 1024 * 1024

// FlagValues collects all parsed global flag values from the CLI. This
// struct is populated by BindFlags and passed to Resolve as the
// highest-precedence layer.
type FlagValues struct {
	Profile string
	Store   string

	SourceRoot     string
	Pattern        string
	Partition      string
	GitTrackedOnly bool
	SkipLargeFiles int64
	Workers        int
	BatchSize      int
	Dedup          string
	Resume         bool

	TargetSchemaPath    string
	TransformFormat     string
	OutputPath          string
	TransformOutputPath string

	Verbose bool
	Quiet   bool
	Yes     bool
}

// BindFlags registers all global persistent flags on the given Cobra command
// and returns a FlagValues pointer that will be populated when the command is
// executed.
func BindFlags(cmd *cobra.Command) *FlagValues {
	fv := &FlagValues{}

	pf := cmd.PersistentFlags()
	pf.StringVar(&fv.Profile, "profile", "", "named profile to activate (default \"default\")")
	pf.StringVar(&fv.Store, "store", "", "staging store path")
	pf.StringVar(&fv.SourceRoot, "root", "", "local source root directory")
	pf.StringVar(&fv.Pattern, "pattern", "", "ingestion glob pattern")
	pf.StringVar(&fv.Partition, "partition", "", "partition label for ingested records")
	pf.BoolVar(&fv.GitTrackedOnly, "git-tracked-only", false, "only ingest files tracked by git")
	pf.StringVar(&skipLargeFilesRaw, "skip-large-files", "", "skip files larger than threshold (e.g. 500KB, 100MB)")
	pf.IntVar(&fv.Workers, "workers", 0, "parallel hash/parse workers")
	pf.IntVar(&fv.BatchSize, "batch-size", 0, "records buffered per insert batch")
	pf.StringVar(&fv.Dedup, "dedup", "", "dedup mode: none, by_path, by_content, both")
	pf.BoolVar(&fv.Resume, "resume", false, "resume the most recent ingest batch, or the checkpointed pipeline run, if it did not complete")
	pf.StringVar(&fv.TargetSchemaPath, "target-schema", "", "path to the target schema for the Map stage")
	pf.StringVar(&fv.TransformFormat, "transform-format", "", "transform output: sql, filter, script, distributed_batch")
	pf.StringVar(&fv.OutputPath, "output", "", "Export stage output path")
	pf.StringVar(&fv.TransformOutputPath, "transform-output", "", "Generate stage output path")
	pf.BoolVarP(&fv.Verbose, "verbose", "v", false, "enable debug logging")
	pf.BoolVarP(&fv.Quiet, "quiet", "q", false, "suppress all output except errors")
	pf.BoolVar(&fv.Yes, "yes", false, "skip confirmation prompts")

	return fv
}

// skipLargeFilesRaw holds the raw string value for --skip-large-files before
// parsing. This is a package-level variable because Cobra needs a string
// target for binding; ValidateFlags parses it into FlagValues.SkipLargeFiles.
var skipLargeFilesRaw string

// ValidateFlags checks the parsed flag values for correctness and mutual
// exclusion, and parses --skip-large-files. Call this from
// PersistentPreRunE after Cobra has parsed the flags.
func ValidateFlags(fv *FlagValues, cmd *cobra.Command) error {
	applyFlagEnvOverrides(fv, cmd)

	if fv.Verbose && fv.Quiet {
		return fmt.Errorf("--verbose and --quiet are mutually exclusive")
	}

	if !validDedupModes[fv.Dedup] {
		return fmt.Errorf("--dedup: invalid value %q (allowed: none, by_path, by_content, both)", fv.Dedup)
	}

	if !validTransformFormats[fv.TransformFormat] {
		return fmt.Errorf("--transform-format: invalid value %q (allowed: sql, filter, script, distributed_batch)", fv.TransformFormat)
	}

	if skipLargeFilesRaw != "" {
		size, err := ParseSize(skipLargeFilesRaw)
		if err != nil {
			return fmt.Errorf("--skip-large-files: %w", err)
		}
		fv.SkipLargeFiles = size
	}

	return nil
}

// ToProfile converts the non-zero flag values into a Profile override
// suitable for the highest-precedence layer of Resolve.
func (fv *FlagValues) ToProfile() *Profile {
	return &Profile{
		StorePath: fv.Store,
		Source: SourceConfig{
			Root:           fv.SourceRoot,
			Pattern:        fv.Pattern,
			Partition:      fv.Partition,
			GitTrackedOnly: fv.GitTrackedOnly,
			SkipLargeFiles: fv.SkipLargeFiles,
			Workers:        fv.Workers,
			BatchSize:      fv.BatchSize,
			Dedup:          fv.Dedup,
		},
		Transform:           TransformConfig{Format: fv.TransformFormat},
		TargetSchemaPath:    fv.TargetSchemaPath,
		OutputPath:          fv.OutputPath,
		TransformOutputPath: fv.TransformOutputPath,
	}
}

// applyFlagEnvOverrides applies INGESTCORE_* environment variable fallbacks
// for flags that were not explicitly set on the command line.
func applyFlagEnvOverrides(fv *FlagValues, cmd *cobra.Command) {
	type envFlag struct {
		flag string
		set  func(string)
	}
	envMap := map[string]envFlag{
		EnvStorePath:  {"store", func(v string) { fv.Store = v }},
		EnvSourceRoot: {"root", func(v string) { fv.SourceRoot = v }},
		EnvPattern:    {"pattern", func(v string) { fv.Pattern = v }},
	}

	for env, ef := range envMap {
		v := os.Getenv(env)
		if v == "" {
			continue
		}
		if !cmd.Flags().Changed(ef.flag) {
			ef.set(v)
		}
	}

	if os.Getenv(EnvDebug) == "1" && !cmd.Flags().Changed("verbose") {
		fv.Verbose = true
	}
}

// ParseSize parses a human-readable size string into bytes. It supports KB,
// MB, and GB suffixes (case-insensitive). Plain numbers without a suffix are
// treated as bytes. KB = 1024, MB = 1048576, GB = 1073741824.
func ParseSize(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty size string")
	}

	upper := strings.ToUpper(s)

	var suffix string
	var multiplier int64

	switch {
	case strings.HasSuffix(upper, "GB"):
		suffix = "GB"
		multiplier = 1024 * 1024 * 1024
	case strings.HasSuffix(upper, "MB"):
		suffix = "MB"
		multiplier = 1024 * 1024
	case strings.HasSuffix(upper, "KB"):
		suffix = "KB"
		multiplier = 1024
	default:
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid size: %q", s)
		}
		if n < 0 {
			return 0, fmt.Errorf("size must be non-negative: %q", s)
		}
		return n, nil
	}

	numStr := strings.TrimSpace(s[:len(s)-len(suffix)])
	n, err := strconv.ParseInt(numStr, 10, 64)
	if err != nil {
		f, ferr := strconv.ParseFloat(numStr, 64)
		if ferr != nil {
			return 0, fmt.Errorf("invalid size: %q", s)
		}
		if f < 0 {
			return 0, fmt.Errorf("size must be non-negative: %q", s)
		}
		return int64(f * float64(multiplier)), nil
	}
	if n < 0 {
		return 0, fmt.Errorf("size must be non-negative: %q", s)
	}
	return n * multiplier, nil
}
