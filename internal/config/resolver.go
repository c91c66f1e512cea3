package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// ResolveOptions configures the multi-source configuration resolution.
type ResolveOptions struct {
	// ProfileName selects a named profile from loaded configs. If empty,
	// the INGESTCORE_PROFILE env var is checked, then "default" is used.
	ProfileName string

	// ProfileFile is a standalone profile TOML file path. When set, the
	// repo config (ingestcore.toml) is not loaded.
	ProfileFile string

	// TargetDir is the directory to search for ingestcore.toml. Defaults to
	// "." if empty.
	TargetDir string

	// GlobalConfigPath overrides the default
	// ~/.config/ingestcore/config.toml. Useful for testing.
	GlobalConfigPath string

	// Flags holds explicit CLI flag overrides (highest precedence).
	Flags *Profile
}

// ResolvedConfig is the result of multi-source configuration resolution.
type ResolvedConfig struct {
	// Profile is the final merged profile ready for use by the pipeline.
	Profile *Profile

	// ProfileName is the name of the resolved profile.
	ProfileName string

	// Chain is the profile's inheritance chain, as reported by
	// ResolveProfile.
	Chain []string
}

// Resolve runs the layered configuration resolution pipeline:
//  1. Built-in defaults
//  2. Global config (~/.config/ingestcore/config.toml)
//  3. Repository config (ingestcore.toml in TargetDir) OR a standalone
//     profile file, following profile inheritance (Extends)
//  4. Environment variables (INGESTCORE_* prefix)
//  5. CLI flags (highest precedence)
//
// Missing config files are silently ignored. Invalid files return errors.
func Resolve(opts ResolveOptions) (*ResolvedConfig, error) {
	profileName := opts.ProfileName
	if profileName == "" {
		if v := os.Getenv(EnvProfile); v != "" {
			profileName = v
		} else {
			profileName = "default"
		}
	}

	slog.Debug("resolving config",
		"profile", profileName,
		"targetDir", opts.TargetDir,
		"profileFile", opts.ProfileFile,
	)

	profiles, err := loadProfileSources(opts, profileName)
	if err != nil {
		return nil, err
	}

	resolution, err := ResolveProfile(profileName, profiles)
	if err != nil {
		return nil, err
	}

	merged := applyEnvOverrides(resolution.Profile)

	if opts.Flags != nil {
		merged = mergeProfile(merged, opts.Flags)
	}

	slog.Debug("config resolved",
		"profile", profileName,
		"source_type", merged.Source.Type,
		"store_path", merged.StorePath,
	)

	return &ResolvedConfig{
		Profile:     merged,
		ProfileName: profileName,
		Chain:       resolution.Chain,
	}, nil
}

// loadProfileSources merges the global config and repo-or-standalone config
// file's [profile.*] sections into one map, repo/standalone values winning
// over global ones for profiles defined in both.
func loadProfileSources(opts ResolveOptions, profileName string) (map[string]*Profile, error) {
	profiles := make(map[string]*Profile)

	globalPath := opts.GlobalConfigPath
	if globalPath == "" {
		discovered, err := DiscoverGlobalConfig()
		if err != nil {
			return nil, err
		}
		globalPath = discovered
	}
	if globalPath != "" {
		if err := mergeFileProfiles(globalPath, profiles); err != nil {
			return nil, err
		}
	}

	if opts.ProfileFile != "" {
		if err := mergeFileProfiles(opts.ProfileFile, profiles); err != nil {
			return nil, err
		}
		if _, ok := profiles[profileName]; !ok && profileName != "default" {
			return nil, fmt.Errorf("profile %q not found in profile file %s", profileName, opts.ProfileFile)
		}
		return profiles, nil
	}

	targetDir := opts.TargetDir
	if targetDir == "" {
		targetDir = "."
	}
	repoPath := filepath.Join(targetDir, "ingestcore.toml")
	if err := mergeFileProfiles(repoPath, profiles); err != nil {
		return nil, err
	}

	if _, ok := profiles[profileName]; !ok && profileName != "default" {
		return nil, fmt.Errorf("profile %q not found in any config file", profileName)
	}

	return profiles, nil
}

// mergeFileProfiles loads path (if it exists) and copies its profiles into
// dst, overwriting any same-named entry already present.
func mergeFileProfiles(path string, dst map[string]*Profile) error {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			slog.Debug("config file not found, skipping", "path", path)
			return nil
		}
		return fmt.Errorf("stat %s: %w", path, err)
	}

	cfg, err := LoadFromFile(path)
	if err != nil {
		return err
	}
	for name, p := range cfg.Profile {
		dst[name] = p
	}
	return nil
}

// applyEnvOverrides layers INGESTCORE_* environment variable values on top
// of the resolved profile.
func applyEnvOverrides(base *Profile) *Profile {
	env := buildEnvMap()
	if len(env) == 0 {
		return base
	}

	override := &Profile{Source: SourceConfig{}}
	if v, ok := env["store_path"].(string); ok {
		override.StorePath = v
	}
	if v, ok := env["source.root"].(string); ok {
		override.Source.Root = v
	}
	if v, ok := env["source.pattern"].(string); ok {
		override.Source.Pattern = v
	}
	if v, ok := env["source.workers"].(int); ok {
		override.Source.Workers = v
	}
	if v, ok := env["source.batch_size"].(int); ok {
		override.Source.BatchSize = v
	}

	return mergeProfile(base, override)
}
