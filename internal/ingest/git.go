package ingest

import (
	"fmt"
	"os/exec"
)

// runGitLsFiles runs `git ls-files` in root and returns its raw stdout.
func runGitLsFiles(root string) (string, error) {
	cmd := exec.Command("git", "ls-files")
	cmd.Dir = root
	out, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("git ls-files in %s: %w (not a git repository?)", root, err)
	}
	return string(out), nil
}
