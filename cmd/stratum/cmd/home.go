package cmd

import (
	"fmt"
	"os"
	"path/filepath"
)

// stratumHome resolves $STRATUM_HOME, defaulting to ~/.stratum, per §6's
// environment-variable contract.
func stratumHome() (string, error) {
	if home := os.Getenv("STRATUM_HOME"); home != "" {
		return home, nil
	}
	dir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(dir, ".stratum"), nil
}

func cacheDBPath(home string) string {
	dir := filepath.Join(home, "cache")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return filepath.Join(home, "cache.db")
	}
	return filepath.Join(dir, "chunks.db")
}

func metaPath(home string) string {
	return filepath.Join(home, ".install-meta")
}

func activeVersionPath(home string) string {
	return filepath.Join(home, ".active-version")
}

func versionDir(home, version string) string {
	return filepath.Join(home, "versions", version)
}
