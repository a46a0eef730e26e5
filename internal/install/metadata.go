// Package install reads and writes the installation-metadata file the
// self-install orchestrator persists alongside an installed Stratum tree
// (.install-meta at the root of $STRATUM_HOME and of each versions/<v>/).
package install

import (
	"bufio"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Tier is an installation bundle selector, affecting which native
// namespaces are included.
type Tier string

const (
	TierCore Tier = "core"
	TierData Tier = "data"
	TierGUI  Tier = "gui"
	TierFull Tier = "full"
)

// Metadata is the decoded contents of an .install-meta file.
type Metadata struct {
	Version           string
	Tier              Tier
	Target            string
	InstalledAt       time.Time
	InstallerVersion  string
	InstallID         string
	unknown           map[string]string
}

// New builds metadata for a fresh install, stamping InstalledAt with now and
// generating an InstallID (an addition beyond spec.md's five keys, used to
// correlate a single install across cache/history entries).
func New(version string, tier Tier, target, installerVersion string, now time.Time) Metadata {
	return Metadata{
		Version:          version,
		Tier:             tier,
		Target:           target,
		InstalledAt:      now,
		InstallerVersion: installerVersion,
		InstallID:        uuid.NewString(),
	}
}

// Parse reads the key=value format: line-oriented, unordered, blank lines
// and lines starting with '#' ignored, unknown keys preserved but not
// surfaced as named fields.
func Parse(r io.Reader) (Metadata, error) {
	var m Metadata
	m.unknown = make(map[string]string)

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)

		switch key {
		case "version":
			m.Version = value
		case "tier":
			m.Tier = Tier(value)
		case "target":
			m.Target = value
		case "installed_at":
			t, err := time.Parse(time.RFC3339, value)
			if err != nil {
				return Metadata{}, fmt.Errorf("install: invalid installed_at %q: %w", value, err)
			}
			m.InstalledAt = t
		case "installer_version":
			m.InstallerVersion = value
		case "install_id":
			m.InstallID = value
		default:
			m.unknown[key] = value
		}
	}
	if err := scanner.Err(); err != nil {
		return Metadata{}, err
	}
	return m, nil
}

// Write renders m back to the key=value format, in the fixed field order
// spec.md §6 documents followed by any preserved unknown keys, sorted so
// Write is deterministic across runs.
func Write(w io.Writer, m Metadata) error {
	lines := []string{
		"version=" + m.Version,
		"tier=" + string(m.Tier),
		"target=" + m.Target,
		"installed_at=" + m.InstalledAt.UTC().Format(time.RFC3339),
		"installer_version=" + m.InstallerVersion,
	}
	if m.InstallID != "" {
		lines = append(lines, "install_id="+m.InstallID)
	}

	keys := make([]string, 0, len(m.unknown))
	for k := range m.unknown {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		lines = append(lines, k+"="+m.unknown[k])
	}

	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}
