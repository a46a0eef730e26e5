package install

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseKnownKeys(t *testing.T) {
	input := `version=1.2.3
tier=full
target=x86_64-unknown-linux-gnu
installed_at=2026-01-02T03:04:05Z
installer_version=0.9.0
`
	m, err := Parse(strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, "1.2.3", m.Version)
	assert.Equal(t, TierFull, m.Tier)
	assert.Equal(t, "x86_64-unknown-linux-gnu", m.Target)
	assert.Equal(t, "0.9.0", m.InstallerVersion)
	assert.Equal(t, time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC), m.InstalledAt)
}

func TestParseIgnoresUnknownKeysAndBlankLines(t *testing.T) {
	input := "version=1.0.0\n\n# a comment\nfuture_field=whatever\ntier=core\n"
	m, err := Parse(strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, "1.0.0", m.Version)
	assert.Equal(t, TierCore, m.Tier)
}

func TestParseUnorderedFields(t *testing.T) {
	input := "tier=data\nversion=2.0.0\ninstaller_version=1.0.0\ntarget=aarch64-apple-darwin\ninstalled_at=2026-06-01T00:00:00Z\n"
	m, err := Parse(strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, "2.0.0", m.Version)
	assert.Equal(t, TierData, m.Tier)
}

func TestWriteThenParseRoundTrips(t *testing.T) {
	now := time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC)
	m := New("3.1.0", TierGUI, "x86_64-pc-windows-msvc", "1.1.0", now)

	var buf strings.Builder
	require.NoError(t, Write(&buf, m))

	got, err := Parse(strings.NewReader(buf.String()))
	require.NoError(t, err)
	assert.Equal(t, m.Version, got.Version)
	assert.Equal(t, m.Tier, got.Tier)
	assert.Equal(t, m.Target, got.Target)
	assert.Equal(t, m.InstallerVersion, got.InstallerVersion)
	assert.Equal(t, m.InstalledAt, got.InstalledAt)
	assert.Equal(t, m.InstallID, got.InstallID)
}

func TestParseRejectsInvalidTimestamp(t *testing.T) {
	_, err := Parse(strings.NewReader("installed_at=not-a-time\n"))
	assert.Error(t, err)
}
