package version

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatVersion(t *testing.T) {
	oldVersion, oldCommit, oldBuild := Version, Commit, BuildTime
	t.Cleanup(func() { Version, Commit, BuildTime = oldVersion, oldCommit, oldBuild })

	Version, Commit, BuildTime = "", "", ""
	assert.Equal(t, "0.0.0-dev (development)", FormatVersion())

	Version, Commit = "1.4.0", "abc1234"
	assert.Equal(t, "1.4.0 (commit: abc1234)", FormatVersion())

	BuildTime = "2024-02-01T10:00:00Z"
	assert.Equal(t, "1.4.0 (commit: abc1234, built at: 2024-02-01T10:00:00Z)", FormatVersion())
}

func TestCheckLatestVersionSkipsDevBuilds(t *testing.T) {
	// Must return without touching the network.
	CheckLatestVersion("0.0.0-dev")
}
