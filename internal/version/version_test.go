package version

import (
	"runtime"
	"runtime/debug"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInfo(t *testing.T) {
	info := Info()
	assert.Contains(t, info, "concierge "+Version)
	assert.Contains(t, info, runtime.GOOS+"/"+runtime.GOARCH)
	assert.Contains(t, info, runtime.Version())
}

func TestGetWithLdflags(t *testing.T) {
	origVersion, origCommit, origDate := Version, Commit, Date
	t.Cleanup(func() {
		Version, Commit, Date = origVersion, origCommit, origDate
	})

	Version = "1.2.3"
	Commit = "abc1234567890"
	Date = "2026-01-15"

	b := Get()
	assert.Equal(t, "1.2.3", b.Version)
	assert.Equal(t, "abc1234567890", b.Commit)
	assert.Equal(t, "abc1234", b.ShortCommit())
	assert.Equal(t, "2026-01-15", b.Date)
	assert.NotContains(t, Info(), "abc1234567890")
}

func TestFillFromVCS(t *testing.T) {
	settings := []debug.BuildSetting{
		{Key: "vcs.revision", Value: "deadbeefcafe"},
		{Key: "vcs.time", Value: "2026-10-01T12:00:00Z"},
		{Key: "vcs.modified", Value: "false"},
	}

	b := BuildInfo{Commit: "unknown", Date: "unknown"}
	fillFromVCS(&b, settings)
	assert.Equal(t, "deadbeefcafe", b.Commit)
	assert.Equal(t, "2026-10-01T12:00:00Z", b.Date)

	stamped := BuildInfo{Commit: "abc", Date: "2026-01-01"}
	fillFromVCS(&stamped, settings)
	assert.Equal(t, "abc", stamped.Commit, "ldflags win over the VCS stamp")
	assert.Equal(t, "2026-01-01", stamped.Date)
}

func TestShort(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"abcdefghij", "abcdefg"},
		{"abc1234", "abc1234"},
		{"abc", "abc"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, short(tt.input))
		})
	}
}
