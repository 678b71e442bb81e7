package version

import (
	"runtime/debug"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func restoreStamps(t *testing.T) {
	t.Helper()
	v, r, d := Version, Revision, BuildDate
	t.Cleanup(func() { Version, Revision, BuildDate = v, r, d })
}

func TestBuild_Strings(t *testing.T) {
	b := Build{
		App:       AppName,
		Version:   "1.4.0",
		Revision:  "5e23a4c9b0d1f2e3",
		BuildDate: "2026-01-02T03:04:05Z",
		GoVersion: "go1.23.6",
		Platform:  "linux/amd64",
	}

	assert.Equal(t, "5e23a4c", b.ShortRevision())
	assert.Equal(t, "1.4.0 (5e23a4c; go1.23.6; linux/amd64; 2026-01-02T03:04:05Z)", b.String())
	assert.Equal(t, "TimerLink/1.4.0 (5e23a4c; linux/amd64)", b.UserAgent())

	b.Revision = "5e23a4c9b0d1f2e3-dirty"
	assert.Equal(t, "5e23a4c-dirty", b.ShortRevision())

	b.Revision = "HEAD"
	assert.Equal(t, "HEAD", b.ShortRevision())
}

func TestCurrent(t *testing.T) {
	b := Current()
	assert.Equal(t, AppName, b.App)
	assert.Equal(t, Version, b.Version)
	assert.NotEmpty(t, b.BuildDate)
	assert.Contains(t, b.Platform, "/")
	assert.True(t, strings.HasPrefix(UserAgent(), "TimerLink/"+Version+" ("))
	assert.Equal(t, b.String(), Detailed())
}

func TestStamp(t *testing.T) {
	vcs := []debug.BuildSetting{
		{Key: "vcs.revision", Value: "abcdef1234567890"},
		{Key: "vcs.modified", Value: "true"},
		{Key: "vcs.time", Value: "2026-01-12T01:00:00Z"},
	}

	tests := []struct {
		name                    string
		version, revision, date string
		mainVersion             string
		want                    [3]string
	}{
		{"dev build takes vcs stamps", devVersion, devRevision, "", "v9.9.9",
			[3]string{"9.9.9", "abcdef1234567890-dirty", "2026-01-12T01:00:00Z"}},
		{"ldflags win", "1.2.3", "deadbeef", "from-ldflags", "v9.9.9",
			[3]string{"1.2.3", "deadbeef", "from-ldflags"}},
		{"devel main version ignored", devVersion, devRevision, "", "(devel)",
			[3]string{devVersion, "abcdef1234567890-dirty", "2026-01-12T01:00:00Z"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			restoreStamps(t)
			Version, Revision, BuildDate = tt.version, tt.revision, tt.date

			stamp(tt.mainVersion, vcs)
			assert.Equal(t, tt.want, [3]string{Version, Revision, BuildDate})
		})
	}
}
