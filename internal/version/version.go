// Package version describes the running TimerLink build. Release builds set
// Version, Revision and BuildDate through -ldflags "-X"; local builds fall
// back to the module and VCS stamps Go embeds in the binary.
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"strings"
	"time"
)

const (
	AppName = "TimerLink"

	devVersion  = "0.1.0-dev"
	devRevision = "HEAD"
	shortRevLen = 7
)

// Set by ldflags.
var (
	Version   = devVersion
	Revision  = devRevision
	BuildDate = ""
)

// Build is what the CLI, the control plane and the server see of this binary.
type Build struct {
	App       string `json:"app"`
	Version   string `json:"version"`
	Revision  string `json:"revision"`
	BuildDate string `json:"buildDate"`
	GoVersion string `json:"goVersion"`
	Platform  string `json:"platform"`
}

// Current returns the resolved build of the running binary.
func Current() Build {
	return Build{
		App:       AppName,
		Version:   Version,
		Revision:  Revision,
		BuildDate: BuildDate,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}
}

// ShortRevision is the abbreviated commit, keeping a "-dirty" marker.
func (b Build) ShortRevision() string {
	rev, dirty := strings.CutSuffix(b.Revision, "-dirty")
	if len(rev) > shortRevLen {
		rev = rev[:shortRevLen]
	}
	if dirty {
		rev += "-dirty"
	}
	return rev
}

// String renders `0.1.0 (5e23a4c; go1.23.6; linux/amd64; 2026-01-02T03:04:05Z)`.
func (b Build) String() string {
	return fmt.Sprintf("%s (%s; %s; %s; %s)", b.Version, b.ShortRevision(), b.GoVersion, b.Platform, b.BuildDate)
}

// UserAgent is sent on every request to the timer server.
func (b Build) UserAgent() string {
	return fmt.Sprintf("%s/%s (%s; %s)", b.App, b.Version, b.ShortRevision(), b.Platform)
}

// Detailed is Current().String().
func Detailed() string {
	return Current().String()
}

// UserAgent is Current().UserAgent().
func UserAgent() string {
	return Current().UserAgent()
}

// stamp fills the fields ldflags left at their defaults from the module
// version and the VCS settings of a build.
func stamp(mainVersion string, settings []debug.BuildSetting) {
	vcs := make(map[string]string, len(settings))
	for _, s := range settings {
		vcs[s.Key] = s.Value
	}

	if Version == devVersion || Version == "" {
		if mainVersion != "" && mainVersion != "(devel)" {
			Version = strings.TrimPrefix(mainVersion, "v")
		}
	}
	if Revision == devRevision || Revision == "" {
		if rev := vcs["vcs.revision"]; rev != "" {
			if vcs["vcs.modified"] == "true" {
				rev += "-dirty"
			}
			Revision = rev
		}
	}
	if BuildDate == "" {
		BuildDate = vcs["vcs.time"]
	}
}

func init() {
	if info, ok := debug.ReadBuildInfo(); ok && info != nil {
		stamp(info.Main.Version, info.Settings)
	}
	if BuildDate == "" {
		BuildDate = time.Now().UTC().Format(time.RFC3339)
	}
}
