package hotkey

import (
	"fmt"
	"path/filepath"
	"slices"

	"github.com/bmatcuk/doublestar/v4"
)

// DefaultDevicePatterns finds keyboards on most distributions.
var DefaultDevicePatterns = []string{
	"/dev/input/by-path/*-event-kbd",
	"/dev/input/by-id/*-event-kbd",
}

// MatchDevices expands device glob patterns ("**" allowed) into the sorted,
// de-duplicated list of device paths they resolve to. Symlinks such as the
// by-path and by-id aliases are followed so one keyboard is opened once.
func MatchDevices(patterns []string) ([]string, error) {
	seen := make(map[string]bool)
	var out []string
	for _, pattern := range patterns {
		matches, err := doublestar.FilepathGlob(pattern)
		if err != nil {
			return nil, fmt.Errorf("hotkey: bad device pattern %q: %w", pattern, err)
		}
		for _, m := range matches {
			resolved, err := filepath.EvalSymlinks(m)
			if err != nil {
				resolved = m
			}
			if !seen[resolved] {
				seen[resolved] = true
				out = append(out, resolved)
			}
		}
	}
	if len(out) == 0 {
		return nil, ErrNoKeyboard
	}
	slices.Sort(out)
	return out, nil
}
