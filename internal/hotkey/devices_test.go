package hotkey

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatchDevices_FollowsLinksAndDedups(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "by-path"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "by-id", "usb"), 0o755))

	event3 := filepath.Join(root, "event3")
	event7 := filepath.Join(root, "event7")
	require.NoError(t, os.WriteFile(event3, nil, 0o600))
	require.NoError(t, os.WriteFile(event7, nil, 0o600))

	require.NoError(t, os.Symlink(event3, filepath.Join(root, "by-path", "pci-0000-event-kbd")))
	require.NoError(t, os.Symlink(event3, filepath.Join(root, "by-id", "usb", "logi-event-kbd")))
	require.NoError(t, os.Symlink(event7, filepath.Join(root, "by-id", "usb", "cherry-event-kbd")))
	require.NoError(t, os.Symlink(event7, filepath.Join(root, "by-id", "usb", "cherry-event-mouse")))

	got, err := MatchDevices([]string{
		filepath.Join(root, "by-path", "*-event-kbd"),
		filepath.Join(root, "by-id", "**", "*-event-kbd"),
	})
	require.NoError(t, err)

	want := []string{event3, event7}
	for i := range want {
		resolved, err := filepath.EvalSymlinks(want[i])
		require.NoError(t, err)
		want[i] = resolved
	}
	assert.Equal(t, want, got)
}

func TestMatchDevices_NoMatch(t *testing.T) {
	_, err := MatchDevices([]string{filepath.Join(t.TempDir(), "*-event-kbd")})
	assert.ErrorIs(t, err, ErrNoKeyboard)
}

func TestMatchDevices_BadPattern(t *testing.T) {
	_, err := MatchDevices([]string{"/dev/input/[-event-kbd"})
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNoKeyboard)
}
