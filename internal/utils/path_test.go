package utils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolvePath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)
	cwd, err := os.Getwd()
	require.NoError(t, err)

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"relative", "./test", filepath.Join(cwd, "test")},
		{"absolute", "/tmp/a/../b", "/tmp/b"},
		{"home", "~", home},
		{"home child", "~/.timerlink/config.json", filepath.Join(home, ".timerlink", "config.json")},
		{"tilde inside name", "~notme", filepath.Join(cwd, "~notme")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ResolvePath(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err = ResolvePath("")
	assert.ErrorIs(t, err, ErrEmptyPath)
}

func TestEnsureParentAndExists(t *testing.T) {
	root := t.TempDir()
	file := filepath.Join(root, "logs", "nested", "timerlink.log")

	assert.False(t, DirExists(filepath.Dir(file)))
	require.NoError(t, EnsureParent(file))
	assert.True(t, DirExists(filepath.Dir(file)))
	assert.False(t, FileExists(file))

	require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))
	assert.True(t, FileExists(file))
	assert.False(t, DirExists(file))
	assert.False(t, FileExists(filepath.Dir(file)))

	// idempotent
	require.NoError(t, EnsureParent(file))
}

func TestMaskSecret(t *testing.T) {
	assert.Equal(t, "", MaskSecret(""))
	assert.Equal(t, "*****", MaskSecret("abc"))
	assert.Equal(t, "*****", MaskSecret("12345678"))
	assert.Equal(t, "tl_s*****", MaskSecret("tl_secret_token"))
}
