package main

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raidtimer/timerlink/internal/version"
)

func execVersion(t *testing.T, args ...string) string {
	t.Helper()
	root := &cobra.Command{Use: "timerlink"}
	root.AddCommand(newVersionCmd())

	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(append([]string{"version"}, args...))
	require.NoError(t, root.Execute())
	return out.String()
}

func TestVersionCommand(t *testing.T) {
	lines := strings.Split(strings.TrimSpace(stripANSI(execVersion(t))), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "TimerLink "+version.Detailed(), lines[0])
	assert.Equal(t, version.UserAgent(), lines[1])
}

func TestVersionCommand_JSON(t *testing.T) {
	var got version.Build
	require.NoError(t, json.Unmarshal([]byte(execVersion(t, "--json")), &got))
	assert.Equal(t, version.Current(), got)
}
