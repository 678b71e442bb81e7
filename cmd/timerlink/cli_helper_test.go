package main

import (
	"bytes"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"os/exec"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

var ansiRE = regexp.MustCompile(`\x1b\[[0-9;]*m`)

func stripANSI(s string) string {
	return ansiRE.ReplaceAllString(s, "")
}

// runCLI executes this package's cobra CLI in a helper subprocess so we can
// assert on commands that call os.Exit(). HOME points at an empty temp dir
// so no real config is read.
func runCLI(t *testing.T, env []string, args ...string) (stdoutStderr string, exitCode int) {
	t.Helper()

	cmd := exec.Command(os.Args[0], append([]string{"-test.run=TestHelperProcess", "--"}, args...)...)
	cmd.Env = append(os.Environ(),
		"GO_WANT_HELPER_PROCESS=1",
		"HOME="+t.TempDir(),
		"NO_COLOR=1",
		"CLICOLOR=0",
		"CLICOLOR_FORCE=0",
		"TERM=dumb",
	)
	cmd.Env = append(cmd.Env, env...)

	var buf bytes.Buffer
	cmd.Stdout = &buf
	cmd.Stderr = &buf
	err := cmd.Run()

	if err == nil {
		return stripANSI(buf.String()), 0
	}

	if ee, ok := err.(*exec.ExitError); ok {
		return stripANSI(buf.String()), ee.ExitCode()
	}

	t.Fatalf("unexpected error running CLI: %v", err)
	return "", 0
}

func TestHelperProcess(t *testing.T) {
	if os.Getenv("GO_WANT_HELPER_PROCESS") != "1" {
		return
	}

	// Args are: <testbin> -test.run=TestHelperProcess -- <cli args...>
	idx := -1
	for i, a := range os.Args {
		if a == "--" {
			idx = i
			break
		}
	}
	if idx == -1 {
		os.Exit(2)
	}

	cliArgs := os.Args[idx+1:]
	if len(cliArgs) == 0 {
		os.Exit(2)
	}

	rootCmd.SetArgs(cliArgs)
	rootCmd.SetOut(os.Stdout)
	rootCmd.SetErr(os.Stderr)
	rootCmd.SilenceUsage = true
	rootCmd.SilenceErrors = true

	if err := rootCmd.Execute(); err != nil {
		msg := strings.TrimSpace(stripANSI(err.Error()))
		if msg != "" {
			_, _ = os.Stderr.WriteString(msg + "\n")
		}
		os.Exit(1)
	}
	os.Exit(0)
}

const timersPayload = `{"timers":[
	{"id":"adds","name":"Adds","durationMs":45000,"remainingMs":45000,"isRunning":false,"displayOrder":2},
	{"id":"boss","name":"Boss","durationMs":120000,"remainingMs":90000,"isRunning":true,"repeatEnabled":true,"displayOrder":1}
]}`

// fakeTimerServer serves the timer API for one channel code ("" accepts
// any) and records action posts.
type fakeTimerServer struct {
	*httptest.Server

	channel string

	mu      sync.Mutex
	actions []string
}

func newFakeTimerServer(t *testing.T, channel string) *fakeTimerServer {
	t.Helper()
	f := &fakeTimerServer{channel: channel}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/timers", func(w http.ResponseWriter, r *http.Request) {
		if !f.channelOK(r) {
			http.Error(w, `{"error":"channel not found"}`, http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(timersPayload))
	})
	mux.HandleFunc("GET /api/timers/stream", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		w.WriteHeader(http.StatusOK)
		w.(http.Flusher).Flush()
		<-r.Context().Done()
	})
	mux.HandleFunc("POST /api/timers/{id}/{action}", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.actions = append(f.actions, r.PathValue("id")+":"+r.PathValue("action"))
		f.mu.Unlock()
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"ok":true}`))
	})

	f.Server = httptest.NewServer(mux)
	t.Cleanup(f.Close)
	return f
}

func (f *fakeTimerServer) channelOK(r *http.Request) bool {
	return f.channel == "" || r.URL.Query().Get("channelCode") == f.channel
}

func (f *fakeTimerServer) recorded() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.actions...)
}

// serverFlags points the CLI at the fake server.
func (f *fakeTimerServer) serverFlags(t *testing.T) []string {
	t.Helper()
	host, port, err := net.SplitHostPort(strings.TrimPrefix(f.URL, "http://"))
	require.NoError(t, err)
	return []string{"--host", host, "--port", port}
}

func (f *fakeTimerServer) hostPort(t *testing.T) (string, int) {
	t.Helper()
	host, port, err := net.SplitHostPort(strings.TrimPrefix(f.URL, "http://"))
	require.NoError(t, err)
	p, err := strconv.Atoi(port)
	require.NoError(t, err)
	return host, p
}
