package timersdk

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testContext is cancelled when the test finishes.
func testContext(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	return ctx
}

func newTestClient(t *testing.T, handler http.Handler, mutate ...func(*Config)) (*Client, *httptest.Server) {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	u, err := url.Parse(srv.URL)
	require.NoError(t, err)
	host, portStr, err := net.SplitHostPort(u.Host)
	require.NoError(t, err)
	port, err := strconv.Atoi(portStr)
	require.NoError(t, err)

	cfg := &Config{Host: host, Port: port}
	for _, m := range mutate {
		m(cfg)
	}

	client, err := New(cfg)
	require.NoError(t, err)
	t.Cleanup(client.Close)

	return client, srv
}

func TestConfig_Validate(t *testing.T) {
	cfg := &Config{Host: "  ", Port: 80}
	assert.ErrorIs(t, cfg.Validate(), ErrNoServerHost)

	cfg = &Config{Host: "example.com", Port: 0}
	assert.ErrorIs(t, cfg.Validate(), ErrInvalidPort)

	cfg = &Config{Host: "example.com", Port: 70000}
	assert.ErrorIs(t, cfg.Validate(), ErrInvalidPort)

	cfg = &Config{Host: " example.com ", Port: 8080, ChannelCode: " abc "}
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "example.com", cfg.Host)
	assert.Equal(t, "abc", cfg.ChannelCode)
	assert.Equal(t, DefaultFetchTimeout, cfg.FetchTimeout)
	assert.Equal(t, DefaultActionTimeout, cfg.ActionTimeout)
	assert.Equal(t, DefaultStreamHandshakeTimeout, cfg.StreamHandshakeTimeout)
	assert.Equal(t, DefaultStreamIdleTimeout, cfg.StreamIdleTimeout)

	cfg = &Config{Host: "example.com", Port: 8080, ActionTimeout: time.Second}
	require.NoError(t, cfg.Validate())
	assert.Equal(t, time.Second, cfg.ActionTimeout)
}

func TestConfig_BaseURL(t *testing.T) {
	tests := []struct {
		host string
		port int
		want string
	}{
		{"example.com", 8080, "http://example.com:8080"},
		{"http://example.com/", 80, "http://example.com:80"},
		{"https://timers.example.com", 443, "https://timers.example.com:443"},
		{"::1", 9000, "http://[::1]:9000"},
	}
	for _, tt := range tests {
		cfg := Config{Host: tt.host, Port: tt.port}
		assert.Equal(t, tt.want, cfg.BaseURL(), tt.host)
	}
}

func TestNew_RejectsInvalidConfig(t *testing.T) {
	_, err := New(nil)
	assert.ErrorIs(t, err, ErrNoServerHost)

	_, err = New(&Config{Host: "example.com"})
	assert.ErrorIs(t, err, ErrInvalidPort)
}

func TestClient_SendsCommonHeaders(t *testing.T) {
	var got http.Header
	var query url.Values
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
		query = r.URL.Query()
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"timers":[]}`))
	}), func(c *Config) { c.ChannelCode = "raid-7" })

	_, err := client.FetchTimers(testContext(t))
	require.NoError(t, err)

	assert.Contains(t, got.Get(HeaderUserAgent), "TimerLink/")
	assert.NotEmpty(t, got.Get(HeaderVersion))
	assert.NotEmpty(t, got.Get(HeaderDeviceID))
	assert.Equal(t, "raid-7", query.Get(QueryChannelCode))
}

func TestNewAPIError(t *testing.T) {
	e := newAPIError(http.StatusBadRequest, []byte(`{"message":"nope"}`))
	assert.Equal(t, "nope", e.Message)
	assert.Equal(t, "api error: 400 nope", e.Error())

	e = newAPIError(http.StatusInternalServerError, []byte("boom"))
	assert.Equal(t, "boom", e.Message)

	e = newAPIError(http.StatusNotFound, nil)
	assert.Equal(t, "api error: 404 Not Found", e.Error())
}
