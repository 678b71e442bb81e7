package timersync

import (
	"context"
	"io"

	"github.com/raidtimer/timerlink/internal/timersdk"
)

// Transport is what the sync client needs from the server. Fetch and Do
// must not share a connection with the stream.
type Transport interface {
	FetchTimers(ctx context.Context) (*timersdk.TimerList, error)
	OpenStream(ctx context.Context) (io.ReadCloser, error)
	Do(ctx context.Context, id string, action timersdk.Action) error
}

// TransportFactory builds a transport for the given server settings.
type TransportFactory func(cfg timersdk.Config) (Transport, error)

// SDKTransport adapts a timersdk.Client to Transport.
type SDKTransport struct {
	*timersdk.Client
}

// NewSDKTransport is the default TransportFactory.
func NewSDKTransport(cfg timersdk.Config) (Transport, error) {
	client, err := timersdk.New(&cfg)
	if err != nil {
		return nil, err
	}
	return &SDKTransport{Client: client}, nil
}

func (t *SDKTransport) OpenStream(ctx context.Context) (io.ReadCloser, error) {
	stream, err := t.Client.OpenStream(ctx)
	if err != nil {
		return nil, err
	}
	return stream, nil
}

var _ Transport = (*SDKTransport)(nil)
