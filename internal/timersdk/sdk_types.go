package timersdk

import (
	"github.com/imroc/req/v3"
	"github.com/raidtimer/timerlink/internal/utils"
	"github.com/raidtimer/timerlink/internal/version"
)

const (
	HeaderUserAgent = "User-Agent"
	HeaderVersion   = "X-TimerLink-Version"
	HeaderDeviceID  = "X-TimerLink-Device-Id"
	HeaderRequestID = "X-Request-Id"

	QueryChannelCode = "channelCode"
)

const (
	timersPath       = "/api/timers"
	timersStreamPath = "/api/timers/stream"
	timerActionPath  = "/api/timers/{id}/{action}"
)

// newHTTPClient returns a req client with the headers every call carries.
// Retries are left off: actions must reach the server at most once.
func newHTTPClient(config *Config) *req.Client {
	client := req.C().
		SetBaseURL(config.BaseURL()).
		SetUserAgent(version.UserAgent()).
		SetCommonHeader(HeaderVersion, version.Version).
		SetCommonHeader(HeaderDeviceID, utils.HWID()).
		SetJsonMarshal(jsonMarshal).
		SetJsonUnmarshal(jsonUnmarshal)

	if config.ChannelCode != "" {
		client.SetCommonQueryParam(QueryChannelCode, config.ChannelCode)
	}

	return client
}
