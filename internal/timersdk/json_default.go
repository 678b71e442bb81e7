//go:build !sonic

package timersdk

import (
	"github.com/goccy/go-json"
)

// for imroc/req and the stream frames
var jsonMarshal = json.Marshal
var jsonUnmarshal = json.Unmarshal
