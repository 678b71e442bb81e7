//go:build sonic

package timersdk

import (
	"github.com/bytedance/sonic"
)

// for imroc/req and the stream frames
var jsonMarshal = sonic.Marshal
var jsonUnmarshal = sonic.Unmarshal
