package middleware

import (
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
)

// StreamingPaths are long-lived responses that must reach the client
// unbuffered.
var StreamingPaths = []string{
	"/v1/events",
	"/v1/ws",
}

// Gzip compresses every response except the streaming ones.
func Gzip(excluded ...string) gin.HandlerFunc {
	paths := append(append([]string(nil), StreamingPaths...), excluded...)
	return gzip.Gzip(
		gzip.DefaultCompression,
		gzip.WithExcludedPaths(paths),
	)
}
