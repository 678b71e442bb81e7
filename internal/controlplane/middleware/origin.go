package middleware

import (
	"log/slog"
	"net/http"
	"net/url"
	"path"
	"strings"

	"github.com/gin-gonic/gin"
)

// OriginGuard rejects browser requests coming from a page on another origin
// unless its host matches one of patterns (path.Match syntax, as for the
// WebSocket origin check). Requests without an Origin header pass, so the
// CLI and native overlays are unaffected.
func OriginGuard(patterns ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if origin == "" || originAllowed(origin, c.Request.Host, patterns) {
			c.Next()
			return
		}

		slog.Warn("control plane origin rejected", "origin", origin, "path", c.FullPath())
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
			"error": "origin not allowed",
		})
	}
}

func originAllowed(origin, host string, patterns []string) bool {
	u, err := url.Parse(origin)
	if err != nil || u.Host == "" {
		return false
	}
	if strings.EqualFold(u.Host, host) {
		return true
	}
	for _, pattern := range patterns {
		if ok, _ := path.Match(strings.ToLower(pattern), strings.ToLower(u.Host)); ok {
			return true
		}
	}
	return false
}
