package middleware

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	slogGin "github.com/samber/slog-gin"
)

// pollRoutes are read by overlays several times a second.
var pollRoutes = map[string]struct{}{
	"/v1/status":     {},
	"/v1/hotkeys":    {},
	"/v1/timers":     {},
	"/v1/timers/:id": {},
}

// Logger logs control plane requests under the "http" group. Successful
// polling reads are skipped; actions, feeds and failures are always logged.
func Logger() gin.HandlerFunc {
	httpLogger := slog.Default().WithGroup("http")

	return slogGin.NewWithConfig(httpLogger, slogGin.Config{
		DefaultLevel:     slog.LevelInfo,
		ClientErrorLevel: slog.LevelWarn,
		ServerErrorLevel: slog.LevelError,
		WithRequestID:    true,
		WithUserAgent:    true,
		Filters:          []slogGin.Filter{skipPolling},
	})
}

func skipPolling(c *gin.Context) bool {
	if c.Request.Method != http.MethodGet || c.Writer.Status() >= http.StatusBadRequest {
		return true
	}
	_, poll := pollRoutes[c.FullPath()]
	return !poll
}

// AnnotateAction adds the timer and action to the request log line.
func AnnotateAction(c *gin.Context, timerID, action string) {
	slogGin.AddCustomAttributes(c, slog.String("timer", timerID))
	slogGin.AddCustomAttributes(c, slog.String("action", action))
}

// HideQueryToken moves a ?token= credential into the Authorization header
// before anything logs the request URL. It must run ahead of Logger.
func HideQueryToken() gin.HandlerFunc {
	return func(c *gin.Context) {
		query := c.Request.URL.Query()
		token := query.Get("token")
		if token == "" {
			c.Next()
			return
		}

		query.Del("token")
		c.Request.URL.RawQuery = query.Encode()
		if c.GetHeader("Authorization") == "" {
			c.Request.Header.Set("Authorization", "Bearer "+token)
		}
		c.Next()
	}
}
