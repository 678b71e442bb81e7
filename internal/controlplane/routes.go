package controlplane

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/raidtimer/timerlink/internal/controlplane/handlers"
	"github.com/raidtimer/timerlink/internal/controlplane/middleware"
	"github.com/raidtimer/timerlink/internal/version"
)

// SetupRoutes builds the control plane handler for ov.
func SetupRoutes(ov handlers.Overlay, cfg *Config) http.Handler {
	r := gin.New()
	r.HandleMethodNotAllowed = true

	statusH := handlers.NewStatusHandler(ov)
	timersH := handlers.NewTimersHandler(ov, handlers.WithReplayWindow(cfg.Replay))
	hotkeysH := handlers.NewHotkeysHandler(ov)
	feedH := handlers.NewFeedHandler(ov, timersH,
		handlers.WithHeartbeat(cfg.Heartbeat),
		handlers.WithOriginPatterns(cfg.Origins...),
	)

	r.Use(middleware.HideQueryToken())
	r.Use(middleware.Logger())
	r.Use(gin.Recovery())
	r.Use(middleware.CORS())
	r.Use(middleware.SecureHeaders())
	r.Use(middleware.Gzip())

	r.GET("/", IndexHandler)

	v1 := r.Group("/v1")
	if cfg.AuthToken == "" {
		v1.Use(middleware.OriginGuard(cfg.Origins...))
	}
	v1.Use(middleware.TokenAuth(middleware.TokenAuthConfig{Token: cfg.AuthToken}))
	v1.Use(middleware.RateLimit(cfg.RateLimit))
	{
		v1.GET("/status", statusH.Status)
		v1.GET("/hotkeys", hotkeysH.List)

		v1Timers := v1.Group("/timers")
		{
			v1Timers.GET("", timersH.List)
			v1Timers.GET("/:id", timersH.Get)
			v1Timers.POST("/:id/:action", timersH.Action)
		}

		v1.GET("/events", feedH.Events)
		v1.GET("/ws", feedH.WebSocket)
	}

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{
			"error": "not found",
		})
	})

	r.NoMethod(func(c *gin.Context) {
		c.JSON(http.StatusMethodNotAllowed, gin.H{
			"error": "method not allowed",
		})
	})

	return r.Handler()
}

func init() {
	gin.SetMode(gin.ReleaseMode)
}

func IndexHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"name":    version.AppName,
		"version": version.Detailed(),
		"build":   version.Current(),
	})
}
