package http

import (
	"context"
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog/log"

	"github.com/Liberty76220/LibertyTalk/internal/adapters/signal"
	"github.com/Liberty76220/LibertyTalk/internal/app"
	"github.com/Liberty76220/LibertyTalk/internal/config"
	"github.com/Liberty76220/LibertyTalk/internal/domain"
)

func genClientToken() string {
	return uuid.NewString()
}

// ClientTokenMiddleware gives every browser a stable token; it becomes
// the transport-assigned session id on the websocket.
func ClientTokenMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, _ := c.Cookie("ct")
		if token == "" {
			token = genClientToken()
			c.SetCookie("ct", token, 3600*24*7, "/", "", false, true)
		}
		c.Set("client_token", token)
		c.Next()
	}
}

func SetupRouter(ctx context.Context, cfg *config.Config, orch *app.Orchestrator, ctl *signal.SignalWSController) *gin.Engine {
	if cfg.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if cfg.Mode == "debug" {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery())

	store := cookie.NewStore([]byte(cfg.Secret))
	r.Use(sessions.Sessions("LibertySessions", store))
	r.Use(ClientTokenMiddleware())

	r.Static("/static", cfg.StaticPath)
	r.GET("/", func(c *gin.Context) {
		c.File(cfg.StaticPath + "/index.html")
	})

	log.Info().Str("module", "adapters.http").Str("static", cfg.StaticPath).Msg("router setup")

	api := r.Group("/api")

	api.GET("/ws", func(c *gin.Context) {
		log.Info().Str("module", "adapters.http").Str("sid", c.GetString("client_token")).Msg("ws endpoint hit")
		ctl.HandleSignal(ctx, c)
	})

	api.GET("/voice/rooms", func(c *gin.Context) {
		c.JSON(http.StatusOK, orch.Presence.Rooms())
	})

	api.GET("/voice/rooms/:room", func(c *gin.Context) {
		var uri struct {
			Room string `uri:"room" binding:"required,max=64"`
		}
		if err := c.ShouldBindUri(&uri); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid room"})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"room":    uri.Room,
			"members": orch.Presence.Roster(domain.RoomID(uri.Room)),
		})
	})

	// Mesh clients fetch their ICE configuration here; the server itself
	// never opens a peer connection.
	api.GET("/rtc/config", func(c *gin.Context) {
		c.JSON(http.StatusOK, webrtc.Configuration{
			ICEServers: []webrtc.ICEServer{
				{URLs: cfg.STUNURLs},
			},
		})
	})

	return r
}
