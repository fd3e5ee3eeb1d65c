package http

import (
	"context"
	"net/http"

	"github.com/dkeye/Connectify/internal/adapters/signal"
	"github.com/dkeye/Connectify/internal/app/orch"
	"github.com/dkeye/Connectify/internal/config"
	"github.com/dkeye/Connectify/internal/domain"
	"github.com/dkeye/Connectify/internal/observability"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

// MeetingStore creates and looks up persisted meetings.
type MeetingStore interface {
	Create(ctx context.Context, title, host string) (*domain.Meeting, error)
	FindByCode(ctx context.Context, code string) (*domain.Meeting, error)
}

func genClientToken() string {
	return uuid.NewString()
}

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

func SetupRouter(ctx context.Context, cfg *config.Config, o *orch.Orchestrator, ctrl *signal.SignalWSController, meetings MeetingStore) *gin.Engine {
	if cfg.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if cfg.Mode == "debug" {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery())
	r.Use(otelgin.Middleware("connectify"))
	r.Use(observability.HTTPMetricsMiddleware())

	store := cookie.NewStore([]byte(cfg.Secret))
	r.Use(sessions.Sessions("ConnectifySessions", store))
	r.Use(ClientTokenMiddleware())

	if cfg.StaticPath != "" {
		r.Static("/static", cfg.StaticPath)
		r.GET("/", func(c *gin.Context) {
			c.File(cfg.StaticPath + "/index.html")
		})
	}

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	log.Info().Str("module", "adapters.http").Str("static", cfg.StaticPath).Msg("router setup")

	h := &handlers{orch: o, meetings: meetings, iceServers: iceServers(cfg.ICEServers)}

	api := r.Group("/api")

	api.GET("/ws/signal", func(c *gin.Context) {
		ctrl.HandleSignal(ctx, c)
	})

	api.GET("/rooms", h.listRooms)
	api.GET("/rooms/:room/members", h.roomMembers)
	api.DELETE("/rooms/:room", h.evictRoom)

	api.POST("/meetings", h.createMeeting)
	api.GET("/meetings/:code", h.getMeeting)

	api.GET("/ice-servers", h.listICEServers)

	return r
}
