package controller

import (
	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"relaychat/platform"
	"relaychat/service"
)

type Services struct {
	Completions *service.CompletionService
	Models      *service.ModelService
	ChatRooms   *service.ChatRoomService
}

type RouterOptions struct {
	AllowOrigin string
	Metrics     bool
}

func NewRouter(services Services, opts RouterOptions) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if platform.SentryEnabled() {
		r.Use(sentrygin.New(sentrygin.Options{Repanic: true}))
	}
	if opts.AllowOrigin != "" {
		r.Use(CORSMiddleware(opts.AllowOrigin))
	}
	r.Use(RequestIDMiddleware())
	r.Use(LogMiddleware())
	if opts.Metrics {
		r.Use(platform.MetricMiddleware("relaychat"))
		r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	}

	r.GET("/_ping", func(c *gin.Context) { c.String(200, "pong") })

	chat := NewChatController(services.Completions)
	providers := NewProviderController(services.Models)
	rooms := NewChatRoomController(services.ChatRooms)

	r.GET("/providers", providers.Providers)
	r.GET("/providers/:provider/models", providers.Models)
	r.POST("/providers/:provider/models/:model/completions", chat.Complete)

	r.GET("/chatrooms", rooms.List)
	r.GET("/chatrooms/:id", rooms.Get)
	r.PATCH("/chatrooms/:id", rooms.Rename)
	r.DELETE("/chatrooms/:id", rooms.Delete)
	r.GET("/chatrooms/:id/messages", rooms.Messages)

	return r
}
