package routes

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/EugenePawit/expiration-tracker/config"
	"github.com/EugenePawit/expiration-tracker/controllers"
	"github.com/EugenePawit/expiration-tracker/metrics"
	"github.com/EugenePawit/expiration-tracker/middlewares"
	"github.com/EugenePawit/expiration-tracker/services"
)

// Deps is everything the router wires together. Constructed once in cmd and
// passed in; nothing here is a package global.
type Deps struct {
	Config     *config.Config
	Store      services.EndpointStore
	Transport  services.PushTransport
	Dispatcher *services.Dispatcher
	Hub        *services.RealtimeHub
	LineBot    *services.LineBotService // nil unless LINE is configured
	Metrics    *metrics.DispatchMetrics
	Logger     *zap.Logger
}

func SetupRouter(d Deps) *gin.Engine {
	r := gin.Default()

	dispatchCtl := controllers.NewDispatchController(d.Dispatcher)
	subCtl := controllers.NewSubscriptionController(d.Store, d.Transport, d.Logger)
	syncCtl := controllers.NewSyncController(d.Store, d.Logger)
	testCtl := controllers.NewTestNotificationController(d.Dispatcher)
	debugCtl := controllers.NewDebugController(d.Store, d.Config.Timezone)
	rtCtl := controllers.NewRealtimeController(d.Hub)

	api := r.Group("/api")
	{
		// Cron trigger, shared-secret protected
		cron := api.Group("/check-expiry")
		cron.Use(middlewares.CronAuthMiddleware(d.Config.CronSecret))
		{
			cron.GET("", dispatchCtl.CheckExpiry)
			cron.POST("", dispatchCtl.CheckExpiry)
		}

		api.POST("/subscribe", subCtl.Subscribe)
		api.DELETE("/subscribe", subCtl.Unsubscribe)
		api.POST("/sync-items", syncCtl.SyncItems)
		api.POST("/line-sync", syncCtl.LineSync)
		api.POST("/test-notification", testCtl.Send)
		api.GET("/debug/subscriptions", debugCtl.Subscriptions)

		if d.LineBot != nil {
			webhookCtl := controllers.NewWebhookController(d.LineBot, d.Logger)
			api.POST("/line-webhook", webhookCtl.LineWebhook)
		}
	}

	r.GET("/ws", rtCtl.DispatchWS)
	r.GET("/metrics", gin.WrapH(d.Metrics.Handler()))
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "timestamp": time.Now().UTC().Format(time.RFC3339)})
	})

	return r
}
