package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/line/line-bot-sdk-go/v7/linebot"
	"go.uber.org/zap"

	"github.com/EugenePawit/expiration-tracker/services"
)

type WebhookController struct {
	Bot    *services.LineBotService
	Logger *zap.Logger
}

// constructor
func NewWebhookController(bot *services.LineBotService, logger *zap.Logger) *WebhookController {
	return &WebhookController{Bot: bot, Logger: logger}
}

// LineWebhook receives LINE platform events. Signature verification happens
// inside ParseRequest; a bad or missing signature is the caller's problem,
// not ours. POST /api/line-webhook
func (wc *WebhookController) LineWebhook(c *gin.Context) {
	events, err := wc.Bot.ParseRequest(c.Request)
	if err != nil {
		if errors.Is(err, linebot.ErrInvalidSignature) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "No signature"})
			return
		}
		wc.Logger.Error("LINE webhook parse", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Webhook processing failed"})
		return
	}

	wc.Bot.HandleEvents(c.Request.Context(), events)
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
