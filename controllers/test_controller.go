package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/EugenePawit/expiration-tracker/services"
)

type TestNotificationController struct {
	Dispatcher *services.Dispatcher
}

// constructor
func NewTestNotificationController(d *services.Dispatcher) *TestNotificationController {
	return &TestNotificationController{Dispatcher: d}
}

type testNotificationReq struct {
	Endpoint string `json:"endpoint"`
}

// Send delivers one synthetic payload, to a specific endpoint or to all of
// them when none is given. POST /api/test-notification
func (tc *TestNotificationController) Send(c *gin.Context) {
	var req testNotificationReq
	// empty body means broadcast
	_ = c.ShouldBindJSON(&req)

	sent, total, err := tc.Dispatcher.TestDeliver(c.Request.Context(), req.Endpoint)
	if errors.Is(err, services.ErrSubscriptionNotFound) {
		msg := "No subscriptions found"
		if req.Endpoint != "" {
			msg = "Subscription not found"
		}
		c.JSON(http.StatusNotFound, gin.H{"error": msg})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal Server Error", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "sent": sent, "total": total})
}
