package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/EugenePawit/expiration-tracker/services"
)

type DispatchController struct {
	Dispatcher *services.Dispatcher
}

// constructor
func NewDispatchController(d *services.Dispatcher) *DispatchController {
	return &DispatchController{Dispatcher: d}
}

// CheckExpiry runs one dispatch pass. Wired to GET and POST so any external
// cron service can call it.
func (dc *DispatchController) CheckExpiry(c *gin.Context) {
	res, err := dc.Dispatcher.Run(c.Request.Context())
	if err != nil {
		// Partial counts still go out: a store failure mid-run must not
		// lose what was already processed.
		c.JSON(http.StatusInternalServerError, gin.H{
			"success":           false,
			"error":             "Failed to check expiring items",
			"details":           err.Error(),
			"subscriptions":     res.Considered,
			"notificationsSent": res.Sent,
			"skipped":           res.Skipped,
			"failed":            res.Failed,
			"cleaned":           res.Cleaned,
			"timestamp":         time.Now().UTC().Format(time.RFC3339),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":           true,
		"subscriptions":     res.Considered,
		"notificationsSent": res.Sent,
		"skipped":           res.Skipped,
		"failed":            res.Failed,
		"cleaned":           res.Cleaned,
		"timestamp":         time.Now().UTC().Format(time.RFC3339),
	})
}
