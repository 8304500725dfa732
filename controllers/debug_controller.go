package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/EugenePawit/expiration-tracker/services"
	"github.com/EugenePawit/expiration-tracker/utils"
)

type DebugController struct {
	Store    services.EndpointStore
	Location *time.Location
}

// constructor
func NewDebugController(store services.EndpointStore, loc *time.Location) *DebugController {
	return &DebugController{Store: store, Location: loc}
}

// Subscriptions dumps a redacted view of every record with live
// days-remaining numbers. GET /api/debug/subscriptions
func (dc *DebugController) Subscriptions(c *gin.Context) {
	records, err := dc.Store.ListAll(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	now := time.Now().In(dc.Location)
	out := make([]gin.H, 0, len(records))
	for _, rec := range records {
		items := make([]gin.H, 0, len(rec.Sub.Items))
		for _, it := range rec.Sub.Items {
			entry := gin.H{"name": it.Name, "expiryDate": it.ExpiryDate}
			if exp, err := utils.ParseExpiryDate(it.ExpiryDate, dc.Location); err == nil {
				entry["daysRemaining"] = utils.DaysRemaining(exp, now)
			}
			items = append(items, entry)
		}
		out = append(out, gin.H{
			"endpoint":       rec.Sub.TruncatedIdentity(),
			"foodItemsCount": len(rec.Sub.Items),
			"foodItems":      items,
			"updatedAt":      rec.Sub.UpdatedAt,
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"totalSubscriptions": len(records),
		"subscriptions":      out,
		"timestamp":          now.UTC().Format(time.RFC3339),
	})
}
