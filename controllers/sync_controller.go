package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/EugenePawit/expiration-tracker/models"
	"github.com/EugenePawit/expiration-tracker/services"
)

type SyncController struct {
	Store  services.EndpointStore
	Logger *zap.Logger
}

// constructor
func NewSyncController(store services.EndpointStore, logger *zap.Logger) *SyncController {
	return &SyncController{Store: store, Logger: logger}
}

type syncItemsReq struct {
	Endpoint string            `json:"endpoint"`
	Items    []models.FoodItem `json:"items"`
}

// SyncItems merges a fresh item list into an existing record, keeping its
// credential fields intact. POST /api/sync-items
func (sc *SyncController) SyncItems(c *gin.Context) {
	var req syncItemsReq
	if err := c.ShouldBindJSON(&req); err != nil || req.Endpoint == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing endpoint"})
		return
	}

	key := models.SubscriptionKey(req.Endpoint)
	sub, err := sc.Store.Get(c.Request.Context(), key)
	if err != nil {
		sc.Logger.Error("load subscription", zap.String("key", key), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to sync items"})
		return
	}
	if sub == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Subscription not found"})
		return
	}

	sub.Items = req.Items
	if sub.Items == nil {
		sub.Items = []models.FoodItem{}
	}
	sub.UpdatedAt = time.Now().UTC().Format(time.RFC3339)

	if err := sc.Store.Put(c.Request.Context(), key, sub); err != nil {
		sc.Logger.Error("save subscription", zap.String("key", key), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to sync items"})
		return
	}

	sc.Logger.Info("items synced", zap.String("key", key), zap.Int("items", len(sub.Items)))
	c.JSON(http.StatusOK, gin.H{"success": true})
}

type lineSyncReq struct {
	UserID    string            `json:"userId"`
	FoodItems []models.FoodItem `json:"foodItems"`
}

// LineSync overwrites a LINE user's record with a fresh item list,
// registering the user if the webhook never did. POST /api/line-sync
func (sc *SyncController) LineSync(c *gin.Context) {
	var req lineSyncReq
	if err := c.ShouldBindJSON(&req); err != nil || req.UserID == "" || req.FoodItems == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: userId and foodItems required"})
		return
	}

	sub := &models.Subscription{
		LineUserID: req.UserID,
		Items:      req.FoodItems,
		UpdatedAt:  time.Now().UTC().Format(time.RFC3339),
	}

	if err := sc.Store.Put(c.Request.Context(), sub.Key(), sub); err != nil {
		sc.Logger.Error("save LINE record", zap.String("user", req.UserID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to sync food items"})
		return
	}

	sc.Logger.Info("LINE items synced", zap.String("user", req.UserID), zap.Int("items", len(req.FoodItems)))
	c.JSON(http.StatusOK, gin.H{"success": true, "itemCount": len(req.FoodItems)})
}
