package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/EugenePawit/expiration-tracker/models"
	"github.com/EugenePawit/expiration-tracker/services"
)

type SubscriptionController struct {
	Store     services.EndpointStore
	Transport services.PushTransport
	Logger    *zap.Logger
}

// constructor
func NewSubscriptionController(store services.EndpointStore, transport services.PushTransport, logger *zap.Logger) *SubscriptionController {
	return &SubscriptionController{Store: store, Transport: transport, Logger: logger}
}

type subscribeReq struct {
	// Web Push credential bundle as the browser serializes it
	Endpoint string                  `json:"endpoint"`
	Keys     models.SubscriptionKeys `json:"keys"`
	// Chat transport identity
	LineUserID string `json:"lineUserId"`
	// Raw device token, exchanged server-side when the transport needs it
	Token string `json:"token"`
	// Optional initial item list
	Items []models.FoodItem `json:"items"`
}

// Subscribe upserts an endpoint record keyed by a stable digest of its
// identity. POST /api/subscribe
func (sc *SubscriptionController) Subscribe(c *gin.Context) {
	var req subscribeReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}

	sub := &models.Subscription{
		Endpoint:   req.Endpoint,
		Keys:       req.Keys,
		LineUserID: req.LineUserID,
		Items:      req.Items,
	}
	if sub.Items == nil {
		sub.Items = []models.FoodItem{}
	}

	if req.Token != "" {
		registrar, ok := sc.Transport.(services.EndpointRegistrar)
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "configured transport does not accept device tokens"})
			return
		}
		arn, err := registrar.RegisterToken(c.Request.Context(), req.Token)
		if err != nil {
			c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
			return
		}
		sub.EndpointARN = arn
	}

	if sub.Identity() == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid subscription: missing endpoint"})
		return
	}

	sub.CreatedAt = time.Now().UTC().Format(time.RFC3339)
	key := sub.Key()
	if err := sc.Store.Put(c.Request.Context(), key, sub); err != nil {
		sc.Logger.Error("save subscription", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save subscription"})
		return
	}

	sc.Logger.Info("subscription saved", zap.String("key", key))
	c.JSON(http.StatusOK, gin.H{"success": true, "key": key})
}

type unsubscribeReq struct {
	Endpoint string `json:"endpoint"`
}

// Unsubscribe deletes the record. Idempotent: deleting an unknown identity
// still succeeds. DELETE /api/subscribe
func (sc *SubscriptionController) Unsubscribe(c *gin.Context) {
	var req unsubscribeReq
	if err := c.ShouldBindJSON(&req); err != nil || req.Endpoint == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing endpoint"})
		return
	}

	key := models.SubscriptionKey(req.Endpoint)
	if err := sc.Store.Delete(c.Request.Context(), key); err != nil {
		sc.Logger.Error("remove subscription", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to remove subscription"})
		return
	}

	sc.Logger.Info("subscription removed", zap.String("key", key))
	c.JSON(http.StatusOK, gin.H{"success": true})
}
