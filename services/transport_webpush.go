package services

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	webpush "github.com/SherClockHolmes/webpush-go"
	"go.uber.org/zap"

	"github.com/EugenePawit/expiration-tracker/config"
	"github.com/EugenePawit/expiration-tracker/models"
)

// WebPushTransport delivers over the Web Push protocol with VAPID auth.
type WebPushTransport struct {
	publicKey  string
	privateKey string
	subscriber string
	ttl        int
	logger     *zap.Logger
}

func NewWebPushTransport(cfg *config.Config, logger *zap.Logger) *WebPushTransport {
	return &WebPushTransport{
		publicKey:  cfg.VAPIDPublicKey,
		privateKey: cfg.VAPIDPrivateKey,
		subscriber: cfg.VAPIDSubscriber,
		ttl:        60 * 60 * 24,
		logger:     logger,
	}
}

func (t *WebPushTransport) Name() string { return config.TransportWebPush }

func (t *WebPushTransport) Deliver(ctx context.Context, sub *models.Subscription, msg Message) Outcome {
	if sub.Endpoint == "" || sub.Keys.P256dh == "" || sub.Keys.Auth == "" {
		t.logger.Warn("subscription has no web push credentials", zap.String("identity", sub.TruncatedIdentity()))
		return TransientFailure
	}

	payload, err := json.Marshal(msg)
	if err != nil {
		t.logger.Error("marshal push payload", zap.Error(err))
		return TransientFailure
	}

	resp, err := webpush.SendNotificationWithContext(ctx, payload, &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpush.Keys{
			P256dh: sub.Keys.P256dh,
			Auth:   sub.Keys.Auth,
		},
	}, &webpush.Options{
		Subscriber:      t.subscriber,
		VAPIDPublicKey:  t.publicKey,
		VAPIDPrivateKey: t.privateKey,
		TTL:             t.ttl,
	})
	if err != nil {
		t.logger.Warn("web push send failed", zap.String("identity", sub.TruncatedIdentity()), zap.Error(err))
		return TransientFailure
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone:
		return PermanentFailure
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return Delivered
	default:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		t.logger.Warn("unexpected push service status",
			zap.Int("status", resp.StatusCode),
			zap.String("identity", sub.TruncatedIdentity()),
			zap.ByteString("body", body))
		return TransientFailure
	}
}
