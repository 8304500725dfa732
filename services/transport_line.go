package services

import (
	"context"
	"errors"
	"net/http"

	"github.com/line/line-bot-sdk-go/v7/linebot"
	"go.uber.org/zap"

	"github.com/EugenePawit/expiration-tracker/config"
	"github.com/EugenePawit/expiration-tracker/models"
)

// LineTransport pushes text messages through the LINE Messaging API.
type LineTransport struct {
	client *linebot.Client
	logger *zap.Logger
}

func NewLineTransport(cfg *config.Config, logger *zap.Logger) (*LineTransport, error) {
	client, err := linebot.New(cfg.LineChannelSecret, cfg.LineChannelToken)
	if err != nil {
		return nil, err
	}
	return &LineTransport{client: client, logger: logger}, nil
}

func (t *LineTransport) Name() string { return config.TransportLine }

func (t *LineTransport) Deliver(ctx context.Context, sub *models.Subscription, msg Message) Outcome {
	if sub.LineUserID == "" {
		t.logger.Warn("subscription has no LINE user id", zap.String("identity", sub.TruncatedIdentity()))
		return TransientFailure
	}

	// LINE has no title/body split; render the same text the web client saw.
	text := msg.Title + "\n\n" + msg.Body
	_, err := t.client.PushMessage(sub.LineUserID, linebot.NewTextMessage(text)).WithContext(ctx).Do()
	if err == nil {
		return Delivered
	}

	var apiErr *linebot.APIError
	if errors.As(err, &apiErr) && (apiErr.Code == http.StatusNotFound || apiErr.Code == http.StatusGone) {
		return PermanentFailure
	}
	t.logger.Warn("LINE push failed", zap.String("user", sub.LineUserID), zap.Error(err))
	return TransientFailure
}
