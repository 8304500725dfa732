package services

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/line/line-bot-sdk-go/v7/linebot"
	"go.uber.org/zap"

	"github.com/EugenePawit/expiration-tracker/config"
	"github.com/EugenePawit/expiration-tracker/models"
)

const lineWelcomeText = "🍎 Welcome to Expiry Tracker!\n\nTo receive daily reminders:\n1. Open the Expiry Tracker app\n2. Click \"Connect LINE Account\"\n3. Add food items to track\n\nI'll send you notifications when food is expiring soon!"

// LineBotService owns the webhook side of the LINE integration. What matters
// to the dispatch pipeline is the registration side effect: a follow (or
// first message) creates the endpoint record the next run will enumerate.
type LineBotService struct {
	client *linebot.Client
	store  EndpointStore
	logger *zap.Logger
}

func NewLineBotService(cfg *config.Config, store EndpointStore, logger *zap.Logger) (*LineBotService, error) {
	client, err := linebot.New(cfg.LineChannelSecret, cfg.LineChannelToken)
	if err != nil {
		return nil, err
	}
	return &LineBotService{client: client, store: store, logger: logger}, nil
}

// ParseRequest verifies the x-line-signature and decodes the webhook events.
func (s *LineBotService) ParseRequest(r *http.Request) ([]*linebot.Event, error) {
	return s.client.ParseRequest(r)
}

func (s *LineBotService) HandleEvents(ctx context.Context, events []*linebot.Event) {
	for _, event := range events {
		switch event.Type {
		case linebot.EventTypeFollow:
			s.handleFollow(ctx, event)
		case linebot.EventTypeMessage:
			if msg, ok := event.Message.(*linebot.TextMessage); ok {
				s.handleMessage(ctx, event, msg.Text)
			}
		}
	}
}

func (s *LineBotService) handleFollow(ctx context.Context, event *linebot.Event) {
	userID := event.Source.UserID
	if userID == "" {
		return
	}
	if err := s.register(ctx, userID); err != nil {
		s.logger.Error("register follower", zap.String("user", userID), zap.Error(err))
		return
	}
	s.reply(ctx, event.ReplyToken, lineWelcomeText)
	s.logger.Info("new LINE user followed", zap.String("user", userID))
}

func (s *LineBotService) handleMessage(ctx context.Context, event *linebot.Event, text string) {
	userID := event.Source.UserID
	if userID == "" {
		return
	}

	sub, err := s.store.Get(ctx, models.SubscriptionKey("line:"+userID))
	if err != nil {
		s.logger.Error("lookup LINE user", zap.String("user", userID), zap.Error(err))
		return
	}

	if sub == nil {
		if err := s.register(ctx, userID); err != nil {
			s.logger.Error("register LINE user", zap.String("user", userID), zap.Error(err))
			return
		}
		s.reply(ctx, event.ReplyToken, "✅ Registered! Open the Expiry Tracker app to connect your LINE account and add food items.")
		return
	}

	switch strings.ToLower(strings.TrimSpace(text)) {
	case "status", "check":
		count := len(sub.Items)
		if count == 0 {
			s.reply(ctx, event.ReplyToken, "📦 No food items tracked yet.\n\nOpen the app to add items!")
			return
		}
		plural := ""
		if count > 1 {
			plural = "s"
		}
		s.reply(ctx, event.ReplyToken, fmt.Sprintf("📊 You're tracking %d food item%s.\n\nOpen the app to see details!", count, plural))
	default:
		s.reply(ctx, event.ReplyToken, "Commands:\n• \"status\" - Check tracked items\n• \"check\" - Same as status\n\nOr open the app to manage your food items!")
	}
}

func (s *LineBotService) register(ctx context.Context, userID string) error {
	sub := &models.Subscription{
		LineUserID: userID,
		Items:      []models.FoodItem{},
		CreatedAt:  time.Now().UTC().Format(time.RFC3339),
	}
	return s.store.Put(ctx, sub.Key(), sub)
}

func (s *LineBotService) reply(ctx context.Context, replyToken, text string) {
	if _, err := s.client.ReplyMessage(replyToken, linebot.NewTextMessage(text)).WithContext(ctx).Do(); err != nil {
		s.logger.Warn("LINE reply failed", zap.Error(err))
	}
}
