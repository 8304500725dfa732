package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/EugenePawit/expiration-tracker/config"
	"github.com/EugenePawit/expiration-tracker/metrics"
	"github.com/EugenePawit/expiration-tracker/models"
)

// ErrSubscriptionNotFound is returned by TestDeliver when the requested
// identity has no record.
var ErrSubscriptionNotFound = errors.New("subscription not found")

// Dispatcher runs one full pass over all endpoint records: compose, deliver,
// reconcile. Triggered externally (cron hitting the HTTP surface, or the
// one-shot CLI command); it owns no scheduling of its own.
type Dispatcher struct {
	store     EndpointStore
	transport PushTransport
	composer  *Composer
	hub       *RealtimeHub
	metrics   *metrics.DispatchMetrics
	logger    *zap.Logger
	timeout   time.Duration
	suppress  time.Duration
}

func NewDispatcher(
	store EndpointStore,
	transport PushTransport,
	composer *Composer,
	hub *RealtimeHub,
	m *metrics.DispatchMetrics,
	logger *zap.Logger,
	cfg *config.Config,
) *Dispatcher {
	return &Dispatcher{
		store:     store,
		transport: transport,
		composer:  composer,
		hub:       hub,
		metrics:   m,
		logger:    logger,
		timeout:   cfg.PushTimeout,
		suppress:  cfg.SuppressWindow,
	}
}

// Run processes every endpoint record once. One endpoint's failure never
// aborts another's processing; only an unreachable store ends the run early,
// and even then the counts gathered so far are returned alongside the error.
func (d *Dispatcher) Run(ctx context.Context) (models.RunResult, error) {
	var res models.RunResult

	records, err := d.store.ListAll(ctx)
	if err != nil && len(records) == 0 {
		return res, fmt.Errorf("list subscriptions: %w", err)
	}
	listErr := err

	now := time.Now().In(d.composer.Location)
	res.Considered = len(records)
	for _, rec := range records {
		d.processEndpoint(ctx, rec, now, &res)
	}

	if d.metrics != nil {
		d.metrics.ObserveRun(d.transport.Name(), res)
	}
	if d.hub != nil {
		d.hub.Broadcast(map[string]any{
			"kind":      "dispatch.completed",
			"result":    res,
			"timestamp": now.UTC().Format(time.RFC3339),
		})
	}
	d.logger.Info("dispatch run complete",
		zap.Int("subscriptions", res.Considered),
		zap.Int("sent", res.Sent),
		zap.Int("skipped", res.Skipped),
		zap.Int("failed", res.Failed),
		zap.Int("cleaned", res.Cleaned))

	return res, listErr
}

func (d *Dispatcher) processEndpoint(ctx context.Context, rec StoredRecord, now time.Time, res *models.RunResult) {
	sub := rec.Sub

	if sub.NotifiedWithin(d.suppress, now) {
		res.Skipped++
		return
	}

	msgs := d.composer.Compose(sub.Items, now)
	if len(msgs) == 0 {
		res.Skipped++
		return
	}

	delivered := false
	for _, msg := range msgs {
		switch d.deliver(ctx, sub, msg) {
		case Delivered:
			res.Sent++
			delivered = true
		case PermanentFailure:
			// The endpoint will never accept another message; forget it
			// and stop sending the rest of its batch.
			if err := d.store.Delete(ctx, rec.Key); err != nil {
				d.logger.Error("cleanup failed", zap.String("key", rec.Key), zap.Error(err))
				res.Failed++
			} else {
				res.Cleaned++
				d.logger.Info("removed invalid subscription", zap.String("key", rec.Key))
			}
			return
		case TransientFailure:
			res.Failed++
		}
	}

	if delivered && d.suppress > 0 {
		sub.LastNotifiedAt = now.UTC().Format(time.RFC3339)
		if err := d.store.Put(ctx, rec.Key, sub); err != nil {
			d.logger.Warn("could not record lastNotifiedAt", zap.String("key", rec.Key), zap.Error(err))
		}
	}
}

// deliver bounds one transport call so a hung push service cannot stall the
// whole run.
func (d *Dispatcher) deliver(ctx context.Context, sub *models.Subscription, msg Message) Outcome {
	callCtx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()
	return d.transport.Deliver(callCtx, sub, msg)
}

// TestDeliver sends one synthetic payload to the given identity, or to every
// known endpoint when identity is empty. Diagnostic only; nothing is cleaned
// up on failure.
func (d *Dispatcher) TestDeliver(ctx context.Context, identity string) (sent, total int, err error) {
	msg := Message{
		Title: "🔔 Test Notification",
		Body:  "If you see this, your notifications are working perfectly! 🎉",
		URL:   "/",
		Tag:   "test-" + uuid.NewString()[:8],
	}

	var subs []*models.Subscription
	if identity != "" {
		sub, err := d.store.Get(ctx, models.SubscriptionKey(identity))
		if err != nil {
			return 0, 0, err
		}
		if sub == nil {
			return 0, 0, ErrSubscriptionNotFound
		}
		subs = append(subs, sub)
	} else {
		records, err := d.store.ListAll(ctx)
		if err != nil {
			return 0, 0, err
		}
		for _, rec := range records {
			subs = append(subs, rec.Sub)
		}
	}
	if len(subs) == 0 {
		return 0, 0, ErrSubscriptionNotFound
	}

	for _, sub := range subs {
		if d.deliver(ctx, sub, msg) == Delivered {
			sent++
		}
	}
	return sent, len(subs), nil
}
