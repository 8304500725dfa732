package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/EugenePawit/expiration-tracker/config"
	"github.com/EugenePawit/expiration-tracker/models"
)

// fakeTransport scripts an outcome per identity and records every call.
type fakeTransport struct {
	mu       sync.Mutex
	outcomes map[string]Outcome // identity -> outcome, default Delivered
	calls    []string
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{outcomes: make(map[string]Outcome)}
}

func (f *fakeTransport) Name() string { return "fake" }

func (f *fakeTransport) Deliver(_ context.Context, sub *models.Subscription, _ Message) Outcome {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, sub.Identity())
	if o, ok := f.outcomes[sub.Identity()]; ok {
		return o
	}
	return Delivered
}

func (f *fakeTransport) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func testConfig() *config.Config {
	return &config.Config{
		ExpiryWindowDays: 2,
		NotifyTopK:       5,
		NotifyPolicy:     config.PolicyBatch,
		PushTimeout:      time.Second,
		Timezone:         time.UTC,
	}
}

func newTestDispatcher(store EndpointStore, transport PushTransport, cfg *config.Config) *Dispatcher {
	return NewDispatcher(store, transport, NewComposer(cfg), nil, nil, zap.NewNop(), cfg)
}

func seedSubscription(t *testing.T, store EndpointStore, endpoint string, items ...models.FoodItem) string {
	t.Helper()
	sub := &models.Subscription{
		Endpoint: endpoint,
		Keys:     models.SubscriptionKeys{P256dh: "p", Auth: "a"},
		Items:    items,
	}
	key := sub.Key()
	require.NoError(t, store.Put(context.Background(), key, sub))
	return key
}

func expiringIn(id, name string, days int) models.FoodItem {
	return models.FoodItem{
		ID:         id,
		Name:       name,
		ExpiryDate: time.Now().UTC().AddDate(0, 0, days).Format("2006-01-02"),
	}
}

func TestRunSkipsEndpointWithNothingDue(t *testing.T) {
	store := NewMemoryStore()
	transport := newFakeTransport()
	seedSubscription(t, store, "https://push.example/one", expiringIn("a", "Cheese", 10))

	res, err := newTestDispatcher(store, transport, testConfig()).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, res.Considered)
	assert.Equal(t, 1, res.Skipped)
	assert.Equal(t, 0, res.Sent)
	assert.Equal(t, 0, transport.callCount(), "no transport call for an endpoint with nothing due")
}

func TestRunDeliversAndCounts(t *testing.T) {
	store := NewMemoryStore()
	transport := newFakeTransport()
	// one endpoint due (1 day out), one not due (5 days out, window is 2)
	seedSubscription(t, store, "https://push.example/due", expiringIn("a", "Milk", 1))
	seedSubscription(t, store, "https://push.example/not-due", expiringIn("b", "Frozen Peas", 5))

	res, err := newTestDispatcher(store, transport, testConfig()).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, res.Considered)
	assert.Equal(t, 1, res.Sent)
	assert.Equal(t, 1, res.Skipped)
	assert.Equal(t, 0, res.Failed)
	assert.Equal(t, 0, res.Cleaned)
}

func TestRunCleansUpPermanentFailures(t *testing.T) {
	store := NewMemoryStore()
	transport := newFakeTransport()
	key := seedSubscription(t, store, "https://push.example/gone", expiringIn("a", "Milk", 0))
	transport.outcomes["https://push.example/gone"] = PermanentFailure

	before, err := store.Get(context.Background(), key)
	require.NoError(t, err)
	require.NotNil(t, before, "record must exist before the run")

	res, err := newTestDispatcher(store, transport, testConfig()).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, res.Cleaned)
	assert.Equal(t, 0, res.Sent)

	after, err := store.Get(context.Background(), key)
	require.NoError(t, err)
	assert.Nil(t, after, "record must be gone after a permanent failure")
}

func TestRunKeepsEndpointOnTransientFailure(t *testing.T) {
	store := NewMemoryStore()
	transport := newFakeTransport()
	key := seedSubscription(t, store, "https://push.example/flaky", expiringIn("a", "Milk", 0))
	transport.outcomes["https://push.example/flaky"] = TransientFailure

	before, err := store.Get(context.Background(), key)
	require.NoError(t, err)

	res, err := newTestDispatcher(store, transport, testConfig()).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, res.Failed)
	assert.Equal(t, 0, res.Cleaned)

	after, err := store.Get(context.Background(), key)
	require.NoError(t, err)
	require.NotNil(t, after)
	assert.Equal(t, before, after, "transient failure must leave the record unchanged")
}

func TestRunIsolatesEndpointFailures(t *testing.T) {
	store := NewMemoryStore()
	transport := newFakeTransport()
	seedSubscription(t, store, "https://push.example/bad", expiringIn("a", "Milk", 0))
	seedSubscription(t, store, "https://push.example/good", expiringIn("b", "Eggs", 0))
	transport.outcomes["https://push.example/bad"] = TransientFailure

	res, err := newTestDispatcher(store, transport, testConfig()).Run(context.Background())
	require.NoError(t, err)

	// the bad endpoint must not stop the good one from being served
	assert.Equal(t, 1, res.Sent)
	assert.Equal(t, 1, res.Failed)
}

func TestRunPerItemPolicySendsOnePushPerItem(t *testing.T) {
	store := NewMemoryStore()
	transport := newFakeTransport()
	seedSubscription(t, store, "https://push.example/multi",
		expiringIn("a", "Milk", 0), expiringIn("b", "Eggs", 1))

	cfg := testConfig()
	cfg.NotifyPolicy = config.PolicyPerItem
	res, err := newTestDispatcher(store, transport, cfg).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, res.Sent)
	assert.Equal(t, 2, transport.callCount())
}

func TestRunEmptyStore(t *testing.T) {
	store := NewMemoryStore()
	transport := newFakeTransport()

	res, err := newTestDispatcher(store, transport, testConfig()).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, models.RunResult{}, res)
}

func TestRunSuppressionWindow(t *testing.T) {
	store := NewMemoryStore()
	transport := newFakeTransport()
	cfg := testConfig()
	cfg.SuppressWindow = 12 * time.Hour

	key := seedSubscription(t, store, "https://push.example/one", expiringIn("a", "Milk", 0))
	d := newTestDispatcher(store, transport, cfg)

	res, err := d.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, res.Sent)

	// a successful send stamps the record
	sub, err := store.Get(context.Background(), key)
	require.NoError(t, err)
	require.NotNil(t, sub)
	assert.NotEmpty(t, sub.LastNotifiedAt)

	// the immediate re-run must not re-send
	res, err = d.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, res.Sent)
	assert.Equal(t, 1, res.Skipped)
	assert.Equal(t, 1, transport.callCount())
}

func TestRunWithoutSuppressionResends(t *testing.T) {
	// baseline behavior: the design has no "already notified today" state
	store := NewMemoryStore()
	transport := newFakeTransport()
	seedSubscription(t, store, "https://push.example/one", expiringIn("a", "Milk", 0))

	d := newTestDispatcher(store, transport, testConfig())
	_, err := d.Run(context.Background())
	require.NoError(t, err)
	_, err = d.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, transport.callCount())
}

func TestTestDeliver(t *testing.T) {
	store := NewMemoryStore()
	transport := newFakeTransport()
	seedSubscription(t, store, "https://push.example/one")
	seedSubscription(t, store, "https://push.example/two")

	d := newTestDispatcher(store, transport, testConfig())

	// broadcast
	sent, total, err := d.TestDeliver(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, 2, sent)
	assert.Equal(t, 2, total)

	// specific endpoint
	sent, total, err = d.TestDeliver(context.Background(), "https://push.example/one")
	require.NoError(t, err)
	assert.Equal(t, 1, sent)
	assert.Equal(t, 1, total)

	// unknown endpoint
	_, _, err = d.TestDeliver(context.Background(), "https://push.example/nope")
	assert.ErrorIs(t, err, ErrSubscriptionNotFound)
}
