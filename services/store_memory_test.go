package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/EugenePawit/expiration-tracker/models"
)

func TestMemoryStorePutGet(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	sub := &models.Subscription{
		Endpoint: "https://push.example/abc",
		Keys:     models.SubscriptionKeys{P256dh: "p", Auth: "a"},
		Items:    []models.FoodItem{{ID: "1", Name: "Milk", ExpiryDate: "2025-06-03"}},
	}
	require.NoError(t, store.Put(ctx, sub.Key(), sub))

	got, err := store.Get(ctx, sub.Key())
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, sub.Endpoint, got.Endpoint)
	assert.Equal(t, sub.Items, got.Items)
}

func TestMemoryStoreGetAbsent(t *testing.T) {
	store := NewMemoryStore()
	got, err := store.Get(context.Background(), "push:nope")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestMemoryStorePutIsUpsert(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	key := models.SubscriptionKey("https://push.example/abc")

	require.NoError(t, store.Put(ctx, key, &models.Subscription{Endpoint: "https://push.example/abc"}))
	require.NoError(t, store.Put(ctx, key, &models.Subscription{
		Endpoint: "https://push.example/abc",
		Items:    []models.FoodItem{{ID: "1", Name: "Milk", ExpiryDate: "2025-06-03"}},
	}))

	got, err := store.Get(ctx, key)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Len(t, got.Items, 1)

	records, err := store.ListAll(ctx)
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestMemoryStoreDeleteAbsentIsNoop(t *testing.T) {
	store := NewMemoryStore()
	assert.NoError(t, store.Delete(context.Background(), "push:nope"))
}

func TestMemoryStoreListAll(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	for _, ep := range []string{"https://a.example/1", "https://b.example/2", "https://c.example/3"} {
		sub := &models.Subscription{Endpoint: ep}
		require.NoError(t, store.Put(ctx, sub.Key(), sub))
	}

	records, err := store.ListAll(ctx)
	require.NoError(t, err)
	assert.Len(t, records, 3)

	seen := map[string]bool{}
	for _, rec := range records {
		seen[rec.Sub.Endpoint] = true
	}
	assert.True(t, seen["https://a.example/1"] && seen["https://b.example/2"] && seen["https://c.example/3"])
}

func TestMemoryStoreReturnsCopies(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	sub := &models.Subscription{
		Endpoint: "https://push.example/abc",
		Items:    []models.FoodItem{{ID: "1", Name: "Milk", ExpiryDate: "2025-06-03"}},
	}
	require.NoError(t, store.Put(ctx, sub.Key(), sub))

	got, err := store.Get(ctx, sub.Key())
	require.NoError(t, err)
	got.Items[0].Name = "Mutated"

	again, err := store.Get(ctx, sub.Key())
	require.NoError(t, err)
	assert.Equal(t, "Milk", again.Items[0].Name, "mutating a returned record must not touch stored state")
}
