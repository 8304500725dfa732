package services

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/EugenePawit/expiration-tracker/config"
	"github.com/EugenePawit/expiration-tracker/models"
)

func testComposer(policy string) *Composer {
	return &Composer{WindowDays: 2, TopK: 5, Policy: policy, Location: time.UTC}
}

func itemExpiringIn(id, name string, days int, now time.Time) models.FoodItem {
	return models.FoodItem{
		ID:         id,
		Name:       name,
		ExpiryDate: now.AddDate(0, 0, days).Format("2006-01-02"),
	}
}

func TestComposeNothingDue(t *testing.T) {
	now := time.Date(2025, time.June, 1, 9, 0, 0, 0, time.UTC)
	c := testComposer(config.PolicyBatch)

	msgs := c.Compose([]models.FoodItem{
		itemExpiringIn("a", "Milk", 5, now),    // beyond window
		itemExpiringIn("b", "Yogurt", -1, now), // already expired
	}, now)

	assert.Nil(t, msgs)
}

func TestComposeWindowBounds(t *testing.T) {
	now := time.Date(2025, time.June, 1, 9, 0, 0, 0, time.UTC)
	c := testComposer(config.PolicyBatch)

	items := []models.FoodItem{
		itemExpiringIn("a", "Expired", -3, now),
		itemExpiringIn("b", "Today", 0, now),
		itemExpiringIn("c", "Edge", 2, now),
		itemExpiringIn("d", "Beyond", 3, now),
	}
	msgs := c.Compose(items, now)
	require.Len(t, msgs, 1)

	body := msgs[0].Body
	assert.Contains(t, body, "Today")
	assert.Contains(t, body, "Edge")
	assert.NotContains(t, body, "Expired")
	assert.NotContains(t, body, "Beyond")
}

func TestComposeOrdering(t *testing.T) {
	now := time.Date(2025, time.June, 1, 9, 0, 0, 0, time.UTC)
	c := testComposer(config.PolicyBatch)

	// deliberately unsorted input
	items := []models.FoodItem{
		itemExpiringIn("x", "InTwoDays", 2, now),
		itemExpiringIn("y", "Today", 0, now),
		itemExpiringIn("z", "Tomorrow", 1, now),
	}
	msgs := c.Compose(items, now)
	require.Len(t, msgs, 1)

	body := msgs[0].Body
	assert.Less(t, strings.Index(body, "Today"), strings.Index(body, "Tomorrow"))
	assert.Less(t, strings.Index(body, "Tomorrow"), strings.Index(body, "InTwoDays"))
}

func TestComposeTieBreakByID(t *testing.T) {
	now := time.Date(2025, time.June, 1, 9, 0, 0, 0, time.UTC)
	c := testComposer(config.PolicyPerItem)

	items := []models.FoodItem{
		itemExpiringIn("b", "Beta", 1, now),
		itemExpiringIn("a", "Alpha", 1, now),
	}
	msgs := c.Compose(items, now)
	require.Len(t, msgs, 2)
	assert.Equal(t, "Alpha", msgs[0].Title)
	assert.Equal(t, "Beta", msgs[1].Title)
}

func TestComposeSingleItemToday(t *testing.T) {
	now := time.Date(2025, time.June, 1, 9, 0, 0, 0, time.UTC)
	c := testComposer(config.PolicyBatch)

	msgs := c.Compose([]models.FoodItem{itemExpiringIn("m", "Milk", 0, now)}, now)
	require.Len(t, msgs, 1)

	assert.Equal(t, "🚨 Milk expires soon!", msgs[0].Title)
	assert.Contains(t, msgs[0].Body, "today")
	assert.NotContains(t, msgs[0].Body, "tomorrow")
	assert.NotContains(t, msgs[0].Body, "in 0 days")
}

func TestComposeBatchTruncation(t *testing.T) {
	now := time.Date(2025, time.June, 1, 9, 0, 0, 0, time.UTC)
	c := &Composer{WindowDays: 2, TopK: 3, Policy: config.PolicyBatch, Location: time.UTC}

	items := []models.FoodItem{
		itemExpiringIn("a", "One", 0, now),
		itemExpiringIn("b", "Two", 0, now),
		itemExpiringIn("c", "Three", 1, now),
		itemExpiringIn("d", "Four", 1, now),
		itemExpiringIn("e", "Five", 2, now),
	}
	msgs := c.Compose(items, now)
	require.Len(t, msgs, 1)

	assert.Equal(t, "🚨 5 items expiring soon!", msgs[0].Title)
	assert.Contains(t, msgs[0].Body, "...and 2 more")
	assert.NotContains(t, msgs[0].Body, "Five")
	assert.Contains(t, msgs[0].Body, "Open the app to check your items!")
}

func TestComposePerItemPolicy(t *testing.T) {
	now := time.Date(2025, time.June, 1, 9, 0, 0, 0, time.UTC)
	c := testComposer(config.PolicyPerItem)

	msgs := c.Compose([]models.FoodItem{
		itemExpiringIn("milk-1", "Milk", 0, now),
		itemExpiringIn("eggs-2", "Eggs", 1, now),
	}, now)
	require.Len(t, msgs, 2)

	assert.Equal(t, "Milk", msgs[0].Title)
	assert.Equal(t, "expires today!", msgs[0].Body)
	assert.Equal(t, "expiry-milk-1", msgs[0].Tag)

	assert.Equal(t, "Eggs", msgs[1].Title)
	assert.Equal(t, "expires tomorrow!", msgs[1].Body)
	assert.Equal(t, "expiry-eggs-2", msgs[1].Tag)
}

func TestComposeSkipsMalformedItems(t *testing.T) {
	now := time.Date(2025, time.June, 1, 9, 0, 0, 0, time.UTC)
	c := testComposer(config.PolicyBatch)

	items := []models.FoodItem{
		{ID: "1", Name: "", ExpiryDate: now.Format("2006-01-02")}, // no name
		{ID: "2", Name: "BadDate", ExpiryDate: "soon"},
		itemExpiringIn("3", "Good", 1, now),
	}
	msgs := c.Compose(items, now)
	require.Len(t, msgs, 1)

	assert.Equal(t, "🚨 Good expires soon!", msgs[0].Title)
	assert.NotContains(t, msgs[0].Body, "BadDate")
}

func TestComposeDeterministic(t *testing.T) {
	now := time.Date(2025, time.June, 1, 9, 0, 0, 0, time.UTC)
	c := testComposer(config.PolicyBatch)

	items := []models.FoodItem{
		itemExpiringIn("a", "One", 1, now),
		itemExpiringIn("b", "Two", 0, now),
	}
	first := c.Compose(items, now)
	second := c.Compose(items, now)
	assert.Equal(t, first, second)
}
