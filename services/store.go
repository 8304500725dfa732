package services

import (
	"context"

	"github.com/EugenePawit/expiration-tracker/models"
)

// StoredRecord pairs a store key with its subscription record.
type StoredRecord struct {
	Key string
	Sub *models.Subscription
}

// EndpointStore is the single source of truth for subscription credentials
// and each user's food items. Contract:
//
//   - Put is an upsert, overwriting the whole record.
//   - Get returns (nil, nil) for an absent key.
//   - Delete of an absent key is a no-op, not an error.
//   - ListAll carries no ordering guarantee.
type EndpointStore interface {
	Put(ctx context.Context, key string, sub *models.Subscription) error
	Get(ctx context.Context, key string) (*models.Subscription, error)
	Delete(ctx context.Context, key string) error
	ListAll(ctx context.Context) ([]StoredRecord, error)
	Close() error
}
