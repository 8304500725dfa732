package services

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/EugenePawit/expiration-tracker/models"
)

// SubscriptionRow is the postgres shape of one endpoint record. The whole
// record stays a JSON blob: credentials and items are only ever read and
// written together, so columns would buy nothing.
type SubscriptionRow struct {
	Key       string `gorm:"primaryKey;size:64"`
	Data      []byte `gorm:"type:jsonb;not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (SubscriptionRow) TableName() string { return "subscriptions" }

// GormStore is the postgres EndpointStore backend.
type GormStore struct {
	db     *gorm.DB
	logger *zap.Logger
}

func NewGormStore(dsn string, logger *zap.Logger) (*GormStore, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(&SubscriptionRow{}); err != nil {
		return nil, err
	}
	return &GormStore{db: db, logger: logger}, nil
}

func (g *GormStore) Put(ctx context.Context, key string, sub *models.Subscription) error {
	raw, err := json.Marshal(sub)
	if err != nil {
		return err
	}
	var existing SubscriptionRow
	err = g.db.WithContext(ctx).Where("key = ?", key).First(&existing).Error
	if err == nil {
		existing.Data = raw
		return g.db.WithContext(ctx).Save(&existing).Error
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	return g.db.WithContext(ctx).Create(&SubscriptionRow{Key: key, Data: raw}).Error
}

func (g *GormStore) Get(ctx context.Context, key string) (*models.Subscription, error) {
	var row SubscriptionRow
	err := g.db.WithContext(ctx).Where("key = ?", key).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var sub models.Subscription
	if err := json.Unmarshal(row.Data, &sub); err != nil {
		return nil, err
	}
	return &sub, nil
}

func (g *GormStore) Delete(ctx context.Context, key string) error {
	return g.db.WithContext(ctx).Where("key = ?", key).Delete(&SubscriptionRow{}).Error
}

func (g *GormStore) ListAll(ctx context.Context) ([]StoredRecord, error) {
	var rows []SubscriptionRow
	if err := g.db.WithContext(ctx).Find(&rows).Error; err != nil {
		return nil, err
	}
	records := make([]StoredRecord, 0, len(rows))
	for _, row := range rows {
		var sub models.Subscription
		if err := json.Unmarshal(row.Data, &sub); err != nil {
			g.logger.Warn("skipping corrupt subscription row", zap.String("key", row.Key), zap.Error(err))
			continue
		}
		records = append(records, StoredRecord{Key: row.Key, Sub: &sub})
	}
	return records, nil
}

func (g *GormStore) Close() error {
	sqlDB, err := g.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
