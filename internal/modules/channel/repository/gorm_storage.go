package repository

import (
	"context"
	stderrors "errors"

	"github.com/samber/oops"
	"github.com/subgate-bot/subgate/internal/modules/channel/domain"
	"github.com/subgate-bot/subgate/internal/shared/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormStorage implements Repository on top of a relational database
type GormStorage struct {
	db *gorm.DB
}

// NewGormStorage migrates the channels table and returns a gorm-backed repository
func NewGormStorage(db *gorm.DB) (Repository, error) {
	if err := db.AutoMigrate(&domain.Channel{}); err != nil {
		return nil, oops.With("context", "failed to migrate channels table").Wrap(err)
	}

	return &GormStorage{db: db}, nil
}

func (s *GormStorage) Upsert(ctx context.Context, channel *domain.Channel) error {
	channel.IsActive = true

	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "telegram_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"title", "invite_link", "is_active", "updated_at"}),
	}).Create(channel).Error
	if err != nil {
		return oops.With("telegram_id", channel.TelegramID, "context", "failed to upsert channel").Wrap(err)
	}

	return nil
}

func (s *GormStorage) Deactivate(ctx context.Context, telegramID int64) error {
	err := s.db.WithContext(ctx).
		Model(&domain.Channel{}).
		Where("telegram_id = ?", telegramID).
		Update("is_active", false).Error
	if err != nil {
		return oops.With("telegram_id", telegramID, "context", "failed to deactivate channel").Wrap(err)
	}

	return nil
}

func (s *GormStorage) GetByTelegramID(ctx context.Context, telegramID int64) (*domain.Channel, error) {
	var channel domain.Channel
	err := s.db.WithContext(ctx).Where("telegram_id = ?", telegramID).Take(&channel).Error
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.ErrChannelNotFound
		}
		return nil, oops.With("telegram_id", telegramID, "context", "failed to read channel").Wrap(err)
	}

	return &channel, nil
}

func (s *GormStorage) ListActive(ctx context.Context) ([]*domain.Channel, error) {
	var channels []*domain.Channel
	err := s.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("created_at").
		Find(&channels).Error
	if err != nil {
		return nil, oops.With("context", "failed to list active channels").Wrap(err)
	}

	return channels, nil
}

func (s *GormStorage) ListAll(ctx context.Context) ([]*domain.Channel, error) {
	var channels []*domain.Channel
	err := s.db.WithContext(ctx).Order("created_at").Find(&channels).Error
	if err != nil {
		return nil, oops.With("context", "failed to list channels").Wrap(err)
	}

	return channels, nil
}
