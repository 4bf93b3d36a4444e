package repository

import (
	"context"

	"github.com/subgate-bot/subgate/internal/modules/channel/domain"
)

// Repository defines the interface for channel registry persistence
// This abstraction allows easy replacement of storage implementations
// (e.g. SQLite -> MySQL)
type Repository interface {
	// Upsert creates the channel or, on a telegram_id conflict, updates
	// title and invite link and reactivates the row.
	Upsert(ctx context.Context, channel *domain.Channel) error
	// Deactivate marks the channel inactive. A telegram id that is not
	// registered is a no-op, not an error.
	Deactivate(ctx context.Context, telegramID int64) error
	GetByTelegramID(ctx context.Context, telegramID int64) (*domain.Channel, error)
	ListActive(ctx context.Context) ([]*domain.Channel, error)
	ListAll(ctx context.Context) ([]*domain.Channel, error)
}
