package service

import (
	"context"
	"log/slog"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	channelDomain "github.com/subgate-bot/subgate/internal/modules/channel/domain"
	"github.com/subgate-bot/subgate/internal/modules/subscription/cache"
)

// MemberAPI is the slice of the Telegram client the verifier needs.
// *bot.Bot satisfies it.
type MemberAPI interface {
	GetChatMember(ctx context.Context, params *bot.GetChatMemberParams) (*models.ChatMember, error)
}

// Service verifies that a user belongs to every required channel,
// consulting the membership cache before the Telegram API
type Service struct {
	api      MemberAPI
	cache    cache.Store
	failOpen bool
}

// New creates a new subscription verifier. When failOpen is true a failed
// Telegram lookup counts the user as subscribed; when false it counts as
// not subscribed. The policy applies uniformly to every check.
func New(cacheStore cache.Store, failOpen bool) *Service {
	return &Service{
		cache:    cacheStore,
		failOpen: failOpen,
	}
}

// SetAPI sets the Telegram client used for membership lookups.
// Needed because the bot itself is constructed after the services.
func (s *Service) SetAPI(api MemberAPI) {
	s.api = api
}

// MissingChannels returns the channels the user is not subscribed to,
// preserving the input order. Cache and API failures never abort the scan.
func (s *Service) MissingChannels(ctx context.Context, userID int64, channels []*channelDomain.Channel) []*channelDomain.Channel {
	var missing []*channelDomain.Channel

	for _, channel := range channels {
		if !s.isMember(ctx, userID, channel) {
			missing = append(missing, channel)
		}
	}

	return missing
}

func (s *Service) isMember(ctx context.Context, userID int64, channel *channelDomain.Channel) bool {
	cached, err := s.cache.IsMember(ctx, userID, channel.TelegramID)
	if err != nil {
		// Cache failure is not critical, fall through to the API check
		slog.Debug("Membership cache unavailable", "error", err, "user_id", userID, "channel_id", channel.TelegramID)
	} else if cached {
		return true
	}

	member, err := s.api.GetChatMember(ctx, &bot.GetChatMemberParams{
		ChatID: channel.TelegramID,
		UserID: userID,
	})
	if err != nil {
		slog.Warn("Failed to check channel membership", "error", err, "user_id", userID, "channel_id", channel.TelegramID, "fail_open", s.failOpen)
		return s.failOpen
	}

	switch member.Type {
	case models.ChatMemberTypeOwner, models.ChatMemberTypeAdministrator, models.ChatMemberTypeMember:
		// Only confirmed memberships are cached, so a user who joins
		// later is noticed on the next check
		if err := s.cache.MarkMember(ctx, userID, channel.TelegramID); err != nil {
			slog.Debug("Failed to cache membership", "error", err, "user_id", userID, "channel_id", channel.TelegramID)
		}
		return true
	}

	return false
}
