package service

import (
	"context"
	"log/slog"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/samber/lo"
	"github.com/samber/oops"
	"github.com/subgate-bot/subgate/internal/modules/channel/domain"
	channelRepo "github.com/subgate-bot/subgate/internal/modules/channel/repository"
)

const fallbackTitle = "Unknown Channel"

// ChatAPI is the slice of the Telegram client the reconciler needs.
// *bot.Bot satisfies it.
type ChatAPI interface {
	GetChat(ctx context.Context, params *bot.GetChatParams) (*models.ChatFullInfo, error)
	CreateChatInviteLink(ctx context.Context, params *bot.CreateChatInviteLinkParams) (*models.ChatInviteLink, error)
}

// Service keeps the channel registry consistent with the bot's own
// administrator status in channels
type Service struct {
	repo channelRepo.Repository
	api  ChatAPI
}

// New creates a new channel service
func New(repo channelRepo.Repository) *Service {
	return &Service{repo: repo}
}

// SetAPI sets the Telegram client used for invite-link resolution.
// Needed because the bot itself is constructed after the services.
func (s *Service) SetAPI(api ChatAPI) {
	s.api = api
}

// Reconcile applies a my_chat_member status change to the registry.
// Gaining administrator rights registers the channel; any other transition
// (kicked, left, demoted to member) deactivates it, because a non-admin bot
// cannot reliably verify membership there. Replaying the same event
// converges to the same registry state.
func (s *Service) Reconcile(ctx context.Context, event *models.ChatMemberUpdated) error {
	if event.Chat.Type != "channel" {
		return nil
	}

	if isAdminStatus(event.NewChatMember.Type) {
		return s.registerChannel(ctx, event.Chat)
	}

	slog.Info("Bot lost admin rights in channel", "channel_id", event.Chat.ID, "status", event.NewChatMember.Type)
	if err := s.repo.Deactivate(ctx, event.Chat.ID); err != nil {
		return oops.With("channel_id", event.Chat.ID, "context", "failed to deactivate channel").Wrap(err)
	}

	return nil
}

func (s *Service) registerChannel(ctx context.Context, chat models.Chat) error {
	title := chat.Title
	if title == "" {
		title = fallbackTitle
	}

	channel := &domain.Channel{
		TelegramID: chat.ID,
		Title:      title,
		InviteLink: s.resolveInviteLink(ctx, chat),
	}

	if err := s.repo.Upsert(ctx, channel); err != nil {
		return oops.With("channel_id", chat.ID, "context", "failed to register channel").Wrap(err)
	}

	slog.Info("Bot promoted in channel", "channel_id", chat.ID, "title", title)
	return nil
}

// resolveInviteLink finds a join reference for the channel: the public
// handle if one exists, otherwise the primary invite link, otherwise a
// freshly created non-expiring link. A nil result never blocks registration.
func (s *Service) resolveInviteLink(ctx context.Context, chat models.Chat) *string {
	if chat.Username != "" {
		return lo.ToPtr("https://t.me/" + chat.Username)
	}
	if s.api == nil {
		return nil
	}

	info, err := s.api.GetChat(ctx, &bot.GetChatParams{ChatID: chat.ID})
	if err != nil {
		slog.Warn("Could not fetch channel info for invite link", "error", err, "channel_id", chat.ID)
		return nil
	}
	if info.InviteLink != "" {
		return lo.ToPtr(info.InviteLink)
	}

	link, err := s.api.CreateChatInviteLink(ctx, &bot.CreateChatInviteLinkParams{
		ChatID: chat.ID,
		Name:   "Subscription Gate Link",
	})
	if err != nil {
		slog.Warn("Could not create invite link", "error", err, "channel_id", chat.ID)
		return nil
	}

	return lo.ToPtr(link.InviteLink)
}

// ListActive returns the channels currently enforced
func (s *Service) ListActive(ctx context.Context) ([]*domain.Channel, error) {
	return s.repo.ListActive(ctx)
}

// ListAll returns every tracked channel, active or not
func (s *Service) ListAll(ctx context.Context) ([]*domain.Channel, error) {
	return s.repo.ListAll(ctx)
}

func isAdminStatus(status models.ChatMemberType) bool {
	return status == models.ChatMemberTypeOwner || status == models.ChatMemberTypeAdministrator
}
