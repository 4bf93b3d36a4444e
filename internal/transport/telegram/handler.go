package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	channelService "github.com/subgate-bot/subgate/internal/modules/channel/service"
	"github.com/subgate-bot/subgate/internal/shared/config"
)

// Handler handles Telegram bot interactions
type Handler struct {
	cfg            *config.Config
	channelService *channelService.Service
}

// New creates a new Telegram handler
func New(cfg *config.Config, channelService *channelService.Service) *Handler {
	return &Handler{
		cfg:            cfg,
		channelService: channelService,
	}
}

// RegisterCommands registers bot commands
func (h *Handler) RegisterCommands(b *bot.Bot) {
	b.RegisterHandler(bot.HandlerTypeMessageText, "/start", bot.MatchTypeExact, h.handleStart)
	b.RegisterHandler(bot.HandlerTypeMessageText, "/channels", bot.MatchTypeExact, h.handleChannels)
}

// HandleUpdate processes updates no command handler claimed. The only shape
// the bot cares about here is its own status change in a channel.
func (h *Handler) HandleUpdate(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.MyChatMember == nil {
		return
	}

	if err := h.channelService.Reconcile(ctx, update.MyChatMember); err != nil {
		slog.Error("Failed to reconcile channel registry", "error", err, "chat_id", update.MyChatMember.Chat.ID)
	}
}

// checkOperator restricts admin commands to the configured operator in a
// one-to-one chat
func (h *Handler) checkOperator(update *models.Update) bool {
	msg := update.Message
	if msg == nil || msg.From == nil {
		return false
	}
	if msg.Chat.Type != "private" {
		return false
	}

	return msg.From.ID == h.cfg.AdminID
}

func (h *Handler) handleStart(ctx context.Context, b *bot.Bot, update *models.Update) {
	if !h.checkOperator(update) {
		return
	}

	text := `👋 I gate group chats on channel subscriptions.

Add me as an administrator to a channel and I will start requiring
membership in it. Remove my admin rights and the requirement is lifted.

Available commands:
/channels - List the tracked channels`

	b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: update.Message.Chat.ID,
		Text:   text,
	})
}

func (h *Handler) handleChannels(ctx context.Context, b *bot.Bot, update *models.Update) {
	if !h.checkOperator(update) {
		return
	}

	channels, err := h.channelService.ListAll(ctx)
	if err != nil {
		b.SendMessage(ctx, &bot.SendMessageParams{
			ChatID: update.Message.Chat.ID,
			Text:   fmt.Sprintf("❌ Failed to list channels: %v", err),
		})
		return
	}

	if len(channels) == 0 {
		b.SendMessage(ctx, &bot.SendMessageParams{
			ChatID: update.Message.Chat.ID,
			Text:   "📭 No channels tracked yet.\nAdd the bot as an administrator to a channel to track it.",
		})
		return
	}

	var text strings.Builder
	text.WriteString("📋 Tracked Channels:\n\n")
	for i, ch := range channels {
		status := "✅"
		if !ch.IsActive {
			status = "⏸️"
		}
		text.WriteString(fmt.Sprintf("%s %d. %s\n   ID: %d\n\n", status, i+1, ch.Title, ch.TelegramID))
	}

	b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: update.Message.Chat.ID,
		Text:   text.String(),
	})
}
