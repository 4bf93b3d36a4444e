package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	channelDomain "github.com/subgate-bot/subgate/internal/modules/channel/domain"
	channelService "github.com/subgate-bot/subgate/internal/modules/channel/service"
	subscriptionService "github.com/subgate-bot/subgate/internal/modules/subscription/service"
)

// GateAPI is the slice of the Telegram client the enforcement gate needs.
// *bot.Bot satisfies it.
type GateAPI interface {
	GetChatMember(ctx context.Context, params *bot.GetChatMemberParams) (*models.ChatMember, error)
	DeleteMessage(ctx context.Context, params *bot.DeleteMessageParams) (bool, error)
	SendMessage(ctx context.Context, params *bot.SendMessageParams) (*models.Message, error)
}

// Gate removes messages from group members who are not subscribed to every
// required channel and shows them a short-lived remediation prompt
type Gate struct {
	api         GateAPI
	channels    *channelService.Service
	verifier    *subscriptionService.Service
	deleteDelay time.Duration
}

// NewGate creates a new enforcement gate. deleteDelay is how long the
// remediation prompt stays visible before it is removed.
func NewGate(channels *channelService.Service, verifier *subscriptionService.Service, deleteDelay time.Duration) *Gate {
	return &Gate{
		channels:    channels,
		verifier:    verifier,
		deleteDelay: deleteDelay,
	}
}

// SetAPI sets the Telegram client used for deletion, prompts and the
// admin-exemption lookup. Needed because the bot itself is constructed
// after the gate (the gate is one of its middlewares).
func (g *Gate) SetAPI(api GateAPI) {
	g.api = api
}

// Middleware wraps every handler with the subscription check. Blocked
// messages never reach the next handler.
func (g *Gate) Middleware(next bot.HandlerFunc) bot.HandlerFunc {
	return func(ctx context.Context, b *bot.Bot, update *models.Update) {
		if g.allow(ctx, update) {
			next(ctx, b, update)
		}
	}
}

// allow decides the fate of an update in one hop: exempt updates and
// subscribed senders pass, everyone else is blocked
func (g *Gate) allow(ctx context.Context, update *models.Update) bool {
	msg := update.Message
	if msg == nil {
		return true
	}
	if msg.Chat.Type == "private" {
		return true
	}

	user := msg.From
	if user == nil || user.IsBot {
		return true
	}

	if g.isChatAdmin(ctx, msg.Chat.ID, user.ID) {
		return true
	}

	channels, err := g.channels.ListActive(ctx)
	if err != nil {
		slog.Error("Failed to load required channels", "error", err, "chat_id", msg.Chat.ID)
		return true
	}
	if len(channels) == 0 {
		return true
	}

	missing := g.verifier.MissingChannels(ctx, user.ID, channels)
	if len(missing) == 0 {
		return true
	}

	g.block(ctx, msg, missing)
	return false
}

// isChatAdmin reports whether the sender is an administrator or the owner
// of the chat the message was posted in. A failed lookup counts as
// "not exempt" so the subscription check still runs.
func (g *Gate) isChatAdmin(ctx context.Context, chatID, userID int64) bool {
	member, err := g.api.GetChatMember(ctx, &bot.GetChatMemberParams{
		ChatID: chatID,
		UserID: userID,
	})
	if err != nil {
		slog.Debug("Could not determine chat admin status", "error", err, "chat_id", chatID, "user_id", userID)
		return false
	}

	return member.Type == models.ChatMemberTypeOwner || member.Type == models.ChatMemberTypeAdministrator
}

// block removes the offending message and posts a self-destructing prompt
// listing the channels the sender still has to join
func (g *Gate) block(ctx context.Context, msg *models.Message, missing []*channelDomain.Channel) {
	if _, err := g.api.DeleteMessage(ctx, &bot.DeleteMessageParams{
		ChatID:    msg.Chat.ID,
		MessageID: msg.ID,
	}); err != nil {
		slog.Warn("Failed to delete user message", "error", err, "chat_id", msg.Chat.ID, "message_id", msg.ID)
	}

	warning, err := g.api.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:      msg.Chat.ID,
		Text:        fmt.Sprintf("Hi, %s!\nTo write in this chat, subscribe to our channels:", senderName(msg.From)),
		ReplyMarkup: subscriptionKeyboard(missing),
	})
	if err != nil {
		slog.Warn("Failed to send subscription prompt", "error", err, "chat_id", msg.Chat.ID)
		return
	}

	// Detached from the event that spawned it; the handler does not wait
	go g.deleteLater(msg.Chat.ID, warning.ID)
}

func (g *Gate) deleteLater(chatID int64, messageID int) {
	time.Sleep(g.deleteDelay)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// The prompt may already be gone; either way nobody is told
	_, _ = g.api.DeleteMessage(ctx, &bot.DeleteMessageParams{
		ChatID:    chatID,
		MessageID: messageID,
	})
}

func senderName(user *models.User) string {
	if user.LastName != "" {
		return user.FirstName + " " + user.LastName
	}
	return user.FirstName
}
