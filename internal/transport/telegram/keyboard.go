package telegram

import (
	"strconv"
	"strings"

	"github.com/go-telegram/bot/models"
	"github.com/samber/lo"
	channelDomain "github.com/subgate-bot/subgate/internal/modules/channel/domain"
)

// subscriptionKeyboard renders one join button per missing channel
func subscriptionKeyboard(channels []*channelDomain.Channel) *models.InlineKeyboardMarkup {
	rows := lo.Map(channels, func(channel *channelDomain.Channel, _ int) []models.InlineKeyboardButton {
		return []models.InlineKeyboardButton{{
			Text: channel.Title,
			URL:  channelURL(channel),
		}}
	})

	return &models.InlineKeyboardMarkup{InlineKeyboard: rows}
}

func channelURL(channel *channelDomain.Channel) string {
	if channel.InviteLink != nil && *channel.InviteLink != "" {
		return *channel.InviteLink
	}

	// Best effort for channels that ended up without a stored link: the
	// t.me/c/ form works for members of public supergroup-style channels
	internalID := strings.TrimPrefix(strconv.FormatInt(channel.TelegramID, 10), "-100")
	return "https://t.me/c/" + internalID + "/1"
}
