package errors

import "errors"

var (
	ErrMissingBotToken = errors.New("telegram_bot_token is required")
	ErrMissingDSN      = errors.New("database_dsn is required")
	ErrChannelNotFound = errors.New("channel not found")
	ErrUnauthorized    = errors.New("unauthorized user")
)
