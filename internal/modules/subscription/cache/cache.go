package cache

import "context"

// Store is a short-lived positive-membership cache keyed by (user, channel).
// Only confirmed memberships are stored; absence means "unknown", not "false".
// Implementations must tolerate being unreachable: callers treat any error
// as a cache miss.
type Store interface {
	IsMember(ctx context.Context, userID, channelID int64) (bool, error)
	MarkMember(ctx context.Context, userID, channelID int64) error
}
