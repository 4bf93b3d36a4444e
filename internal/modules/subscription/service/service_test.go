package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/samber/lo"
	"github.com/stretchr/testify/require"
	channelDomain "github.com/subgate-bot/subgate/internal/modules/channel/domain"
	"github.com/subgate-bot/subgate/internal/modules/subscription/cache"
)

type fakeMemberAPI struct {
	statuses map[int64]models.ChatMemberType
	err      error
	calls    int
}

func (f *fakeMemberAPI) GetChatMember(_ context.Context, params *bot.GetChatMemberParams) (*models.ChatMember, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}

	status, found := f.statuses[params.ChatID.(int64)]
	if !found {
		status = models.ChatMemberTypeLeft
	}

	return &models.ChatMember{Type: status}, nil
}

func newVerifier(api MemberAPI, store cache.Store, failOpen bool) *Service {
	verifier := New(store, failOpen)
	verifier.SetAPI(api)
	return verifier
}

func testChannels(ids ...int64) []*channelDomain.Channel {
	return lo.Map(ids, func(id int64, _ int) *channelDomain.Channel {
		return &channelDomain.Channel{TelegramID: id, Title: "channel"}
	})
}

func telegramIDs(channels []*channelDomain.Channel) []int64 {
	return lo.Map(channels, func(ch *channelDomain.Channel, _ int) int64 { return ch.TelegramID })
}

func TestMissingChannelsPreservesOrder(t *testing.T) {
	api := &fakeMemberAPI{statuses: map[int64]models.ChatMemberType{
		-2: models.ChatMemberTypeMember,
	}}
	verifier := newVerifier(api, cache.NewMemoryStore(time.Minute), false)

	missing := verifier.MissingChannels(context.Background(), 42, testChannels(-1, -2, -3))
	require.Equal(t, []int64{-1, -3}, telegramIDs(missing))
}

func TestMissingChannelsEmptyWhenAllSubscribed(t *testing.T) {
	api := &fakeMemberAPI{statuses: map[int64]models.ChatMemberType{
		-1: models.ChatMemberTypeOwner,
		-2: models.ChatMemberTypeAdministrator,
		-3: models.ChatMemberTypeMember,
	}}
	verifier := newVerifier(api, cache.NewMemoryStore(time.Minute), false)

	missing := verifier.MissingChannels(context.Background(), 42, testChannels(-1, -2, -3))
	require.Empty(t, missing)
}

func TestRestrictedDoesNotCountAsMember(t *testing.T) {
	api := &fakeMemberAPI{statuses: map[int64]models.ChatMemberType{
		-1: models.ChatMemberTypeRestricted,
		-2: models.ChatMemberTypeBanned,
	}}
	verifier := newVerifier(api, cache.NewMemoryStore(time.Minute), false)

	missing := verifier.MissingChannels(context.Background(), 42, testChannels(-1, -2))
	require.Equal(t, []int64{-1, -2}, telegramIDs(missing))
}

func TestCacheHitSkipsAPICall(t *testing.T) {
	api := &fakeMemberAPI{statuses: map[int64]models.ChatMemberType{
		-1: models.ChatMemberTypeMember,
	}}
	verifier := newVerifier(api, cache.NewMemoryStore(time.Minute), false)
	ctx := context.Background()

	require.Empty(t, verifier.MissingChannels(ctx, 42, testChannels(-1)))
	require.Equal(t, 1, api.calls)

	// Second check within the TTL is served from cache
	require.Empty(t, verifier.MissingChannels(ctx, 42, testChannels(-1)))
	require.Equal(t, 1, api.calls)
}

func TestNegativeResultIsNotCached(t *testing.T) {
	api := &fakeMemberAPI{}
	verifier := newVerifier(api, cache.NewMemoryStore(time.Minute), false)
	ctx := context.Background()

	require.Len(t, verifier.MissingChannels(ctx, 42, testChannels(-1)), 1)
	require.Equal(t, 1, api.calls)

	// The user joins the channel; the next check notices immediately
	api.statuses = map[int64]models.ChatMemberType{-1: models.ChatMemberTypeMember}
	require.Empty(t, verifier.MissingChannels(ctx, 42, testChannels(-1)))
	require.Equal(t, 2, api.calls)
}

func TestFailClosedTreatsOutageAsNotSubscribed(t *testing.T) {
	api := &fakeMemberAPI{err: errors.New("telegram unreachable")}
	verifier := newVerifier(api, cache.NewMemoryStore(time.Minute), false)

	missing := verifier.MissingChannels(context.Background(), 42, testChannels(-1, -2, -3))
	require.Equal(t, []int64{-1, -2, -3}, telegramIDs(missing))
}

func TestFailOpenTreatsOutageAsSubscribed(t *testing.T) {
	api := &fakeMemberAPI{err: errors.New("telegram unreachable")}
	verifier := newVerifier(api, cache.NewMemoryStore(time.Minute), true)

	missing := verifier.MissingChannels(context.Background(), 42, testChannels(-1, -2, -3))
	require.Empty(t, missing)
}

type failingStore struct{}

func (failingStore) IsMember(context.Context, int64, int64) (bool, error) {
	return false, errors.New("cache unreachable")
}

func (failingStore) MarkMember(context.Context, int64, int64) error {
	return errors.New("cache unreachable")
}

func TestCacheFailureFallsThroughToAPI(t *testing.T) {
	api := &fakeMemberAPI{statuses: map[int64]models.ChatMemberType{
		-1: models.ChatMemberTypeMember,
	}}
	verifier := newVerifier(api, failingStore{}, false)

	missing := verifier.MissingChannels(context.Background(), 42, testChannels(-1))
	require.Empty(t, missing)
	require.Equal(t, 1, api.calls)
}
