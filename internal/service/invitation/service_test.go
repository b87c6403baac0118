package invitation_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/oggyb/run-together/internal/api"
	"github.com/oggyb/run-together/internal/db"
	"github.com/oggyb/run-together/internal/service/invitation"
	"github.com/oggyb/run-together/internal/testutil"
)

//
// Test helpers
//

type fixture struct {
	svc *invitation.Service
	env *testutil.Env
}

// setupService creates users 0..3 on a fresh DB and fake Redis.
func setupService(t *testing.T) fixture {
	t.Helper()
	env := testutil.NewEnv(t)

	testutil.CreateUsers(t, env.DB,
		db.User{ID: 0, FullName: "user0", Email: "u0@test.com"},
		db.User{ID: 1, FullName: "user1", Email: "u1@test.com"},
		db.User{ID: 2, FullName: "user2", Email: "u2@test.com"},
		db.User{ID: 3, FullName: "user3", Email: "u3@test.com"},
	)

	return fixture{svc: invitation.NewInvitationService(env.App), env: env}
}

func (f fixture) invite(t *testing.T, sender, receiver string) *api.CreateInvitationResponse {
	t.Helper()
	resp, err := f.svc.CreateInvitation(context.Background(), &api.CreateInvitationRequest{
		SenderID:   sender,
		ReceiverID: receiver,
	})
	require.NoError(t, err)
	return resp
}

func (f fixture) setStatus(t *testing.T, id, st string) *api.SetInvitationStatusResponse {
	t.Helper()
	resp, err := f.svc.SetInvitationStatus(context.Background(), &api.SetInvitationStatusRequest{
		InvitationID: id,
		Status:       st,
	})
	require.NoError(t, err)
	return resp
}

func (f fixture) partners(t *testing.T, id uint64) int64 {
	t.Helper()
	var u db.User
	require.NoError(t, f.env.DB.First(&u, "id = ?", id).Error)
	return u.PartnersCount
}

func (f fixture) pendingRows(t *testing.T, sender, receiver uint64) int64 {
	t.Helper()
	var n int64
	require.NoError(t, f.env.DB.Model(&db.Invitation{}).
		Where("sender_id = ? AND receiver_id = ? AND status = ?", sender, receiver, db.StatusPending).
		Count(&n).Error)
	return n
}

//
// Create
//

func TestCreateInvitationReturnsExistingPending(t *testing.T) {
	f := setupService(t)

	first := f.invite(t, "1", "2")
	assert.False(t, first.Existed)
	assert.Equal(t, "pending", first.Invitation.Status)
	assert.Equal(t, "1", first.Invitation.SenderID)
	assert.Equal(t, "2", first.Invitation.ReceiverID)

	second := f.invite(t, "1", "2")
	assert.True(t, second.Existed)
	assert.Equal(t, first.Invitation.ID, second.Invitation.ID)
	assert.Equal(t, int64(1), f.pendingRows(t, 1, 2))

	// the reverse direction is a different pair
	reverse := f.invite(t, "2", "1")
	assert.False(t, reverse.Existed)
	assert.NotEqual(t, first.Invitation.ID, reverse.Invitation.ID)
}

func TestCreateInvitationScheduledAt(t *testing.T) {
	f := setupService(t)

	at := time.Date(2025, 6, 9, 7, 30, 0, 0, time.UTC).UnixMilli()
	resp, err := f.svc.CreateInvitation(context.Background(), &api.CreateInvitationRequest{
		SenderID:    "0",
		ReceiverID:  "3",
		ScheduledAt: &at,
	})
	require.NoError(t, err)
	assert.Equal(t, at, resp.Invitation.ScheduledAt)

	before := time.Now().Add(-time.Second).UnixMilli()
	resp = f.invite(t, "3", "0")
	assert.GreaterOrEqual(t, resp.Invitation.ScheduledAt, before)
}

func TestCreateInvitationErrors(t *testing.T) {
	f := setupService(t)
	negative := int64(-1)

	tests := []struct {
		name string
		req  *api.CreateInvitationRequest
		code codes.Code
	}{
		{"missing sender", &api.CreateInvitationRequest{ReceiverID: "2"}, codes.InvalidArgument},
		{"non numeric receiver", &api.CreateInvitationRequest{SenderID: "1", ReceiverID: "two"}, codes.InvalidArgument},
		{"self invite", &api.CreateInvitationRequest{SenderID: "1", ReceiverID: "1"}, codes.InvalidArgument},
		{"negative time", &api.CreateInvitationRequest{SenderID: "1", ReceiverID: "2", ScheduledAt: &negative}, codes.InvalidArgument},
		{"unknown sender", &api.CreateInvitationRequest{SenderID: "40", ReceiverID: "2"}, codes.NotFound},
		{"unknown receiver", &api.CreateInvitationRequest{SenderID: "1", ReceiverID: "40"}, codes.NotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.CreateInvitation(context.Background(), tt.req)
			require.Error(t, err)
			assert.Equal(t, tt.code, status.Code(err))
		})
	}
}

// TestCreateInvitationConcurrent races many creators for the same pair.
// Exactly one writes the row; all others get it back with existed=true.
func TestCreateInvitationConcurrent(t *testing.T) {
	f := setupService(t)
	const workers = 12

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		ids     = map[string]int{}
		created int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			resp, err := f.svc.CreateInvitation(context.Background(), &api.CreateInvitationRequest{
				SenderID:   "1",
				ReceiverID: "2",
			})
			if !assert.NoError(t, err) {
				return
			}
			mu.Lock()
			defer mu.Unlock()
			ids[resp.Invitation.ID]++
			if !resp.Existed {
				created++
			}
		}()
	}
	wg.Wait()

	assert.Len(t, ids, 1)
	assert.Equal(t, 1, created)
	assert.Equal(t, int64(1), f.pendingRows(t, 1, 2))
}

//
// Status transitions
//

func TestAcceptIncrementsPartnersOnce(t *testing.T) {
	f := setupService(t)
	inv := f.invite(t, "1", "2").Invitation

	resp := f.setStatus(t, inv.ID, "accepted")
	assert.True(t, resp.Updated)
	assert.Equal(t, "accepted", resp.Invitation.Status)
	assert.Equal(t, int64(1), f.partners(t, 1))
	assert.Equal(t, int64(1), f.partners(t, 2))
	assert.Equal(t, int64(0), f.partners(t, 3))

	// repeating the same request is a no-op
	again := f.setStatus(t, inv.ID, "accepted")
	assert.False(t, again.Updated)
	assert.Equal(t, "accepted", again.Invitation.Status)
	assert.Equal(t, int64(1), f.partners(t, 1))
	assert.Equal(t, int64(1), f.partners(t, 2))
}

func TestAcceptConcurrentCountsOnce(t *testing.T) {
	f := setupService(t)
	inv := f.invite(t, "1", "2").Invitation
	const workers = 10

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		updated int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			resp, err := f.svc.SetInvitationStatus(context.Background(), &api.SetInvitationStatusRequest{
				InvitationID: inv.ID,
				Status:       "accepted",
			})
			if !assert.NoError(t, err) {
				return
			}
			if resp.Updated {
				mu.Lock()
				updated++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, updated)
	assert.Equal(t, int64(1), f.partners(t, 1))
	assert.Equal(t, int64(1), f.partners(t, 2))
}

func TestTerminalStatusCannotChange(t *testing.T) {
	f := setupService(t)
	inv := f.invite(t, "1", "2").Invitation
	f.setStatus(t, inv.ID, "declined")

	for _, target := range []string{"accepted", "pending", "cancelled", "expired"} {
		_, err := f.svc.SetInvitationStatus(context.Background(), &api.SetInvitationStatusRequest{
			InvitationID: inv.ID,
			Status:       target,
		})
		assert.Equal(t, codes.FailedPrecondition, status.Code(err), target)
	}
	assert.Equal(t, int64(0), f.partners(t, 1))

	// the pair is free again once the old invitation is decided
	next := f.invite(t, "1", "2")
	assert.False(t, next.Existed)
	assert.NotEqual(t, inv.ID, next.Invitation.ID)
}

func TestPendingToPendingIsNoop(t *testing.T) {
	f := setupService(t)
	inv := f.invite(t, "1", "2").Invitation

	resp := f.setStatus(t, inv.ID, " Pending ")
	assert.False(t, resp.Updated)
	assert.Equal(t, "pending", resp.Invitation.Status)
}

func TestEveryPendingExitIsAllowed(t *testing.T) {
	for _, target := range []string{"declined", "cancelled", "expired"} {
		t.Run(target, func(t *testing.T) {
			f := setupService(t)
			inv := f.invite(t, "0", "3").Invitation

			resp := f.setStatus(t, inv.ID, target)
			assert.True(t, resp.Updated)
			assert.Equal(t, target, resp.Invitation.Status)
			assert.Equal(t, int64(0), f.partners(t, 0))
			assert.Equal(t, int64(0), f.partners(t, 3))
		})
	}
}

func TestSetInvitationStatusErrors(t *testing.T) {
	f := setupService(t)
	inv := f.invite(t, "1", "2").Invitation

	tests := []struct {
		name string
		req  *api.SetInvitationStatusRequest
		code codes.Code
	}{
		{"bad id", &api.SetInvitationStatusRequest{InvitationID: "x", Status: "accepted"}, codes.InvalidArgument},
		{"unknown status", &api.SetInvitationStatusRequest{InvitationID: inv.ID, Status: "maybe"}, codes.InvalidArgument},
		{"empty status", &api.SetInvitationStatusRequest{InvitationID: inv.ID}, codes.InvalidArgument},
		{"unknown invitation", &api.SetInvitationStatusRequest{InvitationID: "999", Status: "accepted"}, codes.NotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.SetInvitationStatus(context.Background(), tt.req)
			require.Error(t, err)
			assert.Equal(t, tt.code, status.Code(err))
		})
	}
}

// TestAcceptPartialIncrementFailure removes the receiver behind the
// service's back. The sender is still counted and the caller sees Internal.
func TestAcceptPartialIncrementFailure(t *testing.T) {
	f := setupService(t)
	inv := f.invite(t, "1", "2").Invitation
	require.NoError(t, f.env.DB.Delete(&db.User{}, 2).Error)

	_, err := f.svc.SetInvitationStatus(context.Background(), &api.SetInvitationStatusRequest{
		InvitationID: inv.ID,
		Status:       "accepted",
	})
	assert.Equal(t, codes.Internal, status.Code(err))
	assert.Equal(t, "internal server error", status.Convert(err).Message())
	assert.Equal(t, int64(1), f.partners(t, 1))
}

//
// Queries
//

func TestListPending(t *testing.T) {
	f := setupService(t)
	ctx := context.Background()

	toTwo := f.invite(t, "1", "2").Invitation
	toThree := f.invite(t, "1", "3").Invitation
	fromZero := f.invite(t, "0", "3").Invitation
	decided := f.invite(t, "1", "0").Invitation
	f.setStatus(t, decided.ID, "cancelled")

	sent, err := f.svc.ListPendingBySender(ctx, &api.ListPendingBySenderRequest{SenderID: "1"})
	require.NoError(t, err)
	require.Len(t, sent.Invitations, 2)
	assert.Equal(t, "3", sent.Invitations[0].ReceiverID)
	assert.Equal(t, toThree.ScheduledAt, sent.Invitations[0].ScheduledAt)
	assert.Equal(t, "2", sent.Invitations[1].ReceiverID)
	assert.Equal(t, toTwo.ScheduledAt, sent.Invitations[1].ScheduledAt)

	received, err := f.svc.ListPendingByReceiver(ctx, &api.ListPendingByReceiverRequest{ReceiverID: "3"})
	require.NoError(t, err)
	require.Len(t, received.Invitations, 2)
	assert.Equal(t, fromZero.ID, received.Invitations[0].ID)
	assert.Equal(t, toThree.ID, received.Invitations[1].ID)
	assert.Equal(t, "pending", received.Invitations[0].Status)

	none, err := f.svc.ListPendingByReceiver(ctx, &api.ListPendingByReceiverRequest{ReceiverID: "0"})
	require.NoError(t, err)
	assert.Empty(t, none.Invitations)

	_, err = f.svc.ListPendingBySender(ctx, &api.ListPendingBySenderRequest{SenderID: "-1"})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}

func TestGetPartnerCount(t *testing.T) {
	f := setupService(t)
	ctx := context.Background()

	f.setStatus(t, f.invite(t, "1", "2").Invitation.ID, "accepted")
	f.setStatus(t, f.invite(t, "3", "1").Invitation.ID, "accepted")
	f.setStatus(t, f.invite(t, "1", "0").Invitation.ID, "declined")

	// a second accepted run with the same partner is still one partner
	f.setStatus(t, f.invite(t, "2", "1").Invitation.ID, "accepted")

	resp, err := f.svc.GetPartnerCount(ctx, &api.GetPartnerCountRequest{UserID: "1"})
	require.NoError(t, err)
	assert.Equal(t, int64(2), resp.Count)
	assert.Equal(t, []string{"2", "3"}, resp.PartnerIDs)

	// snapshot is cached now
	key := f.env.App.RedisCache.KeyForPartners(1)
	assert.True(t, f.env.Redis.Exists(key))

	// the stored counter counts accept transitions, the aggregate counts people
	assert.Equal(t, int64(3), f.partners(t, 1))

	empty, err := f.svc.GetPartnerCount(ctx, &api.GetPartnerCountRequest{UserID: "0"})
	require.NoError(t, err)
	assert.Equal(t, int64(0), empty.Count)
	assert.Empty(t, empty.PartnerIDs)
}

func TestGetPartnerCountCacheInvalidatedOnAccept(t *testing.T) {
	f := setupService(t)
	ctx := context.Background()

	resp, err := f.svc.GetPartnerCount(ctx, &api.GetPartnerCountRequest{UserID: "2"})
	require.NoError(t, err)
	assert.Equal(t, int64(0), resp.Count)
	require.True(t, f.env.Redis.Exists(f.env.App.RedisCache.KeyForPartners(2)))

	f.setStatus(t, f.invite(t, "1", "2").Invitation.ID, "accepted")
	assert.False(t, f.env.Redis.Exists(f.env.App.RedisCache.KeyForPartners(2)))

	resp, err = f.svc.GetPartnerCount(ctx, &api.GetPartnerCountRequest{UserID: "2"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), resp.Count)
	assert.Equal(t, []string{"1"}, resp.PartnerIDs)
}

func TestGetPartnerCountRedisDown(t *testing.T) {
	f := setupService(t)
	f.setStatus(t, f.invite(t, "1", "2").Invitation.ID, "accepted")
	f.env.Redis.Close()

	resp, err := f.svc.GetPartnerCount(context.Background(), &api.GetPartnerCountRequest{UserID: "1"})
	require.NoError(t, err)
	assert.Equal(t, []string{"2"}, resp.PartnerIDs)
}

// beforeSnapshotWrite runs fn once, right before the first pipeline that
// writes a partner snapshot reaches Redis.
type beforeSnapshotWrite struct {
	once sync.Once
	fn   func()
}

func (h *beforeSnapshotWrite) DialHook(next redis.DialHook) redis.DialHook { return next }

func (h *beforeSnapshotWrite) ProcessHook(next redis.ProcessHook) redis.ProcessHook { return next }

func (h *beforeSnapshotWrite) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return func(ctx context.Context, cmds []redis.Cmder) error {
		for _, cmd := range cmds {
			if cmd.Name() == "set" {
				h.once.Do(h.fn)
				break
			}
		}
		return next(ctx, cmds)
	}
}

func TestGetPartnerCountAcceptDuringLoadIsNotCached(t *testing.T) {
	ctx := context.Background()
	f := setupService(t)
	inv := f.invite(t, "1", "2").Invitation

	f.env.App.RedisCache.Client.AddHook(&beforeSnapshotWrite{fn: func() {
		f.setStatus(t, inv.ID, "accepted")
	}})

	// loaded before the acceptance committed
	first, err := f.svc.GetPartnerCount(ctx, &api.GetPartnerCountRequest{UserID: "1"})
	require.NoError(t, err)
	assert.Equal(t, int64(0), first.Count)
	assert.False(t, f.env.Redis.Exists(f.env.App.RedisCache.KeyForPartners(1)))

	for i := 0; i < 3; i++ {
		f.env.Redis.FastForward(30 * time.Minute)
		resp, err := f.svc.GetPartnerCount(ctx, &api.GetPartnerCountRequest{UserID: "1"})
		require.NoError(t, err)
		assert.Equal(t, int64(1), resp.Count)
		assert.Equal(t, []string{"2"}, resp.PartnerIDs)
	}
}

func TestGetPartnerCountCacheExpires(t *testing.T) {
	ctx := context.Background()
	f := setupService(t)

	_, err := f.svc.GetPartnerCount(ctx, &api.GetPartnerCountRequest{UserID: "1"})
	require.NoError(t, err)
	key := f.env.App.RedisCache.KeyForPartners(1)
	require.True(t, f.env.Redis.Exists(key))

	// repeated hits do not extend the entry's lifetime
	ttl := f.env.App.Config.Cache.PartnerCountTTL
	f.env.Redis.FastForward(ttl / 2)
	_, err = f.svc.GetPartnerCount(ctx, &api.GetPartnerCountRequest{UserID: "1"})
	require.NoError(t, err)
	f.env.Redis.FastForward(ttl / 2)
	assert.False(t, f.env.Redis.Exists(key))
}
