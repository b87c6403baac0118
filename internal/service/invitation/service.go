package invitation

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/oggyb/run-together/internal/api"
	"github.com/oggyb/run-together/internal/app"
	"github.com/oggyb/run-together/internal/cache"
	"github.com/oggyb/run-together/internal/db"
	svcErr "github.com/oggyb/run-together/internal/errors"
	"github.com/oggyb/run-together/internal/logger"
	"github.com/oggyb/run-together/internal/metrics"
	"github.com/oggyb/run-together/internal/repository"
)

// Service implements the Invitation gRPC API.
// It owns the invitation lifecycle and the partner counters it feeds.
type Service struct {
	appCtx   *app.AppContext
	invRepo  *repository.InvitationRepository
	userRepo *repository.UserRepository

	api.UnimplementedInvitationServiceServer
}

// NewInvitationService creates a new Invitation service with dependencies from AppContext.
// Dependencies include:
//   - DB connection (via InvitationRepository and UserRepository)
//   - RedisCache for partner snapshots
func NewInvitationService(appCtx *app.AppContext) *Service {
	return &Service{
		appCtx:   appCtx,
		invRepo:  repository.NewInvitationRepository(appCtx.DB),
		userRepo: repository.NewUserRepository(appCtx.DB),
	}
}

// CreateInvitation returns the pending invitation from sender to receiver,
// creating it when none exists.
//
// Behavior:
//   - Sender and receiver must differ and both must exist.
//   - An existing pending invitation for the ordered pair is returned with
//     existed=true; no second row is written.
//   - A concurrent creator winning the insert race surfaces as a unique
//     violation, resolved by re-reading the pending row.
//   - scheduled_at is unix ms and defaults to now.
//
// Example:
//
//	svc.CreateInvitation(ctx, &api.CreateInvitationRequest{SenderID: "1", ReceiverID: "2"})
func (s *Service) CreateInvitation(ctx context.Context, req *api.CreateInvitationRequest) (*api.CreateInvitationResponse, error) {
	log := logger.FromContext(ctx, s.appCtx.Logger)
	log.Debug("CreateInvitation called", "sender", req.SenderID, "receiver", req.ReceiverID)

	senderID, err := api.ParseID(req.SenderID)
	if err != nil {
		return nil, svcErr.InvalidArgument("sender_id must be a valid uint64")
	}
	receiverID, err := api.ParseID(req.ReceiverID)
	if err != nil {
		return nil, svcErr.InvalidArgument("receiver_id must be a valid uint64")
	}
	if senderID == receiverID {
		return nil, svcErr.InvalidArgument("cannot invite yourself")
	}

	scheduledAt := time.Now().UTC().Truncate(time.Millisecond)
	if req.ScheduledAt != nil {
		if *req.ScheduledAt < 0 {
			return nil, svcErr.InvalidArgument("scheduled_at must be a unix timestamp in milliseconds")
		}
		scheduledAt = time.UnixMilli(*req.ScheduledAt).UTC()
	}

	if err := s.ensureUser(ctx, senderID, "sender"); err != nil {
		return nil, err
	}
	if err := s.ensureUser(ctx, receiverID, "receiver"); err != nil {
		return nil, err
	}

	existing, err := s.invRepo.FindPending(ctx, senderID, receiverID)
	if err != nil {
		log.Error("FindPending failed", "err", err)
		return nil, svcErr.Map(err)
	}
	if existing != nil {
		metrics.RecordInvitationCreated(true)
		return &api.CreateInvitationResponse{Invitation: toAPI(existing), Existed: true}, nil
	}

	inv := &db.Invitation{
		SenderID:    senderID,
		ReceiverID:  receiverID,
		ScheduledAt: scheduledAt,
		Status:      db.StatusPending,
	}
	err = s.invRepo.Create(ctx, inv)
	switch {
	case svcErr.IsDuplicate(err):
		// lost the race to a concurrent creator
		existing, ferr := s.invRepo.FindPending(ctx, senderID, receiverID)
		if ferr != nil {
			log.Error("FindPending after conflict failed", "err", ferr)
			return nil, svcErr.Map(ferr)
		}
		if existing == nil {
			log.Error("pending invitation missing after unique violation", "sender", senderID, "receiver", receiverID)
			return nil, svcErr.Internal()
		}
		metrics.RecordInvitationCreated(true)
		return &api.CreateInvitationResponse{Invitation: toAPI(existing), Existed: true}, nil
	case err != nil:
		log.Error("Create invitation failed", "err", err)
		return nil, svcErr.Map(err)
	}

	metrics.RecordInvitationCreated(false)
	log.Debug("CreateInvitation result", "invitation", inv.ID)
	return &api.CreateInvitationResponse{Invitation: toAPI(inv), Existed: false}, nil
}

// SetInvitationStatus moves an invitation to a new status.
//
// Behavior:
//   - The target must be one of pending, accepted, declined, cancelled, expired.
//   - Same status as stored is a no-op (updated=false).
//   - Only pending invitations move; anything else is FailedPrecondition.
//   - The write is compare-and-set on the prior status. A request losing
//     the race to an identical one returns updated=false.
//   - The first move into accepted increments partners_count of sender and
//     receiver exactly once, concurrently.
//
// Example:
//
//	svc.SetInvitationStatus(ctx, &api.SetInvitationStatusRequest{InvitationID: "7", Status: "accepted"})
func (s *Service) SetInvitationStatus(ctx context.Context, req *api.SetInvitationStatusRequest) (*api.SetInvitationStatusResponse, error) {
	log := logger.FromContext(ctx, s.appCtx.Logger)
	log.Debug("SetInvitationStatus called", "invitation", req.InvitationID, "status", req.Status)

	id, err := api.ParseID(req.InvitationID)
	if err != nil {
		return nil, svcErr.InvalidArgument("invitation_id must be a valid uint64")
	}
	target, ok := db.ParseInvitationStatus(strings.ToLower(strings.TrimSpace(req.Status)))
	if !ok {
		return nil, svcErr.InvalidArgument("status must be one of [pending accepted declined cancelled expired]")
	}

	inv, err := s.findInvitation(ctx, id)
	if err != nil {
		return nil, err
	}

	if inv.Status == target {
		return &api.SetInvitationStatusResponse{Invitation: toAPI(inv), Updated: false}, nil
	}
	if !inv.Status.CanTransitionTo(target) {
		return nil, illegalTransition(inv.Status, target)
	}

	swapped, err := s.invRepo.UpdateStatus(ctx, id, inv.Status, target)
	if err != nil {
		log.Error("UpdateStatus failed", "invitation", id, "err", err)
		return nil, svcErr.Map(err)
	}
	if !swapped {
		// someone else moved it first
		cur, err := s.findInvitation(ctx, id)
		if err != nil {
			return nil, err
		}
		if cur.Status == target {
			return &api.SetInvitationStatusResponse{Invitation: toAPI(cur), Updated: false}, nil
		}
		return nil, illegalTransition(cur.Status, target)
	}
	metrics.RecordTransition(string(target))

	if target == db.StatusAccepted {
		if err := s.recordPartnership(ctx, inv.SenderID, inv.ReceiverID); err != nil {
			log.Error("partner count increment failed", "invitation", id, "sender", inv.SenderID, "receiver", inv.ReceiverID, "err", err)
			return nil, svcErr.Internal()
		}
	}

	updated, err := s.findInvitation(ctx, id)
	if err != nil {
		return nil, err
	}
	log.Debug("SetInvitationStatus result", "invitation", id, "from", inv.Status, "to", target)
	return &api.SetInvitationStatusResponse{Invitation: toAPI(updated), Updated: true}, nil
}

// recordPartnership bumps both partner counters and drops their cached
// snapshots. Both increments always run to completion; a failure of one
// does not cancel the other.
func (s *Service) recordPartnership(ctx context.Context, senderID, receiverID uint64) error {
	if err := s.appCtx.RedisCache.InvalidatePartners(ctx, senderID, receiverID); err != nil {
		logger.FromContext(ctx, s.appCtx.Logger).Warn("partner cache invalidation failed", "err", err)
	}

	var g errgroup.Group
	for _, id := range []uint64{senderID, receiverID} {
		g.Go(func() error {
			if err := s.userRepo.IncrementPartners(ctx, id); err != nil {
				return fmt.Errorf("increment partners of %d: %w", id, err)
			}
			return nil
		})
	}
	return g.Wait()
}

// ListPendingBySender returns {receiver_id, scheduled_at} for every pending
// invitation the sender issued, newest first.
func (s *Service) ListPendingBySender(ctx context.Context, req *api.ListPendingBySenderRequest) (*api.ListPendingBySenderResponse, error) {
	log := logger.FromContext(ctx, s.appCtx.Logger)
	log.Debug("ListPendingBySender called", "sender", req.SenderID)

	senderID, err := api.ParseID(req.SenderID)
	if err != nil {
		return nil, svcErr.InvalidArgument("sender_id must be a valid uint64")
	}

	invs, err := s.invRepo.ListPendingBySender(ctx, senderID)
	if err != nil {
		log.Error("ListPendingBySender failed", "err", err)
		return nil, svcErr.Map(err)
	}

	resp := &api.ListPendingBySenderResponse{Invitations: make([]*api.PendingSent, 0, len(invs))}
	for _, inv := range invs {
		resp.Invitations = append(resp.Invitations, &api.PendingSent{
			ReceiverID:  api.FormatID(inv.ReceiverID),
			ScheduledAt: api.UnixMilli(inv.ScheduledAt),
		})
	}
	return resp, nil
}

// ListPendingByReceiver returns the full pending invitations addressed to
// the receiver, newest first.
func (s *Service) ListPendingByReceiver(ctx context.Context, req *api.ListPendingByReceiverRequest) (*api.ListPendingByReceiverResponse, error) {
	log := logger.FromContext(ctx, s.appCtx.Logger)
	log.Debug("ListPendingByReceiver called", "receiver", req.ReceiverID)

	receiverID, err := api.ParseID(req.ReceiverID)
	if err != nil {
		return nil, svcErr.InvalidArgument("receiver_id must be a valid uint64")
	}

	invs, err := s.invRepo.ListPendingByReceiver(ctx, receiverID)
	if err != nil {
		log.Error("ListPendingByReceiver failed", "err", err)
		return nil, svcErr.Map(err)
	}

	resp := &api.ListPendingByReceiverResponse{Invitations: make([]*api.Invitation, 0, len(invs))}
	for i := range invs {
		resp.Invitations = append(resp.Invitations, toAPI(&invs[i]))
	}
	return resp, nil
}

// GetPartnerCount returns the distinct partners a user has run with.
// Cache-first strategy:
//  1. Attempts to read the snapshot from Redis (partners:count:userID).
//  2. On a miss or a Redis error, aggregates accepted invitations in the DB.
//  3. On DB fetch, stores the snapshot with the configured TTL unless the
//     user's partners were invalidated while it was loading.
//
// Example:
//
//	svc.GetPartnerCount(ctx, &api.GetPartnerCountRequest{UserID: "42"})
func (s *Service) GetPartnerCount(ctx context.Context, req *api.GetPartnerCountRequest) (*api.GetPartnerCountResponse, error) {
	log := logger.FromContext(ctx, s.appCtx.Logger)
	log.Debug("GetPartnerCount called", "user", req.UserID)

	userID, err := api.ParseID(req.UserID)
	if err != nil {
		return nil, svcErr.InvalidArgument("user_id must be a valid uint64")
	}

	// try cache first
	snap, err := s.appCtx.RedisCache.GetPartners(ctx, userID)
	if err != nil {
		log.Warn("partner cache read failed", "user", userID, "err", err)
	}
	if snap != nil {
		return toPartnerResponse(*snap), nil
	}

	// the generation must be read before the DB so a concurrent acceptance
	// keeps this snapshot out of the cache
	gen, genErr := s.appCtx.RedisCache.PartnersGeneration(ctx, userID)
	if genErr != nil {
		log.Warn("partner cache generation read failed", "user", userID, "err", genErr)
	}

	// fallback: DB
	ids, err := s.invRepo.AcceptedPartners(ctx, userID)
	if err != nil {
		log.Error("AcceptedPartners failed", "err", err)
		return nil, svcErr.Map(err)
	}

	fresh := cache.PartnerSnapshot{Count: len(ids), PartnerIDs: ids}
	if genErr == nil {
		stored, err := s.appCtx.RedisCache.SetPartners(ctx, userID, gen, fresh)
		if err != nil {
			log.Warn("partner cache write failed", "user", userID, "err", err)
		} else if !stored {
			log.Debug("partner snapshot outdated, not cached", "user", userID)
		}
	}

	return toPartnerResponse(fresh), nil
}

func (s *Service) ensureUser(ctx context.Context, id uint64, role string) error {
	if _, err := s.userRepo.FindByID(ctx, id); err != nil {
		if svcErr.IsNotFound(err) {
			return svcErr.NotFound(role + " not found")
		}
		logger.FromContext(ctx, s.appCtx.Logger).Error("FindByID failed", "user", id, "err", err)
		return svcErr.Map(err)
	}
	return nil
}

func (s *Service) findInvitation(ctx context.Context, id uint64) (*db.Invitation, error) {
	inv, err := s.invRepo.FindByID(ctx, id)
	if err != nil {
		if svcErr.IsNotFound(err) {
			return nil, svcErr.NotFound("invitation not found")
		}
		logger.FromContext(ctx, s.appCtx.Logger).Error("FindByID failed", "invitation", id, "err", err)
		return nil, svcErr.Map(err)
	}
	return inv, nil
}

func illegalTransition(from, to db.InvitationStatus) error {
	return svcErr.FailedPrecondition(fmt.Sprintf("invitation is %s and cannot become %s", from, to))
}

func toAPI(inv *db.Invitation) *api.Invitation {
	return &api.Invitation{
		ID:          api.FormatID(inv.ID),
		SenderID:    api.FormatID(inv.SenderID),
		ReceiverID:  api.FormatID(inv.ReceiverID),
		ScheduledAt: api.UnixMilli(inv.ScheduledAt),
		Status:      string(inv.Status),
		CreatedAt:   api.UnixMilli(inv.CreatedAt),
		UpdatedAt:   api.UnixMilli(inv.UpdatedAt),
	}
}

func toPartnerResponse(snap cache.PartnerSnapshot) *api.GetPartnerCountResponse {
	resp := &api.GetPartnerCountResponse{
		Count:      int64(snap.Count),
		PartnerIDs: make([]string, 0, len(snap.PartnerIDs)),
	}
	for _, id := range snap.PartnerIDs {
		resp.PartnerIDs = append(resp.PartnerIDs, api.FormatID(id))
	}
	return resp
}
