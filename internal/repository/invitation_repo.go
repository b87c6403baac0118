package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/oggyb/run-together/internal/db"
)

// InvitationRepository provides data access methods for the Invitation model.
// It encapsulates all queries related to run invitations between users.
type InvitationRepository struct {
	db *gorm.DB
}

// NewInvitationRepository creates a new repository bound to the given DB connection.
func NewInvitationRepository(database *gorm.DB) *InvitationRepository {
	return &InvitationRepository{db: database}
}

// FindPending returns the pending invitation for the ordered pair, or (nil, nil).
//
// Example:
//
//	repo.FindPending(ctx, 1, 2) // pending invite from user 1 to user 2, if any
func (r *InvitationRepository) FindPending(ctx context.Context, senderID, receiverID uint64) (*db.Invitation, error) {
	var inv db.Invitation
	err := r.db.WithContext(ctx).
		Where("sender_id = ? AND receiver_id = ? AND status = ?", senderID, receiverID, db.StatusPending).
		First(&inv).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &inv, nil
}

// FindByID returns the invitation or gorm.ErrRecordNotFound.
func (r *InvitationRepository) FindByID(ctx context.Context, id uint64) (*db.Invitation, error) {
	var inv db.Invitation
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&inv).Error; err != nil {
		return nil, err
	}
	return &inv, nil
}

// Create inserts a new invitation.
//
// Behavior:
//   - The unique (sender_id, receiver_id, pending_key) index rejects a second
//     pending row for the same ordered pair with gorm.ErrDuplicatedKey.
//   - Callers resolve that race by re-reading with FindPending.
func (r *InvitationRepository) Create(ctx context.Context, inv *db.Invitation) error {
	return r.db.WithContext(ctx).Create(inv).Error
}

// UpdateStatus moves invitation id from status `from` to `to`.
//
// Behavior:
//   - Compare-and-set: the UPDATE only matches while the row still has `from`.
//   - Returns false when another writer changed the row first.
//   - pending_key is rewritten together with status.
func (r *InvitationRepository) UpdateStatus(
	ctx context.Context,
	id uint64,
	from, to db.InvitationStatus,
) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&db.Invitation{}).
		Where("id = ? AND status = ?", id, from).
		Updates(map[string]any{
			"status":      to,
			"pending_key": db.PendingKeyValue(to),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// ListPendingBySender returns pending invitations sent by senderID, newest first.
// Only receiver_id and scheduled_at are loaded.
func (r *InvitationRepository) ListPendingBySender(ctx context.Context, senderID uint64) ([]db.Invitation, error) {
	var invs []db.Invitation
	err := r.db.WithContext(ctx).
		Select("receiver_id", "scheduled_at").
		Where("sender_id = ? AND status = ?", senderID, db.StatusPending).
		Order("created_at DESC, id DESC").
		Find(&invs).Error
	return invs, err
}

// ListPendingByReceiver returns pending invitations addressed to receiverID, newest first.
func (r *InvitationRepository) ListPendingByReceiver(ctx context.Context, receiverID uint64) ([]db.Invitation, error) {
	var invs []db.Invitation
	err := r.db.WithContext(ctx).
		Where("receiver_id = ? AND status = ?", receiverID, db.StatusPending).
		Order("created_at DESC, id DESC").
		Find(&invs).Error
	return invs, err
}

// AcceptedPartners returns the distinct counterpart ids of every accepted
// invitation where userID is sender or receiver, ascending.
//
// Example:
//
//	repo.AcceptedPartners(ctx, 42) // -> [3 17]
func (r *InvitationRepository) AcceptedPartners(ctx context.Context, userID uint64) ([]uint64, error) {
	ids := make([]uint64, 0)
	err := r.db.WithContext(ctx).Raw(`
		SELECT DISTINCT CASE WHEN sender_id = ? THEN receiver_id ELSE sender_id END AS partner_id
		FROM invitations
		WHERE status = ? AND (sender_id = ? OR receiver_id = ?)
		ORDER BY partner_id`,
		userID, db.StatusAccepted, userID, userID,
	).Scan(&ids).Error
	return ids, err
}
