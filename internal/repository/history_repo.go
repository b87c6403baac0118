package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/oggyb/run-together/internal/db"
	"github.com/oggyb/run-together/internal/utils/pagination"
)

// HistoryRepository provides data access methods for the RunHistory model.
type HistoryRepository struct {
	db *gorm.DB
}

// NewHistoryRepository creates a new repository bound to the given DB connection.
func NewHistoryRepository(database *gorm.DB) *HistoryRepository {
	return &HistoryRepository{db: database}
}

// Create stores a completed run.
func (r *HistoryRepository) Create(ctx context.Context, run *db.RunHistory) error {
	return r.db.WithContext(ctx).Create(run).Error
}

// ListByUser returns the runs of userID, newest first.
//
// Behavior:
//   - Ordered by created_at DESC, id DESC.
//   - Supports cursor-based pagination via paginationToken.
//   - Returns the token for the next page, or nil on the last page.
//
// Example:
//
//	repo.ListByUser(ctx, 42, nil, 20) // first 20 runs of user 42
func (r *HistoryRepository) ListByUser(
	ctx context.Context,
	userID uint64,
	paginationToken *string,
	limit int,
) ([]db.RunHistory, *string, error) {
	var runs []db.RunHistory

	cursor, err := pagination.Decode(getString(paginationToken))
	if err != nil {
		return nil, nil, err
	}

	query := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Limit(limit + 1)

	if !cursor.IsZero() {
		ts := time.UnixMilli(cursor.CreatedUnix).UTC()
		query = query.Where(
			"(created_at < ? OR (created_at = ? AND id < ?))",
			ts, ts, cursor.ID,
		)
	}

	if err := query.Find(&runs).Error; err != nil {
		return nil, nil, err
	}

	var nextToken *string
	if len(runs) > limit {
		last := runs[limit-1]
		token, _ := pagination.Encode(pagination.Cursor{
			ID:          last.ID,
			CreatedUnix: last.CreatedAt.UnixMilli(),
		})
		nextToken = &token
		runs = runs[:limit]
	}

	return runs, nextToken, nil
}

// getString safely dereferences a string pointer for pagination tokens.
func getString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
