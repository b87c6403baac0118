package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/oggyb/run-together/internal/db"
)

// UserRepository provides data access methods for the User model.
type UserRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new repository bound to the given DB connection.
func NewUserRepository(database *gorm.DB) *UserRepository {
	return &UserRepository{db: database}
}

// FindByID returns the user with the given numeric id.
// Missing users yield gorm.ErrRecordNotFound.
func (r *UserRepository) FindByID(ctx context.Context, id uint64) (*db.User, error) {
	var u db.User
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&u).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

// FindByEmail returns the user registered with email, or (nil, nil).
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*db.User, error) {
	var u db.User
	err := r.db.WithContext(ctx).Where("email = ?", email).First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// FindAllExcept returns every user but id, ordered by id.
//
// The whole table is loaded; matching runs over the full pool per request.
func (r *UserRepository) FindAllExcept(ctx context.Context, id uint64) ([]db.User, error) {
	var users []db.User
	err := r.db.WithContext(ctx).
		Where("id <> ?", id).
		Order("id ASC").
		Find(&users).Error
	return users, err
}

// NextID returns max(id)+1, or 0 when the table is empty.
func (r *UserRepository) NextID(ctx context.Context) (uint64, error) {
	var maxID int64
	err := r.db.WithContext(ctx).
		Model(&db.User{}).
		Select("COALESCE(MAX(id), -1)").
		Scan(&maxID).Error
	if err != nil {
		return 0, err
	}
	return uint64(maxID + 1), nil
}

// Create inserts u as-is. Id or email collisions yield gorm.ErrDuplicatedKey.
func (r *UserRepository) Create(ctx context.Context, u *db.User) error {
	return r.db.WithContext(ctx).Create(u).Error
}

// Update writes the named columns of changes to user id and returns the fresh row.
//
// Behavior:
//   - Only columns are written, zero values included (so a field can be cleared).
//   - A struct source is used instead of a map so the availability JSON
//     serializer applies.
//   - Missing users yield gorm.ErrRecordNotFound.
func (r *UserRepository) Update(ctx context.Context, id uint64, changes *db.User, columns []string) (*db.User, error) {
	if len(columns) > 0 {
		res := r.db.WithContext(ctx).
			Model(&db.User{}).
			Where("id = ?", id).
			Select(columns).
			Updates(changes)
		if res.Error != nil {
			return nil, res.Error
		}
	}
	return r.FindByID(ctx, id)
}

// IncrementPartners atomically bumps partners_count by one.
//
// Behavior:
//   - Single UPDATE ... SET partners_count = partners_count + 1, no read-modify-write.
//   - Missing users yield gorm.ErrRecordNotFound.
func (r *UserRepository) IncrementPartners(ctx context.Context, id uint64) error {
	res := r.db.WithContext(ctx).
		Model(&db.User{}).
		Where("id = ?", id).
		UpdateColumn("partners_count", gorm.Expr("partners_count + ?", 1))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// IncrementRuns atomically adds delta to runs_count and returns the new value.
// The update and the read share one transaction, so the value returned is the
// one this call produced.
func (r *UserRepository) IncrementRuns(ctx context.Context, id uint64, delta int64) (int64, error) {
	var runs int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&db.User{}).
			Where("id = ?", id).
			UpdateColumn("runs_count", gorm.Expr("runs_count + ?", delta))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}

		return tx.Model(&db.User{}).
			Where("id = ?", id).
			Select("runs_count").
			Scan(&runs).Error
	})
	if err != nil {
		return 0, err
	}
	return runs, nil
}
