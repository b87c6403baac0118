package repository_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/oggyb/run-together/internal/db"
	"github.com/oggyb/run-together/internal/repository"
	"github.com/oggyb/run-together/internal/utils/pagination"
)

// setup in-memory DB
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	database, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Discard,
		TranslateError: true,
		NowFunc:        func() time.Time { return time.Now().UTC().Truncate(time.Millisecond) },
	})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}

	// one connection: every pooled connection would otherwise see its own empty :memory: DB
	sqlDB, err := database.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	if err := db.Migrate(database); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	return database
}

func seedUsers(t *testing.T, database *gorm.DB, ids ...uint64) {
	t.Helper()
	for _, id := range ids {
		require.NoError(t, database.Create(&db.User{
			ID:           id,
			FullName:     "runner",
			Email:        "runner" + string(rune('a'+id)) + "@example.com",
			PasswordHash: "x",
		}).Error)
	}
}

//
// Users
//

func TestNextID(t *testing.T) {
	ctx := context.Background()
	dbase := setupTestDB(t)
	repo := repository.NewUserRepository(dbase)

	next, err := repo.NextID(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), next)

	seedUsers(t, dbase, 0, 4)

	next, err = repo.NextID(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(5), next)
}

func TestUserCreateDuplicateEmail(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewUserRepository(setupTestDB(t))

	require.NoError(t, repo.Create(ctx, &db.User{ID: 0, Email: "a@x.io", PasswordHash: "x"}))
	err := repo.Create(ctx, &db.User{ID: 1, Email: "a@x.io", PasswordHash: "x"})
	assert.ErrorIs(t, err, gorm.ErrDuplicatedKey)

	err = repo.Create(ctx, &db.User{ID: 0, Email: "b@x.io", PasswordHash: "x"})
	assert.ErrorIs(t, err, gorm.ErrDuplicatedKey)
}

func TestFindByEmailAndAllExcept(t *testing.T) {
	ctx := context.Background()
	dbase := setupTestDB(t)
	repo := repository.NewUserRepository(dbase)
	seedUsers(t, dbase, 0, 1, 2)

	u, err := repo.FindByEmail(ctx, "runnerb@example.com")
	require.NoError(t, err)
	require.NotNil(t, u)
	assert.Equal(t, uint64(1), u.ID)

	missing, err := repo.FindByEmail(ctx, "nobody@example.com")
	require.NoError(t, err)
	assert.Nil(t, missing)

	others, err := repo.FindAllExcept(ctx, 1)
	require.NoError(t, err)
	require.Len(t, others, 2)
	assert.Equal(t, uint64(0), others[0].ID)
	assert.Equal(t, uint64(2), others[1].ID)

	_, err = repo.FindByID(ctx, 99)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestUserUpdateSelectedColumns(t *testing.T) {
	ctx := context.Background()
	dbase := setupTestDB(t)
	repo := repository.NewUserRepository(dbase)
	seedUsers(t, dbase, 3)

	level := 2
	got, err := repo.Update(ctx, 3, &db.User{
		City:         "Haifa",
		Level:        &level,
		Availability: []string{"morning", "evening"},
		FullName:     "not selected",
	}, []string{"city", "level", "availability"})
	require.NoError(t, err)

	assert.Equal(t, "Haifa", got.City)
	require.NotNil(t, got.Level)
	assert.Equal(t, 2, *got.Level)
	assert.Equal(t, []string{"morning", "evening"}, got.Availability)
	assert.Equal(t, "runner", got.FullName)
}

func TestIncrementCounters(t *testing.T) {
	ctx := context.Background()
	dbase := setupTestDB(t)
	repo := repository.NewUserRepository(dbase)
	seedUsers(t, dbase, 1)

	require.NoError(t, repo.IncrementPartners(ctx, 1))
	require.NoError(t, repo.IncrementPartners(ctx, 1))
	assert.ErrorIs(t, repo.IncrementPartners(ctx, 42), gorm.ErrRecordNotFound)

	runs, err := repo.IncrementRuns(ctx, 1, 3)
	require.NoError(t, err)
	assert.Equal(t, int64(3), runs)

	u, err := repo.FindByID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(2), u.PartnersCount)
	assert.Equal(t, int64(3), u.RunsCount)

	_, err = repo.IncrementRuns(ctx, 42, 1)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestIncrementPartnersConcurrent(t *testing.T) {
	ctx := context.Background()
	dbase := setupTestDB(t)
	repo := repository.NewUserRepository(dbase)
	seedUsers(t, dbase, 1)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, repo.IncrementPartners(ctx, 1))
		}()
	}
	wg.Wait()

	u, err := repo.FindByID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(20), u.PartnersCount)
}

func TestIncrementRunsConcurrentReturnsOwnValue(t *testing.T) {
	ctx := context.Background()
	dbase := setupTestDB(t)
	repo := repository.NewUserRepository(dbase)
	seedUsers(t, dbase, 1)

	const workers = 20
	results := make(chan int64, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			runs, err := repo.IncrementRuns(ctx, 1, 1)
			assert.NoError(t, err)
			results <- runs
		}()
	}
	wg.Wait()
	close(results)

	// every caller sees the value its own increment produced
	seen := make(map[int64]bool, workers)
	for runs := range results {
		assert.False(t, seen[runs], "runs_count %d returned twice", runs)
		seen[runs] = true
	}
	assert.Len(t, seen, workers)
	for i := int64(1); i <= workers; i++ {
		assert.True(t, seen[i], "missing %d", i)
	}
}

//
// Invitations
//

func TestInvitationPendingUniqueness(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewInvitationRepository(setupTestDB(t))

	first := &db.Invitation{SenderID: 1, ReceiverID: 2, ScheduledAt: time.Now()}
	require.NoError(t, repo.Create(ctx, first))
	assert.Equal(t, db.StatusPending, first.Status)

	err := repo.Create(ctx, &db.Invitation{SenderID: 1, ReceiverID: 2, ScheduledAt: time.Now()})
	assert.ErrorIs(t, err, gorm.ErrDuplicatedKey)

	found, err := repo.FindPending(ctx, 1, 2)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, first.ID, found.ID)

	none, err := repo.FindPending(ctx, 2, 1)
	require.NoError(t, err)
	assert.Nil(t, none)
}

func TestUpdateStatusCompareAndSet(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewInvitationRepository(setupTestDB(t))

	inv := &db.Invitation{SenderID: 1, ReceiverID: 2, ScheduledAt: time.Now()}
	require.NoError(t, repo.Create(ctx, inv))

	ok, err := repo.UpdateStatus(ctx, inv.ID, db.StatusPending, db.StatusAccepted)
	require.NoError(t, err)
	assert.True(t, ok)

	// stale prior status no longer matches
	ok, err = repo.UpdateStatus(ctx, inv.ID, db.StatusPending, db.StatusAccepted)
	require.NoError(t, err)
	assert.False(t, ok)

	got, err := repo.FindByID(ctx, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, db.StatusAccepted, got.Status)
	assert.Nil(t, got.PendingKey)

	// the pair is free for a new pending invitation
	require.NoError(t, repo.Create(ctx, &db.Invitation{SenderID: 1, ReceiverID: 2, ScheduledAt: time.Now()}))
}

func TestListPending(t *testing.T) {
	ctx := context.Background()
	dbase := setupTestDB(t)
	repo := repository.NewInvitationRepository(dbase)

	base := time.Now().UTC().Truncate(time.Millisecond)
	rows := []db.Invitation{
		{SenderID: 1, ReceiverID: 2, ScheduledAt: base.Add(time.Hour), CreatedAt: base.Add(-3 * time.Minute)},
		{SenderID: 1, ReceiverID: 3, ScheduledAt: base.Add(2 * time.Hour), CreatedAt: base.Add(-1 * time.Minute)},
		{SenderID: 1, ReceiverID: 4, ScheduledAt: base, CreatedAt: base, Status: db.StatusDeclined},
		{SenderID: 5, ReceiverID: 3, ScheduledAt: base, CreatedAt: base.Add(-2 * time.Minute)},
	}
	require.NoError(t, dbase.Create(&rows).Error)

	sent, err := repo.ListPendingBySender(ctx, 1)
	require.NoError(t, err)
	require.Len(t, sent, 2)
	assert.Equal(t, uint64(3), sent[0].ReceiverID)
	assert.Equal(t, uint64(2), sent[1].ReceiverID)
	assert.True(t, sent[0].ScheduledAt.Equal(base.Add(2*time.Hour)))

	received, err := repo.ListPendingByReceiver(ctx, 3)
	require.NoError(t, err)
	require.Len(t, received, 2)
	assert.Equal(t, uint64(1), received[0].SenderID)
	assert.Equal(t, uint64(5), received[1].SenderID)
}

func TestAcceptedPartners(t *testing.T) {
	ctx := context.Background()
	dbase := setupTestDB(t)
	repo := repository.NewInvitationRepository(dbase)

	now := time.Now()
	rows := []db.Invitation{
		{SenderID: 1, ReceiverID: 2, ScheduledAt: now, Status: db.StatusAccepted},
		{SenderID: 2, ReceiverID: 1, ScheduledAt: now, Status: db.StatusAccepted}, // same partner, other direction
		{SenderID: 3, ReceiverID: 1, ScheduledAt: now, Status: db.StatusAccepted},
		{SenderID: 1, ReceiverID: 4, ScheduledAt: now, Status: db.StatusDeclined},
		{SenderID: 1, ReceiverID: 5, ScheduledAt: now},
	}
	require.NoError(t, dbase.Create(&rows).Error)

	ids, err := repo.AcceptedPartners(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, []uint64{2, 3}, ids)

	ids, err = repo.AcceptedPartners(ctx, 77)
	require.NoError(t, err)
	assert.Empty(t, ids)
}

//
// Run history
//

func TestHistoryPagination(t *testing.T) {
	ctx := context.Background()
	dbase := setupTestDB(t)
	repo := repository.NewHistoryRepository(dbase)

	base := time.Now().UTC().Truncate(time.Millisecond)
	for i := 0; i < 5; i++ {
		require.NoError(t, repo.Create(ctx, &db.RunHistory{
			UserID:          7,
			TotalDistanceKm: float64(i),
			RunDate:         "09.06.2025",
			CreatedAt:       base.Add(time.Duration(i) * time.Minute),
		}))
	}
	require.NoError(t, repo.Create(ctx, &db.RunHistory{UserID: 8, RunDate: "x"}))

	page1, next, err := repo.ListByUser(ctx, 7, nil, 2)
	require.NoError(t, err)
	require.Len(t, page1, 2)
	require.NotNil(t, next)
	assert.Equal(t, 4.0, page1[0].TotalDistanceKm)
	assert.Equal(t, 3.0, page1[1].TotalDistanceKm)

	page2, next, err := repo.ListByUser(ctx, 7, next, 2)
	require.NoError(t, err)
	require.Len(t, page2, 2)
	assert.Equal(t, 2.0, page2[0].TotalDistanceKm)

	page3, next, err := repo.ListByUser(ctx, 7, next, 2)
	require.NoError(t, err)
	require.Len(t, page3, 1)
	assert.Nil(t, next)
	assert.Equal(t, 0.0, page3[0].TotalDistanceKm)

	bad := "%%%"
	_, _, err = repo.ListByUser(ctx, 7, &bad, 2)
	assert.ErrorIs(t, err, pagination.ErrInvalidToken)
}
