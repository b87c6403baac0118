// Package testutil wires in-memory SQLite and miniredis into an
// AppContext for service and transport tests.
package testutil

import (
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/oggyb/run-together/internal/app"
	"github.com/oggyb/run-together/internal/cache"
	"github.com/oggyb/run-together/internal/config"
	"github.com/oggyb/run-together/internal/db"
	applog "github.com/oggyb/run-together/internal/logger"
)

// Env is an isolated test environment.
type Env struct {
	App   *app.AppContext
	DB    *gorm.DB
	Redis *miniredis.Miniredis
}

// NewDB opens a migrated in-memory SQLite database.
//
// The pool is capped at one connection: every new connection to ":memory:"
// would otherwise get its own empty database. Concurrent callers queue on
// that connection, which also serializes writes the way SQLite requires.
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()

	dbase, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:                 logger.Discard,
		NowFunc:                func() time.Time { return time.Now().UTC().Truncate(time.Millisecond) },
		SkipDefaultTransaction: true,
		TranslateError:         true,
	})
	require.NoError(t, err)

	sqlDB, err := dbase.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, db.Migrate(dbase))
	return dbase
}

// NewEnv builds an AppContext over a fresh database and a fake Redis.
// Config comes from config.New with the cheapest bcrypt cost.
func NewEnv(t testing.TB) *Env {
	t.Helper()

	dbase := NewDB(t)

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	cfg := config.New()
	cfg.Redis.Addr = mr.Addr()
	cfg.Redis.Password = ""
	cfg.Redis.DB = 0
	cfg.Security.BcryptCost = bcrypt.MinCost

	redisCache := cache.NewRedisCache(cfg)
	t.Cleanup(func() { _ = redisCache.Close() })

	return &Env{
		App:   app.New(cfg, dbase, redisCache, applog.Discard()),
		DB:    dbase,
		Redis: mr,
	}
}

// CreateUsers inserts users verbatim and fails the test on error.
func CreateUsers(t testing.TB, dbase *gorm.DB, users ...db.User) {
	t.Helper()
	for i := range users {
		if users[i].PasswordHash == "" {
			users[i].PasswordHash = "x"
		}
		require.NoError(t, dbase.Create(&users[i]).Error)
	}
}

// Level returns a pointer to l.
func Level(l int) *int { return &l }
