package db

import (
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	seedCities = []string{"Tel Aviv", "Haifa", "Jerusalem"}
	seedSlots  = []string{"morning", "afternoon", "evening"}
)

// SeedTestData resets the database and populates it with demo runners and invitations.
//
// Behavior:
//  1. Clears existing data in `run_history`, `invitations` and `users`.
//  2. Creates 30 runners spread over three cities, all levels, random availability.
//     Every runner's password is "password".
//  3. Creates up to 40 invitations, about half decided. Accepted ones bump both
//     partner counters; a pending pair is never seeded twice.
//
// Compatible with both MySQL and SQLite.
func SeedTestData(db *gorm.DB, log *slog.Logger) error {
	r := rand.New(rand.NewSource(time.Now().UnixNano()))

	// --- Fresh start ---
	for _, table := range []string{"run_history", "invitations", "users"} {
		if err := db.Exec("DELETE FROM " + table).Error; err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}

	switch db.Dialector.Name() {
	case "mysql":
		db.Exec("ALTER TABLE invitations AUTO_INCREMENT = 1")
		db.Exec("ALTER TABLE run_history AUTO_INCREMENT = 1")
	case "sqlite":
		db.Exec("DELETE FROM sqlite_sequence WHERE name IN ('invitations', 'run_history')")
	}

	log.Info("cleared existing data")

	hash, err := bcrypt.GenerateFromPassword([]byte("password"), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	// --- Seed runners ---
	const runners = 30
	for i := 0; i < runners; i++ {
		level := r.Intn(3)
		age := 18 + r.Intn(45)

		var availability []string
		for _, s := range seedSlots {
			if r.Intn(2) == 0 {
				availability = append(availability, s)
			}
		}
		if len(availability) == 0 {
			availability = []string{seedSlots[r.Intn(len(seedSlots))]}
		}

		gender := "male"
		if i%2 == 1 {
			gender = "female"
		}

		user := User{
			ID:           uint64(i),
			FullName:     fmt.Sprintf("Runner %d", i),
			Age:          &age,
			Phone:        fmt.Sprintf("050-000%04d", i),
			City:         seedCities[i%len(seedCities)],
			Street:       fmt.Sprintf("Main St %d", i+1),
			Gender:       gender,
			Level:        &level,
			Email:        fmt.Sprintf("runner%d@example.com", i),
			PasswordHash: string(hash),
			Availability: availability,
			RunsCount:    int64(r.Intn(40)),
		}
		if err := db.Create(&user).Error; err != nil {
			return fmt.Errorf("failed to seed user: %w", err)
		}
	}
	log.Info("seeded runners", "count", runners)

	// --- Seed invitations ---
	decided := []InvitationStatus{StatusAccepted, StatusDeclined, StatusCancelled, StatusAccepted}
	pendingPairs := map[[2]uint64]bool{}
	created := 0

	for i := 0; i < 40; i++ {
		sender := uint64(r.Intn(runners))
		receiver := uint64(r.Intn(runners))
		if sender == receiver {
			continue
		}

		status := StatusPending
		if i%2 == 0 {
			status = decided[r.Intn(len(decided))]
		}

		pair := [2]uint64{sender, receiver}
		if status == StatusPending {
			if pendingPairs[pair] {
				continue
			}
			pendingPairs[pair] = true
		}

		inv := Invitation{
			SenderID:    sender,
			ReceiverID:  receiver,
			ScheduledAt: time.Now().Add(time.Duration(r.Intn(72)) * time.Hour),
			Status:      status,
		}
		if err := db.Create(&inv).Error; err != nil {
			return fmt.Errorf("failed to seed invitation: %w", err)
		}

		if status == StatusAccepted {
			if err := db.Model(&User{}).
				Where("id IN ?", []uint64{sender, receiver}).
				UpdateColumn("partners_count", gorm.Expr("partners_count + ?", 1)).Error; err != nil {
				return fmt.Errorf("failed to bump partner counts: %w", err)
			}
		}
		created++
	}
	log.Info("seeded invitations", "count", created)

	return nil
}
