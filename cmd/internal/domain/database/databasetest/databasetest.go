// Package databasetest opens isolated in-memory databases for tests.
package databasetest

import (
	"appointease/cmd/internal/domain/database"
	"appointease/cmd/internal/domain/entity"
	"fmt"
	"gorm.io/gorm"
	"strings"
	"sync/atomic"
	"testing"
)

var seq atomic.Int64

// New returns a migrated in-memory SQLite database private to t.
func New(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", name, seq.Add(1))

	db, err := database.Init(database.DriverSQLite, dsn)
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() { _ = database.Close(db) })
	return db
}

// SeedUser inserts a user with the given subject.
func SeedUser(t *testing.T, db *gorm.DB, sub string) *entity.User {
	t.Helper()
	user := &entity.User{SubUUID: sub, Name: "User " + sub, Email: sub + "@example.com"}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to seed user: %v", err)
	}
	return user
}

// SeedAppointment inserts an appointment owned by userID.
func SeedAppointment(t *testing.T, db *gorm.DB, userID int, beginsAt, endsAt int64) *entity.Appointment {
	t.Helper()
	appt := &entity.Appointment{
		Title:                "Dentist",
		UserID:               userID,
		BeginsAt:             beginsAt,
		EndsAt:               endsAt,
		Status:               entity.AppointmentScheduled,
		NotificationsEnabled: true,
	}
	if err := db.Omit("CreatedBy", "Category").Create(appt).Error; err != nil {
		t.Fatalf("failed to seed appointment: %v", err)
	}
	return appt
}
