package service_test

import (
	"appointease/cmd/internal/domain/database/databasetest"
	"appointease/cmd/internal/domain/database/repository"
	"appointease/cmd/internal/domain/entity"
	"appointease/cmd/internal/integration/mail"
	"appointease/cmd/internal/metrics"
	"appointease/cmd/internal/utils"
	"appointease/cmd/internal/utils/validators"
	"context"
	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"
	"testing"
	"time"
)

type fixture struct {
	db       *gorm.DB
	clock    *utils.FixedClock
	metrics  *metrics.Metrics
	validate *validator.Validate

	users      *repository.DefaultUserRepository
	appts      *repository.DefaultAppointmentRepository
	categories *repository.DefaultCategoryRepository
	prefs      *repository.DefaultPreferenceRepository
	notifs     *repository.DefaultNotificationRepository
	shares     *repository.DefaultShareRepository
}

func newFixture(t *testing.T, now time.Time) *fixture {
	t.Helper()
	db := databasetest.New(t)
	validate := validator.New()
	validators.Register(validate)

	return &fixture{
		db:         db,
		clock:      &utils.FixedClock{Millis: now.UnixMilli()},
		metrics:    metrics.New(),
		validate:   validate,
		users:      repository.NewUserRepository(db),
		appts:      repository.NewAppointmentRepository(db),
		categories: repository.NewCategoryRepository(db),
		prefs:      repository.NewPreferenceRepository(db),
		notifs:     repository.NewNotificationRepository(db),
		shares:     repository.NewShareRepository(db),
	}
}

func mustTime(t *testing.T, rfc string) time.Time {
	t.Helper()
	ts, err := time.Parse(time.RFC3339, rfc)
	if err != nil {
		t.Fatalf("bad time %q: %v", rfc, err)
	}
	return ts
}

func (f *fixture) pending(t *testing.T, apptID int) []*entity.Notification {
	t.Helper()
	rows, err := f.notifs.FindPendingByAppointment(apptID)
	if err != nil {
		t.Fatalf("failed to list pending notifications: %v", err)
	}
	return rows
}

func (f *fixture) reload(t *testing.T, id int) *entity.Notification {
	t.Helper()
	n, err := f.notifs.FindByID(id)
	if err != nil || n == nil {
		t.Fatalf("failed to reload notification %d: %v", id, err)
	}
	return n
}

func (f *fixture) setPreferences(t *testing.T, userID int, email, browser bool, lead int) {
	t.Helper()
	pref, err := f.prefs.GetOrCreate(userID)
	if err != nil {
		t.Fatalf("failed to load preferences: %v", err)
	}
	pref.EmailEnabled = email
	pref.BrowserEnabled = browser
	pref.DefaultReminderMinutes = lead
	if err := f.prefs.Save(pref); err != nil {
		t.Fatalf("failed to save preferences: %v", err)
	}
}

func (f *fixture) seedNotification(t *testing.T, apptID, userID int, ch entity.Channel, at int64) *entity.Notification {
	t.Helper()
	n := &entity.Notification{
		UserID:        userID,
		AppointmentID: apptID,
		Type:          entity.NotificationReminder,
		Channel:       ch,
		Status:        entity.NotificationPending,
		ScheduledAt:   at,
	}
	if err := f.notifs.Create(n); err != nil {
		t.Fatalf("failed to seed notification: %v", err)
	}
	return n
}

type senderFunc func(ctx context.Context, n *entity.Notification) error

func (f senderFunc) Send(ctx context.Context, n *entity.Notification) error {
	return f(ctx, n)
}

type recordingMailer struct {
	err  error
	sent []*mail.Message
}

func (r *recordingMailer) Send(_ context.Context, msg *mail.Message) error {
	if r.err != nil {
		return r.err
	}
	r.sent = append(r.sent, msg)
	return nil
}
