package service_test

import (
	"appointease/cmd/internal/domain/database/databasetest"
	"appointease/cmd/internal/domain/entity"
	"appointease/cmd/internal/service"
	"gorm.io/datatypes"
	"testing"
	"time"
)

func TestGenerateCreatesOneReminderPerEnabledChannel(t *testing.T) {
	now := mustTime(t, "2025-01-10T08:00:00Z")
	f := newFixture(t, now)
	gen := service.NewNotificationGenerator(f.notifs, f.prefs, f.clock, f.metrics)

	user := databasetest.SeedUser(t, f.db, "fanout")
	start := mustTime(t, "2025-01-10T14:00:00Z")
	appt := databasetest.SeedAppointment(t, f.db, user.ID, start.UnixMilli(), start.Add(time.Hour).UnixMilli())

	created, err := gen.GenerateNotifications(appt)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if len(created) != 2 {
		t.Fatalf("expected 2 notifications, got %d", len(created))
	}

	rows := f.pending(t, appt.ID)
	if len(rows) != 2 {
		t.Fatalf("expected 2 pending rows, got %d", len(rows))
	}
	if rows[0].Channel != entity.ChannelEmail || rows[1].Channel != entity.ChannelBrowser {
		t.Fatalf("unexpected channel order: %s, %s", rows[0].Channel, rows[1].Channel)
	}

	wantAt := start.Add(-entity.DefaultReminderMinutes * time.Minute).UnixMilli()
	for _, n := range rows {
		if n.ScheduledAt != wantAt {
			t.Errorf("scheduled_at = %d, want %d", n.ScheduledAt, wantAt)
		}
		if n.Type != entity.NotificationReminder {
			t.Errorf("type = %s, want reminder", n.Type)
		}
		data := n.Data.Data()
		if data.Title != "Dentist" || data.StartTime != "2025-01-10T14:00:00Z" || data.IsStartingSoon {
			t.Errorf("unexpected snapshot %+v", data)
		}
	}
}

func TestGenerateUsesAppointmentLeadTime(t *testing.T) {
	now := mustTime(t, "2025-01-10T08:00:00Z")
	f := newFixture(t, now)
	gen := service.NewNotificationGenerator(f.notifs, f.prefs, f.clock, f.metrics)

	user := databasetest.SeedUser(t, f.db, "lead")
	start := mustTime(t, "2025-01-10T14:00:00Z")
	appt := databasetest.SeedAppointment(t, f.db, user.ID, start.UnixMilli(), start.UnixMilli())
	lead := 90
	appt.ReminderMinutes = &lead

	if _, err := gen.GenerateNotifications(appt); err != nil {
		t.Fatalf("generate: %v", err)
	}

	want := start.Add(-90 * time.Minute).UnixMilli()
	for _, n := range f.pending(t, appt.ID) {
		if n.ScheduledAt != want {
			t.Fatalf("scheduled_at = %d, want %d", n.ScheduledAt, want)
		}
	}
}

func TestGenerateIsIdempotent(t *testing.T) {
	now := mustTime(t, "2025-01-10T08:00:00Z")
	f := newFixture(t, now)
	gen := service.NewNotificationGenerator(f.notifs, f.prefs, f.clock, f.metrics)

	user := databasetest.SeedUser(t, f.db, "idem")
	start := mustTime(t, "2025-01-10T14:00:00Z")
	appt := databasetest.SeedAppointment(t, f.db, user.ID, start.UnixMilli(), start.UnixMilli())

	for i := 0; i < 3; i++ {
		if _, err := gen.GenerateNotifications(appt); err != nil {
			t.Fatalf("generate #%d: %v", i, err)
		}
	}
	if got := len(f.pending(t, appt.ID)); got != 2 {
		t.Fatalf("expected 2 pending rows after regeneration, got %d", got)
	}
}

func TestGenerateDisabledRemovesPending(t *testing.T) {
	now := mustTime(t, "2025-01-10T08:00:00Z")
	f := newFixture(t, now)
	gen := service.NewNotificationGenerator(f.notifs, f.prefs, f.clock, f.metrics)

	user := databasetest.SeedUser(t, f.db, "disabled")
	start := mustTime(t, "2025-01-10T14:00:00Z")
	appt := databasetest.SeedAppointment(t, f.db, user.ID, start.UnixMilli(), start.UnixMilli())

	if _, err := gen.GenerateNotifications(appt); err != nil {
		t.Fatalf("generate: %v", err)
	}
	appt.NotificationsEnabled = false
	created, err := gen.GenerateNotifications(appt)
	if err != nil {
		t.Fatalf("generate disabled: %v", err)
	}
	if len(created) != 0 {
		t.Fatalf("expected nothing created, got %d", len(created))
	}
	if got := len(f.pending(t, appt.ID)); got != 0 {
		t.Fatalf("expected no pending rows, got %d", got)
	}
}

func TestGenerateSkipsElapsedReminderWindow(t *testing.T) {
	// 20 minutes before start with a 30 minute lead.
	now := mustTime(t, "2025-01-10T13:40:00Z")
	f := newFixture(t, now)
	gen := service.NewNotificationGenerator(f.notifs, f.prefs, f.clock, f.metrics)

	user := databasetest.SeedUser(t, f.db, "elapsed")
	start := mustTime(t, "2025-01-10T14:00:00Z")
	appt := databasetest.SeedAppointment(t, f.db, user.ID, start.UnixMilli(), start.UnixMilli())
	f.seedNotification(t, appt.ID, user.ID, entity.ChannelEmail, start.Add(-time.Hour).UnixMilli())

	created, err := gen.GenerateNotifications(appt)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if len(created) != 0 {
		t.Fatalf("expected no reminders, got %d", len(created))
	}
	if got := len(f.pending(t, appt.ID)); got != 0 {
		t.Fatalf("stale pending rows survived: %d", got)
	}
}

func TestGenerateFiresWhenWindowOpensNow(t *testing.T) {
	now := mustTime(t, "2025-01-10T13:30:00Z")
	f := newFixture(t, now)
	gen := service.NewNotificationGenerator(f.notifs, f.prefs, f.clock, f.metrics)

	user := databasetest.SeedUser(t, f.db, "boundary")
	start := mustTime(t, "2025-01-10T14:00:00Z")
	appt := databasetest.SeedAppointment(t, f.db, user.ID, start.UnixMilli(), start.UnixMilli())

	created, err := gen.GenerateNotifications(appt)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if len(created) != 2 {
		t.Fatalf("expected reminders at the boundary, got %d", len(created))
	}
}

func TestGenerateHonoursChannelOverride(t *testing.T) {
	now := mustTime(t, "2025-01-10T08:00:00Z")
	f := newFixture(t, now)
	gen := service.NewNotificationGenerator(f.notifs, f.prefs, f.clock, f.metrics)

	user := databasetest.SeedUser(t, f.db, "override")
	f.setPreferences(t, user.ID, false, false, 30)
	start := mustTime(t, "2025-01-10T14:00:00Z")
	appt := databasetest.SeedAppointment(t, f.db, user.ID, start.UnixMilli(), start.UnixMilli())
	appt.NotificationChannels = datatypes.JSONSlice[entity.Channel]{entity.ChannelBrowser, entity.ChannelBrowser}

	if _, err := gen.GenerateNotifications(appt); err != nil {
		t.Fatalf("generate: %v", err)
	}
	rows := f.pending(t, appt.ID)
	if len(rows) != 1 || rows[0].Channel != entity.ChannelBrowser {
		t.Fatalf("expected a single browser reminder, got %+v", rows)
	}
}

func TestGenerateRejectsUnknownChannelOverride(t *testing.T) {
	now := mustTime(t, "2025-01-10T08:00:00Z")
	f := newFixture(t, now)
	gen := service.NewNotificationGenerator(f.notifs, f.prefs, f.clock, f.metrics)

	user := databasetest.SeedUser(t, f.db, "badchannel")
	start := mustTime(t, "2025-01-10T14:00:00Z")
	appt := databasetest.SeedAppointment(t, f.db, user.ID, start.UnixMilli(), start.UnixMilli())
	appt.NotificationChannels = datatypes.JSONSlice[entity.Channel]{"pigeon"}

	if _, err := gen.GenerateNotifications(appt); err == nil {
		t.Fatalf("expected an error for an unknown channel")
	}
}

func TestGenerateKeepsDeliveredRows(t *testing.T) {
	now := mustTime(t, "2025-01-10T08:00:00Z")
	f := newFixture(t, now)
	gen := service.NewNotificationGenerator(f.notifs, f.prefs, f.clock, f.metrics)

	user := databasetest.SeedUser(t, f.db, "keep")
	start := mustTime(t, "2025-01-10T14:00:00Z")
	appt := databasetest.SeedAppointment(t, f.db, user.ID, start.UnixMilli(), start.UnixMilli())

	sent := f.seedNotification(t, appt.ID, user.ID, entity.ChannelEmail, now.UnixMilli())
	if ok, err := f.notifs.Claim(sent.ID); err != nil || !ok {
		t.Fatalf("claim: ok=%v err=%v", ok, err)
	}
	if err := f.notifs.MarkSent(sent.ID, now.UnixMilli()); err != nil {
		t.Fatalf("mark sent: %v", err)
	}

	if _, err := gen.GenerateNotifications(appt); err != nil {
		t.Fatalf("generate: %v", err)
	}
	if got := f.reload(t, sent.ID); got.Status != entity.NotificationSent {
		t.Fatalf("sent row changed to %s", got.Status)
	}
}

func TestGenerateDropsChannelsWithoutSender(t *testing.T) {
	now := mustTime(t, "2025-01-10T08:00:00Z")
	f := newFixture(t, now)
	d := newDispatcher(f, okSenders(), time.Second, nil)
	gen := service.NewNotificationGenerator(f.notifs, f.prefs, f.clock, f.metrics)
	gen.Deliverable = d.Supports

	user := databasetest.SeedUser(t, f.db, "smsonly")
	start := mustTime(t, "2025-01-10T14:00:00Z")
	appt := databasetest.SeedAppointment(t, f.db, user.ID, start.UnixMilli(), start.UnixMilli())
	appt.NotificationChannels = datatypes.JSONSlice[entity.Channel]{entity.ChannelSMS, entity.ChannelEmail}

	if _, err := gen.GenerateNotifications(appt); err != nil {
		t.Fatalf("generate: %v", err)
	}
	rows := f.pending(t, appt.ID)
	if len(rows) != 1 || rows[0].Channel != entity.ChannelEmail {
		t.Fatalf("expected only the email reminder, got %+v", rows)
	}

	appt.NotificationChannels = datatypes.JSONSlice[entity.Channel]{entity.ChannelSMS}
	created, err := gen.GenerateNotifications(appt)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if len(created) != 0 || len(f.pending(t, appt.ID)) != 0 {
		t.Fatalf("sms-only appointment must not keep pending reminders")
	}
}
