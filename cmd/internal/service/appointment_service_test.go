package service_test

import (
	"appointease/cmd/internal/domain/database/databasetest"
	"appointease/cmd/internal/domain/entity"
	"appointease/cmd/internal/service"
	"net/http"
	"testing"
	"time"
)

func newAppointmentService(f *fixture) *service.DefaultAppointmentService {
	gen := service.NewNotificationGenerator(f.notifs, f.prefs, f.clock, f.metrics)
	return service.NewAppointmentService(f.appts, f.users, f.categories, gen, f.validate)
}

func TestCreateAppointmentGeneratesReminders(t *testing.T) {
	f := newFixture(t, mustTime(t, "2025-01-10T08:00:00Z"))
	s := newAppointmentService(f)
	databasetest.SeedUser(t, f.db, "creator")

	resp, apierr := s.CreateAppointment(&service.AppointmentRequest{
		Title:                "  Checkup  ",
		BeginsAt:             "2025-01-10T14:00:00Z",
		EndsAt:               "2025-01-10T15:00:00Z",
		NotificationChannels: []string{"email"},
	}, "creator")
	if apierr != nil {
		t.Fatalf("create: %v", apierr)
	}
	if resp.Title != "Checkup" || resp.Status != string(entity.AppointmentScheduled) || !resp.NotificationsEnabled {
		t.Fatalf("unexpected response %+v", resp)
	}

	rows := f.pending(t, resp.ID)
	if len(rows) != 1 || rows[0].Channel != entity.ChannelEmail {
		t.Fatalf("expected one email reminder, got %+v", rows)
	}
}

func TestUpdateAppointmentRegeneratesReminders(t *testing.T) {
	f := newFixture(t, mustTime(t, "2025-01-10T08:00:00Z"))
	s := newAppointmentService(f)
	databasetest.SeedUser(t, f.db, "updater")

	req := &service.AppointmentRequest{Title: "Checkup", BeginsAt: "2025-01-10T14:00:00Z", EndsAt: "2025-01-10T15:00:00Z"}
	created, apierr := s.CreateAppointment(req, "updater")
	if apierr != nil {
		t.Fatalf("create: %v", apierr)
	}

	lead := 60
	req.BeginsAt = "2025-01-11T09:00:00Z"
	req.EndsAt = "2025-01-11T10:00:00Z"
	req.ReminderMinutes = &lead
	if _, apierr := s.UpdateAppointment(created.ID, req, "updater"); apierr != nil {
		t.Fatalf("update: %v", apierr)
	}

	rows := f.pending(t, created.ID)
	if len(rows) != 2 {
		t.Fatalf("expected 2 pending rows, got %d", len(rows))
	}
	want := mustTime(t, "2025-01-11T08:00:00Z").UnixMilli()
	for _, n := range rows {
		if n.ScheduledAt != want {
			t.Fatalf("scheduled_at = %d, want %d", n.ScheduledAt, want)
		}
	}

	disabled := false
	req.NotificationsEnabled = &disabled
	if _, apierr := s.UpdateAppointment(created.ID, req, "updater"); apierr != nil {
		t.Fatalf("update: %v", apierr)
	}
	if got := len(f.pending(t, created.ID)); got != 0 {
		t.Fatalf("disabling reminders left %d pending rows", got)
	}
}

func TestCreateAppointmentValidation(t *testing.T) {
	f := newFixture(t, mustTime(t, "2025-01-10T08:00:00Z"))
	s := newAppointmentService(f)
	user := databasetest.SeedUser(t, f.db, "validator")
	other := databasetest.SeedUser(t, f.db, "other")

	foreign := &entity.Category{UserID: other.ID, Name: "Work"}
	if err := f.categories.Save(foreign); err != nil {
		t.Fatalf("seed category: %v", err)
	}
	zero := 0

	cases := map[string]struct {
		req  service.AppointmentRequest
		code int
	}{
		"end before start": {
			req:  service.AppointmentRequest{Title: "x", BeginsAt: "2025-01-10T14:00:00Z", EndsAt: "2025-01-10T13:00:00Z"},
			code: http.StatusBadRequest,
		},
		"bad timestamp": {
			req:  service.AppointmentRequest{Title: "x", BeginsAt: "tomorrow", EndsAt: "2025-01-10T13:00:00Z"},
			code: http.StatusBadRequest,
		},
		"unknown channel": {
			req:  service.AppointmentRequest{Title: "x", BeginsAt: "2025-01-10T14:00:00Z", EndsAt: "2025-01-10T15:00:00Z", NotificationChannels: []string{"fax"}},
			code: http.StatusBadRequest,
		},
		"zero lead time": {
			req:  service.AppointmentRequest{Title: "x", BeginsAt: "2025-01-10T14:00:00Z", EndsAt: "2025-01-10T15:00:00Z", ReminderMinutes: &zero},
			code: http.StatusBadRequest,
		},
		"line break in title": {
			req:  service.AppointmentRequest{Title: "Dentist\r\nBcc: evil@example.com", BeginsAt: "2025-01-10T14:00:00Z", EndsAt: "2025-01-10T15:00:00Z"},
			code: http.StatusBadRequest,
		},
		"foreign category": {
			req:  service.AppointmentRequest{Title: "x", BeginsAt: "2025-01-10T14:00:00Z", EndsAt: "2025-01-10T15:00:00Z", CategoryID: &foreign.ID},
			code: http.StatusBadRequest,
		},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, apierr := s.CreateAppointment(&tc.req, user.SubUUID)
			if apierr == nil || apierr.Code() != tc.code {
				t.Fatalf("expected %d, got %v", tc.code, apierr)
			}
		})
	}
}

func TestDeleteAppointmentCascades(t *testing.T) {
	now := mustTime(t, "2025-01-10T08:00:00Z")
	f := newFixture(t, now)
	s := newAppointmentService(f)
	shares := newShareService(f)
	user := databasetest.SeedUser(t, f.db, "deleter")
	databasetest.SeedUser(t, f.db, "intruder")

	created, apierr := s.CreateAppointment(&service.AppointmentRequest{
		Title: "Checkup", BeginsAt: "2025-01-10T14:00:00Z", EndsAt: "2025-01-10T15:00:00Z",
	}, user.SubUUID)
	if apierr != nil {
		t.Fatalf("create: %v", apierr)
	}
	appt, _ := f.appts.FindByID(created.ID)
	share, err := shares.CreateShare(appt, nil)
	if err != nil {
		t.Fatalf("share: %v", err)
	}

	if apierr := s.DeleteAppointment(created.ID, "intruder"); apierr == nil || apierr.Code() != http.StatusNotFound {
		t.Fatalf("intruder delete: %v", apierr)
	}
	if apierr := s.DeleteAppointment(created.ID, user.SubUUID); apierr != nil {
		t.Fatalf("delete: %v", apierr)
	}

	if got := len(f.pending(t, created.ID)); got != 0 {
		t.Fatalf("%d notifications survived the delete", got)
	}
	if got, _ := f.shares.FindByID(share.ID); got != nil {
		t.Fatalf("share survived the delete")
	}
}

func TestGetCalendarListsMonth(t *testing.T) {
	f := newFixture(t, mustTime(t, "2025-01-01T00:00:00Z"))
	s := newAppointmentService(f)
	user := databasetest.SeedUser(t, f.db, "calendar")

	jan := mustTime(t, "2025-01-15T10:00:00Z")
	feb := mustTime(t, "2025-02-15T10:00:00Z")
	databasetest.SeedAppointment(t, f.db, user.ID, jan.UnixMilli(), jan.Add(time.Hour).UnixMilli())
	databasetest.SeedAppointment(t, f.db, user.ID, feb.UnixMilli(), feb.Add(time.Hour).UnixMilli())

	start := mustTime(t, "2025-01-01T00:00:00Z").UnixMilli()
	end := mustTime(t, "2025-02-01T00:00:00Z").UnixMilli()
	cal, apierr := s.GetCalendar(start, end, user.SubUUID)
	if apierr != nil {
		t.Fatalf("calendar: %v", apierr)
	}
	if len(cal.ScheduledDays) != 1 || cal.ScheduledDays[0].BeginsAt != "2025-01-15T10:00:00Z" {
		t.Fatalf("unexpected calendar %+v", cal.ScheduledDays)
	}
}
