package service_test

import (
	"appointease/cmd/internal/domain/database/databasetest"
	"appointease/cmd/internal/domain/entity"
	"appointease/cmd/internal/service"
	"errors"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"
)

func newShareService(f *fixture) *service.DefaultShareService {
	return service.NewShareService(f.shares, f.appts, f.users, f.validate, f.clock, f.metrics, "http://localhost:3000", 30)
}

func intPtr(v int) *int { return &v }

func TestGenerateShareToken(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 200; i++ {
		token, err := service.GenerateShareToken()
		if err != nil {
			t.Fatalf("generate: %v", err)
		}
		if len(token) != service.ShareTokenLength {
			t.Fatalf("token %q has length %d", token, len(token))
		}
		for _, r := range token {
			if !strings.ContainsRune("ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789", r) {
				t.Fatalf("token %q contains %q", token, r)
			}
		}
		if seen[token] {
			t.Fatalf("duplicate token %q", token)
		}
		seen[token] = true
	}
}

func TestShareValidity(t *testing.T) {
	now := mustTime(t, "2025-01-10T12:00:00Z")
	f := newFixture(t, now)
	s := newShareService(f)
	user := databasetest.SeedUser(t, f.db, "validity")
	appt := databasetest.SeedAppointment(t, f.db, user.ID, now.UnixMilli(), now.UnixMilli())

	forever, err := s.CreateShare(appt, nil)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if forever.ExpiresAt != nil {
		t.Fatalf("share without days must never expire")
	}

	week, err := s.CreateShare(appt, intPtr(7))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if want := now.Add(7 * 24 * time.Hour).UnixMilli(); week.ExpiresAt == nil || *week.ExpiresAt != want {
		t.Fatalf("expires_at = %v, want %d", week.ExpiresAt, want)
	}

	if _, err := s.FindValidShareByToken(week.Token); err != nil {
		t.Fatalf("fresh share should be valid: %v", err)
	}

	f.clock.Set(now.Add(8 * 24 * time.Hour).UnixMilli())
	if _, err := s.FindValidShareByToken(week.Token); !errors.Is(err, service.ErrShareNotFound) {
		t.Fatalf("expired share: expected ErrShareNotFound, got %v", err)
	}
	if _, err := s.FindValidShareByToken(forever.Token); err != nil {
		t.Fatalf("never-expiring share should stay valid: %v", err)
	}
	if _, err := s.FindValidShareByToken("does-not-exist"); !errors.Is(err, service.ErrShareNotFound) {
		t.Fatalf("unknown token: expected ErrShareNotFound, got %v", err)
	}
}

func TestRevokeShare(t *testing.T) {
	now := mustTime(t, "2025-01-10T12:00:00Z")
	f := newFixture(t, now)
	s := newShareService(f)
	user := databasetest.SeedUser(t, f.db, "revoke")
	appt := databasetest.SeedAppointment(t, f.db, user.ID, now.UnixMilli(), now.UnixMilli())

	share, err := s.CreateShare(appt, nil)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := s.TrackView(share); err != nil {
		t.Fatalf("track: %v", err)
	}
	if err := s.RevokeShare(share); err != nil {
		t.Fatalf("revoke: %v", err)
	}

	if _, err := s.FindValidShareByToken(share.Token); !errors.Is(err, service.ErrShareNotFound) {
		t.Fatalf("revoked share: expected ErrShareNotFound, got %v", err)
	}

	kept, err := f.shares.FindByID(share.ID)
	if err != nil || kept == nil {
		t.Fatalf("revoked share row must be retained: %v", err)
	}
	if kept.Views != 1 {
		t.Fatalf("views = %d, want 1", kept.Views)
	}
}

func TestTrackViewConcurrent(t *testing.T) {
	now := mustTime(t, "2025-01-10T12:00:00Z")
	f := newFixture(t, now)
	s := newShareService(f)
	user := databasetest.SeedUser(t, f.db, "views")
	appt := databasetest.SeedAppointment(t, f.db, user.ID, now.UnixMilli(), now.UnixMilli())

	share, err := s.CreateShare(appt, nil)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	const viewers = 50
	var wg sync.WaitGroup
	for i := 0; i < viewers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			copyOf := *share
			if _, err := s.TrackView(&copyOf); err != nil {
				t.Errorf("track: %v", err)
			}
		}()
	}
	wg.Wait()

	got, err := f.shares.FindByID(share.ID)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if got.Views != viewers {
		t.Fatalf("views = %d, want %d", got.Views, viewers)
	}
}

func TestCreateShareRegeneratesCollidingTokens(t *testing.T) {
	now := mustTime(t, "2025-01-10T12:00:00Z")
	f := newFixture(t, now)
	s := newShareService(f)
	user := databasetest.SeedUser(t, f.db, "collide")
	appt := databasetest.SeedAppointment(t, f.db, user.ID, now.UnixMilli(), now.UnixMilli())

	candidates := []string{"AAAA", "AAAA", "AAAA", "BBBB"}
	s.NewToken = func() (string, error) {
		token := candidates[0]
		candidates = candidates[1:]
		return token, nil
	}

	first, err := s.CreateShare(appt, nil)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	second, err := s.CreateShare(appt, nil)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if first.Token != "AAAA" || second.Token != "BBBB" {
		t.Fatalf("tokens = %q, %q", first.Token, second.Token)
	}

	s.NewToken = func() (string, error) { return "AAAA", nil }
	if _, err := s.CreateShare(appt, nil); !errors.Is(err, service.ErrTokenExhausted) {
		t.Fatalf("expected ErrTokenExhausted, got %v", err)
	}
}

func TestCreateShareForUserOwnership(t *testing.T) {
	now := mustTime(t, "2025-01-10T12:00:00Z")
	f := newFixture(t, now)
	s := newShareService(f)
	owner := databasetest.SeedUser(t, f.db, "owner")
	databasetest.SeedUser(t, f.db, "stranger")
	appt := databasetest.SeedAppointment(t, f.db, owner.ID, now.UnixMilli(), now.UnixMilli())

	if _, apierr := s.CreateShareForUser(appt.ID, &service.CreateShareRequest{}, "stranger"); apierr == nil || apierr.Code() != http.StatusForbidden {
		t.Fatalf("stranger must not share: %v", apierr)
	}

	resp, apierr := s.CreateShareForUser(appt.ID, &service.CreateShareRequest{}, "owner")
	if apierr != nil {
		t.Fatalf("create: %v", apierr)
	}
	if resp.ExpiresAt == nil || *resp.ExpiresAt != "2025-02-09T12:00:00Z" {
		t.Fatalf("default expiry = %v", resp.ExpiresAt)
	}
	if resp.URL != "http://localhost:3000/appointments/share/"+resp.Token {
		t.Fatalf("url = %q", resp.URL)
	}

	never, apierr := s.CreateShareForUser(appt.ID, &service.CreateShareRequest{ExpiresInDays: intPtr(0)}, "owner")
	if apierr != nil || never.ExpiresAt != nil {
		t.Fatalf("zero days must never expire: %+v %v", never, apierr)
	}

	if apierr := s.RevokeShareForUser(resp.ID, "stranger"); apierr == nil || apierr.Code() != http.StatusForbidden {
		t.Fatalf("stranger must not revoke: %v", apierr)
	}
	if apierr := s.RevokeShareForUser(resp.ID, "owner"); apierr != nil {
		t.Fatalf("revoke: %v", apierr)
	}

	list, apierr := s.ListSharesForUser(appt.ID, "owner")
	if apierr != nil || len(list) != 2 {
		t.Fatalf("list: %d shares, %v", len(list), apierr)
	}
	if list[0].ID != never.ID || !list[0].Active {
		t.Fatalf("newest share should come first and be active: %+v", list[0])
	}
	if list[1].ID != resp.ID || list[1].Active {
		t.Fatalf("revoked share must be listed as inactive: %+v", list[1])
	}
}

func TestPublicEndpointsRejectInvalidTokens(t *testing.T) {
	now := mustTime(t, "2025-01-10T12:00:00Z")
	f := newFixture(t, now)
	s := newShareService(f)
	user := databasetest.SeedUser(t, f.db, "public")
	appt := databasetest.SeedAppointment(t, f.db, user.ID, now.UnixMilli(), now.Add(time.Hour).UnixMilli())

	share, err := s.CreateShare(appt, intPtr(1))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	view, apierr := s.ViewPublicAppointment(share.Token)
	if apierr != nil {
		t.Fatalf("view: %v", apierr)
	}
	if view.Title != "Dentist" || view.Views != 1 || view.OwnerName != "User public" {
		t.Fatalf("unexpected view %+v", view)
	}

	name, body, apierr := s.ExportICalendar(share.Token)
	if apierr != nil {
		t.Fatalf("ical: %v", apierr)
	}
	if name != "dentist.ics" || !strings.Contains(string(body), "DTSTART:20250110T120000Z") {
		t.Fatalf("unexpected export %s:\n%s", name, body)
	}

	f.clock.Set(now.Add(48 * time.Hour).UnixMilli())
	if _, apierr := s.ViewPublicAppointment(share.Token); apierr == nil || apierr.Code() != http.StatusNotFound {
		t.Fatalf("expired view: %v", apierr)
	}
	if _, apierr := s.GoogleCalendarURL(share.Token); apierr == nil || apierr.Code() != http.StatusNotFound {
		t.Fatalf("expired google link: %v", apierr)
	}
}

func TestCalendarExport(t *testing.T) {
	desc := "Bring x-rays; arrive early"
	loc := "Main St, Suite 4"
	appt := &entity.Appointment{
		Title:       "Dentist",
		Description: &desc,
		Location:    &loc,
		BeginsAt:    mustTime(t, "2025-01-10T14:00:00Z").UnixMilli(),
		EndsAt:      mustTime(t, "2025-01-10T14:00:00Z").UnixMilli(),
		Status:      entity.AppointmentConfirmed,
	}

	ics := unfold(string(service.GenerateICalendar(appt, mustTime(t, "2025-01-01T00:00:00Z").UnixMilli())))
	for _, want := range []string{
		"BEGIN:VCALENDAR\r\n",
		"DTSTART:20250110T140000Z\r\n",
		"DTEND:20250110T150000Z\r\n",
		"DESCRIPTION:Bring x-rays\\; arrive early\r\n",
		"LOCATION:Main St\\, Suite 4\r\n",
		"STATUS:CONFIRMED\r\n",
		"END:VCALENDAR\r\n",
	} {
		if !strings.Contains(ics, want) {
			t.Errorf("calendar is missing %q:\n%s", want, ics)
		}
	}

	link := service.GenerateGoogleCalendarURL(appt)
	if !strings.HasPrefix(link, "https://calendar.google.com/calendar/render?") {
		t.Fatalf("unexpected link %s", link)
	}
	if !strings.Contains(link, "dates=20250110T140000Z%2F20250110T150000Z") {
		t.Fatalf("link has wrong dates: %s", link)
	}
}

func TestCalendarExportFoldsLongLines(t *testing.T) {
	desc := strings.Repeat("Please bring the signed consent form. ", 40)
	appt := &entity.Appointment{
		Title:       "Surgery consultation",
		Description: &desc,
		BeginsAt:    mustTime(t, "2025-01-10T14:00:00Z").UnixMilli(),
		EndsAt:      mustTime(t, "2025-01-10T15:00:00Z").UnixMilli(),
		Status:      entity.AppointmentScheduled,
	}

	raw := string(service.GenerateICalendar(appt, mustTime(t, "2025-01-01T00:00:00Z").UnixMilli()))
	for _, line := range strings.Split(strings.TrimSuffix(raw, "\r\n"), "\r\n") {
		if len(line) > 75 {
			t.Fatalf("content line is %d octets: %q", len(line), line)
		}
	}
	if !strings.Contains(unfold(raw), "DESCRIPTION:"+strings.TrimSpace(desc)) {
		t.Fatalf("description does not survive unfolding:\n%s", raw)
	}
	if !strings.Contains(raw, "STATUS:TENTATIVE\r\n") {
		t.Fatalf("scheduled appointments export as tentative:\n%s", raw)
	}
}

// unfold joins folded iCalendar content lines.
func unfold(s string) string {
	return strings.ReplaceAll(s, "\r\n ", "")
}
