package service_test

import (
	"appointease/cmd/internal/domain/database/databasetest"
	"appointease/cmd/internal/service"
	"net/http"
	"testing"
	"time"
)

func TestCategoryLifecycle(t *testing.T) {
	f := newFixture(t, mustTime(t, "2025-01-10T08:00:00Z"))
	s := service.NewCategoryService(f.categories, f.users, f.validate)
	user := databasetest.SeedUser(t, f.db, "categories")
	databasetest.SeedUser(t, f.db, "neighbour")

	color := "#4f46e5"
	created, apierr := s.CreateCategory(&service.CategoryRequest{Name: " Health ", Color: &color}, user.SubUUID)
	if apierr != nil {
		t.Fatalf("create: %v", apierr)
	}
	if created.Name != "Health" {
		t.Fatalf("name = %q", created.Name)
	}

	bad := "blue-ish"
	if _, apierr := s.CreateCategory(&service.CategoryRequest{Name: "Work", Color: &bad}, user.SubUUID); apierr == nil {
		t.Fatalf("expected invalid color to be rejected")
	}

	start := mustTime(t, "2025-01-12T10:00:00Z")
	appt := databasetest.SeedAppointment(t, f.db, user.ID, start.UnixMilli(), start.Add(time.Hour).UnixMilli())
	appt.CategoryID = &created.ID
	if err := f.appts.Save(appt); err != nil {
		t.Fatalf("save: %v", err)
	}

	if apierr := s.DeleteCategory(created.ID, "neighbour"); apierr == nil || apierr.Code() != http.StatusNotFound {
		t.Fatalf("neighbour delete: %v", apierr)
	}
	if apierr := s.DeleteCategory(created.ID, user.SubUUID); apierr != nil {
		t.Fatalf("delete: %v", apierr)
	}

	reloaded, err := f.appts.FindByID(appt.ID)
	if err != nil || reloaded == nil {
		t.Fatalf("appointment must survive category delete: %v", err)
	}
	if reloaded.CategoryID != nil {
		t.Fatalf("appointment still points to deleted category %d", *reloaded.CategoryID)
	}

	list, apierr := s.GetCategories(user.SubUUID)
	if apierr != nil || len(list) != 0 {
		t.Fatalf("list: %d categories, %v", len(list), apierr)
	}
}
