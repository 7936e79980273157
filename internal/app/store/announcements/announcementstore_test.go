package announcementstore_test

import (
	"testing"
	"time"

	announcementstore "github.com/dalemusser/shelterhub/internal/app/store/announcements"
	"github.com/dalemusser/shelterhub/internal/app/system/paging"
	"github.com/dalemusser/shelterhub/internal/domain/models"
	"github.com/dalemusser/shelterhub/internal/testutil"
)

func TestStore_CreateDefaults(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := announcementstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	a, err := store.Create(ctx, models.Announcement{Title: "Réunion", Content: "<p>Lundi</p>", Active: true})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if a.Priority != models.PriorityInfo {
		t.Errorf("priority = %q, want info", a.Priority)
	}
	if a.Audience == nil {
		t.Error("audience should be an empty slice, not nil")
	}

	got, err := store.GetByID(ctx, a.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Title != "Réunion" {
		t.Errorf("title = %q", got.Title)
	}
}

func TestStore_Toggle(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := announcementstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	a, _ := store.Create(ctx, models.Announcement{Title: "A", Active: true})

	active, err := store.Toggle(ctx, a.ID)
	if err != nil {
		t.Fatalf("Toggle: %v", err)
	}
	if active {
		t.Error("expected inactive after first toggle")
	}
	active, _ = store.Toggle(ctx, a.ID)
	if !active {
		t.Error("expected active after second toggle")
	}
}

func TestStore_ActiveFor(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := announcementstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	now := time.Now().UTC()
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	mk := func(title, prio string, active bool, audience []string, starts, ends *time.Time) {
		t.Helper()
		if _, err := store.Create(ctx, models.Announcement{
			Title: title, Priority: prio, Active: active, Audience: audience, StartsAt: starts, EndsAt: ends,
		}); err != nil {
			t.Fatalf("Create %s: %v", title, err)
		}
	}
	mk("everyone", models.PriorityInfo, true, nil, nil, nil)
	mk("medical-only", models.PriorityImportant, true, []string{models.RoleMedical}, nil, nil)
	mk("urgent", models.PriorityUrgent, true, nil, &past, &future)
	mk("inactive", models.PriorityUrgent, false, nil, nil, nil)
	mk("not-started", models.PriorityInfo, true, nil, &future, nil)
	mk("ended", models.PriorityInfo, true, nil, nil, &past)

	got, err := store.ActiveFor(ctx, models.RoleStaff, now)
	if err != nil {
		t.Fatalf("ActiveFor: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("staff sees %d announcements, want 2", len(got))
	}
	if got[0].Title != "urgent" {
		t.Errorf("first = %q, want urgent first", got[0].Title)
	}

	got, _ = store.ActiveFor(ctx, models.RoleMedical, now)
	if len(got) != 3 {
		t.Errorf("medical sees %d announcements, want 3", len(got))
	}
}

func TestStore_UpdateDeleteList(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := announcementstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	a, _ := store.Create(ctx, models.Announcement{Title: "Old"})
	_, _ = store.Create(ctx, models.Announcement{Title: "Other"})

	if err := store.Update(ctx, a.ID, models.Announcement{Title: "New", Priority: models.PriorityUrgent, Active: true}); err != nil {
		t.Fatalf("Update: %v", err)
	}
	got, _ := store.GetByID(ctx, a.ID)
	if got.Title != "New" || got.Priority != models.PriorityUrgent || !got.Active {
		t.Errorf("after update = %+v", got)
	}

	list, total, err := store.List(ctx, paging.Params{Page: 1, Limit: 1})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if total != 2 || len(list) != 1 {
		t.Errorf("List total=%d len=%d, want 2/1", total, len(list))
	}

	n, err := store.Delete(ctx, a.ID)
	if err != nil || n != 1 {
		t.Errorf("Delete = %d, %v", n, err)
	}
}
