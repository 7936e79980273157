package ticketstore_test

import (
	"testing"

	ticketstore "github.com/dalemusser/shelterhub/internal/app/store/tickets"
	"github.com/dalemusser/shelterhub/internal/app/system/paging"
	"github.com/dalemusser/shelterhub/internal/domain/models"
	"github.com/dalemusser/shelterhub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestStore_Lifecycle(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := ticketstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	author := primitive.NewObjectID()
	tech := primitive.NewObjectID()

	tk, err := store.Create(ctx, models.Ticket{Title: "Fuite douche", Category: "maintenance", CreatedBy: author})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if tk.Status != models.TicketOuvert || tk.Priority != "moyenne" {
		t.Errorf("created = %+v", tk)
	}

	got, err := store.Assign(ctx, tk.ID, &tech)
	if err != nil || got.AssignedTo == nil || *got.AssignedTo != tech {
		t.Fatalf("Assign: %+v, %v", got, err)
	}

	got, err = store.SetStatus(ctx, tk.ID, models.TicketResolu)
	if err != nil {
		t.Fatalf("SetStatus: %v", err)
	}
	if got.ResolvedAt == nil {
		t.Error("resolvedAt not set when resolved")
	}
	got, _ = store.SetStatus(ctx, tk.ID, models.TicketOuvert)
	if got.ResolvedAt != nil {
		t.Error("resolvedAt kept after reopening")
	}

	c, err := store.AddComment(ctx, tk.ID, tech, " Joint changé ")
	if err != nil {
		t.Fatalf("AddComment: %v", err)
	}
	if c.Content != "Joint changé" {
		t.Errorf("comment = %q", c.Content)
	}
	full, _ := store.GetByID(ctx, tk.ID)
	if len(full.Comments) != 1 {
		t.Errorf("comments = %d, want 1", len(full.Comments))
	}

	if _, err := store.AddComment(ctx, primitive.NewObjectID(), tech, "x"); err == nil {
		t.Error("expected error commenting on a missing ticket")
	}
}

func TestStore_ListFilters(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := ticketstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	me := primitive.NewObjectID()
	other := primitive.NewObjectID()
	_, _ = store.Create(ctx, models.Ticket{Title: "A", Category: "informatique", Priority: "haute", CreatedBy: me})
	b, _ := store.Create(ctx, models.Ticket{Title: "B", Category: "logistique", CreatedBy: other})
	_, _ = store.Assign(ctx, b.ID, &me)
	c, _ := store.Create(ctx, models.Ticket{Title: "C", Category: "logistique", CreatedBy: other})
	_, _ = store.SetStatus(ctx, c.ID, models.TicketFerme)

	p := paging.Params{Page: 1, Limit: 20}
	tests := []struct {
		name string
		f    ticketstore.ListFilter
		want int64
	}{
		{"all", ticketstore.ListFilter{}, 3},
		{"mine", ticketstore.ListFilter{Mine: &me}, 2},
		{"status", ticketstore.ListFilter{Status: models.TicketFerme}, 1},
		{"category", ticketstore.ListFilter{Category: "logistique"}, 2},
		{"priority", ticketstore.ListFilter{Priority: "haute"}, 1},
		{"assigned", ticketstore.ListFilter{AssignedTo: &me}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, total, err := store.List(ctx, tt.f, p)
			if err != nil {
				t.Fatalf("List: %v", err)
			}
			if total != tt.want {
				t.Errorf("total = %d, want %d", total, tt.want)
			}
		})
	}

	if n, _ := store.CountOpen(ctx); n != 2 {
		t.Errorf("CountOpen = %d, want 2", n)
	}
}
