package messages_test

import (
	"net/http"
	"testing"

	"github.com/dalemusser/shelterhub/internal/app/features/messages"
	"github.com/dalemusser/shelterhub/internal/domain/models"
	"github.com/dalemusser/shelterhub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

func TestSendThreadRead(t *testing.T) {
	db := testutil.SetupTestDB(t)
	h := messages.NewHandler(db, nil, zap.NewNop())
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	alice := testutil.AsTestUser(fixtures.CreateUser(ctx, "Alice", "Martin", "alice@test.com", models.RoleStaff))
	bob := testutil.AsTestUser(fixtures.CreateUser(ctx, "Bob", "Karimi", "bob@test.com", models.RoleMedical))

	send := func(from testutil.TestUser, body map[string]any) *testutil.ResponseRecorder {
		rec := testutil.NewRecorder()
		h.Send(rec, testutil.NewJSONRequest(t, "POST", "/api/messages", body, from))
		return rec
	}
	send(alice, map[string]any{"to": bob.ID, "content": "Salut"}).AssertStatus(t, http.StatusCreated)
	send(alice, map[string]any{"to": bob.ID, "content": "Tu es dispo ?"}).AssertStatus(t, http.StatusCreated)
	send(bob, map[string]any{"to": alice.ID, "content": "Oui"}).AssertStatus(t, http.StatusCreated)

	send(alice, map[string]any{"to": alice.ID, "content": "moi"}).AssertStatus(t, http.StatusBadRequest)
	send(alice, map[string]any{"to": bob.ID, "content": "  "}).AssertStatus(t, http.StatusBadRequest)
	send(alice, map[string]any{"to": primitive.NewObjectID().Hex(), "content": "x"}).AssertStatus(t, http.StatusNotFound)

	rec := testutil.NewRecorder()
	h.Unread(rec, testutil.NewAuthenticatedRequest("GET", "/api/messages/unread", bob))
	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, `"count":2`)

	rec = testutil.NewRecorder()
	h.Conversations(rec, testutil.NewAuthenticatedRequest("GET", "/api/messages/conversations", bob))
	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, `"peerName":"Alice Martin"`)
	rec.AssertContains(t, `"unread":2`)
	rec.AssertContains(t, `"online":false`)

	rec = testutil.NewRecorder()
	req := testutil.NewAuthenticatedRequest("GET", "/api/messages/thread/x?limit=2", bob)
	h.Thread(rec, testutil.WithChiURLParam(req, "userId", alice.ID))
	rec.AssertStatus(t, http.StatusOK)
	var msgs []models.Message
	env := rec.Decode(t, &msgs)
	if env.Pagination.Total != 3 || len(msgs) != 2 || msgs[0].Content != "Oui" {
		t.Errorf("thread = %+v (total %d)", msgs, env.Pagination.Total)
	}

	rec = testutil.NewRecorder()
	req = testutil.NewAuthenticatedRequest("PUT", "/api/messages/thread/x/read", bob)
	h.MarkRead(rec, testutil.WithChiURLParam(req, "userId", alice.ID))
	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, `"updated":2`)

	rec = testutil.NewRecorder()
	h.Unread(rec, testutil.NewAuthenticatedRequest("GET", "/api/messages/unread", bob))
	rec.AssertContains(t, `"count":0`)
}
