package messagestore_test

import (
	"errors"
	"strings"
	"testing"

	messagestore "github.com/dalemusser/shelterhub/internal/app/store/messages"
	"github.com/dalemusser/shelterhub/internal/app/system/paging"
	"github.com/dalemusser/shelterhub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestStore_SendValidation(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := messagestore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	a := primitive.NewObjectID()
	b := primitive.NewObjectID()
	tests := []struct {
		name    string
		to      primitive.ObjectID
		content string
		want    error
	}{
		{"empty", b, "   ", messagestore.ErrEmptyContent},
		{"too long", b, strings.Repeat("x", messagestore.MaxContentLength+1), messagestore.ErrTooLong},
		{"self", a, "hi", messagestore.ErrSelf},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := store.Send(ctx, a, tt.to, tt.content); !errors.Is(err, tt.want) {
				t.Errorf("got %v, want %v", err, tt.want)
			}
		})
	}
}

func TestStore_ThreadAndRead(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := messagestore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	a := primitive.NewObjectID()
	b := primitive.NewObjectID()
	c := primitive.NewObjectID()

	_, _ = store.Send(ctx, a, b, "salut")
	_, _ = store.Send(ctx, b, a, "bonjour")
	_, _ = store.Send(ctx, a, b, "ça va ?")
	_, _ = store.Send(ctx, c, b, "réunion à 10h")

	msgs, total, err := store.Thread(ctx, b, a, paging.Params{Page: 1, Limit: 2})
	if err != nil {
		t.Fatalf("Thread: %v", err)
	}
	if total != 3 || len(msgs) != 2 {
		t.Fatalf("thread total=%d len=%d, want 3/2", total, len(msgs))
	}
	if msgs[0].Content != "ça va ?" {
		t.Errorf("newest first: got %q", msgs[0].Content)
	}

	if n, _ := store.UnreadCount(ctx, b); n != 3 {
		t.Errorf("UnreadCount(b) = %d, want 3", n)
	}

	convs, err := store.Conversations(ctx, b)
	if err != nil {
		t.Fatalf("Conversations: %v", err)
	}
	if len(convs) != 2 {
		t.Fatalf("conversations = %d, want 2", len(convs))
	}
	if convs[0].Peer != c || convs[0].Unread != 1 {
		t.Errorf("most recent conversation = %+v", convs[0])
	}
	if convs[1].Peer != a || convs[1].Unread != 2 {
		t.Errorf("conversation with a = %+v", convs[1])
	}

	n, err := store.MarkThreadRead(ctx, b, a)
	if err != nil || n != 2 {
		t.Errorf("MarkThreadRead = %d, %v; want 2", n, err)
	}
	if n, _ := store.UnreadCount(ctx, b); n != 1 {
		t.Errorf("UnreadCount after read = %d, want 1", n)
	}
}
