package paging

import (
	"net/http/httptest"
	"testing"

	"go.mongodb.org/mongo-driver/bson"
)

func TestParse(t *testing.T) {
	tests := []struct {
		url       string
		wantPage  int
		wantLimit int
	}{
		{"/x", 1, DefaultLimit},
		{"/x?page=3&limit=10", 3, 10},
		{"/x?page=0&limit=-5", 1, DefaultLimit},
		{"/x?page=abc", 1, DefaultLimit},
		{"/x?limit=5000", 1, MaxLimit},
	}
	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			p := Parse(httptest.NewRequest("GET", tt.url, nil))
			if p.Page != tt.wantPage || p.Limit != tt.wantLimit {
				t.Errorf("Parse(%s) = %+v, want page=%d limit=%d", tt.url, p, tt.wantPage, tt.wantLimit)
			}
		})
	}
}

func TestSkip(t *testing.T) {
	if got := (Params{Page: 3, Limit: 20}).Skip(); got != 40 {
		t.Errorf("Skip() = %d, want 40", got)
	}
}

func TestNew(t *testing.T) {
	tests := []struct {
		total     int64
		limit     int
		wantPages int64
	}{
		{0, 20, 0},
		{1, 20, 1},
		{20, 20, 1},
		{21, 20, 2},
		{95, 10, 10},
	}
	for _, tt := range tests {
		got := New(Params{Page: 1, Limit: tt.limit}, tt.total)
		if got.Pages != tt.wantPages || got.Total != tt.total {
			t.Errorf("New(total=%d, limit=%d) = %+v, want pages=%d", tt.total, tt.limit, got, tt.wantPages)
		}
	}
}

func TestParseSort(t *testing.T) {
	allowed := map[string]string{"nom": "fullNameCI", "dateEntree": "dateEntree"}
	def := bson.D{{Key: "createdAt", Value: -1}}

	got := ParseSort(httptest.NewRequest("GET", "/x?sort=-dateEntree", nil), allowed, def)
	if len(got) != 2 || got[0].Key != "dateEntree" || got[0].Value != -1 || got[1].Key != "_id" {
		t.Errorf("ParseSort(-dateEntree) = %v", got)
	}

	got = ParseSort(httptest.NewRequest("GET", "/x?sort=nom", nil), allowed, def)
	if got[0].Key != "fullNameCI" || got[0].Value != 1 {
		t.Errorf("ParseSort(nom) = %v", got)
	}

	got = ParseSort(httptest.NewRequest("GET", "/x?sort=password", nil), allowed, def)
	if got[0].Key != "createdAt" {
		t.Errorf("ParseSort(unknown) should use default, got %v", got)
	}
}
