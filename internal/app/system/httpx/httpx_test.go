package httpx_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dalemusser/shelterhub/internal/app/system/httpx"
	"github.com/dalemusser/shelterhub/internal/app/system/paging"
	"github.com/dalemusser/shelterhub/internal/testutil"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("bad JSON %q: %v", rec.Body.String(), err)
	}
	return out
}

func TestList_EmptySliceIsArray(t *testing.T) {
	rec := httptest.NewRecorder()
	var rows []string
	httpx.List(rec, rows, paging.New(paging.Params{Page: 1, Limit: 20}, 0))

	body := decode(t, rec)
	if body["success"] != true {
		t.Errorf("success = %v", body["success"])
	}
	if arr, ok := body["data"].([]any); !ok || len(arr) != 0 {
		t.Errorf("data = %#v, want []", body["data"])
	}
	if _, ok := body["pagination"].(map[string]any); !ok {
		t.Error("missing pagination")
	}
}

func TestError_Envelope(t *testing.T) {
	rec := httptest.NewRecorder()
	httpx.NotFound(rec, "Bénéficiaire introuvable")

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d", rec.Code)
	}
	body := decode(t, rec)
	if body["success"] != false || body["message"] != "Bénéficiaire introuvable" {
		t.Errorf("body = %v", body)
	}
}

func TestStoreError(t *testing.T) {
	req := httptest.NewRequest("GET", "/x", nil)

	rec := httptest.NewRecorder()
	httpx.StoreError(rec, req, zap.NewNop(), mongo.ErrNoDocuments, "gone")
	if rec.Code != http.StatusNotFound {
		t.Errorf("ErrNoDocuments: status = %d, want 404", rec.Code)
	}

	rec = httptest.NewRecorder()
	httpx.StoreError(rec, req, zap.NewNop(), errors.New("boom"), "gone")
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("other: status = %d, want 500", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "boom") {
		t.Error("internal error text leaked to client")
	}
}

func TestBind(t *testing.T) {
	type in struct {
		Nom string `json:"nom" validate:"required" label:"Nom"`
	}

	t.Run("valid", func(t *testing.T) {
		var v in
		rec := httptest.NewRecorder()
		req := httptest.NewRequest("POST", "/x", strings.NewReader(`{"nom":"Karim"}`))
		if !httpx.Bind(rec, req, &v) || v.Nom != "Karim" {
			t.Fatalf("Bind failed: %s", rec.Body.String())
		}
	})

	t.Run("bad json", func(t *testing.T) {
		var v in
		rec := httptest.NewRecorder()
		req := httptest.NewRequest("POST", "/x", strings.NewReader(`{`))
		if httpx.Bind(rec, req, &v) {
			t.Fatal("expected failure")
		}
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d", rec.Code)
		}
	})

	t.Run("validation", func(t *testing.T) {
		var v in
		rec := httptest.NewRecorder()
		req := httptest.NewRequest("POST", "/x", strings.NewReader(`{}`))
		if httpx.Bind(rec, req, &v) {
			t.Fatal("expected failure")
		}
		body := decode(t, rec)
		errs, _ := body["errors"].(map[string]any)
		if errs["nom"] != "Nom is required." {
			t.Errorf("errors = %v", body["errors"])
		}
	})
}

func TestIDParam(t *testing.T) {
	rec := httptest.NewRecorder()
	req := testutil.WithChiURLParam(httptest.NewRequest("GET", "/x", nil), "id", "nope")
	if _, ok := httpx.IDParam(rec, req, "id"); ok {
		t.Fatal("expected invalid id")
	}
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	req = testutil.WithChiURLParam(httptest.NewRequest("GET", "/x", nil), "id", "507f1f77bcf86cd799439011")
	if id, ok := httpx.IDParam(rec, req, "id"); !ok || id.Hex() != "507f1f77bcf86cd799439011" {
		t.Errorf("IDParam = %v, %v", id, ok)
	}
}
