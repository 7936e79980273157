package bootstrap

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/dalemusser/shelterhub/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func TestMountUploads_DocumentsNeedToken(t *testing.T) {
	dir := t.TempDir()
	for _, rel := range []string{"news/2026/03/affiche.txt", "documents/2026/03/cin.txt", "photos/2026/03/portrait.txt"} {
		p := filepath.Join(dir, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte("contenu"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	tokens, err := auth.NewManager(devJWTSecret, time.Hour, zap.NewNop())
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	tok, _, _ := tokens.IssueToken(auth.SessionUser{ID: "u1", Role: "staff"})

	r := chi.NewRouter()
	mountUploads(r, "/uploads", dir, tokens)

	tests := []struct {
		name       string
		target     string
		wantStatus int
	}{
		{"news is public", "/uploads/news/2026/03/affiche.txt", http.StatusOK},
		{"document without token", "/uploads/documents/2026/03/cin.txt", http.StatusUnauthorized},
		{"photo without token", "/uploads/photos/2026/03/portrait.txt", http.StatusUnauthorized},
		{"document with token", "/uploads/documents/2026/03/cin.txt?token=" + tok, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, httptest.NewRequest("GET", tt.target, nil))
			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
		})
	}
}
