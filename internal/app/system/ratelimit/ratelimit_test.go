package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestLimiter_AllowAndReset(t *testing.T) {
	l := New(2, time.Minute)
	defer l.Stop()

	if !l.Allow("a") || !l.Allow("a") {
		t.Fatal("first two hits should pass")
	}
	if l.Allow("a") {
		t.Fatal("third hit should be limited")
	}
	if !l.Allow("b") {
		t.Fatal("other keys are independent")
	}
	if got := l.Remaining("a"); got != 0 {
		t.Errorf("Remaining = %d, want 0", got)
	}
	l.Reset("a")
	if !l.Allow("a") {
		t.Error("hit after Reset should pass")
	}
}

func TestLimiter_WindowExpires(t *testing.T) {
	l := New(1, time.Minute)
	defer l.Stop()

	now := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }

	l.Allow("k")
	if l.Allow("k") {
		t.Fatal("second hit in window should be limited")
	}
	if ra := l.RetryAfter("k"); ra != time.Minute {
		t.Errorf("RetryAfter = %v, want 1m", ra)
	}
	now = now.Add(61 * time.Second)
	if !l.Allow("k") {
		t.Error("hit in a new window should pass")
	}
}

func TestMiddleware(t *testing.T) {
	l := New(1, time.Minute)
	defer l.Stop()

	h := l.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	for i, want := range []int{http.StatusOK, http.StatusTooManyRequests} {
		req := httptest.NewRequest("GET", "/", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if rec.Code != want {
			t.Fatalf("request %d: status = %d, want %d", i, rec.Code, want)
		}
		if want == http.StatusTooManyRequests && rec.Header().Get("Retry-After") == "" {
			t.Error("expected Retry-After header")
		}
	}
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name   string
		xff    string
		xri    string
		remote string
		want   string
	}{
		{"forwarded first hop", "1.2.3.4, 5.6.7.8", "", "9.9.9.9:1", "1.2.3.4"},
		{"real ip", "", " 2.2.2.2 ", "9.9.9.9:1", "2.2.2.2"},
		{"remote with port", "", "", "9.9.9.9:1", "9.9.9.9"},
		{"remote without port", "", "", "9.9.9.9", "9.9.9.9"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/", nil)
			req.RemoteAddr = tt.remote
			if tt.xff != "" {
				req.Header.Set("X-Forwarded-For", tt.xff)
			}
			if tt.xri != "" {
				req.Header.Set("X-Real-IP", tt.xri)
			}
			if got := ClientIP(req); got != tt.want {
				t.Errorf("ClientIP = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestLoginLimiter_PerEmail(t *testing.T) {
	ll := NewLoginLimiterWithConfig(100, time.Minute, 2, time.Minute)
	defer ll.Stop()

	req := httptest.NewRequest("POST", "/api/auth/login", nil)
	for i := 0; i < 2; i++ {
		if ok, _ := ll.Check(req, "Sara@Example.org"); !ok {
			t.Fatalf("attempt %d should pass", i)
		}
	}
	if ok, reason := ll.Check(req, " sara@example.org "); ok || reason == "" {
		t.Fatal("third attempt for same email (any case) should be blocked")
	}
	ll.ResetEmail("SARA@example.org")
	if ok, _ := ll.Check(req, "sara@example.org"); !ok {
		t.Error("attempt after ResetEmail should pass")
	}
}

func TestLoginLimiter_PerIP(t *testing.T) {
	ll := NewLoginLimiterWithConfig(1, time.Minute, 100, time.Minute)
	defer ll.Stop()

	req := httptest.NewRequest("POST", "/api/auth/login", nil)
	ll.Check(req, "a@x.org")
	if ok, _ := ll.Check(req, "b@x.org"); ok {
		t.Error("second attempt from same IP should be blocked")
	}
}
