package ratelimit_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/mta-community/mtahub/internal/app/system/ratelimit"
)

func TestLimiter_AllowsBurstThenBlocks(t *testing.T) {
	l := ratelimit.New(3, time.Hour)
	defer l.Stop()

	for i := 0; i < 3; i++ {
		if !l.Allow("1.2.3.4") {
			t.Fatalf("request %d should be allowed", i+1)
		}
	}
	if l.Allow("1.2.3.4") {
		t.Error("4th request should be blocked")
	}
	if !l.Allow("5.6.7.8") {
		t.Error("other key should have its own bucket")
	}

	l.Reset("1.2.3.4")
	if !l.Allow("1.2.3.4") {
		t.Error("request after Reset should be allowed")
	}
}

func TestMiddleware_Returns429(t *testing.T) {
	l := ratelimit.New(1, time.Hour)
	defer l.Stop()
	h := l.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	}))

	req := httptest.NewRequest("POST", "/api/register", nil)
	req.RemoteAddr = "10.0.0.1:5555"

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("first request: got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusTooManyRequests {
		t.Errorf("second request: got %d, want 429", rec.Code)
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
		{"forwarded", "203.0.113.9, 10.0.0.1", "", "10.0.0.1:80", "203.0.113.9"},
		{"real ip", "", "198.51.100.7", "10.0.0.1:80", "198.51.100.7"},
		{"remote with port", "", "", "192.0.2.1:1234", "192.0.2.1"},
		{"remote without port", "", "", "192.0.2.1", "192.0.2.1"},
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
			if got := ratelimit.ClientIP(req); got != tt.want {
				t.Errorf("ClientIP() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestLoginLimiter_AccountLimit(t *testing.T) {
	ll := ratelimit.NewLoginLimiter()
	defer ll.Stop()

	for i := 0; i < 5; i++ {
		req := httptest.NewRequest("POST", "/login", nil)
		req.RemoteAddr = "192.0.2.10:1"
		if ok, _ := ll.Check(req, "Admin@Example.com"); !ok {
			t.Fatalf("attempt %d should be allowed", i+1)
		}
	}
	req := httptest.NewRequest("POST", "/login", nil)
	req.RemoteAddr = "192.0.2.11:1"
	ok, reason := ll.Check(req, "admin@example.com")
	if ok || reason == "" {
		t.Fatal("6th attempt on the same account should be blocked with a reason")
	}

	ll.ResetAccount("admin@example.com")
	if ok, _ := ll.Check(req, "admin@example.com"); !ok {
		t.Error("attempt after ResetAccount should be allowed")
	}
}
