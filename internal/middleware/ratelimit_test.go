package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func fakeClock(rl *RateLimiter, start time.Time) *time.Time {
	now := start
	rl.now = func() time.Time { return now }
	return &now
}

func TestRateLimiterAllow(t *testing.T) {
	rl := NewRateLimiter(3, time.Minute)
	now := fakeClock(rl, time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC))

	for i := range 3 {
		if ok, _ := rl.Allow("10.0.0.1"); !ok {
			t.Fatalf("request %d should be allowed", i+1)
		}
	}
	ok, wait := rl.Allow("10.0.0.1")
	if ok {
		t.Fatal("4th request should be denied")
	}
	if wait != time.Minute {
		t.Errorf("wait = %v, want %v", wait, time.Minute)
	}
	if ok, _ := rl.Allow("10.0.0.2"); !ok {
		t.Error("other key should be allowed")
	}

	*now = now.Add(time.Minute)
	if ok, _ := rl.Allow("10.0.0.1"); !ok {
		t.Error("should be allowed after the window resets")
	}
}

func TestRateLimiterSweep(t *testing.T) {
	rl := NewRateLimiter(5, time.Minute)
	now := fakeClock(rl, time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC))

	rl.Allow("old")
	*now = now.Add(2 * time.Minute)
	rl.Allow("fresh")
	rl.Sweep()

	rl.mu.Lock()
	defer rl.mu.Unlock()
	if _, ok := rl.windows["old"]; ok {
		t.Error("expired window should have been swept")
	}
	if _, ok := rl.windows["fresh"]; !ok {
		t.Error("live window should remain")
	}
}

func TestRateLimitMiddleware(t *testing.T) {
	rl := NewRateLimiter(2, time.Minute)
	handler := RateLimit(rl)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	send := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/cron/weekly_poll", nil)
		req.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec
	}

	for i := range 2 {
		if rec := send(); rec.Code != http.StatusOK {
			t.Errorf("request %d: status = %d, want %d", i+1, rec.Code, http.StatusOK)
		}
	}
	rec := send()
	if rec.Code != http.StatusTooManyRequests {
		t.Errorf("3rd request: status = %d, want %d", rec.Code, http.StatusTooManyRequests)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Error("Retry-After header missing")
	}
}

func TestRealIP(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		remote  string
		want    string
	}{
		{"real ip", map[string]string{"X-Real-IP": "198.51.100.4"}, "10.0.0.1:5000", "198.51.100.4"},
		{"forwarded", map[string]string{"X-Forwarded-For": "203.0.113.9, 10.0.0.1"}, "10.0.0.1:5000", "203.0.113.9"},
		{"remote addr", nil, "192.0.2.7:41000", "192.0.2.7"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			if got := RealIP(req); got != tt.want {
				t.Errorf("RealIP = %q, want %q", got, tt.want)
			}
		})
	}
}
