package rpc

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestRateLimiterAllowsBurstThenRefills(t *testing.T) {
	limiter := NewRateLimiter(RateLimitConfig{RatePerSecond: 1, Burst: 2})
	now := time.Unix(1_700_000_000, 0)
	limiter.clockNow = func() time.Time { return now }

	if !limiter.Allow("a") || !limiter.Allow("a") {
		t.Fatalf("expected burst of two to pass")
	}
	if limiter.Allow("a") {
		t.Fatalf("expected third request to be throttled")
	}
	if !limiter.Allow("b") {
		t.Fatalf("expected independent bucket for another client")
	}
	now = now.Add(time.Second)
	if !limiter.Allow("a") {
		t.Fatalf("expected refill after one second")
	}
}

func TestRateLimiterEvictsIdleVisitors(t *testing.T) {
	limiter := NewRateLimiter(RateLimitConfig{RatePerSecond: 1, Burst: 1, VisitorTTL: time.Minute})
	now := time.Unix(1_700_000_000, 0)
	limiter.clockNow = func() time.Time { return now }
	limiter.Allow("a")
	now = now.Add(2 * time.Minute)
	limiter.Allow("b")
	if _, ok := limiter.visitors["a"]; ok {
		t.Fatalf("expected idle visitor to be evicted")
	}
}

func TestRateLimiterSweepsAtMostOncePerTTL(t *testing.T) {
	limiter := NewRateLimiter(RateLimitConfig{RatePerSecond: 1, Burst: 1, VisitorTTL: time.Minute})
	start := time.Unix(1_700_000_000, 0)
	now := start
	limiter.clockNow = func() time.Time { return now }
	limiter.Allow("a")
	limiter.visitors["stale"] = &rateEntry{lastSeen: start.Add(-time.Hour)}

	now = start.Add(10 * time.Second)
	limiter.Allow("b")
	if _, ok := limiter.visitors["stale"]; !ok {
		t.Fatalf("sweep ran before the interval elapsed")
	}
	now = start.Add(61 * time.Second)
	limiter.Allow("b")
	if _, ok := limiter.visitors["stale"]; ok {
		t.Fatalf("expected stale visitor to be swept")
	}
	if _, ok := limiter.visitors["b"]; !ok {
		t.Fatalf("active visitor evicted")
	}
}

func TestRateLimiterMiddlewareRejects(t *testing.T) {
	limiter := NewRateLimiter(RateLimitConfig{RatePerSecond: 1, Burst: 1})
	limiter.clockNow = func() time.Time { return time.Unix(1_700_000_000, 0) }
	handler := limiter.Middleware(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	for i, want := range []int{http.StatusNoContent, http.StatusTooManyRequests} {
		req := httptest.NewRequest(http.MethodPost, "/", nil)
		req.RemoteAddr = "198.51.100.7:1234"
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != want {
			t.Fatalf("request %d: expected %d, got %d", i, want, rec.Code)
		}
	}
}

func TestClientIDPrefersRealIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.RemoteAddr = "10.0.0.5:1234"
	if got := clientID(req); got != "10.0.0.5" {
		t.Fatalf("expected remote host, got %q", got)
	}
	req.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
	if got := clientID(req); got != "203.0.113.9" {
		t.Fatalf("expected forwarded client, got %q", got)
	}
	req.Header.Set("X-Real-IP", "203.0.113.20")
	if got := clientID(req); got != "203.0.113.20" {
		t.Fatalf("expected real ip, got %q", got)
	}
}

func TestExtractBearer(t *testing.T) {
	cases := map[string]string{
		"Bearer abc":  "abc",
		"bearer  xyz": "xyz",
		"Basic abc":   "",
		"Bearer":      "",
	}
	for header, want := range cases {
		if got := extractBearer(header); got != want {
			t.Fatalf("extractBearer(%q) = %q, want %q", header, got, want)
		}
	}
}
