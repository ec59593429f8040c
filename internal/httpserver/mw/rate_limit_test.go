package mw

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestRateLimit(t *testing.T) {
	h := RateLimit(RateLimitConfig{Burst: 2, RefillPerIPPerMin: 1})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	call := func(remote string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/board/columns", nil)
		req.RemoteAddr = remote
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	for i := 0; i < 2; i++ {
		if rec := call("10.0.0.1:1234"); rec.Code != http.StatusNoContent {
			t.Fatalf("request %d: status = %d, want %d", i, rec.Code, http.StatusNoContent)
		}
	}

	rec := call("10.0.0.1:1234")
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusTooManyRequests)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Error("Retry-After header missing")
	}

	// Other clients have their own bucket
	if rec := call("10.0.0.2:1234"); rec.Code != http.StatusNoContent {
		t.Errorf("other client status = %d, want %d", rec.Code, http.StatusNoContent)
	}
}

func TestLimiterSweepsIdleVisitors(t *testing.T) {
	l := newLimiter(RateLimitConfig{Burst: 1, IdleTTL: time.Minute, SweepInterval: time.Second})
	now := time.Now()

	l.allow("a", now)
	l.allow("b", now.Add(2*time.Minute))

	if _, ok := l.visitors["a"]; ok {
		t.Error("idle visitor was not swept")
	}
	if _, ok := l.visitors["b"]; !ok {
		t.Error("active visitor was swept")
	}
}
