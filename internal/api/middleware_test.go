package api

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRateLimit_IgnoresForwardedForFromUntrustedPeer(t *testing.T) {
	cfg := testConfig()
	cfg.RateLimit.Requests = 2
	cfg.RateLimit.Window = time.Hour
	ts := setupServer(t, cfg)

	allowed := 0
	for i := 0; i < 10; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/prices/AAPL", nil)
		req.RemoteAddr = "203.0.113.7:40000"
		req.Header.Set("X-Forwarded-For", fmt.Sprintf("198.51.100.%d", i))
		w := httptest.NewRecorder()
		ts.Handler().ServeHTTP(w, req)
		if w.Code == http.StatusOK {
			allowed++
		}
	}

	assert.Equal(t, 2, allowed)
	assert.Len(t, ts.limiter.limiters, 1)
}

func TestRateLimit_TrustedProxyForwardsClientIP(t *testing.T) {
	cfg := testConfig()
	cfg.RateLimit.Requests = 1
	cfg.RateLimit.Window = time.Hour
	cfg.Server.TrustedProxies = []string{"10.0.0.0/8"}
	ts := setupServer(t, cfg)

	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/prices/AAPL", nil)
		req.RemoteAddr = "10.1.2.3:40000"
		req.Header.Set("X-Forwarded-For", fmt.Sprintf("198.51.100.%d", i))
		w := httptest.NewRecorder()
		ts.Handler().ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code, "client %d has its own bucket", i)
	}
}

func TestIPRateLimiter_EvictsIdleBuckets(t *testing.T) {
	now := time.Date(2024, 3, 9, 12, 0, 0, 0, time.UTC)
	l := newIPRateLimiter(5, time.Hour)
	l.now = func() time.Time { return now }

	for i := 0; i < 100; i++ {
		l.get(fmt.Sprintf("198.51.100.%d", i))
	}
	require.Len(t, l.limiters, 100)

	now = now.Add(30 * time.Minute)
	l.get("203.0.113.7")
	assert.Len(t, l.limiters, 101, "nothing is idle for a full window yet")

	now = now.Add(45 * time.Minute)
	l.get("203.0.113.8")
	assert.Len(t, l.limiters, 2, "only the buckets seen within the last window remain")
	assert.Contains(t, l.limiters, "203.0.113.7")
	assert.Contains(t, l.limiters, "203.0.113.8")
}
