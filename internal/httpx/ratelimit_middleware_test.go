package httpx

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRateLimiter_Middleware(t *testing.T) {
	rl := NewRateLimiter(0.001, 2)
	handler := rl.Middleware(okHandler)

	do := func(addr string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/books/search", nil)
		req.RemoteAddr = addr
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec
	}

	assert.Equal(t, http.StatusOK, do("10.0.0.1:1111").Code)
	assert.Equal(t, http.StatusOK, do("10.0.0.1:2222").Code)

	rec := do("10.0.0.1:3333")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("Retry-After"))
	assert.Contains(t, rec.Body.String(), "RATE_LIMIT_EXCEEDED")

	assert.Equal(t, http.StatusOK, do("10.0.0.2:1111").Code, "buckets are per client")
}

func TestRateLimiter_Evict(t *testing.T) {
	rl := NewRateLimiter(1, 1)
	rl.limiterFor("10.0.0.1")
	rl.limiterFor("10.0.0.2")

	rl.evict(time.Now().Add(10 * time.Minute))
	assert.Empty(t, rl.limiters)
}

func TestClientIP_IgnoresForwardedHeaderWithoutProxy(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.0.2.10:5050"
	assert.Equal(t, "192.0.2.10", ClientIP(req))

	req.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")
	assert.Equal(t, "192.0.2.10", ClientIP(req))
}

func TestRateLimiter_RotatingForwardedHeaderSharesBucket(t *testing.T) {
	rl := NewRateLimiter(0.001, 1)
	handler := Chain(okHandler, TrustedProxyMiddleware(nil), rl.Middleware)

	do := func(xff string) int {
		req := httptest.NewRequest(http.MethodGet, "/books/search", nil)
		req.RemoteAddr = "198.51.100.9:4000"
		req.Header.Set("X-Forwarded-For", xff)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusOK, do("1.1.1.1"))
	assert.Equal(t, http.StatusTooManyRequests, do("2.2.2.2"))
}

func TestTrustedProxyMiddleware(t *testing.T) {
	proxies, err := ParseTrustedProxies([]string{"10.0.0.0/8", " 192.0.2.1 "})
	require.NoError(t, err)

	var seen string
	handler := TrustedProxyMiddleware(proxies)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = ClientIP(r)
	}))

	tests := []struct {
		name   string
		remote string
		xff    string
		want   string
	}{
		{"trusted peer uses nearest untrusted hop", "10.1.2.3:80", "203.0.113.7, 198.51.100.1, 10.0.0.5", "198.51.100.1"},
		{"bare trusted address", "192.0.2.1:80", "203.0.113.7", "203.0.113.7"},
		{"untrusted peer keeps its own address", "198.51.100.9:80", "203.0.113.7", "198.51.100.9"},
		{"garbage hop keeps peer", "10.1.2.3:80", "not-an-ip", "10.1.2.3"},
		{"all hops trusted keeps peer", "10.1.2.3:80", "10.0.0.7", "10.1.2.3"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remote
			req.Header.Set("X-Forwarded-For", tt.xff)
			handler.ServeHTTP(httptest.NewRecorder(), req)
			assert.Equal(t, tt.want, seen)
		})
	}
}

func TestParseTrustedProxies_Invalid(t *testing.T) {
	_, err := ParseTrustedProxies([]string{"10.0.0.0/99"})
	assert.Error(t, err)
	_, err = ParseTrustedProxies([]string{"proxy.local"})
	assert.Error(t, err)
}
