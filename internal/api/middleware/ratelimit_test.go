package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Togather-Foundation/agenda/internal/api/problem"
	"github.com/Togather-Foundation/agenda/internal/config"
)

func send(handler http.Handler, method, path, remoteAddr string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	req.RemoteAddr = remoteAddr
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)
	return res
}

func TestLoginRateLimit_BlocksAfterBurst(t *testing.T) {
	handler := RateLimit(config.RateLimitConfig{LoginPerMinute: 5})(okHandler())
	clientIP := "192.168.1.101:54321"

	for i := 0; i < 5; i++ {
		if res := send(handler, http.MethodPost, "/login", clientIP, nil); res.Code != http.StatusOK {
			t.Fatalf("request %d: expected status 200, got %d", i+1, res.Code)
		}
	}

	res := send(handler, http.MethodPost, "/login", clientIP, nil)
	if res.Code != http.StatusTooManyRequests {
		t.Fatalf("expected status 429, got %d", res.Code)
	}
	if got := res.Header().Get("Retry-After"); got != "60" {
		t.Errorf("expected Retry-After 60, got %s", got)
	}

	var body problem.Body
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.Error != problem.TitleTooManyRequests {
		t.Errorf("unexpected error %q", body.Error)
	}
}

func TestLoginRateLimit_SeparateFromPublic(t *testing.T) {
	handler := RateLimit(config.RateLimitConfig{LoginPerMinute: 1, PublicPerMinute: 10})(okHandler())
	clientIP := "192.168.1.110:1000"

	send(handler, http.MethodPost, "/login", clientIP, nil)
	if res := send(handler, http.MethodPost, "/login", clientIP, nil); res.Code != http.StatusTooManyRequests {
		t.Fatalf("expected login tier exhausted, got %d", res.Code)
	}
	if res := send(handler, http.MethodGet, "/events?userId=1", clientIP, nil); res.Code != http.StatusOK {
		t.Fatalf("public tier should be unaffected, got %d", res.Code)
	}
}

func TestLoginRateLimit_PerIPIsolation(t *testing.T) {
	handler := RateLimit(config.RateLimitConfig{LoginPerMinute: 5})(okHandler())

	for i := 0; i < 5; i++ {
		send(handler, http.MethodPost, "/login", "192.168.1.100:12345", nil)
	}

	if res := send(handler, http.MethodPost, "/login", "192.168.1.200:54321", nil); res.Code != http.StatusOK {
		t.Fatalf("different IP should not be rate limited, got status %d", res.Code)
	}
}

func TestRateLimit_ForwardedForFromTrustedProxy(t *testing.T) {
	cfg := config.RateLimitConfig{
		LoginPerMinute:    2,
		TrustedProxyCIDRs: []string{"10.0.0.0/8"},
	}
	handler := RateLimit(cfg)(okHandler())
	client := map[string]string{"X-Forwarded-For": "203.0.113.45"}

	send(handler, http.MethodPost, "/login", "10.0.0.1:12345", client)
	send(handler, http.MethodPost, "/login", "10.0.0.2:12345", client)

	if res := send(handler, http.MethodPost, "/login", "10.0.0.3:12345", client); res.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 for the same forwarded client, got %d", res.Code)
	}
	other := map[string]string{"X-Forwarded-For": "203.0.113.46"}
	if res := send(handler, http.MethodPost, "/login", "10.0.0.1:12345", other); res.Code != http.StatusOK {
		t.Fatalf("expected other forwarded client to pass, got %d", res.Code)
	}
}

func TestRateLimit_DisabledWhenZero(t *testing.T) {
	handler := RateLimit(config.RateLimitConfig{})(okHandler())

	for i := 0; i < 10; i++ {
		if res := send(handler, http.MethodPost, "/login", "192.168.1.100:12345", nil); res.Code != http.StatusOK {
			t.Fatalf("request %d: disabled rate limit should allow all, got status %d", i+1, res.Code)
		}
	}
}

func TestRateLimit_OperationalPathsExempt(t *testing.T) {
	handler := RateLimit(config.RateLimitConfig{PublicPerMinute: 1})(okHandler())

	for _, path := range []string{"/healthz", "/readyz", "/health", "/metrics"} {
		for i := 0; i < 20; i++ {
			if res := send(handler, http.MethodGet, path, "192.168.1.100:12345", nil); res.Code != http.StatusOK {
				t.Fatalf("%s should never be rate limited, got status %d", path, res.Code)
			}
		}
	}
}

func TestTierPublic_RateLimit(t *testing.T) {
	handler := RateLimit(config.RateLimitConfig{PublicPerMinute: 2})(okHandler())
	clientIP := "192.168.1.102:12345"

	for i := 0; i < 2; i++ {
		if res := send(handler, http.MethodGet, "/events/1", clientIP, nil); res.Code != http.StatusOK {
			t.Fatalf("request %d: expected status 200, got %d", i+1, res.Code)
		}
	}
	if res := send(handler, http.MethodGet, "/events/1", clientIP, nil); res.Code != http.StatusTooManyRequests {
		t.Fatalf("expected status 429, got %d", res.Code)
	}
}

func TestClientKey(t *testing.T) {
	trusted := []string{"10.0.0.0/8"}
	tests := []struct {
		name    string
		remote  string
		headers map[string]string
		cidrs   []string
		want    string
	}{
		{name: "first forwarded ip from trusted proxy", remote: "10.0.0.1:12345", headers: map[string]string{"X-Forwarded-For": "203.0.113.45, 198.51.100.1"}, cidrs: trusted, want: "203.0.113.45"},
		{name: "x-real-ip from trusted proxy", remote: "10.0.0.1:12345", headers: map[string]string{"X-Real-IP": "203.0.113.45"}, cidrs: trusted, want: "203.0.113.45"},
		{name: "spoofed header from untrusted peer", remote: "192.168.1.100:12345", headers: map[string]string{"X-Forwarded-For": "203.0.113.45"}, cidrs: trusted, want: "192.168.1.100"},
		{name: "no proxies configured", remote: "10.0.0.1:12345", headers: map[string]string{"X-Forwarded-For": "203.0.113.45"}, want: "10.0.0.1"},
		{name: "remote addr without port", remote: "192.168.1.100", want: "192.168.1.100"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			if got := clientKey(req, tt.cidrs); got != tt.want {
				t.Errorf("clientKey() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestLimiterStore_CleanupDropsIdleEntries(t *testing.T) {
	store := newLimiterStore(config.RateLimitConfig{PublicPerMinute: 10})
	defer store.Stop()

	store.limiter(TierPublic, "1.2.3.4")
	store.cleanup(time.Now().Add(limiterTTL + time.Minute))

	store.mu.Lock()
	defer store.mu.Unlock()
	if len(store.limiters) != 0 {
		t.Fatalf("expected idle limiter removed, %d remain", len(store.limiters))
	}
}

func BenchmarkRateLimit_Allow(b *testing.B) {
	handler := RateLimit(config.RateLimitConfig{PublicPerMinute: 1000})(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/events", nil)
	req.RemoteAddr = "192.168.1.100:12345"

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		handler.ServeHTTP(httptest.NewRecorder(), req)
	}
}
