package api

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestRateLimiter_AllowsWithinBurst(t *testing.T) {
	rl := newRateLimiter(1, 3)

	for i := 0; i < 3; i++ {
		if !rl.allow("10.0.0.1") {
			t.Fatalf("request %d denied within burst", i+1)
		}
	}
	if rl.allow("10.0.0.1") {
		t.Error("request beyond burst allowed")
	}
}

func TestRateLimiter_PerIP(t *testing.T) {
	rl := newRateLimiter(1, 1)

	if !rl.allow("10.0.0.1") {
		t.Fatal("first ip denied")
	}
	if rl.allow("10.0.0.1") {
		t.Error("first ip not limited after burst")
	}
	if !rl.allow("10.0.0.2") {
		t.Error("second ip limited by first ip's bucket")
	}
}

func TestRateLimitMiddleware(t *testing.T) {
	rl := newRateLimiter(0.001, 1)
	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	h := rateLimitMiddleware(rl, false, testLogger())(next)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/documents", nil)
	req.RemoteAddr = "10.0.0.1:54321"

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("first request status = %d, want %d", rec.Code, http.StatusOK)
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("second request status = %d, want %d", rec.Code, http.StatusTooManyRequests)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Error("missing Retry-After header")
	}
	assertErrorCode(t, rec, "rate_limited")
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name       string
		remoteAddr string
		xRealIP    string
		xff        string
		trustProxy bool
		want       string
	}{
		{
			name:       "remote addr only",
			remoteAddr: "192.168.1.5:43210",
			want:       "192.168.1.5",
		},
		{
			name:       "proxy headers ignored without trust",
			remoteAddr: "192.168.1.5:43210",
			xRealIP:    "1.2.3.4",
			want:       "192.168.1.5",
		},
		{
			name:       "x-real-ip trusted",
			remoteAddr: "192.168.1.5:43210",
			xRealIP:    "1.2.3.4",
			trustProxy: true,
			want:       "1.2.3.4",
		},
		{
			name:       "first forwarded-for entry",
			remoteAddr: "192.168.1.5:43210",
			xff:        "5.6.7.8, 9.10.11.12",
			trustProxy: true,
			want:       "5.6.7.8",
		},
		{
			name:       "garbage header falls back to remote addr",
			remoteAddr: "192.168.1.5:43210",
			xRealIP:    "not-an-ip",
			trustProxy: true,
			want:       "192.168.1.5",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remoteAddr
			if tt.xRealIP != "" {
				req.Header.Set("X-Real-IP", tt.xRealIP)
			}
			if tt.xff != "" {
				req.Header.Set("X-Forwarded-For", tt.xff)
			}

			if got := clientIP(req, tt.trustProxy); got != tt.want {
				t.Errorf("clientIP() = %q, want %q", got, tt.want)
			}
		})
	}
}
