package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestRateLimiter_BlocksAfterBurst(t *testing.T) {
	rl := NewRateLimiter(2, time.Hour)
	t.Cleanup(rl.Stop)

	handler := rl.Limit(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	codes := make([]int, 0, 3)
	for range 3 {
		req := httptest.NewRequest("POST", "/contact", nil)
		req.RemoteAddr = "203.0.113.7:5000"
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		codes = append(codes, rr.Code)
	}

	if codes[0] != http.StatusOK || codes[1] != http.StatusOK {
		t.Errorf("expected first two requests to pass, got %v", codes)
	}
	if codes[2] != http.StatusTooManyRequests {
		t.Errorf("expected third request to be limited, got %d", codes[2])
	}

	other := httptest.NewRequest("POST", "/contact", nil)
	other.RemoteAddr = "203.0.113.8:5000"
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, other)
	if rr.Code != http.StatusOK {
		t.Errorf("expected a different IP to pass, got %d", rr.Code)
	}
}

func TestRateLimiter_Sweep(t *testing.T) {
	rl := NewRateLimiter(1, time.Minute)
	t.Cleanup(rl.Stop)

	rl.allow("198.51.100.1")
	rl.sweep(time.Now().Add(3 * time.Minute))

	rl.mu.Lock()
	n := len(rl.limiters)
	rl.mu.Unlock()
	if n != 0 {
		t.Errorf("expected stale client swept, %d left", n)
	}
}

func TestRateLimiter_ExtractIP(t *testing.T) {
	tests := []struct {
		name    string
		trusted []string
		remote  string
		xff     string
		want    string
	}{
		{"no proxies ignores header", nil, "203.0.113.1:80", "10.0.0.9", "203.0.113.1"},
		{"untrusted remote ignores header", []string{"127.0.0.1"}, "203.0.113.1:80", "10.0.0.9", "203.0.113.1"},
		{"trusted proxy uses rightmost untrusted hop", []string{"127.0.0.1", "10.0.0.0/8"}, "127.0.0.1:80", "198.51.100.4, 10.1.1.1", "198.51.100.4"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rl := NewRateLimiter(1, time.Minute, tt.trusted...)
			t.Cleanup(rl.Stop)

			req := httptest.NewRequest("GET", "/", nil)
			req.RemoteAddr = tt.remote
			req.Header.Set("X-Forwarded-For", tt.xff)
			if got := rl.extractIP(req); got != tt.want {
				t.Errorf("extractIP = %q, want %q", got, tt.want)
			}
		})
	}
}
