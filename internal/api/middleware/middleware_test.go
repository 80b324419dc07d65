package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	apiContext "ecoflow/internal/api/context"
	"ecoflow/internal/platform/auth"
	"ecoflow/internal/platform/config"
)

func okHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func TestAuthMiddleware(t *testing.T) {
	tokenSvc := auth.NewTokenService(config.JWTConfig{Secret: "test-secret", AccessTokenTTL: time.Hour})
	token, err := tokenSvc.GenerateAccessToken("admin")
	if err != nil {
		t.Fatalf("GenerateAccessToken() error = %v", err)
	}

	var seen *auth.Claims
	handler := NewAuthMiddleware(tokenSvc).Handle(func(w http.ResponseWriter, r *http.Request) {
		seen = ClaimsFrom(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"Missing header", "", http.StatusUnauthorized},
		{"Wrong scheme", "Basic " + token, http.StatusUnauthorized},
		{"Bad token", "Bearer nope", http.StatusUnauthorized},
		{"Valid token", "Bearer " + token, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/api/v1/devices", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rr := httptest.NewRecorder()
			handler(rr, req)

			if rr.Code != tt.want {
				t.Errorf("handler returned wrong status code: got %v want %v", rr.Code, tt.want)
			}
		})
	}

	if seen == nil || seen.Username != "admin" {
		t.Errorf("Expected claims for admin, got %+v", seen)
	}
}

func TestRateLimiter_Allow(t *testing.T) {
	rl := NewRateLimiter(config.RateLimitConfig{})
	now := time.Now()
	rl.now = func() time.Time { return now }

	for i := 0; i < 3; i++ {
		if !rl.Allow("k", 3) {
			t.Fatalf("request %d should be allowed", i)
		}
	}
	if rl.Allow("k", 3) {
		t.Error("Expected bucket to be empty")
	}

	// 3 per minute refills one token every 20 seconds.
	now = now.Add(21 * time.Second)
	if !rl.Allow("k", 3) {
		t.Error("Expected a refilled token")
	}

	now = now.Add(time.Hour)
	rl.Cleanup(time.Minute)
	if _, ok := rl.store.Load("k"); ok {
		t.Error("Expected idle bucket to be removed")
	}
}

func TestRateLimiter_PerUser(t *testing.T) {
	rl := NewRateLimiter(config.RateLimitConfig{APIWritePerMinute: 1})
	handler := rl.Limit(LimitWrite)(okHandler)

	request := func(user string) int {
		req := httptest.NewRequest("PUT", "/api/v1/devices/HW51/quota", nil)
		ctx := context.WithValue(req.Context(), apiContext.Claims, &auth.Claims{Username: user})
		rr := httptest.NewRecorder()
		handler(rr, req.WithContext(ctx))
		return rr.Code
	}

	if code := request("alice"); code != http.StatusOK {
		t.Errorf("first request got %d", code)
	}
	if code := request("alice"); code != http.StatusTooManyRequests {
		t.Errorf("second request got %d, want 429", code)
	}
	if code := request("bob"); code != http.StatusOK {
		t.Errorf("other user got %d", code)
	}

	// Unconfigured classes are not limited.
	read := rl.Limit(LimitRead)(okHandler)
	for i := 0; i < 5; i++ {
		rr := httptest.NewRecorder()
		read(rr, httptest.NewRequest("GET", "/", nil))
		if rr.Code != http.StatusOK {
			t.Fatalf("read request %d got %d", i, rr.Code)
		}
	}
}

func TestRequestLogger(t *testing.T) {
	var id string
	handler := RequestLogger(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, _ = r.Context().Value(apiContext.RequestID).(string)
		w.WriteHeader(http.StatusTeapot)
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest("GET", "/health", nil))

	if rr.Code != http.StatusTeapot {
		t.Errorf("status = %d", rr.Code)
	}
	if id == "" || rr.Header().Get("X-Request-ID") != id {
		t.Errorf("request id %q not propagated, header %q", id, rr.Header().Get("X-Request-ID"))
	}
}
