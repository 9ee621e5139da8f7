package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"
)

// --- GeneralMiddleware のテスト ---

func TestRateLimitMiddleware_AllowsRequestsWithinLimit(t *testing.T) {
	cfg := RateLimiterConfig{
		GeneralRate:     2, // 2 req/sec
		GeneralBurst:    5, // バースト5
		LoginRate:       1, // 未使用
		LoginBurst:      10,
		CleanupInterval: 1 * time.Minute,
	}

	rl := NewRateLimiter(cfg)
	defer rl.Stop()

	mw := rl.GeneralMiddleware()

	handlerCallCount := 0
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handlerCallCount++
		w.WriteHeader(http.StatusOK)
	}))

	// バースト内の5リクエストは全て通る
	for i := 0; i < 5; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/work", nil)
		req.RemoteAddr = "203.0.113.10:50000"
		w := httptest.NewRecorder()

		handler.ServeHTTP(w, req)

		if w.Result().StatusCode != http.StatusOK {
			t.Errorf("request %d: status = %d, want %d", i, w.Result().StatusCode, http.StatusOK)
		}
	}

	if handlerCallCount != 5 {
		t.Errorf("handler call count = %d, want 5", handlerCallCount)
	}
}

func TestRateLimitMiddleware_Returns429WhenLimitExceeded(t *testing.T) {
	cfg := RateLimiterConfig{
		GeneralRate:     1, // 1 req/sec
		GeneralBurst:    2, // バースト2
		LoginRate:       1,
		LoginBurst:      10,
		CleanupInterval: 1 * time.Minute,
	}

	rl := NewRateLimiter(cfg)
	defer rl.Stop()

	mw := rl.GeneralMiddleware()

	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	// バースト2を使い切る
	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/work", nil)
		req.RemoteAddr = "203.0.113.10:50000"
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
	}

	// 3リクエスト目は429
	req := httptest.NewRequest(http.MethodGet, "/api/work", nil)
	req.RemoteAddr = "203.0.113.10:50000"
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Result().StatusCode != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want %d", w.Result().StatusCode, http.StatusTooManyRequests)
	}

	// Retry-Afterヘッダーの検証: 1 req/sec → 1秒
	retryAfter := w.Result().Header.Get("Retry-After")
	sec, err := strconv.Atoi(retryAfter)
	if err != nil {
		t.Fatalf("Retry-After = %q, want integer", retryAfter)
	}
	if sec < 1 {
		t.Errorf("Retry-After = %d, want >= 1", sec)
	}

	var body map[string]string
	if err := json.NewDecoder(w.Result().Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if body["code"] != "rate_limit_exceeded" {
		t.Errorf("code = %q, want %q", body["code"], "rate_limit_exceeded")
	}
}

func TestRateLimitMiddleware_IsolatesClientsByKey(t *testing.T) {
	cfg := RateLimiterConfig{
		GeneralRate:     1,
		GeneralBurst:    1,
		LoginRate:       1,
		LoginBurst:      10,
		CleanupInterval: 1 * time.Minute,
	}

	rl := NewRateLimiter(cfg)
	defer rl.Stop()

	mw := rl.GeneralMiddleware()
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	// クライアントAがバーストを使い切る
	reqA := httptest.NewRequest(http.MethodGet, "/api/work", nil)
	reqA.RemoteAddr = "203.0.113.10:50000"
	wA := httptest.NewRecorder()
	handler.ServeHTTP(wA, reqA)

	reqA2 := httptest.NewRequest(http.MethodGet, "/api/work", nil)
	reqA2.RemoteAddr = "203.0.113.10:50001"
	wA2 := httptest.NewRecorder()
	handler.ServeHTTP(wA2, reqA2)

	if wA2.Result().StatusCode != http.StatusTooManyRequests {
		t.Errorf("client A second request: status = %d, want %d",
			wA2.Result().StatusCode, http.StatusTooManyRequests)
	}

	// クライアントB（別IP）は影響を受けない
	reqB := httptest.NewRequest(http.MethodGet, "/api/work", nil)
	reqB.RemoteAddr = "198.51.100.20:50000"
	wB := httptest.NewRecorder()
	handler.ServeHTTP(wB, reqB)

	if wB.Result().StatusCode != http.StatusOK {
		t.Errorf("client B: status = %d, want %d", wB.Result().StatusCode, http.StatusOK)
	}
}

func TestRateLimitMiddleware_SessionKeyPreferredOverIP(t *testing.T) {
	cfg := RateLimiterConfig{
		GeneralRate:     1,
		GeneralBurst:    1,
		LoginRate:       1,
		LoginBurst:      10,
		CleanupInterval: 1 * time.Minute,
	}

	rl := NewRateLimiter(cfg)
	defer rl.Stop()

	mw := rl.GeneralMiddleware()
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	// 同じIPでもセッションが異なれば別クライアントとして扱う
	makeReq := func(sessionID string) *http.Request {
		req := httptest.NewRequest(http.MethodGet, "/api/work", nil)
		req.RemoteAddr = "203.0.113.10:50000"
		if sessionID != "" {
			ctx := contextWithSessionID(req.Context(), sessionID)
			req = req.WithContext(ctx)
		}
		return req
	}

	w1 := httptest.NewRecorder()
	handler.ServeHTTP(w1, makeReq("sess-1"))
	w2 := httptest.NewRecorder()
	handler.ServeHTTP(w2, makeReq("sess-2"))

	if w1.Result().StatusCode != http.StatusOK {
		t.Errorf("session 1: status = %d, want %d", w1.Result().StatusCode, http.StatusOK)
	}
	if w2.Result().StatusCode != http.StatusOK {
		t.Errorf("session 2: status = %d, want %d", w2.Result().StatusCode, http.StatusOK)
	}
	if rl.GeneralLimiterCount() != 2 {
		t.Errorf("limiter count = %d, want 2", rl.GeneralLimiterCount())
	}
}

// --- LoginMiddleware のテスト ---

func TestLoginRateLimitMiddleware_IndependentFromGeneral(t *testing.T) {
	cfg := RateLimiterConfig{
		GeneralRate:     1,
		GeneralBurst:    1,
		LoginRate:       1,
		LoginBurst:      2,
		CleanupInterval: 1 * time.Minute,
	}

	rl := NewRateLimiter(cfg)
	defer rl.Stop()

	generalHandler := rl.GeneralMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	loginHandler := rl.LoginMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	// API全般のバーストを使い切る
	req := httptest.NewRequest(http.MethodGet, "/api/work", nil)
	req.RemoteAddr = "203.0.113.10:50000"
	w := httptest.NewRecorder()
	generalHandler.ServeHTTP(w, req)

	// ログインのレート制限は独立に動作する
	loginReq := httptest.NewRequest(http.MethodPost, "/clients/login", nil)
	loginReq.RemoteAddr = "203.0.113.10:50000"
	loginW := httptest.NewRecorder()
	loginHandler.ServeHTTP(loginW, loginReq)

	if loginW.Result().StatusCode != http.StatusOK {
		t.Errorf("login request: status = %d, want %d", loginW.Result().StatusCode, http.StatusOK)
	}
}

func TestLoginRateLimitMiddleware_Returns429WhenExceeded(t *testing.T) {
	cfg := RateLimiterConfig{
		GeneralRate:     100,
		GeneralBurst:    100,
		LoginRate:       1,
		LoginBurst:      1,
		CleanupInterval: 1 * time.Minute,
	}

	rl := NewRateLimiter(cfg)
	defer rl.Stop()

	handler := rl.LoginMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req1 := httptest.NewRequest(http.MethodPost, "/clients/login", nil)
	req1.RemoteAddr = "203.0.113.10:50000"
	w1 := httptest.NewRecorder()
	handler.ServeHTTP(w1, req1)

	req2 := httptest.NewRequest(http.MethodPost, "/clients/login", nil)
	req2.RemoteAddr = "203.0.113.10:50000"
	w2 := httptest.NewRecorder()
	handler.ServeHTTP(w2, req2)

	if w2.Result().StatusCode != http.StatusTooManyRequests {
		t.Errorf("status = %d, want %d", w2.Result().StatusCode, http.StatusTooManyRequests)
	}
}

// --- cleanup のテスト ---

func TestRateLimiter_CleanupRemovesStaleEntries(t *testing.T) {
	cfg := RateLimiterConfig{
		GeneralRate:     1,
		GeneralBurst:    1,
		LoginRate:       1,
		LoginBurst:      1,
		CleanupInterval: 10 * time.Millisecond,
	}

	rl := NewRateLimiter(cfg)
	defer rl.Stop()

	rl.getOrCreateGeneralLimiter("ip:203.0.113.10")

	if rl.GeneralLimiterCount() != 1 {
		t.Fatalf("limiter count = %d, want 1", rl.GeneralLimiterCount())
	}

	// TTL（CleanupInterval × 2）を過ぎるまで待つ
	deadline := time.Now().Add(500 * time.Millisecond)
	for time.Now().Before(deadline) {
		if rl.GeneralLimiterCount() == 0 {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}

	t.Errorf("stale limiter entry was not cleaned up: count = %d", rl.GeneralLimiterCount())
}
