package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"
)

func testRateLimiterConfig(authLimit, publicLimit, userLimit int) RateLimiterConfig {
	return RateLimiterConfig{
		Window:          time.Minute,
		AuthLimit:       authLimit,
		PublicLimit:     publicLimit,
		UserLimit:       userLimit,
		CleanupInterval: time.Minute,
	}
}

// --- UserMiddleware（認証済みルート）のテスト ---

func TestUserMiddleware_AllowsRequestsWithinLimit(t *testing.T) {
	rl := NewRateLimiter(testRateLimiterConfig(100, 500, 5))
	defer rl.Stop()

	mw := rl.UserMiddleware()

	handlerCallCount := 0
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handlerCallCount++
		w.WriteHeader(http.StatusOK)
	}))

	// 上限内の5リクエストは全て通る
	for i := 0; i < 5; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/todos", nil)
		req = req.WithContext(ContextWithUserID(req.Context(), "user-1"))
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

func TestUserMiddleware_Returns429WhenLimitExceeded(t *testing.T) {
	rl := NewRateLimiter(testRateLimiterConfig(100, 500, 2))
	defer rl.Stop()

	mw := rl.UserMiddleware()

	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	// 上限分（2回）は通る
	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/todos", nil)
		req = req.WithContext(ContextWithUserID(req.Context(), "user-rate-limit"))
		w := httptest.NewRecorder()

		handler.ServeHTTP(w, req)

		if w.Result().StatusCode != http.StatusOK {
			t.Errorf("request %d: status = %d, want %d", i, w.Result().StatusCode, http.StatusOK)
		}
	}

	// 3回目はレート制限に引っかかる
	req := httptest.NewRequest(http.MethodGet, "/api/todos", nil)
	req = req.WithContext(ContextWithUserID(req.Context(), "user-rate-limit"))
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	if w.Result().StatusCode != http.StatusTooManyRequests {
		t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusTooManyRequests)
	}
}

func TestUserMiddleware_429CarriesRetryAfter(t *testing.T) {
	rl := NewRateLimiter(testRateLimiterConfig(100, 500, 1))
	defer rl.Stop()

	mw := rl.UserMiddleware()

	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	// 1回目は通る
	req := httptest.NewRequest(http.MethodGet, "/api/todos", nil)
	req = req.WithContext(ContextWithUserID(req.Context(), "user-retry-after"))
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	// 2回目は429になる
	req2 := httptest.NewRequest(http.MethodGet, "/api/todos", nil)
	req2 = req2.WithContext(ContextWithUserID(req2.Context(), "user-retry-after"))
	w2 := httptest.NewRecorder()
	handler.ServeHTTP(w2, req2)

	resp := w2.Result()
	if resp.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusTooManyRequests)
	}

	retryAfter := resp.Header.Get("Retry-After")
	if retryAfter == "" {
		t.Fatal("expected Retry-After header to be present")
	}

	// Retry-Afterは数値（秒）でウィンドウ長以内であること
	retrySeconds, err := strconv.Atoi(retryAfter)
	if err != nil {
		t.Fatalf("Retry-After header should be a number, got %q", retryAfter)
	}
	if retrySeconds < 1 || retrySeconds > 60 {
		t.Errorf("Retry-After = %d, should be in [1, 60]", retrySeconds)
	}

	// レスポンスボディのretryAfterはヘッダーと一致すること
	var body map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if body["code"] != "RATE_LIMITED" {
		t.Errorf("code = %v, want %q", body["code"], "RATE_LIMITED")
	}
	if body["message"] == "" {
		t.Error("expected 'message' field in error response")
	}
	if int(body["retryAfter"].(float64)) != retrySeconds {
		t.Errorf("retryAfter body = %v, want %d", body["retryAfter"], retrySeconds)
	}
}

func TestUserMiddleware_IsolatesUsers(t *testing.T) {
	rl := NewRateLimiter(testRateLimiterConfig(100, 500, 1))
	defer rl.Stop()

	mw := rl.UserMiddleware()

	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	// ユーザーAの1回目は通る
	reqA := httptest.NewRequest(http.MethodGet, "/api/todos", nil)
	reqA = reqA.WithContext(ContextWithUserID(reqA.Context(), "user-A"))
	wA := httptest.NewRecorder()
	handler.ServeHTTP(wA, reqA)

	if wA.Result().StatusCode != http.StatusOK {
		t.Errorf("user-A first request: status = %d, want %d", wA.Result().StatusCode, http.StatusOK)
	}

	// ユーザーAの2回目は429
	reqA2 := httptest.NewRequest(http.MethodGet, "/api/todos", nil)
	reqA2 = reqA2.WithContext(ContextWithUserID(reqA2.Context(), "user-A"))
	wA2 := httptest.NewRecorder()
	handler.ServeHTTP(wA2, reqA2)

	if wA2.Result().StatusCode != http.StatusTooManyRequests {
		t.Errorf("user-A second request: status = %d, want %d", wA2.Result().StatusCode, http.StatusTooManyRequests)
	}

	// ユーザーBの1回目は通る（ユーザーAのカウントに影響されない）
	reqB := httptest.NewRequest(http.MethodGet, "/api/todos", nil)
	reqB = reqB.WithContext(ContextWithUserID(reqB.Context(), "user-B"))
	wB := httptest.NewRecorder()
	handler.ServeHTTP(wB, reqB)

	if wB.Result().StatusCode != http.StatusOK {
		t.Errorf("user-B first request: status = %d, want %d", wB.Result().StatusCode, http.StatusOK)
	}
}

func TestUserMiddleware_NoUserID_Returns401(t *testing.T) {
	rl := NewRateLimiter(testRateLimiterConfig(100, 500, 5))
	defer rl.Stop()

	mw := rl.UserMiddleware()

	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not be called without user ID")
	}))

	// コンテキストにユーザーIDがない場合は401
	req := httptest.NewRequest(http.MethodGet, "/api/todos", nil)
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	if w.Result().StatusCode != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusUnauthorized)
	}
}

// --- AuthMiddleware / PublicMiddleware（IPキー）のテスト ---

func TestAuthTierMiddleware_KeyedByClientIP(t *testing.T) {
	rl := NewRateLimiter(testRateLimiterConfig(1, 500, 1000))
	defer rl.Stop()

	mw := rl.AuthMiddleware()

	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	// IP Aの1回目は通る
	req1 := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
	req1.RemoteAddr = "192.0.2.1:1234"
	w1 := httptest.NewRecorder()
	handler.ServeHTTP(w1, req1)

	if w1.Result().StatusCode != http.StatusOK {
		t.Errorf("first request: status = %d, want %d", w1.Result().StatusCode, http.StatusOK)
	}

	// IP Aの2回目は429
	req2 := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
	req2.RemoteAddr = "192.0.2.1:5678"
	w2 := httptest.NewRecorder()
	handler.ServeHTTP(w2, req2)

	if w2.Result().StatusCode != http.StatusTooManyRequests {
		t.Errorf("second request: status = %d, want %d", w2.Result().StatusCode, http.StatusTooManyRequests)
	}

	// 別IPの1回目は通る
	req3 := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
	req3.RemoteAddr = "192.0.2.2:1234"
	w3 := httptest.NewRecorder()
	handler.ServeHTTP(w3, req3)

	if w3.Result().StatusCode != http.StatusOK {
		t.Errorf("other IP request: status = %d, want %d", w3.Result().StatusCode, http.StatusOK)
	}
}

func TestAuthTierMiddleware_PrefersXForwardedFor(t *testing.T) {
	rl := NewRateLimiter(testRateLimiterConfig(1, 500, 1000))
	defer rl.Stop()

	mw := rl.AuthMiddleware()

	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	// X-Forwarded-Forの先頭IPがキーになる（RemoteAddrが違っても同一クライアント扱い）
	req1 := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
	req1.RemoteAddr = "10.0.0.1:1000"
	req1.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
	w1 := httptest.NewRecorder()
	handler.ServeHTTP(w1, req1)

	req2 := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
	req2.RemoteAddr = "10.0.0.2:2000"
	req2.Header.Set("X-Forwarded-For", "203.0.113.9")
	w2 := httptest.NewRecorder()
	handler.ServeHTTP(w2, req2)

	if w2.Result().StatusCode != http.StatusTooManyRequests {
		t.Errorf("same forwarded IP should share the window: status = %d, want %d",
			w2.Result().StatusCode, http.StatusTooManyRequests)
	}
}

func TestPublicAndAuthTiers_AreIndependent(t *testing.T) {
	rl := NewRateLimiter(testRateLimiterConfig(1, 1, 1000))
	defer rl.Stop()

	authHandler := rl.AuthMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	publicHandler := rl.PublicMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	// 認証ティアで上限を消費
	req1 := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
	req1.RemoteAddr = "192.0.2.10:1234"
	w1 := httptest.NewRecorder()
	authHandler.ServeHTTP(w1, req1)

	// 同じIPでも公開ティアのウィンドウは別カウント
	req2 := httptest.NewRequest(http.MethodGet, "/api/categories", nil)
	req2.RemoteAddr = "192.0.2.10:1234"
	w2 := httptest.NewRecorder()
	publicHandler.ServeHTTP(w2, req2)

	if w2.Result().StatusCode != http.StatusOK {
		t.Errorf("public tier should not share auth tier window: status = %d, want %d",
			w2.Result().StatusCode, http.StatusOK)
	}
}

// --- 固定ウィンドウリセットのテスト ---

func TestRateLimiter_WindowResetsAfterExpiry(t *testing.T) {
	cfg := testRateLimiterConfig(100, 500, 1)
	cfg.Window = 30 * time.Millisecond

	rl := NewRateLimiter(cfg)
	defer rl.Stop()

	mw := rl.UserMiddleware()

	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	// 上限消費
	req1 := httptest.NewRequest(http.MethodGet, "/api/todos", nil)
	req1 = req1.WithContext(ContextWithUserID(req1.Context(), "user-reset"))
	w1 := httptest.NewRecorder()
	handler.ServeHTTP(w1, req1)

	// ウィンドウ内2回目は429
	req2 := httptest.NewRequest(http.MethodGet, "/api/todos", nil)
	req2 = req2.WithContext(ContextWithUserID(req2.Context(), "user-reset"))
	w2 := httptest.NewRecorder()
	handler.ServeHTTP(w2, req2)

	if w2.Result().StatusCode != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want %d", w2.Result().StatusCode, http.StatusTooManyRequests)
	}

	// ウィンドウ経過後は再び通る
	time.Sleep(50 * time.Millisecond)

	req3 := httptest.NewRequest(http.MethodGet, "/api/todos", nil)
	req3 = req3.WithContext(ContextWithUserID(req3.Context(), "user-reset"))
	w3 := httptest.NewRecorder()
	handler.ServeHTTP(w3, req3)

	if w3.Result().StatusCode != http.StatusOK {
		t.Errorf("after window reset: status = %d, want %d", w3.Result().StatusCode, http.StatusOK)
	}
}

// --- クリーンアップのテスト ---

func TestRateLimiter_CleanupRemovesExpiredWindows(t *testing.T) {
	cfg := RateLimiterConfig{
		Window:          30 * time.Millisecond,
		AuthLimit:       100,
		PublicLimit:     500,
		UserLimit:       1000,
		CleanupInterval: 20 * time.Millisecond, // テスト用に短く
	}

	rl := NewRateLimiter(cfg)
	defer rl.Stop()

	mw := rl.UserMiddleware()

	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	// リクエストを発行してエントリを作成
	req := httptest.NewRequest(http.MethodGet, "/api/todos", nil)
	req = req.WithContext(ContextWithUserID(req.Context(), "user-cleanup"))
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	// エントリが存在することを確認
	if rl.WindowCount() == 0 {
		t.Fatal("expected at least one window entry")
	}

	// ウィンドウ経過＋クリーンアップ実行を待つ
	time.Sleep(150 * time.Millisecond)

	if count := rl.WindowCount(); count != 0 {
		t.Errorf("expected 0 window entries after cleanup, got %d", count)
	}
}

// --- デフォルト設定値のテスト ---

func TestDefaultRateLimiterConfig(t *testing.T) {
	cfg := DefaultRateLimiterConfig()

	if cfg.Window != 15*time.Minute {
		t.Errorf("Window = %v, want %v", cfg.Window, 15*time.Minute)
	}
	if cfg.AuthLimit != 100 {
		t.Errorf("AuthLimit = %d, want 100", cfg.AuthLimit)
	}
	if cfg.PublicLimit != 500 {
		t.Errorf("PublicLimit = %d, want 500", cfg.PublicLimit)
	}
	if cfg.UserLimit != 1000 {
		t.Errorf("UserLimit = %d, want 1000", cfg.UserLimit)
	}
	if cfg.CleanupInterval == 0 {
		t.Error("CleanupInterval should not be 0")
	}
}
