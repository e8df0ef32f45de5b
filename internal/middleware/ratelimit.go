package middleware

import (
	"encoding/json"
	"log/slog"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/hitoshi/taskman/internal/model"
)

// RateLimiterConfig はレート制限の設定を保持する。
// 固定ウィンドウ方式で、ウィンドウ内のリクエスト数がLimitを超えると429を返す。
type RateLimiterConfig struct {
	Window          time.Duration // 固定ウィンドウの長さ
	AuthLimit       int           // 認証ルート（signup/login）のIPごとの上限
	PublicLimit     int           // 公開ルートのIPごとの上限
	UserLimit       int           // 認証済みルートのユーザーごとの上限
	CleanupInterval time.Duration // 期限切れウィンドウのクリーンアップ間隔
}

// DefaultRateLimiterConfig はデフォルトのレート制限設定を返す。
// 要件: 認証ルート 100 req/15min/IP、公開ルート 500 req/15min/IP、
// 認証済みルート 1000 req/15min/user
func DefaultRateLimiterConfig() RateLimiterConfig {
	return RateLimiterConfig{
		Window:          15 * time.Minute,
		AuthLimit:       100,
		PublicLimit:     500,
		UserLimit:       1000,
		CleanupInterval: 5 * time.Minute,
	}
}

// window は1キー分の固定ウィンドウカウンタを保持する。
type window struct {
	count   int
	startAt time.Time
}

// RateLimiter はキー（IPまたはユーザーID）ごとの固定ウィンドウ
// レート制限を管理する。3種類のティア（auth/public/user）を提供する。
type RateLimiter struct {
	config RateLimiterConfig

	mu      sync.Mutex
	windows map[string]*window

	stopCh chan struct{}
}

// NewRateLimiter は新しいRateLimiterを生成する。
// バックグラウンドで期限切れウィンドウのクリーンアップを開始する。
func NewRateLimiter(config RateLimiterConfig) *RateLimiter {
	rl := &RateLimiter{
		config:  config,
		windows: make(map[string]*window),
		stopCh:  make(chan struct{}),
	}

	go rl.cleanupLoop()

	return rl
}

// Stop はクリーンアップのバックグラウンドゴルーチンを停止する。
func (rl *RateLimiter) Stop() {
	close(rl.stopCh)
}

// AuthMiddleware は認証ルート（signup/login）用のレート制限ミドルウェアを返す。
// 未認証アクセスが前提のため、クライアントIPをキーとする。
func (rl *RateLimiter) AuthMiddleware() func(next http.Handler) http.Handler {
	return rl.middlewareForKey("auth", rl.config.AuthLimit, keyByIP)
}

// PublicMiddleware は公開ルート用のレート制限ミドルウェアを返す。
// クライアントIPをキーとする。
func (rl *RateLimiter) PublicMiddleware() func(next http.Handler) http.Handler {
	return rl.middlewareForKey("public", rl.config.PublicLimit, keyByIP)
}

// UserMiddleware は認証済みルート用のレート制限ミドルウェアを返す。
// リクエストコンテキストのユーザーIDをキーとするため、
// 認証ミドルウェアの後に配置する必要がある。
func (rl *RateLimiter) UserMiddleware() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, err := UserIDFromContext(r.Context())
			if err != nil {
				WriteErrorResponse(w, model.NewUnauthorizedError("Authentication required"))
				return
			}

			ok, retryAfter := rl.allow("user:" + userID)
			if !ok {
				writeRateLimitResponse(w, retryAfter)
				slog.Warn("rate limit exceeded",
					slog.String("user_id", userID),
					slog.String("limit_type", "user"),
				)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// middlewareForKey は指定ティアのレート制限ミドルウェアを構築する。
func (rl *RateLimiter) middlewareForKey(tier string, limit int, keyFn func(r *http.Request) string) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := tier + ":" + keyFn(r)

			ok, retryAfter := rl.allowWithLimit(key, limit)
			if !ok {
				writeRateLimitResponse(w, retryAfter)
				slog.Warn("rate limit exceeded",
					slog.String("key", key),
					slog.String("limit_type", tier),
				)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// allow はuserティアの上限でカウントする。
func (rl *RateLimiter) allow(key string) (bool, int) {
	return rl.allowWithLimit(key, rl.config.UserLimit)
}

// allowWithLimit は指定キーのウィンドウカウンタを進め、許可可否と
// 拒否時のリトライ可能秒数を返す。ウィンドウが経過していればリセットする。
func (rl *RateLimiter) allowWithLimit(key string, limit int) (bool, int) {
	now := time.Now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	win, exists := rl.windows[key]
	if !exists || now.Sub(win.startAt) >= rl.config.Window {
		rl.windows[key] = &window{count: 1, startAt: now}
		return true, 0
	}

	if win.count >= limit {
		remaining := rl.config.Window - now.Sub(win.startAt)
		retryAfter := int(math.Ceil(remaining.Seconds()))
		if retryAfter < 1 {
			retryAfter = 1
		}
		return false, retryAfter
	}

	win.count++
	return true, 0
}

// WindowCount は現在管理されているウィンドウのエントリ数を返す。
// テストおよびメトリクス用。
func (rl *RateLimiter) WindowCount() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.windows)
}

// cleanupLoop はバックグラウンドで期限切れウィンドウを定期的にクリーンアップする。
func (rl *RateLimiter) cleanupLoop() {
	ticker := time.NewTicker(rl.config.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.cleanup()
		case <-rl.stopCh:
			return
		}
	}
}

// cleanup は開始からウィンドウ長を超過したエントリを削除する。
func (rl *RateLimiter) cleanup() {
	now := time.Now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	for key, win := range rl.windows {
		if now.Sub(win.startAt) >= rl.config.Window {
			delete(rl.windows, key)
		}
	}
}

// keyByIP はリクエストからクライアントIPを取り出す。
// リバースプロキシ経由を考慮してX-Forwarded-Forの先頭を優先する。
func keyByIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if i := strings.IndexByte(xff, ','); i >= 0 {
			return strings.TrimSpace(xff[:i])
		}
		return strings.TrimSpace(xff)
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// writeRateLimitResponse は429 Too Many Requestsレスポンスを書き込む。
// Retry-AfterヘッダーとレスポンスボディのretryAfterには
// 現在のウィンドウがリセットされるまでの秒数を設定する。
func writeRateLimitResponse(w http.ResponseWriter, retryAfter int) {
	w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusTooManyRequests)

	json.NewEncoder(w).Encode(map[string]any{
		"code":       model.ErrCodeRateLimited,
		"message":    "Too many requests. Please try again later.",
		"retryAfter": retryAfter,
	})
}
