// Package middleware はHTTPミドルウェアを提供する。
package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/hitoshi/taskman/internal/model"
)

// tokenCookieName は認証トークンを保持するCookieの名前。
const tokenCookieName = "token"

// contextKey はコンテキストに値を格納するための型安全なキー。
type contextKey string

// userIDContextKey はリクエストコンテキストにユーザーIDを格納するためのキー。
var userIDContextKey = contextKey("user_id")

// TokenVerifier はトークン検証に必要なインターフェース。
// auth.TokenManagerの部分集合として定義する。
type TokenVerifier interface {
	// Verify はトークンの署名と有効期限を検証し、サブジェクトのユーザーIDを返す。
	Verify(token string) (string, error)
}

// extractToken はリクエストから認証トークンを取り出す。
// 優先順位: (1) Authorization: Bearer ヘッダー、(2) Cookie "token"。
// どちらにも存在しない場合は空文字を返す。
func extractToken(r *http.Request) string {
	authz := r.Header.Get("Authorization")
	if strings.HasPrefix(authz, "Bearer ") {
		if token := strings.TrimSpace(strings.TrimPrefix(authz, "Bearer ")); token != "" {
			return token
		}
	}

	cookie, err := r.Cookie(tokenCookieName)
	if err == nil && cookie.Value != "" {
		return cookie.Value
	}

	return ""
}

// NewAuthMiddleware はベアラートークンを検証する必須認証ミドルウェアを返す。
// 検証に成功した場合、サブジェクトのユーザーIDをリクエストコンテキストに注入する。
// トークンがない場合は401「Authentication required」、
// 不正・期限切れの場合は401「Invalid or expired token」を返す。
func NewAuthMiddleware(verifier TokenVerifier) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := extractToken(r)
			if token == "" {
				WriteErrorResponse(w, model.NewUnauthorizedError("Authentication required"))
				return
			}

			userID, err := verifier.Verify(token)
			if err != nil {
				WriteErrorResponse(w, model.NewUnauthorizedError("Invalid or expired token"))
				return
			}

			ctx := context.WithValue(r.Context(), userIDContextKey, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// NewOptionalAuthMiddleware は任意認証ミドルウェアを返す。
// トークンがない場合も検証に失敗した場合も、識別情報なしで後続へ進む。
// ベストエフォート方針のため、後続ハンドラーは「トークンなし」と
// 「不正トークン」を区別できない。
func NewOptionalAuthMiddleware(verifier TokenVerifier) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := extractToken(r)
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}

			userID, err := verifier.Verify(token)
			if err != nil {
				// 検証エラーは握りつぶして未認証として扱う
				next.ServeHTTP(w, r)
				return
			}

			ctx := context.WithValue(r.Context(), userIDContextKey, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// UserIDFromContext はリクエストコンテキストからユーザーIDを取得する。
// 認証ミドルウェアを通過したリクエストでのみ有効。
func UserIDFromContext(ctx context.Context) (string, error) {
	userID, ok := ctx.Value(userIDContextKey).(string)
	if !ok || userID == "" {
		return "", fmt.Errorf("user ID not found in context")
	}
	return userID, nil
}

// ContextWithUserID はコンテキストにユーザーIDを注入する。
// テストやミドルウェア以外のコンテキスト生成で使用する。
func ContextWithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDContextKey, userID)
}
