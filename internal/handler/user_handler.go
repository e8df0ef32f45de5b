package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/taskman/internal/middleware"
	"github.com/hitoshi/taskman/internal/user"
)

// UserServiceInterface はユーザーハンドラーが必要とするサービスインターフェース。
type UserServiceInterface interface {
	// Me は呼び出しユーザー自身のプロフィールを返す。
	// ユーザーが存在しない場合はnilを返す。
	Me(ctx context.Context, userID string) (*user.Profile, error)
	// GetByID は指定IDのユーザープロフィールを返す。
	// 自分以外のIDを指定した場合は403を返す。
	GetByID(ctx context.Context, callerID, id string) (*user.Profile, error)
	// List は全ユーザーをtodo/postの件数付きで返す。
	List(ctx context.Context) ([]user.Summary, error)
}

// UserHandler はユーザー参照のHTTPハンドラー。
type UserHandler struct {
	service UserServiceInterface
}

// NewUserHandler はUserHandlerを生成する。
func NewUserHandler(service UserServiceInterface) *UserHandler {
	return &UserHandler{
		service: service,
	}
}

// List は全ユーザーの一覧を取得する。
// ネストした全行ではなく件数のみを返す（レスポンスサイズの非有界化を防ぐ）。
// GET /api/users
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	if _, err := middleware.UserIDFromContext(r.Context()); err != nil {
		writeUnauthorized(w)
		return
	}

	users, err := h.service.List(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	if users == nil {
		users = []user.Summary{}
	}
	writeJSON(w, http.StatusOK, users)
}

// Me は呼び出しユーザー自身のプロフィールを取得する。
// ユーザーが存在しない場合は200でnullを返す。
// GET /api/users/me
func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	profile, err := h.service.Me(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, profile)
}

// GetByID は指定IDのユーザープロフィールを取得する。
// 自分以外のIDは403となる（存在有無の照会より前に判定する）。
// GET /api/users/:id
func (h *UserHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	callerID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	id := chi.URLParam(r, "id")

	profile, err := h.service.GetByID(r.Context(), callerID, id)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, profile)
}
