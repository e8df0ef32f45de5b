package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/taskman/internal/middleware"
	"github.com/hitoshi/taskman/internal/model"
)

// CategoryServiceInterface はカテゴリハンドラーが必要とするサービスインターフェース。
type CategoryServiceInterface interface {
	// List は全カテゴリを返す。includeTodosがtrueの場合はTodoをネストする。
	List(ctx context.Context, includeTodos bool) ([]model.Category, error)
	// Get は指定IDのカテゴリを返す。見つからない場合はnilを返す。
	Get(ctx context.Context, id int, includeTodos bool) (*model.Category, error)
}

// CategoryHandler はカテゴリ参照のHTTPハンドラー。
type CategoryHandler struct {
	service CategoryServiceInterface
}

// NewCategoryHandler はCategoryHandlerを生成する。
func NewCategoryHandler(service CategoryServiceInterface) *CategoryHandler {
	return &CategoryHandler{
		service: service,
	}
}

// List は全カテゴリを取得する。
// GET /api/categories?includeTodos=true
func (h *CategoryHandler) List(w http.ResponseWriter, r *http.Request) {
	categories, err := h.service.List(r.Context(), includeTodosFlag(r))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	if categories == nil {
		categories = []model.Category{}
	}
	writeJSON(w, http.StatusOK, categories)
}

// Get はカテゴリ詳細を取得する。
// 見つからない場合は404ではなく200でnullを返す（元APIとの互換）。
// GET /api/categories/:id?includeTodos=true
func (h *CategoryHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		middleware.WriteErrorResponse(w, model.NewInvalidRequestError("category id must be an integer"))
		return
	}

	category, err := h.service.Get(r.Context(), id, includeTodosFlag(r))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, category)
}

// includeTodosFlag はincludeTodosクエリフラグを解釈する。
// 値の指定がある場合のみ有効（"includeTodos=true" など真値のみ）。
func includeTodosFlag(r *http.Request) bool {
	v := r.URL.Query().Get("includeTodos")
	if v == "" {
		return false
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false
	}
	return b
}
