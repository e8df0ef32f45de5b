package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/taskman/internal/middleware"
	"github.com/hitoshi/taskman/internal/model"
)

// titleMaxLen はTodoタイトルの最大文字数。
const titleMaxLen = 200

// TodoServiceInterface はTodoハンドラーが必要とするサービスインターフェース。
type TodoServiceInterface interface {
	// List は呼び出しユーザーのTodo一覧を返す。
	List(ctx context.Context, userID string, categoryID *int) ([]model.Todo, error)
	// Get は指定IDのTodoを所有者チェック付きで返す。
	Get(ctx context.Context, callerID, todoID string) (*model.Todo, error)
	// Create は新しいTodoを作成する。所有者は呼び出しユーザーに固定される。
	Create(ctx context.Context, callerID, title string, completed bool, categoryID *int) (*model.Todo, error)
	// Update は既存のTodoへ部分パッチを適用する。
	Update(ctx context.Context, callerID, todoID string, patch model.TodoPatch) (*model.Todo, error)
	// Delete は既存のTodoを削除する。
	Delete(ctx context.Context, callerID, todoID string) error
}

// TodoHandler はTodo管理のHTTPハンドラー。
type TodoHandler struct {
	service TodoServiceInterface
}

// NewTodoHandler はTodoHandlerを生成する。
func NewTodoHandler(service TodoServiceInterface) *TodoHandler {
	return &TodoHandler{
		service: service,
	}
}

// createTodoRequest はTodo作成リクエストのボディ。
// クライアントが指定したuserIdは受け付けない（所有者は呼び出しユーザーに固定）。
type createTodoRequest struct {
	Title      string `json:"title"`
	Completed  bool   `json:"completed"`
	CategoryID *int   `json:"categoryId"`
}

// updateTodoRequest はTodo部分更新リクエストのボディ。
// nilのフィールドは変更しない。
type updateTodoRequest struct {
	Title      *string `json:"title"`
	Completed  *bool   `json:"completed"`
	CategoryID *int    `json:"categoryId"`
}

// todoResponse はTodoのAPIレスポンス。日時はMM/DD/YYYY HH:mm:ss形式。
type todoResponse struct {
	ID         string  `json:"id"`
	Title      string  `json:"title"`
	Completed  bool    `json:"completed"`
	CategoryID int     `json:"categoryId"`
	UserID     *string `json:"userId"`
	CreatedAt  string  `json:"createdAt"`
	UpdatedAt  string  `json:"updatedAt"`
}

// deleteTodoResponse はTodo削除成功時のレスポンス。
type deleteTodoResponse struct {
	Message string `json:"message"`
	ID      string `json:"id"`
}

// toTodoResponse はドメインのTodoをレスポンス型に変換する。
func toTodoResponse(t *model.Todo) todoResponse {
	return todoResponse{
		ID:         t.ID,
		Title:      t.Title,
		Completed:  t.Completed,
		CategoryID: t.CategoryID,
		UserID:     t.UserID,
		CreatedAt:  formatTodoDate(t.CreatedAt),
		UpdatedAt:  formatTodoDate(t.UpdatedAt),
	}
}

// formatTodoDate は日時をmodel.DateLayout形式でフォーマットする。
func formatTodoDate(t time.Time) string {
	return t.Format(model.DateLayout)
}

// List は呼び出しユーザーのTodo一覧を取得する。
// GET /api/todos?categoryId=N
func (h *TodoHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	var categoryID *int
	if v := r.URL.Query().Get("categoryId"); v != "" {
		id, err := strconv.Atoi(v)
		if err != nil {
			middleware.WriteErrorResponse(w, model.NewInvalidRequestError("categoryId must be an integer"))
			return
		}
		categoryID = &id
	}

	todos, err := h.service.List(r.Context(), userID, categoryID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	responses := make([]todoResponse, len(todos))
	for i := range todos {
		responses[i] = toTodoResponse(&todos[i])
	}

	writeJSON(w, http.StatusOK, responses)
}

// Get はTodo詳細を取得する。
// 存在しないIDは404、他ユーザーの所有は403となる。
// GET /api/todos/:id
func (h *TodoHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	todoID := chi.URLParam(r, "id")

	todo, err := h.service.Get(r.Context(), userID, todoID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toTodoResponse(todo))
}

// Create はTodoを作成する。
// POST /api/todos
func (h *TodoHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	var req createTodoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteErrorResponse(w, model.NewInvalidRequestError("Request body must be valid JSON"))
		return
	}

	if fields := validateTitle(req.Title); len(fields) > 0 {
		middleware.WriteErrorResponse(w, &model.APIError{
			Code:    model.ErrCodeInvalidRequest,
			Message: "Invalid todo data",
			Status:  http.StatusBadRequest,
			Details: fields,
		})
		return
	}

	todo, err := h.service.Create(r.Context(), userID, req.Title, req.Completed, req.CategoryID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toTodoResponse(todo))
}

// Update はTodoへ部分パッチを適用する。
// 空のパッチはupdated_at以外を変更しない。
// PUT /api/todos/:id
func (h *TodoHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	todoID := chi.URLParam(r, "id")

	var req updateTodoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteErrorResponse(w, model.NewInvalidRequestError("Request body must be valid JSON"))
		return
	}

	if req.Title != nil {
		if fields := validateTitle(*req.Title); len(fields) > 0 {
			middleware.WriteErrorResponse(w, &model.APIError{
				Code:    model.ErrCodeInvalidRequest,
				Message: "Invalid todo data",
				Status:  http.StatusBadRequest,
				Details: fields,
			})
			return
		}
	}

	todo, err := h.service.Update(r.Context(), userID, todoID, model.TodoPatch{
		Title:      req.Title,
		Completed:  req.Completed,
		CategoryID: req.CategoryID,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toTodoResponse(todo))
}

// Delete はTodoを削除する。
// 同じIDへの2回目の削除は404となる。
// DELETE /api/todos/:id
func (h *TodoHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	todoID := chi.URLParam(r, "id")

	if err := h.service.Delete(r.Context(), userID, todoID); err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, deleteTodoResponse{
		Message: "Todo deleted successfully",
		ID:      todoID,
	})
}

// validateTitle はタイトルの検証を行い、フィールド別のメッセージを返す。
func validateTitle(title string) map[string]any {
	fields := map[string]any{}
	if title == "" {
		fields["title"] = "title is required"
	} else if len([]rune(title)) > titleMaxLen {
		fields["title"] = "title must be 200 characters or less"
	}
	return fields
}
