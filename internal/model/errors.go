// Package model はドメインモデルを定義する。
package model

import (
	"fmt"
	"net/http"
)

// APIError は統一エラーフォーマットを表す。
// 人間向けメッセージ、機械可読コード、HTTPステータス、
// 任意の構造化詳細（フィールド別メッセージ等）を保持する。
type APIError struct {
	Code    string         // エラーコード
	Message string         // エラーメッセージ
	Status  int            // HTTPステータスコード
	Details map[string]any // 構造化された詳細情報（省略可）
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeUserAlreadyExists = "USER_ALREADY_EXISTS"
	ErrCodeInvalidUserData   = "INVALID_USER_DATA"
	ErrCodeUserNotFound      = "USER_NOT_FOUND"
	ErrCodeInvalidPassword   = "INVALID_PASSWORD"
	ErrCodeUnauthorized      = "UNAUTHORIZED"
	ErrCodeForbidden         = "FORBIDDEN"
	ErrCodeTodoNotFound      = "TODO_NOT_FOUND"
	ErrCodeNoCategory        = "NO_CATEGORY"
	ErrCodeInvalidRequest    = "INVALID_REQUEST"
	ErrCodeRateLimited       = "RATE_LIMITED"
	ErrCodeDatabase          = "DATABASE_ERROR"
)

// NewUserAlreadyExistsError はメール重複エラーを生成する。
// users.emailのユニーク制約違反を変換したもので、詳細に該当メールを含む。
func NewUserAlreadyExistsError(email string) *APIError {
	return &APIError{
		Code:    ErrCodeUserAlreadyExists,
		Message: "User already exists",
		Status:  http.StatusBadRequest,
		Details: map[string]any{"email": email},
	}
}

// NewInvalidUserDataError は入力不正エラーを生成する。
// fieldsにはフィールド名をキーとした検証メッセージを渡す。
func NewInvalidUserDataError(fields map[string]any) *APIError {
	return &APIError{
		Code:    ErrCodeInvalidUserData,
		Message: "Invalid user data",
		Status:  http.StatusBadRequest,
		Details: fields,
	}
}

// NewUserNotFoundError はログイン時のユーザー未存在エラーを生成する。
// ログインはTodoの404/403と異なりアカウントの存在を開示する挙動であり、
// 元実装との互換のため維持している。
func NewUserNotFoundError() *APIError {
	return &APIError{
		Code:    ErrCodeUserNotFound,
		Message: "User not found",
		Status:  http.StatusBadRequest,
	}
}

// NewInvalidPasswordError はパスワード不一致エラーを生成する。
func NewInvalidPasswordError() *APIError {
	return &APIError{
		Code:    ErrCodeInvalidPassword,
		Message: "Invalid password",
		Status:  http.StatusBadRequest,
	}
}

// NewUnauthorizedError は認証エラーを生成する。
func NewUnauthorizedError(message string) *APIError {
	return &APIError{
		Code:    ErrCodeUnauthorized,
		Message: message,
		Status:  http.StatusUnauthorized,
	}
}

// NewForbiddenError は認可エラーを生成する。
// リソースは存在するが呼び出し元に権限がない場合に使用する。
// 404（リソース不存在）と混同してはならない。
func NewForbiddenError() *APIError {
	return &APIError{
		Code:    ErrCodeForbidden,
		Message: "You do not have access to this resource",
		Status:  http.StatusForbidden,
	}
}

// NewTodoNotFoundError はTodo未検出エラーを生成する。
func NewTodoNotFoundError(todoID string) *APIError {
	return &APIError{
		Code:    ErrCodeTodoNotFound,
		Message: "Todo not found",
		Status:  http.StatusNotFound,
		Details: map[string]any{"id": todoID},
	}
}

// NewNoCategoryError はカテゴリ未指定かつデフォルトカテゴリも存在しない
// 場合のエラーを生成する。
func NewNoCategoryError() *APIError {
	return &APIError{
		Code:    ErrCodeNoCategory,
		Message: "No category available",
		Status:  http.StatusBadRequest,
	}
}

// NewInvalidRequestError はリクエスト形式不正エラーを生成する。
func NewInvalidRequestError(message string) *APIError {
	return &APIError{
		Code:    ErrCodeInvalidRequest,
		Message: message,
		Status:  http.StatusBadRequest,
	}
}

// NewDatabaseError は予期しない永続化エラーを500にラップする。
// 元エラーのメッセージは診断用に詳細へ保持するが、
// レスポンスでそのまま露出させない。
func NewDatabaseError(err error) *APIError {
	return &APIError{
		Code:    ErrCodeDatabase,
		Message: "Database operation failed",
		Status:  http.StatusInternalServerError,
		Details: map[string]any{"cause": err.Error()},
	}
}
