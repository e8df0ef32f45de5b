// Package handler はHTTPハンドラーを提供する。
package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/hitoshi/taskman/internal/middleware"
	"github.com/hitoshi/taskman/internal/model"
)

// writeJSON はJSONレスポンスを書き込む。
func writeJSON(w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(v)
}

// handleServiceError はサービス層のエラーをHTTPレスポンスへ変換する。
// 型付きAPIErrorは保持するステータスで返す。500番台のdetailsには
// ドライバ由来の生のエラーメッセージが入るため、ログにのみ記録して
// レスポンスからは落とす。
func handleServiceError(w http.ResponseWriter, err error) {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		if apiErr.Status >= http.StatusInternalServerError {
			slog.Error("internal server error",
				slog.String("code", apiErr.Code),
				slog.Any("details", apiErr.Details),
			)
			middleware.WriteErrorResponse(w, &model.APIError{
				Code:    apiErr.Code,
				Message: apiErr.Message,
				Status:  apiErr.Status,
			})
			return
		}
		middleware.WriteErrorResponse(w, apiErr)
		return
	}

	// APIError以外のエラーは内部サーバーエラーとして扱う
	slog.Error("internal server error", slog.String("error", err.Error()))
	middleware.WriteInternalServerError(w)
}

// writeUnauthorized は認証必須ルートでコンテキストにユーザーIDが
// ない場合の401レスポンスを書き込む。
func writeUnauthorized(w http.ResponseWriter) {
	middleware.WriteErrorResponse(w, model.NewUnauthorizedError("Authentication required"))
}
