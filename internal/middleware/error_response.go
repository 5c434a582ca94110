package middleware

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/hitoshi/transgate/internal/model"
)

// errorResponseBody はAPIエラーレスポンスのJSON形式。
type errorResponseBody struct {
	Error *model.APIError `json:"error"`
}

// WriteErrorResponse は構造化されたAPIエラーをJSONで書き込む。
func WriteErrorResponse(w http.ResponseWriter, statusCode int, apiErr *model.APIError) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(errorResponseBody{Error: apiErr}); err != nil {
		slog.Error("failed to encode error response", slog.String("error", err.Error()))
	}
}

// WriteInternalServerError は内部エラーの500レスポンスを書き込む。
// 内部の詳細はクライアントに漏らさない。
func WriteInternalServerError(w http.ResponseWriter) {
	WriteErrorResponse(w, http.StatusInternalServerError, model.NewSystemError())
}
