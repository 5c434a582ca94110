// Package handler はHTTP APIのハンドラーとルーティングを提供する。
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/hitoshi/transgate/internal/model"
)

// ActivationServiceInterface は激活ハンドラーが必要とするサービスインターフェース。
type ActivationServiceInterface interface {
	// Activate は激活コードをユーザーと端末にバインドする。
	Activate(ctx context.Context, code string, userID int64, deviceID string) *model.ActivationResult
	// CheckUserStatus はユーザーの有効な授権を問い合わせる。
	CheckUserStatus(ctx context.Context, userID int64) *model.ActivationResult
}

// ActivationHandler は激活コード関連のHTTPハンドラー。
type ActivationHandler struct {
	service ActivationServiceInterface
}

// NewActivationHandler はActivationHandlerを生成する。
func NewActivationHandler(service ActivationServiceInterface) *ActivationHandler {
	return &ActivationHandler{service: service}
}

// activateRequest は激活リクエストのボディ。
type activateRequest struct {
	Code     string `json:"code"`
	UserID   int64  `json:"userId"`
	DeviceID string `json:"deviceId"`
}

// activationResponse は激活・状態確認のAPIレスポンス。
// 失敗も成功と同じ形式で返し、successフラグで区別する。
type activationResponse struct {
	Success         bool       `json:"success"`
	Message         string     `json:"message"`
	Token           string     `json:"token,omitempty"`
	ExpireAt        *time.Time `json:"expireAt,omitempty"`
	ExpireTimestamp int64      `json:"expireTimestamp,omitempty"`
}

// Activate は激活コードのバインドを処理する。
// POST /api/activate
func (h *ActivationHandler) Activate(w http.ResponseWriter, r *http.Request) {
	var req activateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeActivationResponse(w, http.StatusBadRequest, &model.ActivationResult{
			Success: false,
			Message: "リクエストボディの解析に失敗しました。",
		})
		return
	}

	if req.Code == "" || req.UserID == 0 {
		writeActivationResponse(w, http.StatusBadRequest, &model.ActivationResult{
			Success: false,
			Message: "激活コードとユーザーIDは必須です。",
		})
		return
	}

	result := h.service.Activate(r.Context(), req.Code, req.UserID, req.DeviceID)

	slog.Info("activation handled",
		slog.Int64("user_id", req.UserID),
		slog.Bool("success", result.Success),
	)

	writeActivationResponse(w, http.StatusOK, result)
}

// Check はユーザーの授権状態確認を処理する。
// GET /api/check?userId=123
func (h *ActivationHandler) Check(w http.ResponseWriter, r *http.Request) {
	userIDParam := r.URL.Query().Get("userId")
	userID, err := strconv.ParseInt(userIDParam, 10, 64)
	if err != nil || userID <= 0 {
		writeActivationResponse(w, http.StatusBadRequest, &model.ActivationResult{
			Success: false,
			Message: "userIdパラメータが不正です。",
		})
		return
	}

	result := h.service.CheckUserStatus(r.Context(), userID)
	writeActivationResponse(w, http.StatusOK, result)
}

// writeActivationResponse はActivationResultをJSONレスポンスに変換して書き込む。
func writeActivationResponse(w http.ResponseWriter, statusCode int, result *model.ActivationResult) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(activationResponse{
		Success:         result.Success,
		Message:         result.Message,
		Token:           result.Token,
		ExpireAt:        result.ExpireAt,
		ExpireTimestamp: result.ExpireTimestamp,
	})
}
