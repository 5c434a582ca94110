package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/hitoshi/transgate/internal/model"
)

// --- モック定義 ---

type mockActivationService struct {
	activateFn        func(ctx context.Context, code string, userID int64, deviceID string) *model.ActivationResult
	checkUserStatusFn func(ctx context.Context, userID int64) *model.ActivationResult
}

func (m *mockActivationService) Activate(ctx context.Context, code string, userID int64, deviceID string) *model.ActivationResult {
	if m.activateFn != nil {
		return m.activateFn(ctx, code, userID, deviceID)
	}
	return &model.ActivationResult{Success: false}
}

func (m *mockActivationService) CheckUserStatus(ctx context.Context, userID int64) *model.ActivationResult {
	if m.checkUserStatusFn != nil {
		return m.checkUserStatusFn(ctx, userID)
	}
	return &model.ActivationResult{Success: false}
}

var _ ActivationServiceInterface = (*mockActivationService)(nil)

// --- テスト ---

func TestActivate_Success(t *testing.T) {
	expireAt := time.Now().Add(30 * 24 * time.Hour).Truncate(time.Second)
	svc := &mockActivationService{
		activateFn: func(ctx context.Context, code string, userID int64, deviceID string) *model.ActivationResult {
			if code != "CODE-1" || userID != 42 || deviceID != "device-a" {
				t.Errorf("unexpected args: code=%q userID=%d deviceID=%q", code, userID, deviceID)
			}
			return &model.ActivationResult{
				Success:         true,
				Message:         "激活に成功しました。",
				Token:           code,
				ExpireAt:        &expireAt,
				ExpireTimestamp: expireAt.UnixMilli(),
			}
		},
	}
	h := NewActivationHandler(svc)

	body := `{"code":"CODE-1","userId":42,"deviceId":"device-a"}`
	req := httptest.NewRequest(http.MethodPost, "/api/activate", strings.NewReader(body))
	rec := httptest.NewRecorder()

	h.Activate(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var resp struct {
		Success         bool   `json:"success"`
		Token           string `json:"token"`
		ExpireTimestamp int64  `json:"expireTimestamp"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if !resp.Success {
		t.Error("expected success=true")
	}
	if resp.Token != "CODE-1" {
		t.Errorf("token = %q, want %q", resp.Token, "CODE-1")
	}
	if resp.ExpireTimestamp != expireAt.UnixMilli() {
		t.Errorf("expireTimestamp = %d, want %d", resp.ExpireTimestamp, expireAt.UnixMilli())
	}
}

func TestActivate_BusinessFailure_Still200(t *testing.T) {
	// ドメイン上の失敗は結果値であり、HTTPレベルでは成功
	svc := &mockActivationService{
		activateFn: func(ctx context.Context, code string, userID int64, deviceID string) *model.ActivationResult {
			return &model.ActivationResult{Success: false, Message: "激活コードは既に使用されています。"}
		},
	}
	h := NewActivationHandler(svc)

	body := `{"code":"USED-CODE","userId":42,"deviceId":"device-a"}`
	req := httptest.NewRequest(http.MethodPost, "/api/activate", strings.NewReader(body))
	rec := httptest.NewRecorder()

	h.Activate(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var resp struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Success {
		t.Error("expected success=false")
	}
	if resp.Message == "" {
		t.Error("expected non-empty message")
	}
}

func TestActivate_InvalidRequests_Return400(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "不正なJSON", body: `{not json`},
		{name: "コード欠落", body: `{"userId":42,"deviceId":"device-a"}`},
		{name: "ユーザーID欠落", body: `{"code":"CODE-1","deviceId":"device-a"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewActivationHandler(&mockActivationService{})

			req := httptest.NewRequest(http.MethodPost, "/api/activate", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()

			h.Activate(rec, req)

			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", rec.Code)
			}
		})
	}
}

func TestCheck_ActiveUser(t *testing.T) {
	svc := &mockActivationService{
		checkUserStatusFn: func(ctx context.Context, userID int64) *model.ActivationResult {
			if userID != 42 {
				t.Errorf("userID = %d, want 42", userID)
			}
			return &model.ActivationResult{Success: true, Token: "CODE-1"}
		},
	}
	h := NewActivationHandler(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/check?userId=42", nil)
	rec := httptest.NewRecorder()

	h.Check(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var resp struct {
		Success bool   `json:"success"`
		Token   string `json:"token"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if !resp.Success || resp.Token != "CODE-1" {
		t.Errorf("resp = %+v, want success with token CODE-1", resp)
	}
}

func TestCheck_InvalidUserID_Returns400(t *testing.T) {
	tests := []string{"/api/check", "/api/check?userId=abc", "/api/check?userId=-1"}

	for _, target := range tests {
		h := NewActivationHandler(&mockActivationService{})

		req := httptest.NewRequest(http.MethodGet, target, nil)
		rec := httptest.NewRecorder()

		h.Check(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Errorf("%s: status = %d, want 400", target, rec.Code)
		}
	}
}
