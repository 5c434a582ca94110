package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/hitoshi/transgate/internal/model"
	"github.com/hitoshi/transgate/internal/translation"
)

// TranslationServiceInterface は翻訳ハンドラーが必要とするサービスインターフェース。
type TranslationServiceInterface interface {
	// Translate はテキストを翻訳する。キャッシュがあればそれを返す。
	Translate(ctx context.Context, text, sourceLang, targetLang string) *model.TranslateResult
}

// TranslationHandler は翻訳関連のHTTPハンドラー。
type TranslationHandler struct {
	service TranslationServiceInterface
}

// NewTranslationHandler はTranslationHandlerを生成する。
func NewTranslationHandler(service TranslationServiceInterface) *TranslationHandler {
	return &TranslationHandler{service: service}
}

// translateRequest は翻訳リクエストのボディ。
type translateRequest struct {
	Text       string `json:"text"`
	SourceLang string `json:"sourceLang"`
	TargetLang string `json:"targetLang"`
}

// translateResponse は翻訳のAPIレスポンス。
type translateResponse struct {
	Success        bool   `json:"success"`
	TranslatedText string `json:"translatedText,omitempty"`
	SourceLang     string `json:"sourceLang"`
	TargetLang     string `json:"targetLang"`
	Error          string `json:"error,omitempty"`
}

// languageEntry は対応言語一覧の1エントリ。
type languageEntry struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// Translate は翻訳リクエストを処理する。
// POST /api/translate
func (h *TranslationHandler) Translate(w http.ResponseWriter, r *http.Request) {
	var req translateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeTranslateResponse(w, http.StatusBadRequest, &model.TranslateResult{
			Success: false,
			Error:   "リクエストボディの解析に失敗しました。",
		})
		return
	}

	if req.Text == "" {
		writeTranslateResponse(w, http.StatusBadRequest, &model.TranslateResult{
			Success:    false,
			SourceLang: req.SourceLang,
			TargetLang: req.TargetLang,
			Error:      "翻訳するテキストが空です。",
		})
		return
	}
	if req.SourceLang == "" || req.TargetLang == "" {
		writeTranslateResponse(w, http.StatusBadRequest, &model.TranslateResult{
			Success:    false,
			SourceLang: req.SourceLang,
			TargetLang: req.TargetLang,
			Error:      "翻訳元・翻訳先の言語は必須です。",
		})
		return
	}

	result := h.service.Translate(r.Context(), req.Text, req.SourceLang, req.TargetLang)
	writeTranslateResponse(w, http.StatusOK, result)
}

// Languages は対応言語の一覧を返す。
// GET /api/languages
func (h *TranslationHandler) Languages(w http.ResponseWriter, r *http.Request) {
	codes := translation.SupportedLanguages()
	entries := make([]languageEntry, 0, len(codes))
	for _, code := range codes {
		entries = append(entries, languageEntry{
			Code: code,
			Name: translation.LanguageName(code),
		})
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"languages": entries,
	})
}

// writeTranslateResponse はTranslateResultをJSONレスポンスに変換して書き込む。
func writeTranslateResponse(w http.ResponseWriter, statusCode int, result *model.TranslateResult) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(translateResponse{
		Success:        result.Success,
		TranslatedText: result.TranslatedText,
		SourceLang:     result.SourceLang,
		TargetLang:     result.TargetLang,
		Error:          result.Error,
	})
}
