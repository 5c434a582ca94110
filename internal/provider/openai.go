// Package provider は外部翻訳API（OpenAI互換のChat Completionsエンドポイント）の
// クライアントを提供する。
package provider

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/hitoshi/transgate/internal/translation"
)

// OpenAIConfig はOpenAI互換翻訳APIの設定。
type OpenAIConfig struct {
	APIKey  string
	BaseURL string        // 空の場合はOpenAIの既定エンドポイント
	Model   string        // 空の場合は"gpt-3.5-turbo"
	Timeout time.Duration // HTTPタイムアウト。0の場合は30秒。
}

// OpenAIProvider はOpenAI互換APIを呼び出すProvider実装。
type OpenAIProvider struct {
	client *openai.Client
	model  string
}

// NewOpenAIProvider はOpenAIProviderを生成する。
func NewOpenAIProvider(cfg OpenAIConfig) *OpenAIProvider {
	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	clientConfig.HTTPClient = &http.Client{Timeout: timeout}

	model := cfg.Model
	if model == "" {
		model = "gpt-3.5-turbo"
	}

	return &OpenAIProvider{
		client: openai.NewClientWithConfig(clientConfig),
		model:  model,
	}
}

// Translate は原文を1回の同期呼び出しで翻訳する。リトライはしない。
// タイムアウト・非2xx・空レスポンスはいずれもエラーとして返す。
func (p *OpenAIProvider) Translate(ctx context.Context, text, sourceLangName, targetLangName string) (string, error) {
	prompt := buildPrompt(text, sourceLangName, targetLangName)

	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: p.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		return "", fmt.Errorf("translation api call failed: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("translation api returned no choices")
	}

	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	if content == "" {
		return "", fmt.Errorf("translation api returned empty content")
	}

	return content, nil
}

// buildPrompt は翻訳指示のプロンプトを組み立てる。
// 訳文以外を返させないことがキャッシュ品質に直結する。
func buildPrompt(text, sourceLangName, targetLangName string) string {
	return fmt.Sprintf(
		"Translate the following %s text into %s. Return only the translation, with no explanations or extra content:\n\n%s",
		sourceLangName, targetLangName, text,
	)
}

// compile-time interface check
var _ translation.Provider = (*OpenAIProvider)(nil)
