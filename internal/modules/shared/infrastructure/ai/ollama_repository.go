package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"grammar-api-app/internal/config"
	"grammar-api-app/internal/modules/grammar/domain"
)

// OllamaRepository Ollama APIのリポジトリ実装
type OllamaRepository struct {
	baseURL     string
	model       string
	httpClient  *http.Client
	apiEndpoint string // テスト用にエンドポイントを差し替え可能に
}

// NewOllamaRepository 新しいOllamaRepositoryを作成
func NewOllamaRepository(cfg *config.OllamaConfig) *OllamaRepository {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	return &OllamaRepository{
		baseURL:     baseURL,
		model:       cfg.Model,
		httpClient:  &http.Client{Timeout: timeout},
		apiEndpoint: baseURL + "/api/generate",
	}
}

// SetHTTPClient テスト用にHTTPクライアントを設定（テストコードからのみ使用）
func (r *OllamaRepository) SetHTTPClient(client *http.Client) {
	r.httpClient = client
}

// SetAPIEndpoint テスト用にAPIエンドポイントを設定（テストコードからのみ使用）
func (r *OllamaRepository) SetAPIEndpoint(endpoint string) {
	r.apiEndpoint = endpoint
}

// Generate プロンプトから補完テキストを生成する。
// 非成功レスポンスはUpstreamErrorとしてステータスと本文を保持する
func (r *OllamaRepository) Generate(ctx context.Context, prompt string, opts domain.GenerationOptions) (string, error) {
	requestBody := map[string]interface{}{
		"model":  r.model,
		"prompt": prompt,
		"stream": false,
		"options": map[string]interface{}{
			"temperature": opts.Temperature,
			"top_p":       opts.TopP,
			"num_predict": opts.MaxTokens,
		},
	}

	jsonData, err := json.Marshal(requestBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.apiEndpoint, bytes.NewBuffer(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("API request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", &domain.UpstreamError{
			StatusCode: resp.StatusCode,
			Body:       string(body),
		}
	}

	var response struct {
		Response string `json:"response"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}

	return strings.TrimSpace(response.Response), nil
}

// ProviderName プロバイダー名を返す
func (r *OllamaRepository) ProviderName() string {
	return "Ollama"
}

// Model 使用中のモデル識別子を返す
func (r *OllamaRepository) Model() string {
	return r.model
}

// BaseURL 接続先のベースURLを返す
func (r *OllamaRepository) BaseURL() string {
	return r.baseURL
}
