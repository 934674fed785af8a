package handler

import (
	"encoding/json"
	"net/http"
)

// HealthHandler ヘルスチェックのハンドラー
type HealthHandler struct {
	ollamaURL string
	model     string
}

// NewHealthHandler 新しいHealthHandlerを作成
func NewHealthHandler(ollamaURL, model string) *HealthHandler {
	return &HealthHandler{
		ollamaURL: ollamaURL,
		model:     model,
	}
}

// HealthResponse ヘルスチェックのレスポンス
type HealthResponse struct {
	Status    string `json:"status"`
	OllamaURL string `json:"ollama_url"`
	Model     string `json:"model"`
}

// ServeHTTP ヘルスチェックを処理。接続先エンジンの情報も返す（情報提供のみ）
func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	response := HealthResponse{
		Status:    "ok",
		OllamaURL: h.ollamaURL,
		Model:     h.model,
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(response)
}
