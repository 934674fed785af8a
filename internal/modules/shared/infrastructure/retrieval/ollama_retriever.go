// Package retrieval 参照文書の断片を埋め込みベクトルで検索する
package retrieval

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"os"
	"sort"
	"strings"
	"time"

	"grammar-api-app/internal/config"
	"grammar-api-app/internal/modules/grammar/domain"
)

const (
	// chunkSize 参照文書を分割する際のチャンク長（文字数）
	chunkSize = 500
	// chunkOverlap 隣接チャンク間の重なり（文字数）
	chunkOverlap = 50
)

// fragment 埋め込み済みの参照文書断片
type fragment struct {
	text   string
	vector []float64
}

// OllamaRetriever Ollama埋め込みAPIによる参照文書検索
type OllamaRetriever struct {
	embedModel  string
	topK        int
	httpClient  *http.Client
	apiEndpoint string // テスト用にエンドポイントを差し替え可能に
	fragments   []fragment
}

// NewOllamaRetriever 新しいOllamaRetrieverを作成。
// 参照文書ファイルを読み込み、起動時に全チャンクを埋め込む
func NewOllamaRetriever(ollamaCfg *config.OllamaConfig, retrievalCfg *config.RetrievalConfig) (*OllamaRetriever, error) {
	data, err := os.ReadFile(retrievalCfg.DocsPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read reference docs: %w", err)
	}

	r := &OllamaRetriever{
		embedModel:  ollamaCfg.EmbedModel,
		topK:        retrievalCfg.TopK,
		httpClient:  &http.Client{Timeout: 30 * time.Second},
		apiEndpoint: strings.TrimRight(ollamaCfg.BaseURL, "/") + "/api/embed",
	}

	chunks := splitChunks(string(data), chunkSize, chunkOverlap)
	if len(chunks) == 0 {
		return nil, fmt.Errorf("reference docs are empty: %s", retrievalCfg.DocsPath)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	vectors, err := r.embed(ctx, chunks)
	if err != nil {
		return nil, fmt.Errorf("failed to embed reference docs: %w", err)
	}

	r.fragments = make([]fragment, len(chunks))
	for i, chunk := range chunks {
		r.fragments[i] = fragment{text: chunk, vector: vectors[i]}
	}

	return r, nil
}

// Retrieve 入力テキストに類似する参照断片を類似度の高い順に返す
func (r *OllamaRetriever) Retrieve(ctx context.Context, text string) ([]string, error) {
	vectors, err := r.embed(ctx, []string{text})
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}
	query := vectors[0]

	type scored struct {
		text  string
		score float64
	}
	candidates := make([]scored, 0, len(r.fragments))
	for _, f := range r.fragments {
		candidates = append(candidates, scored{
			text:  f.text,
			score: cosineSimilarity(query, f.vector),
		})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].score > candidates[j].score
	})

	k := r.topK
	if k > len(candidates) {
		k = len(candidates)
	}
	results := make([]string, 0, k)
	for _, c := range candidates[:k] {
		results = append(results, c.text)
	}
	return results, nil
}

// embed テキスト列を埋め込みベクトルに変換する
func (r *OllamaRetriever) embed(ctx context.Context, inputs []string) ([][]float64, error) {
	requestBody := map[string]interface{}{
		"model": r.embedModel,
		"input": inputs,
	}

	jsonData, err := json.Marshal(requestBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.apiEndpoint, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("API request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, &domain.UpstreamError{
			StatusCode: resp.StatusCode,
			Body:       string(body),
		}
	}

	var response struct {
		Embeddings [][]float64 `json:"embeddings"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	if len(response.Embeddings) != len(inputs) {
		return nil, fmt.Errorf("expected %d embeddings, got %d", len(inputs), len(response.Embeddings))
	}

	return response.Embeddings, nil
}

// splitChunks テキストを重なり付きの固定長チャンクに分割する
func splitChunks(text string, size, overlap int) []string {
	runes := []rune(strings.TrimSpace(text))
	if len(runes) == 0 {
		return nil
	}
	if size <= 0 {
		size = chunkSize
	}
	if overlap < 0 || overlap >= size {
		overlap = 0
	}

	chunks := []string{}
	step := size - overlap
	for start := 0; start < len(runes); start += step {
		end := start + size
		if end > len(runes) {
			end = len(runes)
		}
		chunk := strings.TrimSpace(string(runes[start:end]))
		if chunk != "" {
			chunks = append(chunks, chunk)
		}
		if end == len(runes) {
			break
		}
	}
	return chunks
}

// cosineSimilarity 2つのベクトルのコサイン類似度を計算する
func cosineSimilarity(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
