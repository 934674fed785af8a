package handler

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"grammar-api-app/internal/modules/grammar/domain"
)

// GrammarHandler 文法補正APIのハンドラー
type GrammarHandler struct {
	correctionUC CorrectionUseCaseInterface
	profanityUC  ProfanityUseCaseInterface
	cacheRepo    CacheRepositoryInterface
	historyRepo  HistoryRepositoryInterface
	cacheTTL     time.Duration
}

// NewGrammarHandler 新しいGrammarHandlerを作成
func NewGrammarHandler(
	correctionUC CorrectionUseCaseInterface,
	profanityUC ProfanityUseCaseInterface,
	cacheRepo CacheRepositoryInterface,
	historyRepo HistoryRepositoryInterface,
	cacheTTL time.Duration,
) *GrammarHandler {
	if cacheTTL <= 0 {
		cacheTTL = time.Hour
	}
	return &GrammarHandler{
		correctionUC: correctionUC,
		profanityUC:  profanityUC,
		cacheRepo:    cacheRepo,
		historyRepo:  historyRepo,
		cacheTTL:     cacheTTL,
	}
}

// ErrorResponse エラーレスポンス
type ErrorResponse struct {
	Success        bool   `json:"success"`
	Error          string `json:"error"`
	UpstreamStatus int    `json:"upstream_status,omitempty"`
	UpstreamDetail string `json:"upstream_detail,omitempty"`
}

// HistoryResponse 補正履歴のレスポンス
type HistoryResponse struct {
	Histories []HistoryEntry `json:"histories"`
}

// HistoryEntry 補正履歴の1件分
type HistoryEntry struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	Corrected string    `json:"corrected"`
	Style     string    `json:"style"`
	TypoCount int       `json:"typo_count"`
	CreatedAt time.Time `json:"created_at"`
}

// HandleCorrect 文法補正ハンドラー
func (h *GrammarHandler) HandleCorrect(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.sendError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()

	var request struct {
		Text  string `json:"text"`
		Style string `json:"style"`
	}
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		h.sendError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	// 入力検証（キャッシュ参照・外部呼び出しの前に実施）
	if strings.TrimSpace(request.Text) == "" {
		h.sendError(w, "`text` must be non-empty.", http.StatusBadRequest)
		return
	}

	style, err := domain.ParseStyle(request.Style)
	if err != nil {
		h.sendError(w, fmt.Sprintf("`style` must be one of formal, casual, santai: got %q", request.Style), http.StatusBadRequest)
		return
	}

	// キャッシュキーの生成
	cacheKey := CorrectionCacheKey(style, request.Text)

	// Redisキャッシュチェック
	if h.cacheRepo != nil {
		if cached, err := h.cacheRepo.Get(ctx, cacheKey); err == nil && len(cached) > 0 {
			h.sendCached(w, cached)
			return
		}
	}

	// 補正実行
	result, err := h.correctionUC.Correct(ctx, request.Text, style)
	if err != nil {
		h.sendUseCaseError(w, err)
		return
	}

	payload, err := json.Marshal(result)
	if err != nil {
		h.sendError(w, "Failed to encode result", http.StatusInternalServerError)
		return
	}

	// Redisにキャッシュ保存
	if h.cacheRepo != nil {
		if err := h.cacheRepo.Set(ctx, cacheKey, payload, h.cacheTTL); err != nil {
			slog.Warn("failed to store correction result in cache",
				"key", cacheKey,
				"error", err,
			)
		}
	}

	// MySQLに履歴保存（バックグラウンド処理）
	if h.historyRepo != nil {
		go h.saveHistory(context.Background(), request.Text, string(style), result)
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Cache", "MISS")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(payload)
}

// HandleProfanity 不適切語検出ハンドラー
func (h *GrammarHandler) HandleProfanity(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.sendError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()

	var request struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		h.sendError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if strings.TrimSpace(request.Text) == "" {
		h.sendError(w, "`text` must be provided.", http.StatusBadRequest)
		return
	}

	cacheKey := ProfanityCacheKey(request.Text)

	if h.cacheRepo != nil {
		if cached, err := h.cacheRepo.Get(ctx, cacheKey); err == nil && len(cached) > 0 {
			h.sendCached(w, cached)
			return
		}
	}

	result, err := h.profanityUC.Detect(request.Text)
	if err != nil {
		h.sendUseCaseError(w, err)
		return
	}

	payload, err := json.Marshal(result)
	if err != nil {
		h.sendError(w, "Failed to encode result", http.StatusInternalServerError)
		return
	}

	if h.cacheRepo != nil {
		if err := h.cacheRepo.Set(ctx, cacheKey, payload, h.cacheTTL); err != nil {
			slog.Warn("failed to store profanity result in cache",
				"key", cacheKey,
				"error", err,
			)
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Cache", "MISS")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(payload)
}

// HandleHistory 補正履歴の取得ハンドラー
func (h *GrammarHandler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.sendError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if h.historyRepo == nil {
		h.sendError(w, "History storage is not configured", http.StatusServiceUnavailable)
		return
	}

	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed <= 0 || parsed > 100 {
			h.sendError(w, "`limit` must be an integer between 1 and 100", http.StatusBadRequest)
			return
		}
		limit = parsed
	}

	records, err := h.historyRepo.ListRecent(r.Context(), limit)
	if err != nil {
		h.sendError(w, fmt.Sprintf("Failed to load history: %v", err), http.StatusInternalServerError)
		return
	}

	response := HistoryResponse{Histories: make([]HistoryEntry, 0, len(records))}
	for _, rec := range records {
		response.Histories = append(response.Histories, HistoryEntry{
			ID:        rec.ID,
			Text:      rec.Text,
			Corrected: rec.Corrected,
			Style:     rec.Style,
			TypoCount: rec.TypoCount,
			CreatedAt: rec.CreatedAt,
		})
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(response)
}

// CorrectionCacheKey 補正結果のキャッシュキーを導出する。
// 同一の（スタイル, 正規化済みテキスト）は常に同一キーになる
func CorrectionCacheKey(style domain.Style, text string) string {
	return fmt.Sprintf("grammar:%s:%s", style, normalizeText(text))
}

// ProfanityCacheKey 不適切語検出結果のキャッシュキーを導出する
func ProfanityCacheKey(text string) string {
	return fmt.Sprintf("profanity:%s", normalizeText(text))
}

// normalizeText キー導出用の正規化（前後空白除去＋小文字化）
func normalizeText(text string) string {
	return strings.ToLower(strings.TrimSpace(text))
}

// sendCached キャッシュ済みのシリアライズ結果をそのまま返す
func (h *GrammarHandler) sendCached(w http.ResponseWriter, payload []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Cache", "HIT")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(payload)
}

// sendUseCaseError ユースケースのエラーをHTTPステータスに変換して返す
func (h *GrammarHandler) sendUseCaseError(w http.ResponseWriter, err error) {
	if errors.Is(err, domain.ErrEmptyText) {
		h.sendError(w, "`text` must be non-empty.", http.StatusBadRequest)
		return
	}

	var upstream *domain.UpstreamError
	if errors.As(err, &upstream) {
		response := ErrorResponse{
			Success:        false,
			Error:          "Completion engine returned an error",
			UpstreamStatus: upstream.StatusCode,
			UpstreamDetail: upstream.Body,
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadGateway)
		_ = json.NewEncoder(w).Encode(response)
		return
	}

	h.sendError(w, fmt.Sprintf("Correction failed: %v", err), http.StatusInternalServerError)
}

// sendError エラーレスポンスを送信
func (h *GrammarHandler) sendError(w http.ResponseWriter, message string, statusCode int) {
	response := ErrorResponse{
		Success: false,
		Error:   message,
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(response)
}

// saveHistory 補正履歴をデータベースに保存
func (h *GrammarHandler) saveHistory(ctx context.Context, text, style string, result *domain.CorrectionResult) {
	record := &domain.CorrectionRecord{
		ID:        generateUUID(),
		Text:      text,
		Corrected: result.Corrected,
		Style:     style,
		TypoCount: len(result.TypoWords),
		CreatedAt: time.Now(),
	}

	if err := h.historyRepo.Save(ctx, record); err != nil {
		slog.Error("failed to save correction history",
			"id", record.ID,
			"error", err,
		)
		return
	}
}

// generateUUID UUIDを生成（簡易版）
func generateUUID() string {
	b := make([]byte, 16)
	_, _ = io.ReadFull(rand.Reader, b)
	b[6] = (b[6] & 0x0f) | 0x40
	b[8] = (b[8] & 0x3f) | 0x80
	return fmt.Sprintf("%x-%x-%x-%x-%x", b[0:4], b[4:6], b[6:8], b[8:10], b[10:])
}
