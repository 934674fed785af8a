package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"

	"grammar-api-app/internal/modules/grammar/domain"
)

// MockCorrectionUseCase 文法補正ユースケースのモック
type MockCorrectionUseCase struct {
	CorrectFunc func(ctx context.Context, text string, style domain.Style) (*domain.CorrectionResult, error)
	CallCount   int
}

func (m *MockCorrectionUseCase) Correct(ctx context.Context, text string, style domain.Style) (*domain.CorrectionResult, error) {
	m.CallCount++
	if m.CorrectFunc != nil {
		return m.CorrectFunc(ctx, text, style)
	}
	return &domain.CorrectionResult{
		Corrected:  "Saya suka makan nasi",
		Tokenized:  []string{"Saya", "suka", "makan", "nasi"},
		ShortWords: []string{},
		TypoWords:  []string{"sya"},
	}, nil
}

// MockProfanityUseCase 不適切語検出ユースケースのモック
type MockProfanityUseCase struct {
	DetectFunc func(text string) (*domain.ProfanityResult, error)
	CallCount  int
}

func (m *MockProfanityUseCase) Detect(text string) (*domain.ProfanityResult, error) {
	m.CallCount++
	if m.DetectFunc != nil {
		return m.DetectFunc(text)
	}
	return &domain.ProfanityResult{
		Censored: "dia **** sekali",
		Found:    true,
		BadWords: []string{"goblok"},
	}, nil
}

// MockCacheRepository インメモリのキャッシュリポジトリモック
type MockCacheRepository struct {
	mu      sync.Mutex
	store   map[string][]byte
	SetKeys []string
	LastTTL time.Duration
}

func newMockCache() *MockCacheRepository {
	return &MockCacheRepository{store: map[string][]byte{}}
}

func (m *MockCacheRepository) Set(ctx context.Context, key string, value []byte, expiration time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.store[key] = value
	m.SetKeys = append(m.SetKeys, key)
	m.LastTTL = expiration
	return nil
}

func (m *MockCacheRepository) Get(ctx context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if v, ok := m.store[key]; ok {
		return v, nil
	}
	return nil, context.Canceled // 何らかのエラーであればミス扱い
}

func (m *MockCacheRepository) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.store, key)
	return nil
}

func (m *MockCacheRepository) Exists(ctx context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.store[key]
	return ok, nil
}

// MockHistoryRepository 補正履歴リポジトリのモック
type MockHistoryRepository struct {
	mu      sync.Mutex
	records []*domain.CorrectionRecord
	saved   chan struct{}
}

func newMockHistory() *MockHistoryRepository {
	return &MockHistoryRepository{saved: make(chan struct{}, 8)}
}

func (m *MockHistoryRepository) Save(ctx context.Context, record *domain.CorrectionRecord) error {
	m.mu.Lock()
	m.records = append(m.records, record)
	m.mu.Unlock()
	m.saved <- struct{}{}
	return nil
}

func (m *MockHistoryRepository) ListRecent(ctx context.Context, limit int) ([]*domain.CorrectionRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if limit > len(m.records) {
		limit = len(m.records)
	}
	return m.records[:limit], nil
}

func postJSON(t *testing.T, handler http.HandlerFunc, path string, payload interface{}) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("Failed to marshal payload: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler(rec, req)
	return rec
}

func TestGrammarHandler_HandleCorrect_MethodNotAllowed(t *testing.T) {
	h := NewGrammarHandler(&MockCorrectionUseCase{}, &MockProfanityUseCase{}, nil, nil, time.Hour)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/grammar/correct", nil)
	rec := httptest.NewRecorder()
	h.HandleCorrect(rec, req)

	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusMethodNotAllowed)
	}
}

func TestGrammarHandler_HandleCorrect_InvalidBody(t *testing.T) {
	h := NewGrammarHandler(&MockCorrectionUseCase{}, &MockProfanityUseCase{}, nil, nil, time.Hour)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/grammar/correct", strings.NewReader("{broken"))
	rec := httptest.NewRecorder()
	h.HandleCorrect(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestGrammarHandler_HandleCorrect_EmptyText(t *testing.T) {
	mockUC := &MockCorrectionUseCase{}
	mockCache := newMockCache()
	h := NewGrammarHandler(mockUC, &MockProfanityUseCase{}, mockCache, nil, time.Hour)

	tests := []struct {
		name string
		text string
	}{
		{name: "異常系: 空文字列", text: ""},
		{name: "異常系: 空白のみ", text: "   "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := postJSON(t, h.HandleCorrect, "/api/v1/grammar/correct", map[string]string{"text": tt.text})

			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
			}

			var response ErrorResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &response); err != nil {
				t.Fatalf("Failed to decode response: %v", err)
			}
			if !strings.Contains(response.Error, "text") {
				t.Errorf("Error message should name the violated precondition: %q", response.Error)
			}

			// 外部呼び出しもキャッシュ書き込みも発生しない
			if mockUC.CallCount != 0 {
				t.Errorf("Correct called %d times, want 0", mockUC.CallCount)
			}
			if len(mockCache.SetKeys) != 0 {
				t.Errorf("Cache written %d times, want 0", len(mockCache.SetKeys))
			}
		})
	}
}

func TestGrammarHandler_HandleCorrect_UnknownStyle(t *testing.T) {
	mockUC := &MockCorrectionUseCase{}
	h := NewGrammarHandler(mockUC, &MockProfanityUseCase{}, nil, nil, time.Hour)

	rec := postJSON(t, h.HandleCorrect, "/api/v1/grammar/correct",
		map[string]string{"text": "halo dunia", "style": "polite"})

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
	if mockUC.CallCount != 0 {
		t.Errorf("Correct called %d times, want 0", mockUC.CallCount)
	}
}

func TestGrammarHandler_HandleCorrect_CacheMiss(t *testing.T) {
	mockUC := &MockCorrectionUseCase{}
	mockCache := newMockCache()
	ttl := 3600 * time.Second
	h := NewGrammarHandler(mockUC, &MockProfanityUseCase{}, mockCache, nil, ttl)

	rec := postJSON(t, h.HandleCorrect, "/api/v1/grammar/correct",
		map[string]string{"text": "sya suka makan nasi", "style": "formal"})

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d: %s", rec.Code, http.StatusOK, rec.Body.String())
	}
	if rec.Header().Get("X-Cache") != "MISS" {
		t.Errorf("X-Cache = %q, want MISS", rec.Header().Get("X-Cache"))
	}

	var result domain.CorrectionResult
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if result.Corrected != "Saya suka makan nasi" {
		t.Errorf("Corrected = %q", result.Corrected)
	}
	if !reflect.DeepEqual(result.TypoWords, []string{"sya"}) {
		t.Errorf("TypoWords = %v", result.TypoWords)
	}

	// キャッシュに正しいキーとTTLで保存される
	wantKey := "grammar:formal:sya suka makan nasi"
	if len(mockCache.SetKeys) != 1 || mockCache.SetKeys[0] != wantKey {
		t.Errorf("SetKeys = %v, want [%s]", mockCache.SetKeys, wantKey)
	}
	if mockCache.LastTTL != ttl {
		t.Errorf("TTL = %v, want %v", mockCache.LastTTL, ttl)
	}
}

func TestGrammarHandler_HandleCorrect_CacheHit(t *testing.T) {
	mockUC := &MockCorrectionUseCase{}
	mockCache := newMockCache()
	h := NewGrammarHandler(mockUC, &MockProfanityUseCase{}, mockCache, nil, time.Hour)

	// 1回目のリクエストでキャッシュが温まる
	first := postJSON(t, h.HandleCorrect, "/api/v1/grammar/correct",
		map[string]string{"text": "sya suka makan nasi", "style": "formal"})
	if first.Code != http.StatusOK {
		t.Fatalf("first request status = %d", first.Code)
	}

	// 2回目は外部呼び出しなしで同一バイト列が返る
	second := postJSON(t, h.HandleCorrect, "/api/v1/grammar/correct",
		map[string]string{"text": "sya suka makan nasi", "style": "formal"})

	if second.Code != http.StatusOK {
		t.Fatalf("second request status = %d", second.Code)
	}
	if second.Header().Get("X-Cache") != "HIT" {
		t.Errorf("X-Cache = %q, want HIT", second.Header().Get("X-Cache"))
	}
	if mockUC.CallCount != 1 {
		t.Errorf("Correct called %d times, want exactly 1", mockUC.CallCount)
	}
	if !bytes.Equal(first.Body.Bytes(), second.Body.Bytes()) {
		t.Error("Cached response must be byte-identical to the fresh one")
	}
}

// TestGrammarHandler_HandleCorrect_CacheHitAcrossNormalization
// 前後空白と大文字小文字の違いは同一キャッシュエントリに解決される
func TestGrammarHandler_HandleCorrect_CacheHitAcrossNormalization(t *testing.T) {
	mockUC := &MockCorrectionUseCase{}
	mockCache := newMockCache()
	h := NewGrammarHandler(mockUC, &MockProfanityUseCase{}, mockCache, nil, time.Hour)

	_ = postJSON(t, h.HandleCorrect, "/api/v1/grammar/correct",
		map[string]string{"text": "  Halo Dunia  ", "style": "formal"})

	second := postJSON(t, h.HandleCorrect, "/api/v1/grammar/correct",
		map[string]string{"text": "halo dunia", "style": "formal"})

	if second.Header().Get("X-Cache") != "HIT" {
		t.Errorf("X-Cache = %q, want HIT after normalization", second.Header().Get("X-Cache"))
	}
	if mockUC.CallCount != 1 {
		t.Errorf("Correct called %d times, want 1", mockUC.CallCount)
	}
}

func TestGrammarHandler_HandleCorrect_UpstreamError(t *testing.T) {
	mockUC := &MockCorrectionUseCase{
		CorrectFunc: func(ctx context.Context, text string, style domain.Style) (*domain.CorrectionResult, error) {
			return nil, &domain.UpstreamError{StatusCode: 500, Body: `{"error":"model crashed"}`}
		},
	}
	mockCache := newMockCache()
	h := NewGrammarHandler(mockUC, &MockProfanityUseCase{}, mockCache, nil, time.Hour)

	rec := postJSON(t, h.HandleCorrect, "/api/v1/grammar/correct",
		map[string]string{"text": "halo dunia"})

	if rec.Code != http.StatusBadGateway {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusBadGateway)
	}

	var response ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if response.UpstreamStatus != 500 {
		t.Errorf("UpstreamStatus = %d, want 500", response.UpstreamStatus)
	}
	if !strings.Contains(response.UpstreamDetail, "model crashed") {
		t.Errorf("UpstreamDetail = %q", response.UpstreamDetail)
	}

	// 失敗した結果はキャッシュされない
	if len(mockCache.SetKeys) != 0 {
		t.Errorf("Cache written %d times, want 0", len(mockCache.SetKeys))
	}
}

func TestGrammarHandler_HandleCorrect_SavesHistory(t *testing.T) {
	mockHistory := newMockHistory()
	h := NewGrammarHandler(&MockCorrectionUseCase{}, &MockProfanityUseCase{}, nil, mockHistory, time.Hour)

	rec := postJSON(t, h.HandleCorrect, "/api/v1/grammar/correct",
		map[string]string{"text": "sya suka makan nasi", "style": "formal"})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	// 履歴保存はバックグラウンドで行われる
	select {
	case <-mockHistory.saved:
	case <-time.After(2 * time.Second):
		t.Fatal("History was not saved")
	}

	mockHistory.mu.Lock()
	defer mockHistory.mu.Unlock()
	if len(mockHistory.records) != 1 {
		t.Fatalf("records = %d, want 1", len(mockHistory.records))
	}
	record := mockHistory.records[0]
	if record.Text != "sya suka makan nasi" {
		t.Errorf("Text = %q", record.Text)
	}
	if record.Corrected != "Saya suka makan nasi" {
		t.Errorf("Corrected = %q", record.Corrected)
	}
	if record.Style != "formal" {
		t.Errorf("Style = %q", record.Style)
	}
	if record.TypoCount != 1 {
		t.Errorf("TypoCount = %d, want 1", record.TypoCount)
	}
	if record.ID == "" {
		t.Error("Expected non-empty record ID")
	}
}

func TestGrammarHandler_HandleProfanity(t *testing.T) {
	mockUC := &MockProfanityUseCase{}
	mockCache := newMockCache()
	h := NewGrammarHandler(&MockCorrectionUseCase{}, mockUC, mockCache, nil, time.Hour)

	rec := postJSON(t, h.HandleProfanity, "/api/v1/grammar/profanity",
		map[string]string{"text": "dia goblok sekali"})

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}

	var result domain.ProfanityResult
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if !result.Found {
		t.Error("Found = false, want true")
	}
	if !reflect.DeepEqual(result.BadWords, []string{"goblok"}) {
		t.Errorf("BadWords = %v", result.BadWords)
	}
	if !strings.Contains(result.Censored, "****") {
		t.Errorf("Censored = %q, want masked rendering", result.Censored)
	}

	wantKey := "profanity:dia goblok sekali"
	if len(mockCache.SetKeys) != 1 || mockCache.SetKeys[0] != wantKey {
		t.Errorf("SetKeys = %v, want [%s]", mockCache.SetKeys, wantKey)
	}
}

func TestGrammarHandler_HandleProfanity_EmptyText(t *testing.T) {
	mockUC := &MockProfanityUseCase{}
	h := NewGrammarHandler(&MockCorrectionUseCase{}, mockUC, nil, nil, time.Hour)

	rec := postJSON(t, h.HandleProfanity, "/api/v1/grammar/profanity", map[string]string{"text": " "})

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
	if mockUC.CallCount != 0 {
		t.Errorf("Detect called %d times, want 0", mockUC.CallCount)
	}
}

func TestGrammarHandler_HandleProfanity_CacheHit(t *testing.T) {
	mockUC := &MockProfanityUseCase{}
	mockCache := newMockCache()
	h := NewGrammarHandler(&MockCorrectionUseCase{}, mockUC, mockCache, nil, time.Hour)

	first := postJSON(t, h.HandleProfanity, "/api/v1/grammar/profanity",
		map[string]string{"text": "dia goblok sekali"})
	second := postJSON(t, h.HandleProfanity, "/api/v1/grammar/profanity",
		map[string]string{"text": "dia goblok sekali"})

	if second.Header().Get("X-Cache") != "HIT" {
		t.Errorf("X-Cache = %q, want HIT", second.Header().Get("X-Cache"))
	}
	if mockUC.CallCount != 1 {
		t.Errorf("Detect called %d times, want 1", mockUC.CallCount)
	}
	if !bytes.Equal(first.Body.Bytes(), second.Body.Bytes()) {
		t.Error("Cached response must be byte-identical")
	}
}

func TestGrammarHandler_HandleHistory(t *testing.T) {
	mockHistory := newMockHistory()
	mockHistory.records = []*domain.CorrectionRecord{
		{ID: "1", Text: "sya", Corrected: "Saya", Style: "formal", TypoCount: 1, CreatedAt: time.Now()},
	}
	h := NewGrammarHandler(&MockCorrectionUseCase{}, &MockProfanityUseCase{}, nil, mockHistory, time.Hour)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/grammar/history", nil)
	rec := httptest.NewRecorder()
	h.HandleHistory(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var response HistoryResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if len(response.Histories) != 1 {
		t.Fatalf("histories = %d, want 1", len(response.Histories))
	}
	if response.Histories[0].Corrected != "Saya" {
		t.Errorf("Corrected = %q", response.Histories[0].Corrected)
	}
}

func TestGrammarHandler_HandleHistory_NotConfigured(t *testing.T) {
	h := NewGrammarHandler(&MockCorrectionUseCase{}, &MockProfanityUseCase{}, nil, nil, time.Hour)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/grammar/history", nil)
	rec := httptest.NewRecorder()
	h.HandleHistory(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusServiceUnavailable)
	}
}

func TestGrammarHandler_HandleHistory_InvalidLimit(t *testing.T) {
	h := NewGrammarHandler(&MockCorrectionUseCase{}, &MockProfanityUseCase{}, nil, newMockHistory(), time.Hour)

	for _, limit := range []string{"0", "-1", "101", "abc"} {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/grammar/history?limit="+limit, nil)
		rec := httptest.NewRecorder()
		h.HandleHistory(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Errorf("limit=%s: status = %d, want %d", limit, rec.Code, http.StatusBadRequest)
		}
	}
}

func TestCacheKeys(t *testing.T) {
	// 正規化: 前後空白の除去と小文字化
	if CorrectionCacheKey(domain.StyleFormal, "  Halo Dunia  ") != CorrectionCacheKey(domain.StyleFormal, "halo dunia") {
		t.Error("Keys must match after trim + lower-case normalization")
	}

	// スタイルが異なればキーも異なる
	if CorrectionCacheKey(domain.StyleFormal, "halo dunia") == CorrectionCacheKey(domain.StyleCasual, "halo dunia") {
		t.Error("Keys must differ across styles")
	}

	// 操作種別で名前空間が分かれる
	if strings.HasPrefix(ProfanityCacheKey("halo"), "grammar:") {
		t.Error("Profanity keys must not share the grammar namespace")
	}
	if !strings.HasPrefix(CorrectionCacheKey(domain.StyleFormal, "halo"), "grammar:") {
		t.Error("Correction keys must use the grammar namespace")
	}
	if ProfanityCacheKey(" Halo ") != ProfanityCacheKey("halo") {
		t.Error("Profanity keys must normalize the same way")
	}
}
