package domain

import (
	"context"
	"time"
)

// GenerationOptions 補完エンジンの生成オプション
type GenerationOptions struct {
	Temperature float64
	TopP        float64
	MaxTokens   int
}

// CompletionRepository 補完エンジンのリポジトリインターフェース
type CompletionRepository interface {
	// Generate プロンプトから補完テキストを生成
	Generate(ctx context.Context, prompt string, opts GenerationOptions) (string, error)

	// ProviderName プロバイダー名を返す
	ProviderName() string

	// Model 使用中のモデル識別子を返す
	Model() string

	// BaseURL 接続先のベースURLを返す
	BaseURL() string
}

// ReferenceRetriever 入力テキストに関連する参照文書の断片を返す
type ReferenceRetriever interface {
	Retrieve(ctx context.Context, text string) ([]string, error)
}

// CorrectionRecord 補正履歴のエンティティ
type CorrectionRecord struct {
	ID        string
	Text      string
	Corrected string
	Style     string
	TypoCount int
	CreatedAt time.Time
}

// HistoryRepository 補正履歴のリポジトリインターフェース
type HistoryRepository interface {
	Save(ctx context.Context, record *CorrectionRecord) error
	ListRecent(ctx context.Context, limit int) ([]*CorrectionRecord, error)
}
