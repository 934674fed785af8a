package handler

import (
	"context"
	"time"

	"grammar-api-app/internal/modules/grammar/domain"
)

// CorrectionUseCaseInterface 文法補正ユースケースのインターフェース
type CorrectionUseCaseInterface interface {
	Correct(ctx context.Context, text string, style domain.Style) (*domain.CorrectionResult, error)
}

// ProfanityUseCaseInterface 不適切語検出ユースケースのインターフェース
type ProfanityUseCaseInterface interface {
	Detect(text string) (*domain.ProfanityResult, error)
}

// CacheRepositoryInterface キャッシュリポジトリのインターフェース
type CacheRepositoryInterface interface {
	Set(ctx context.Context, key string, value []byte, expiration time.Duration) error
	Get(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
}

// HistoryRepositoryInterface 補正履歴リポジトリのインターフェース
type HistoryRepositoryInterface interface {
	Save(ctx context.Context, record *domain.CorrectionRecord) error
	ListRecent(ctx context.Context, limit int) ([]*domain.CorrectionRecord, error)
}
