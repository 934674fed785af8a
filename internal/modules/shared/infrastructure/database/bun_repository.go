package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/mysqldialect"

	_ "github.com/go-sql-driver/mysql"

	"grammar-api-app/internal/config"
	"grammar-api-app/internal/modules/grammar/domain"
)

// CorrectionHistory BUNモデル
type CorrectionHistory struct {
	bun.BaseModel `bun:"table:correction_histories"`

	ID        string    `bun:"id,pk,type:varchar(36)"`
	Text      string    `bun:"text,notnull,type:text"`
	Corrected string    `bun:"corrected,notnull,type:text"`
	Style     string    `bun:"style,notnull,type:varchar(20)"`
	TypoCount int       `bun:"typo_count,notnull,default:0"`
	CreatedAt time.Time `bun:"created_at,notnull,default:current_timestamp"`
}

// BunHistoryRepository BUN実装
type BunHistoryRepository struct {
	db *bun.DB
}

// NewBunHistoryRepository 新しいBunHistoryRepositoryを作成
func NewBunHistoryRepository(cfg *config.MySQLConfig) (*BunHistoryRepository, error) {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=true&loc=Local",
		cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.Database)

	sqldb, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db := bun.NewDB(sqldb, mysqldialect.New())

	// 接続確認
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &BunHistoryRepository{db: db}, nil
}

// NewBunHistoryRepositoryWithDB 既存のDB接続からリポジトリを作成（テスト用）
func NewBunHistoryRepositoryWithDB(db *bun.DB) *BunHistoryRepository {
	return &BunHistoryRepository{db: db}
}

// InitSchema テーブルを作成する（存在しない場合のみ）
func (r *BunHistoryRepository) InitSchema(ctx context.Context) error {
	if _, err := r.db.NewCreateTable().
		Model((*CorrectionHistory)(nil)).
		IfNotExists().
		Exec(ctx); err != nil {
		return fmt.Errorf("failed to create correction_histories table: %w", err)
	}
	return nil
}

// Save 補正履歴を保存
func (r *BunHistoryRepository) Save(ctx context.Context, record *domain.CorrectionRecord) error {
	model := &CorrectionHistory{
		ID:        record.ID,
		Text:      record.Text,
		Corrected: record.Corrected,
		Style:     record.Style,
		TypoCount: record.TypoCount,
		CreatedAt: record.CreatedAt,
	}

	if _, err := r.db.NewInsert().Model(model).Exec(ctx); err != nil {
		return fmt.Errorf("failed to insert correction history: %w", err)
	}
	return nil
}

// ListRecent 新しい順に補正履歴を取得
func (r *BunHistoryRepository) ListRecent(ctx context.Context, limit int) ([]*domain.CorrectionRecord, error) {
	if limit <= 0 {
		limit = 20
	}

	var models []CorrectionHistory
	if err := r.db.NewSelect().
		Model(&models).
		Order("created_at DESC").
		Limit(limit).
		Scan(ctx); err != nil {
		return nil, fmt.Errorf("failed to select correction histories: %w", err)
	}

	records := make([]*domain.CorrectionRecord, 0, len(models))
	for _, m := range models {
		records = append(records, &domain.CorrectionRecord{
			ID:        m.ID,
			Text:      m.Text,
			Corrected: m.Corrected,
			Style:     m.Style,
			TypoCount: m.TypoCount,
			CreatedAt: m.CreatedAt,
		})
	}
	return records, nil
}

// Close DB接続を閉じる
func (r *BunHistoryRepository) Close() error {
	return r.db.Close()
}
