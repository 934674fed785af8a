package di

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"grammar-api-app/internal/config"
	"grammar-api-app/internal/modules/grammar/analyzer"
	"grammar-api-app/internal/modules/grammar/domain"
	grammarHandler "grammar-api-app/internal/modules/grammar/presentation/handler"
	"grammar-api-app/internal/modules/grammar/tokenizer"
	grammarUsecase "grammar-api-app/internal/modules/grammar/usecase"
	sharedAI "grammar-api-app/internal/modules/shared/infrastructure/ai"
	sharedCache "grammar-api-app/internal/modules/shared/infrastructure/cache"
	sharedDB "grammar-api-app/internal/modules/shared/infrastructure/database"
	sharedLexicon "grammar-api-app/internal/modules/shared/infrastructure/lexicon"
	sharedRetrieval "grammar-api-app/internal/modules/shared/infrastructure/retrieval"
	healthHandler "grammar-api-app/internal/presentation/http/handler"
)

// Container DIコンテナ
type Container struct {
	cfg *config.Config

	// Shared Infrastructure
	completionRepo *sharedAI.OllamaRepository
	cacheRepo      *sharedCache.RedisRepository
	historyRepo    *sharedDB.BunHistoryRepository
	retriever      *sharedRetrieval.OllamaRetriever

	// Grammar Module
	badWords       *analyzer.BadWordSet
	correctionUC   *grammarUsecase.CorrectionUseCase
	profanityUC    *grammarUsecase.ProfanityUseCase
	grammarHandler *grammarHandler.GrammarHandler

	// Health
	healthHandler *healthHandler.HealthHandler
}

// NewContainer 新しいContainerを作成。
// キャッシュストアに到達できない場合はエラーを返す（プロセスは起動しない）
func NewContainer(cfg *config.Config) (*Container, error) {
	container := &Container{cfg: cfg}

	// Shared Infrastructure: Cache Repository（必須）
	cacheRepo, err := sharedCache.NewRedisRepository(&cfg.Redis)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize cache repository: %w", err)
	}
	container.cacheRepo = cacheRepo

	// Shared Infrastructure: Completion Repository
	completionRepo := sharedAI.NewOllamaRepository(&cfg.Ollama)
	container.completionRepo = completionRepo

	// Shared Infrastructure: History Repository（任意。失敗時は履歴なしで続行）
	historyRepo, err := sharedDB.NewBunHistoryRepository(&cfg.MySQL)
	if err != nil {
		slog.Warn("history repository unavailable, corrections will not be persisted",
			"error", err,
		)
	} else {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := historyRepo.InitSchema(ctx); err != nil {
			cancel()
			slog.Warn("failed to initialize history schema, corrections will not be persisted",
				"error", err,
			)
			_ = historyRepo.Close()
		} else {
			cancel()
			container.historyRepo = historyRepo
		}
	}

	// Shared Infrastructure: Reference Retriever（任意）
	if cfg.Retrieval.Enabled {
		retriever, err := sharedRetrieval.NewOllamaRetriever(&cfg.Ollama, &cfg.Retrieval)
		if err != nil {
			slog.Warn("reference retriever unavailable, corrections will run without context",
				"error", err,
			)
		} else {
			container.retriever = retriever
		}
	}

	// Grammar Module: BadWordSet（基礎レキシコン＋設定＋Redis補助リスト）
	container.badWords = loadBadWords(cfg, cacheRepo)

	// Grammar Module: UseCases
	tok := tokenizer.NewAdapter(nil)
	opts := domain.GenerationOptions{
		Temperature: cfg.Ollama.Temperature,
		TopP:        cfg.Ollama.TopP,
		MaxTokens:   cfg.Ollama.MaxTokens,
	}

	var retriever domain.ReferenceRetriever
	if container.retriever != nil {
		retriever = container.retriever
	}
	container.correctionUC = grammarUsecase.NewCorrectionUseCase(completionRepo, retriever, tok, opts)
	container.profanityUC = grammarUsecase.NewProfanityUseCase(container.badWords, tok)

	// Grammar Module: Handler
	var historyRepoIface grammarHandler.HistoryRepositoryInterface
	if container.historyRepo != nil {
		historyRepoIface = container.historyRepo
	}
	container.grammarHandler = grammarHandler.NewGrammarHandler(
		container.correctionUC,
		container.profanityUC,
		cacheRepo,
		historyRepoIface,
		time.Duration(cfg.Cache.TTLSeconds)*time.Second,
	)

	// Health Handler
	container.healthHandler = healthHandler.NewHealthHandler(cfg.Ollama.BaseURL, cfg.Ollama.Model)

	return container, nil
}

// loadBadWords 不適切語集合を組み立てる。
// Redisの補助レキシコンは読み込めなくても起動は継続する
func loadBadWords(cfg *config.Config, cacheRepo *sharedCache.RedisRepository) *analyzer.BadWordSet {
	extra := append([]string{}, cfg.Profanity.ExtraWords...)

	lex := sharedLexicon.NewRedisLexicon(cacheRepo.Client())
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	words, err := lex.All(ctx)
	if err != nil {
		slog.Warn("failed to load supplementary lexicon from redis",
			"error", err,
		)
	} else {
		extra = append(extra, words...)
	}

	return analyzer.NewBadWordSet(extra...)
}

// GrammarHandler 文法補正APIハンドラーを取得
func (c *Container) GrammarHandler() *grammarHandler.GrammarHandler {
	return c.grammarHandler
}

// HealthHandler ヘルスチェックハンドラーを取得
func (c *Container) HealthHandler() *healthHandler.HealthHandler {
	return c.healthHandler
}

// CorrectionUseCase 文法補正ユースケースを取得
func (c *Container) CorrectionUseCase() *grammarUsecase.CorrectionUseCase {
	return c.correctionUC
}

// BadWords 不適切語集合を取得
func (c *Container) BadWords() *analyzer.BadWordSet {
	return c.badWords
}

// Close リソースをクローズ
func (c *Container) Close() error {
	if c.cacheRepo != nil {
		if err := c.cacheRepo.Close(); err != nil {
			return fmt.Errorf("failed to close cache repository: %w", err)
		}
	}

	if c.historyRepo != nil {
		if err := c.historyRepo.Close(); err != nil {
			return fmt.Errorf("failed to close history repository: %w", err)
		}
	}

	return nil
}
