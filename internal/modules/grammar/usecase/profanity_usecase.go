package usecase

import (
	"strings"

	"grammar-api-app/internal/modules/grammar/analyzer"
	"grammar-api-app/internal/modules/grammar/domain"
	"grammar-api-app/internal/modules/grammar/tokenizer"
)

// ProfanityUseCase 不適切語検出のユースケース
type ProfanityUseCase struct {
	analyzer *analyzer.ProfanityAnalyzer
}

// NewProfanityUseCase 新しいProfanityUseCaseを作成
func NewProfanityUseCase(badWords *analyzer.BadWordSet, tok *tokenizer.Adapter) *ProfanityUseCase {
	if tok == nil {
		tok = tokenizer.NewAdapter(nil)
	}
	return &ProfanityUseCase{
		analyzer: analyzer.NewProfanityAnalyzer(badWords, tok),
	}
}

// Detect テキスト中の不適切語を検出する
func (uc *ProfanityUseCase) Detect(text string) (*domain.ProfanityResult, error) {
	// 入力検証
	if strings.TrimSpace(text) == "" {
		return nil, domain.ErrEmptyText
	}

	censored, found, badWords := uc.analyzer.Analyze(text)

	return &domain.ProfanityResult{
		Censored: censored,
		Found:    found,
		BadWords: badWords,
	}, nil
}
