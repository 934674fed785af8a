package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"grammar-api-app/internal/modules/grammar/analyzer"
	"grammar-api-app/internal/modules/grammar/diff"
	"grammar-api-app/internal/modules/grammar/domain"
	"grammar-api-app/internal/modules/grammar/tokenizer"
)

// CorrectionUseCase 文法補正のユースケース
type CorrectionUseCase struct {
	completionRepo domain.CompletionRepository
	retriever      domain.ReferenceRetriever // nilの場合は参照文書なしで補正
	tokenizer      *tokenizer.Adapter
	opts           domain.GenerationOptions
}

// NewCorrectionUseCase 新しいCorrectionUseCaseを作成
func NewCorrectionUseCase(
	completionRepo domain.CompletionRepository,
	retriever domain.ReferenceRetriever,
	tok *tokenizer.Adapter,
	opts domain.GenerationOptions,
) *CorrectionUseCase {
	if tok == nil {
		tok = tokenizer.NewAdapter(nil)
	}
	return &CorrectionUseCase{
		completionRepo: completionRepo,
		retriever:      retriever,
		tokenizer:      tok,
		opts:           opts,
	}
}

// Correct テキストを補正し、診断情報を組み立てる。
// 補完エンジンの呼び出しは1回のみで、リトライしない
func (uc *CorrectionUseCase) Correct(ctx context.Context, text string, style domain.Style) (*domain.CorrectionResult, error) {
	// 入力検証（外部呼び出しの前に実施）
	if strings.TrimSpace(text) == "" {
		return nil, domain.ErrEmptyText
	}

	// 参照文書の取得（失敗しても補正は続行）
	var references []string
	if uc.retriever != nil {
		refs, err := uc.retriever.Retrieve(ctx, text)
		if err != nil {
			slog.Warn("reference retrieval failed, continuing without context",
				"error", err,
			)
		} else {
			references = refs
		}
	}

	prompt := BuildPrompt(text, style, references)

	raw, err := uc.completionRepo.Generate(ctx, prompt, uc.opts)
	if err != nil {
		return nil, fmt.Errorf("completion failed: %w", err)
	}

	corrected := cleanResult(raw)

	originalTokens := uc.tokenizer.Tokenize(text)
	correctedTokens := uc.tokenizer.Tokenize(corrected)

	return &domain.CorrectionResult{
		Corrected:      corrected,
		Tokenized:      correctedTokens,
		ShortWords:     analyzer.ShortWords(correctedTokens),
		PronominaMixed: analyzer.PronominaMixed(correctedTokens),
		TypoWords:      diff.DetectTypos(originalTokens, correctedTokens),
	}, nil
}

// ProviderName プロバイダー名を取得
func (uc *CorrectionUseCase) ProviderName() string {
	return uc.completionRepo.ProviderName()
}

// cleanResult 生の補完テキストを整形する。前後の空白を除去し、
// 全体が一組の引用符で囲まれている場合はその外側の一組だけ剥がす
func cleanResult(raw string) string {
	s := strings.TrimSpace(raw)
	if len(s) >= 2 {
		if (strings.HasPrefix(s, `"`) && strings.HasSuffix(s, `"`)) ||
			(strings.HasPrefix(s, `'`) && strings.HasSuffix(s, `'`)) {
			s = s[1 : len(s)-1]
		}
	}
	return strings.TrimSpace(s)
}
