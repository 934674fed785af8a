// Package tokenizer 単語分割アダプター
//
// 一次トークナイザー（Unicode UAX#29 の単語分割）が失敗した場合は
// 空白分割にフォールバックし、呼び出し元にはエラーを返さない。
package tokenizer

import (
	"log/slog"
	"strings"

	"github.com/clipperhouse/uax29/v2/words"
)

// Tokenizer テキストをトークン列に分割するインターフェース
type Tokenizer interface {
	Tokenize(text string) ([]string, error)
}

// UAX29Tokenizer UAX#29単語分割によるトークナイザー
type UAX29Tokenizer struct{}

// NewUAX29Tokenizer 新しいUAX29Tokenizerを作成
func NewUAX29Tokenizer() *UAX29Tokenizer {
	return &UAX29Tokenizer{}
}

// Tokenize テキストを単語単位に分割。句読点もトークンとして残す
func (t *UAX29Tokenizer) Tokenize(text string) ([]string, error) {
	tokens := []string{}
	segments := words.FromString(text)
	for segments.Next() {
		seg := segments.Value()
		// 空白のみのセグメントは除外
		if strings.TrimSpace(seg) == "" {
			continue
		}
		tokens = append(tokens, seg)
	}
	return tokens, nil
}

// Adapter 一次トークナイザーのラッパー。失敗時は空白分割に退避
type Adapter struct {
	primary Tokenizer
}

// NewAdapter 新しいAdapterを作成。primaryがnilの場合はUAX#29を使用
func NewAdapter(primary Tokenizer) *Adapter {
	if primary == nil {
		primary = NewUAX29Tokenizer()
	}
	return &Adapter{primary: primary}
}

// Tokenize テキストをトークン列に分割。決して失敗しない
func (a *Adapter) Tokenize(text string) []string {
	tokens, err := a.primary.Tokenize(text)
	if err != nil {
		slog.Warn("primary tokenizer failed, falling back to whitespace split",
			"error", err,
		)
		return strings.Fields(text)
	}
	return tokens
}
