package domain

import (
	"errors"
	"fmt"
)

// ErrEmptyText 空テキストのエラー
var ErrEmptyText = errors.New("text is empty")

// ErrUnknownStyle 未知のスタイル指定のエラー
var ErrUnknownStyle = errors.New("unknown style")

// UpstreamError 補完エンジンからの非成功レスポンス
type UpstreamError struct {
	StatusCode int
	Body       string
}

// Error エラーメッセージを返す
func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream returned status %d: %s", e.StatusCode, e.Body)
}

// Style 文体の種類
type Style string

const (
	// StyleFormal 規範的でフォーマルな文体
	StyleFormal Style = "formal"
	// StyleCasual 丁寧だがくだけた文体
	StyleCasual Style = "casual"
	// StyleSantai 親しい間柄向けの自由な文体
	StyleSantai Style = "santai"
)

// ParseStyle スタイル文字列を検証して返す。空文字列はformal扱い
func ParseStyle(s string) (Style, error) {
	switch Style(s) {
	case StyleFormal, StyleCasual, StyleSantai:
		return Style(s), nil
	case "":
		return StyleFormal, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownStyle, s)
	}
}

// CorrectionResult 文法補正結果のエンティティ
type CorrectionResult struct {
	Corrected      string   `json:"corrected"`
	Tokenized      []string `json:"tokenized"`
	ShortWords     []string `json:"short_words"`
	PronominaMixed bool     `json:"pronomina_mixed"`
	TypoWords      []string `json:"typo_words"`
}

// ProfanityResult 不適切語検出結果のエンティティ
type ProfanityResult struct {
	Censored string   `json:"censored"`
	Found    bool     `json:"found"`
	BadWords []string `json:"bad_words"`
}
