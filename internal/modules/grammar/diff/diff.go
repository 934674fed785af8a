// Package diff トークン列の差分からタイプミス候補を抽出する
package diff

import (
	"unicode"

	"github.com/pmezard/go-difflib/difflib"
)

// DetectTypos 原文と補正文のトークン列を比較し、置換または削除された
// 原文側のトークンをタイプミス候補として返す。挿入は候補に含めない。
// 比較は大文字小文字を区別する。結果はアルファベットのみのトークンに
// 限定し、初出順で重複を除去する
func DetectTypos(originalTokens, correctedTokens []string) []string {
	typos := []string{}
	if len(originalTokens) == 0 || len(correctedTokens) == 0 {
		return typos
	}

	matcher := difflib.NewMatcher(originalTokens, correctedTokens)

	seen := map[string]bool{}
	for _, op := range matcher.GetOpCodes() {
		if op.Tag != 'r' && op.Tag != 'd' {
			continue
		}
		for _, tok := range originalTokens[op.I1:op.I2] {
			if !isAlpha(tok) || seen[tok] {
				continue
			}
			seen[tok] = true
			typos = append(typos, tok)
		}
	}

	return typos
}

// isAlpha トークンが英字・文字のみで構成されるか判定
func isAlpha(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return true
}
