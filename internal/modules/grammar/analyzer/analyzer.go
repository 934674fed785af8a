// Package analyzer 補正文に対するヒューリスティック診断
package analyzer

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// ShortWords 1文字かつ英字のみのトークンを抽出する
func ShortWords(tokens []string) []string {
	short := []string{}
	for _, tok := range tokens {
		if utf8.RuneCountInString(tok) != 1 {
			continue
		}
		r, _ := utf8.DecodeRuneInString(tok)
		if unicode.IsLetter(r) {
			short = append(short, tok)
		}
	}
	return short
}

// PronominaMixed 一人称単数「aku」と一人称複数「kami」が混在するか判定する。
// 大文字小文字は区別しない。固定2語のヒューリスティックであり、
// 一般的な文法検査ではない
func PronominaMixed(tokens []string) bool {
	hasAku := false
	hasKami := false
	for _, tok := range tokens {
		switch strings.ToLower(tok) {
		case "aku":
			hasAku = true
		case "kami":
			hasKami = true
		}
	}
	return hasAku && hasKami
}
