package analyzer

import (
	"sort"
	"strings"
	"unicode"
)

// censorMask 不適切語を置き換えるマスク文字列
const censorMask = "****"

// baseBadWords 基礎となる不適切語のレキシコン。
// インドネシア語の俗語と、一般的な英語の罵倒語の基本セット
var baseBadWords = []string{
	// インドネシア語
	"tai", "goblok", "kontol", "anjing", "bangsat", "sialan", "memek",
	"kampret", "tolol", "brengsek", "bajingan", "setan", "keparat",
	// 英語（基本セット）
	"ass", "asshole", "bastard", "bitch", "bullshit", "crap", "damn",
	"dick", "fuck", "fucking", "idiot", "jerk", "moron", "piss",
	"prick", "shit", "slut", "stupid", "whore",
}

// BadWordSet 不適切語の集合。初期化後は読み取り専用
type BadWordSet struct {
	words map[string]bool
}

// NewBadWordSet 基礎レキシコンと補助リストから不適切語集合を作成。
// すべて小文字に正規化して保持する
func NewBadWordSet(extra ...string) *BadWordSet {
	words := make(map[string]bool, len(baseBadWords)+len(extra))
	for _, w := range baseBadWords {
		words[strings.ToLower(w)] = true
	}
	for _, w := range extra {
		w = strings.TrimSpace(strings.ToLower(w))
		if w != "" {
			words[w] = true
		}
	}
	return &BadWordSet{words: words}
}

// Contains 単語が不適切語集合に含まれるか判定（小文字化して照合）
func (s *BadWordSet) Contains(word string) bool {
	return s.words[strings.ToLower(word)]
}

// Len 登録語数を返す
func (s *BadWordSet) Len() int {
	return len(s.words)
}

// ProfanityAnalyzer 不適切語の検出と伏せ字処理
type ProfanityAnalyzer struct {
	badWords  *BadWordSet
	tokenizer interface{ Tokenize(string) []string }
}

// NewProfanityAnalyzer 新しいProfanityAnalyzerを作成
func NewProfanityAnalyzer(badWords *BadWordSet, tokenizer interface{ Tokenize(string) []string }) *ProfanityAnalyzer {
	return &ProfanityAnalyzer{
		badWords:  badWords,
		tokenizer: tokenizer,
	}
}

// Analyze テキスト中の不適切語を検出し、見つかった場合は伏せ字にした
// テキストを返す。見つからなければ元のテキストをそのまま返す
func (a *ProfanityAnalyzer) Analyze(text string) (censored string, found bool, badWords []string) {
	lowered := strings.ToLower(text)

	seen := map[string]bool{}
	badWords = []string{}
	for _, tok := range a.tokenizer.Tokenize(lowered) {
		if a.badWords.Contains(tok) && !seen[tok] {
			seen[tok] = true
			badWords = append(badWords, strings.ToLower(tok))
		}
	}
	sort.Strings(badWords)

	found = len(badWords) > 0
	if !found {
		return text, false, badWords
	}

	return a.censor(text), true, badWords
}

// censor 不適切語をマスクに置き換える。単語以外の文字はそのまま保持
func (a *ProfanityAnalyzer) censor(text string) string {
	var b strings.Builder
	b.Grow(len(text))

	var word strings.Builder
	flush := func() {
		if word.Len() == 0 {
			return
		}
		w := word.String()
		if a.badWords.Contains(w) {
			b.WriteString(censorMask)
		} else {
			b.WriteString(w)
		}
		word.Reset()
	}

	for _, r := range text {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			word.WriteRune(r)
			continue
		}
		flush()
		b.WriteRune(r)
	}
	flush()

	return b.String()
}
