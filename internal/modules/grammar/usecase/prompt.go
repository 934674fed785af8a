package usecase

import (
	"fmt"
	"strings"

	"grammar-api-app/internal/modules/grammar/domain"
)

// referenceHeader 参照文書をプロンプトに挿入する際の見出し
const referenceHeader = "Berikut adalah referensi tata bahasa Indonesia yang benar:"

// styleDescriptor スタイルごとのプロンプト用説明文を返す
func styleDescriptor(style domain.Style) string {
	switch style {
	case domain.StyleCasual:
		return "Gaya penulisan santai namun tetap sopan, seperti obrolan sehari-hari"
	case domain.StyleSantai:
		return "Gaya penulisan bebas, seperti percakapan dengan teman dekat"
	default:
		return "Gaya penulisan profesional dan sesuai kaidah bahasa Indonesia yang baku"
	}
}

// BuildPrompt スタイルと参照文書から補正指示のプロンプトを構築する
func BuildPrompt(text string, style domain.Style, references []string) string {
	var b strings.Builder

	if len(references) > 0 {
		b.WriteString(referenceHeader)
		b.WriteString("\n\n")
		b.WriteString(strings.Join(references, "\n"))
		b.WriteString("\n\n")
	}

	fmt.Fprintf(&b, "Perbaiki dan parafrase kalimat berikut agar sesuai dengan %s.\n", styleDescriptor(style))
	fmt.Fprintf(&b, "Kalimat asli:\n%s\n", text)
	b.WriteString("Jawaban (hanya kalimat hasil koreksi, tanpa penjelasan):")

	return b.String()
}
