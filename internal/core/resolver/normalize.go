package resolver

import (
	"regexp"
	"strings"
)

// 份量單位詞彙（正則片段，含複數形）
const unitWords = `(?:cups?|tablespoons?|teaspoons?|tsps?|tbsps?|g|kg|ml|l|pounds?|lbs?|oz|katoris?|glass(?:es)?)`

var (
	// 開頭的「數字＋單位」片段，如 "2 cups spinach"
	leadingQtyPattern = regexp.MustCompile(`^\s*\d+(?:[./]\d+)?\s*` + unitWords + `?\b\s*`)
	// 結尾的「數字＋單位」片段，如 "spinach 200 g"
	trailingQtyPattern = regexp.MustCompile(`\s*\d+(?:[./]\d+)?\s*` + unitWords + `?\b\s*$`)
	// 殘餘標點
	punctuationPattern = regexp.MustCompile(`[,():;]`)
)

// 多字修飾語，必須在單字修飾語之前整句移除
var modifierPhrases = []string{
	"to taste",
	"as needed",
	"for garnish",
}

// 單字修飾語（整字比對）
var modifierWords = map[string]bool{
	"chopped":  true,
	"diced":    true,
	"sliced":   true,
	"minced":   true,
	"grated":   true,
	"cubed":    true,
	"pureed":   true,
	"finely":   true,
	"roughly":  true,
	"fresh":    true,
	"dried":    true,
	"powder":   true,
	"whole":    true,
	"leaves":   true,
	"seeds":    true,
	"boneless": true,
	"skinless": true,
	"plain":    true,
	"medium":   true,
	"large":    true,
	"small":    true,
}

// Normalize 將原始食材描述正規化成查表用的形式
// 正規化若把字串清空，退回小寫去空白的原文，讓後續層級仍有東西可查
func Normalize(raw string) string {
	original := strings.TrimSpace(strings.ToLower(raw))
	s := original

	// 去掉頭尾的份量片段
	s = leadingQtyPattern.ReplaceAllString(s, "")
	s = trailingQtyPattern.ReplaceAllString(s, "")

	// 移除多字修飾語
	for _, phrase := range modifierPhrases {
		s = strings.ReplaceAll(s, phrase, " ")
	}

	// 移除標點後逐字過濾修飾語
	s = punctuationPattern.ReplaceAllString(s, " ")
	words := strings.Fields(s)
	kept := make([]string, 0, len(words))
	for _, w := range words {
		if modifierWords[w] {
			continue
		}
		kept = append(kept, w)
	}
	s = strings.Join(kept, " ")

	if s == "" {
		return original
	}
	return s
}

// Underscored 以底線連接的正規名稱形式
func Underscored(name string) string {
	return strings.ReplaceAll(name, " ", "_")
}

// Spaced 以空格連接的形式
func Spaced(name string) string {
	return strings.ReplaceAll(name, "_", " ")
}
