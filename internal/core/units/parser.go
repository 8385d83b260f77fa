package units

import (
	"regexp"
	"strconv"
	"strings"

	"nutrition-estimator/internal/pkg/common"

	"go.uber.org/zap"
)

// ParsedQuantity 份量解析結果
// OK 為 false 表示整句無法解析；Value 為 0 且 OK 為 true 則是明確的零份量
type ParsedQuantity struct {
	Value float64 `json:"value"`
	Unit  string  `json:"unit"`
	OK    bool    `json:"ok"`
}

// 每磅克數
const gramsPerPound = 453.592

var (
	// "200 g" / "200g" / "200 grams"，g 後不得緊接字母（避免吃掉 glass）
	gramPattern = regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*g(?:rams?)?\b`)
	// "1 kg" / "1.5 kilograms"
	kilogramPattern = regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*(?:kg|kilograms?)\b`)
	// "1 pound" / "2 lbs"
	poundPattern = regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*(?:pounds?|lbs?)\b`)
	// "250 ml"
	mlPattern = regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*ml\b`)
	// "1 l" / "2 litres"
	literPattern = regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*(?:l|liters?|litres?)\b`)
	// "1/2 cup"
	fractionPattern = regexp.MustCompile(`^\s*(\d+)\s*/\s*(\d+)\s*(.*)$`)
	// "2 cups" / "1.5 tbsp"
	generalPattern = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*([a-zA-Z]+)`)
	// "2"（純數字視為件數）
	bareNumberPattern = regexp.MustCompile(`^\s*(\d+(?:\.\d+)?)\s*$`)
)

// 口語化份量（固定回傳半茶匙）
var qualitativePhrases = []string{"to taste", "as needed", "as required"}

// Parse 將份量描述解析為數值與單位，規則依序套用，先命中者優先
func Parse(phrase string) ParsedQuantity {
	text := strings.TrimSpace(strings.ToLower(phrase))
	if text == "" {
		return ParsedQuantity{}
	}

	// 克為最高優先：已是目標單位
	if m := gramPattern.FindStringSubmatch(text); m != nil {
		return ParsedQuantity{Value: parseFloat(m[1]), Unit: "g", OK: true}
	}

	// 公斤直接折算成克
	if m := kilogramPattern.FindStringSubmatch(text); m != nil {
		return ParsedQuantity{Value: parseFloat(m[1]) * 1000, Unit: "g", OK: true}
	}

	// 磅直接折算成克
	if m := poundPattern.FindStringSubmatch(text); m != nil {
		return ParsedQuantity{Value: parseFloat(m[1]) * gramsPerPound, Unit: "g", OK: true}
	}

	// 毫升（後續以 1 g/ml 近似處理）
	if m := mlPattern.FindStringSubmatch(text); m != nil {
		return ParsedQuantity{Value: parseFloat(m[1]), Unit: "ml", OK: true}
	}

	// 公升折算成毫升
	if m := literPattern.FindStringSubmatch(text); m != nil {
		return ParsedQuantity{Value: parseFloat(m[1]) * 1000, Unit: "ml", OK: true}
	}

	// 範圍："2-3 cups" 取平均，單位取後半段
	if strings.Contains(text, "-") && !strings.HasPrefix(text, "-") {
		parts := strings.SplitN(text, "-", 2)
		left, right := Parse(parts[0]), Parse(parts[1])
		if left.OK && right.OK {
			unit := right.Unit
			if unit == "" {
				unit = left.Unit
			}
			return ParsedQuantity{Value: (left.Value + right.Value) / 2, Unit: unit, OK: true}
		}
	}

	// 分數："1/2 cup"
	if m := fractionPattern.FindStringSubmatch(text); m != nil {
		den := parseFloat(m[2])
		if den > 0 {
			unit := firstWord(m[3])
			return ParsedQuantity{Value: parseFloat(m[1]) / den, Unit: unit, OK: true}
		}
	}

	// 一般 "<數字> <單位>" 形式
	if m := generalPattern.FindStringSubmatch(text); m != nil {
		return ParsedQuantity{Value: parseFloat(m[1]), Unit: strings.ToLower(m[2]), OK: true}
	}

	// 純數字視為件數
	if m := bareNumberPattern.FindStringSubmatch(text); m != nil {
		return ParsedQuantity{Value: parseFloat(m[1]), Unit: "piece", OK: true}
	}

	// 口語化份量
	for _, q := range qualitativePhrases {
		if strings.Contains(text, q) {
			return ParsedQuantity{Value: 0.5, Unit: "teaspoon", OK: true}
		}
	}

	// 無法解析：零貢獻，不視為致命錯誤
	common.LogDebug("份量描述無法解析", zap.String("phrase", phrase))
	return ParsedQuantity{}
}

func parseFloat(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0
	}
	return v
}

// firstWord 取字串中第一個單字（分數後面的單位）
func firstWord(s string) string {
	fields := strings.Fields(strings.TrimSpace(s))
	if len(fields) == 0 {
		return ""
	}
	return strings.ToLower(fields[0])
}
