package units

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"strings"

	"nutrition-estimator/internal/pkg/common"

	"go.uber.org/zap"
)

const (
	// 任何未知單位的最終保底克數
	fallbackGramsPerUnit = 10
	// "medium" 找不到食材專屬克數時的通用值，件數差異比 piece 更大所以給得更粗
	mediumDefaultGrams = 120
)

// 常見單位的絕對保底表
var absoluteFallbacks = map[string]float64{
	"cup":        240,
	"tablespoon": 15,
	"teaspoon":   5,
	"piece":      50,
	"clove":      5,
	"inch":       10,
	"handful":    30,
	"pinch":      1,
}

// 單位別名（解析結果先轉成正規單位再查表）
var unitAliases = map[string]string{
	"tbsp": "tablespoon",
	"tsp":  "teaspoon",
	"tbs":  "tablespoon",
	"pc":   "piece",
	"pcs":  "piece",
}

// UnitDefault 全域單位設定，可能是單一數值，或帶 default 與食材專屬值的物件
type UnitDefault struct {
	Value         float64            // 單一數值形式
	Scalar        bool               // 是否為單一數值
	Default       float64            // 物件形式的 default
	HasDefault    bool
	PerIngredient map[string]float64 // 物件形式的食材專屬值
}

// UnmarshalJSON 同時接受數值與物件兩種寫法
func (u *UnitDefault) UnmarshalJSON(data []byte) error {
	var num float64
	if err := json.Unmarshal(data, &num); err == nil {
		u.Value = num
		u.Scalar = true
		return nil
	}

	raw := make(map[string]float64)
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	u.PerIngredient = make(map[string]float64, len(raw))
	for k, v := range raw {
		if k == "default" {
			u.Default = v
			u.HasDefault = true
			continue
		}
		u.PerIngredient[strings.ToLower(k)] = v
	}
	return nil
}

// ConversionTable 分層單位換算表，啟動時載入一次後唯讀
type ConversionTable struct {
	// 第一層：單位 → 食材專屬克數（如 piece → {potato: 150}）
	UnitIngredient map[string]map[string]float64 `json:"unit_ingredient"`
	// 第二層：食材 → 類別，類別 → 單位 → 克數
	IngredientCategory map[string]string             `json:"ingredient_category"`
	CategoryUnits      map[string]map[string]float64 `json:"category_units"`
	// 第三層：單位 → 全域設定
	UnitDefaults map[string]UnitDefault `json:"unit_defaults"`
	// 菜式類型 → 每份克數
	ServingSizes map[string]float64 `json:"serving_sizes"`
}

// LoadConversionTable 從 JSON 靜態設定載入換算表
func LoadConversionTable(path string) (*ConversionTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load conversion table: %w", err)
	}

	var t ConversionTable
	if err := common.ParseJSONBytes(data, &t); err != nil {
		return nil, fmt.Errorf("failed to parse conversion table: %w", err)
	}

	// 內層鍵一律轉小寫，與解析結果對齊
	t.normalize()

	common.LogInfo("單位換算表已載入",
		zap.Int("單位專屬食材數", len(t.UnitIngredient)),
		zap.Int("類別數", len(t.CategoryUnits)),
		zap.Int("全域單位數", len(t.UnitDefaults)),
	)
	return &t, nil
}

func (t *ConversionTable) normalize() {
	t.UnitIngredient = lowerNested(t.UnitIngredient)
	t.CategoryUnits = lowerNested(t.CategoryUnits)

	cat := make(map[string]string, len(t.IngredientCategory))
	for k, v := range t.IngredientCategory {
		cat[strings.ToLower(k)] = strings.ToLower(v)
	}
	t.IngredientCategory = cat

	defs := make(map[string]UnitDefault, len(t.UnitDefaults))
	for k, v := range t.UnitDefaults {
		defs[strings.ToLower(k)] = v
	}
	t.UnitDefaults = defs

	servings := make(map[string]float64, len(t.ServingSizes))
	for k, v := range t.ServingSizes {
		servings[strings.ToLower(k)] = v
	}
	t.ServingSizes = servings
}

func lowerNested(m map[string]map[string]float64) map[string]map[string]float64 {
	out := make(map[string]map[string]float64, len(m))
	for k, inner := range m {
		low := make(map[string]float64, len(inner))
		for ik, iv := range inner {
			low[strings.ToLower(ik)] = iv
		}
		out[strings.ToLower(k)] = low
	}
	return out
}

// ServingGrams 查詢菜式類型的每份克數，未知類型回傳 fallback
func (t *ConversionTable) ServingGrams(dishType string, fallback float64) float64 {
	if grams, ok := t.ServingSizes[strings.ToLower(strings.TrimSpace(dishType))]; ok && grams > 0 {
		return grams
	}
	return fallback
}

// NormalizeUnit 將單位轉成正規形式（別名、複數）
func NormalizeUnit(unit string) string {
	u := strings.ToLower(strings.TrimSpace(unit))
	u = strings.TrimSuffix(u, ".")
	if alias, ok := unitAliases[u]; ok {
		return alias
	}
	// 複數轉單數後再試一次別名；glass 這類本身以 ss 結尾的單位不動
	if strings.HasSuffix(u, "s") && !strings.HasSuffix(u, "ss") {
		trimmed := strings.TrimSuffix(u, "s")
		if trimmed == "" {
			return u
		}
		if alias, ok := unitAliases[trimmed]; ok {
			return alias
		}
		return trimmed
	}
	return u
}

// ToGrams 將解析後的份量換算成克
// 換算層級由「食材＋單位」的精確值逐步退化到通用單位預設，任何輸入都回傳有限非負值
func (t *ConversionTable) ToGrams(q ParsedQuantity, canonical string) float64 {
	if !q.OK || q.Value <= 0 || math.IsNaN(q.Value) || math.IsInf(q.Value, 0) {
		return 0
	}

	// 克與毫升直接回傳（毫升以 1 g/ml 近似）
	if q.Unit == "g" || q.Unit == "ml" {
		return q.Value
	}

	unit := NormalizeUnit(q.Unit)
	canonical = strings.ToLower(strings.TrimSpace(canonical))

	// piece：先查食材專屬，再查全域 piece 預設，否則落入後續層級
	if unit == "piece" {
		if grams, ok := t.unitIngredientGrams(unit, canonical); ok {
			return q.Value * grams
		}
		if def, ok := t.UnitDefaults["piece"]; ok {
			if grams, ok := def.resolve(canonical); ok {
				return q.Value * grams
			}
		}
	}

	// medium：食材專屬優先，否則使用通用常數
	if unit == "medium" {
		if grams, ok := t.unitIngredientGrams(unit, canonical); ok {
			return q.Value * grams
		}
		return q.Value * mediumDefaultGrams
	}

	// 類別層級
	if category, ok := t.IngredientCategory[canonical]; ok {
		if grams, ok := t.CategoryUnits[category][unit]; ok {
			return q.Value * grams
		}
	}

	// 全域單位表
	if def, ok := t.UnitDefaults[unit]; ok {
		if grams, ok := def.resolve(canonical); ok {
			return q.Value * grams
		}
		// 物件存在但既無專屬值也無 default
		return q.Value * fallbackGramsPerUnit
	}

	// 絕對保底表
	if grams, ok := absoluteFallbacks[unit]; ok {
		return q.Value * grams
	}

	common.LogDebug("未知單位，使用保底克數",
		zap.String("unit", q.Unit),
		zap.String("ingredient", canonical),
	)
	return q.Value * fallbackGramsPerUnit
}

// unitIngredientGrams 查第一層「單位 → 食材專屬克數」
func (t *ConversionTable) unitIngredientGrams(unit, canonical string) (float64, bool) {
	inner, ok := t.UnitIngredient[unit]
	if !ok {
		return 0, false
	}
	grams, ok := inner[canonical]
	return grams, ok
}

// resolve 依「食材專屬 → default」順序取值
func (u UnitDefault) resolve(canonical string) (float64, bool) {
	if u.Scalar {
		return u.Value, true
	}
	if grams, ok := u.PerIngredient[canonical]; ok {
		return grams, true
	}
	if u.HasDefault {
		return u.Default, true
	}
	return 0, false
}
