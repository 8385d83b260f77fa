package nutrition

import (
	"nutrition-estimator/internal/pkg/common"
)

// ProcessedIngredient 單一食材的處理結果
// Nutrition 與 Error 恰好一個有值：解析失敗的食材保留在列表中供顯示，但不參與加總
type ProcessedIngredient struct {
	OriginalName string            `json:"original_name"`
	MappedName   string            `json:"mapped_name,omitempty"`
	Quantity     string            `json:"quantity"`
	WeightGrams  float64           `json:"weight_grams"`
	Nutrition    *common.Nutrients `json:"nutrition,omitempty"`
	Error        string            `json:"error,omitempty"`
}

// Totals 整道菜的營養加總，只累計成功解析的食材
type Totals struct {
	common.Nutrients
	TotalWeightGrams float64 `json:"total_weight_grams"`
}

// PerServing 每份營養值（經過四捨五入與上限壓制）
type PerServing struct {
	Calories         int     `json:"calories"`
	Protein          float64 `json:"protein"`
	Carbs            float64 `json:"carbs"`
	Fat              float64 `json:"fat"`
	Fiber            float64 `json:"fiber"`
	ServingSizeGrams float64 `json:"serving_size_grams"`
}

// EstimateResult 一次估算請求的完整輸出
type EstimateResult struct {
	Totals      Totals                `json:"totals"`
	Ingredients []ProcessedIngredient `json:"ingredients"`
}
