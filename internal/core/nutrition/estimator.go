package nutrition

import (
	"context"
	"math"
	"sync"

	"nutrition-estimator/internal/core/reference"
	"nutrition-estimator/internal/core/resolver"
	"nutrition-estimator/internal/core/units"
	"nutrition-estimator/internal/pkg/common"

	"go.uber.org/zap"
)

// 每份數值的上限，用來壓制異常資料造成的離譜輸出
const (
	maxServingCalories = 1000
	maxServingProtein  = 100
	maxServingCarbs    = 200
	maxServingFat      = 100
)

// Estimator 營養估算服務
// 對照表與換算表在建構時注入，之後唯讀，可安全併發使用
type Estimator struct {
	table        *reference.Table
	resolver     *resolver.Resolver
	conversions  *units.ConversionTable
	defaultGrams float64
}

// NewEstimator 創建營養估算服務
func NewEstimator(table *reference.Table, res *resolver.Resolver, conv *units.ConversionTable, defaultServingGrams float64) *Estimator {
	return &Estimator{
		table:        table,
		resolver:     res,
		conversions:  conv,
		defaultGrams: defaultServingGrams,
	}
}

// Estimate 估算一份食材清單的營養
// 每項食材獨立處理並行展開（只有輔助匹配可能等待網路），全部完成後再順序加總
func (e *Estimator) Estimate(ctx context.Context, ingredients []common.RecipeIngredient) *EstimateResult {
	processed := make([]ProcessedIngredient, len(ingredients))

	var wg sync.WaitGroup
	for i, ing := range ingredients {
		wg.Add(1)
		go func(idx int, item common.RecipeIngredient) {
			defer wg.Done()
			processed[idx] = e.processOne(ctx, item)
		}(i, ing)
	}
	wg.Wait()

	// 加總只走成功解析的食材，失敗者貢獻恆為零
	var totals Totals
	for _, p := range processed {
		if p.Nutrition == nil {
			continue
		}
		totals.Add(*p.Nutrition)
		totals.TotalWeightGrams += p.WeightGrams
	}

	common.LogInfo("營養估算完成",
		zap.Int("食材數", len(ingredients)),
		zap.Float64("總重量", totals.TotalWeightGrams),
	)

	return &EstimateResult{
		Totals:      totals,
		Ingredients: processed,
	}
}

// processOne 單一食材的解析 → 換算 → 營養縮放
// 任何失敗都收斂在這個食材的結果裡，不得中斷其餘食材的處理
func (e *Estimator) processOne(ctx context.Context, ing common.RecipeIngredient) ProcessedIngredient {
	out := ProcessedIngredient{
		OriginalName: ing.Name,
		Quantity:     ing.Quantity,
	}

	canonical, ok := e.resolver.Resolve(ctx, ing.Name)
	if !ok {
		out.Error = "ingredient not found in nutrition table"
		return out
	}
	out.MappedName = canonical

	parsed := units.Parse(ing.Quantity)
	out.WeightGrams = e.conversions.ToGrams(parsed, canonical)

	record, ok := e.table.Lookup(canonical)
	if !ok {
		// 解析器只會回傳表內名稱，這裡是對資料損毀的保險
		out.Error = "nutrition record missing for resolved name"
		out.MappedName = ""
		return out
	}

	out.Nutrition = e.scale(record, out.WeightGrams)
	return out
}

// scale 依重量縮放每 100 克的營養數值，非有限值以 0 代入
func (e *Estimator) scale(record *reference.Record, weightGrams float64) *common.Nutrients {
	ratio := weightGrams / 100

	n := &common.Nutrients{
		Calories: record.Calories * ratio,
		Protein:  record.Protein * ratio,
		Carbs:    record.Carbs * ratio,
		Fat:      record.Fat * ratio,
		Fiber:    record.Fiber * ratio,
	}

	for _, field := range []*float64{&n.Calories, &n.Protein, &n.Carbs, &n.Fat, &n.Fiber} {
		if math.IsNaN(*field) || math.IsInf(*field, 0) || *field < 0 {
			common.LogWarn("營養數值異常，以 0 代入",
				zap.String("ingredient", record.Name),
				zap.Float64("weight_grams", weightGrams),
			)
			*field = 0
		}
	}
	return n
}

// ServingGrams 查詢菜式類型的每份克數，未知類型用預設值
func (e *Estimator) ServingGrams(dishType string) float64 {
	return e.conversions.ServingGrams(dishType, e.defaultGrams)
}

// PerServing 把整道菜的加總換算成每份營養值
// 總重量以 1 克為下限避免除以零；換算後套用上限並將負值歸零
func (e *Estimator) PerServing(totals Totals, targetServingGrams float64) PerServing {
	if targetServingGrams <= 0 {
		targetServingGrams = e.defaultGrams
	}
	ratio := targetServingGrams / math.Max(totals.TotalWeightGrams, 1)

	calories := clamp(math.Round(totals.Calories*ratio), 0, maxServingCalories)
	return PerServing{
		Calories:         int(calories),
		Protein:          clamp(round1(totals.Protein*ratio), 0, maxServingProtein),
		Carbs:            clamp(round1(totals.Carbs*ratio), 0, maxServingCarbs),
		Fat:              clamp(round1(totals.Fat*ratio), 0, maxServingFat),
		Fiber:            math.Max(round1(totals.Fiber*ratio), 0),
		ServingSizeGrams: targetServingGrams,
	}
}

// round1 四捨五入到小數一位
func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

// clamp 把數值限制在 [lo, hi]
func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
