package nutrition

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"nutrition-estimator/internal/core/reference"
	"nutrition-estimator/internal/core/resolver"
	"nutrition-estimator/internal/core/units"
	"nutrition-estimator/internal/pkg/common"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestMain(m *testing.M) {
	common.Logger = zap.NewNop()
	os.Exit(m.Run())
}

func testEstimator(t *testing.T) *Estimator {
	t.Helper()
	dir := t.TempDir()

	csvPath := filepath.Join(dir, "nutrition.csv")
	csvContent := "name,calories,protein,carbs,fat,fiber\n" +
		"onion,40,1.1,9.3,0.1,1.7\n" +
		"ghee,900,0,0,100,0\n" +
		"rice,130,2.7,28.2,0.3,0.4\n" +
		"spinach,23,2.9,3.6,0.4,2.2\n"
	require.NoError(t, os.WriteFile(csvPath, []byte(csvContent), 0o644))

	synPath := filepath.Join(dir, "synonyms.json")
	require.NoError(t, os.WriteFile(synPath, []byte(`{}`), 0o644))

	table, err := reference.Load(csvPath, synPath)
	require.NoError(t, err)

	convPath := filepath.Join(dir, "conversions.json")
	convContent := `{
		"unit_ingredient": {
			"medium": {"onion": 120}
		},
		"ingredient_category": {
			"spinach": "leafy_green"
		},
		"category_units": {
			"leafy_green": {"cup": 30}
		},
		"unit_defaults": {
			"cup": 185,
			"tablespoon": 15
		},
		"serving_sizes": {
			"curry": 250
		}
	}`
	require.NoError(t, os.WriteFile(convPath, []byte(convContent), 0o644))

	conv, err := units.LoadConversionTable(convPath)
	require.NoError(t, err)

	res := resolver.New(table, nil, 0)
	return NewEstimator(table, res, conv, 150)
}

func TestEstimateSingleIngredient(t *testing.T) {
	e := testEstimator(t)

	result := e.Estimate(context.Background(), []common.RecipeIngredient{
		{Name: "onion", Quantity: "2 medium"},
	})
	require.Len(t, result.Ingredients, 1)

	ing := result.Ingredients[0]
	assert.Equal(t, "onion", ing.MappedName)
	assert.Equal(t, 240.0, ing.WeightGrams)
	require.NotNil(t, ing.Nutrition)
	assert.InDelta(t, 96, ing.Nutrition.Calories, 1e-9)

	assert.InDelta(t, 96, result.Totals.Calories, 1e-9)
	assert.Equal(t, 240.0, result.Totals.TotalWeightGrams)
}

func TestEstimateMultipleIngredients(t *testing.T) {
	e := testEstimator(t)

	result := e.Estimate(context.Background(), []common.RecipeIngredient{
		{Name: "rice", Quantity: "1 cup"},
		{Name: "spinach", Quantity: "2 cups"},
		{Name: "ghee", Quantity: "1 tbsp"},
	})
	require.Len(t, result.Ingredients, 3)

	// rice: 185 g、spinach: 類別層 2×30 g、ghee: 15 g
	byName := make(map[string]ProcessedIngredient)
	for _, ing := range result.Ingredients {
		byName[ing.MappedName] = ing
	}
	assert.Equal(t, 185.0, byName["rice"].WeightGrams)
	assert.Equal(t, 60.0, byName["spinach"].WeightGrams)
	assert.Equal(t, 15.0, byName["ghee"].WeightGrams)

	assert.Equal(t, 260.0, result.Totals.TotalWeightGrams)
	// 130×1.85 + 23×0.6 + 900×0.15 = 240.5 + 13.8 + 135
	assert.InDelta(t, 389.3, result.Totals.Calories, 1e-6)
}

func TestEstimateUnresolvedContributesZero(t *testing.T) {
	e := testEstimator(t)

	result := e.Estimate(context.Background(), []common.RecipeIngredient{
		{Name: "onion", Quantity: "100 g"},
		{Name: "dragonfruit", Quantity: "200 g"},
	})
	require.Len(t, result.Ingredients, 2)

	var failed ProcessedIngredient
	for _, ing := range result.Ingredients {
		if ing.Error != "" {
			failed = ing
		}
	}
	assert.Equal(t, "dragonfruit", failed.OriginalName)
	assert.Nil(t, failed.Nutrition)
	assert.Equal(t, "", failed.MappedName)

	// 失敗的食材不進入加總
	assert.Equal(t, 100.0, result.Totals.TotalWeightGrams)
	assert.InDelta(t, 40, result.Totals.Calories, 1e-9)
}

func TestEstimateUnparseableQuantityKeepsIngredient(t *testing.T) {
	e := testEstimator(t)

	result := e.Estimate(context.Background(), []common.RecipeIngredient{
		{Name: "onion", Quantity: "a few"},
	})
	require.Len(t, result.Ingredients, 1)

	// 名稱解析成功但份量為零：保留在列表中，貢獻為零
	ing := result.Ingredients[0]
	assert.Equal(t, "onion", ing.MappedName)
	assert.Equal(t, "", ing.Error)
	assert.Equal(t, 0.0, ing.WeightGrams)
	require.NotNil(t, ing.Nutrition)
	assert.Equal(t, 0.0, ing.Nutrition.Calories)
}

func TestEstimateEmptyList(t *testing.T) {
	e := testEstimator(t)

	result := e.Estimate(context.Background(), nil)
	assert.Empty(t, result.Ingredients)
	assert.Equal(t, 0.0, result.Totals.TotalWeightGrams)
}

func TestPerServing(t *testing.T) {
	e := testEstimator(t)

	totals := Totals{
		Nutrients:        common.Nutrients{Calories: 960, Protein: 20, Carbs: 100, Fat: 30, Fiber: 8},
		TotalWeightGrams: 600,
	}

	// 150 g / 600 g = 0.25
	ps := e.PerServing(totals, 150)
	assert.Equal(t, 240, ps.Calories)
	assert.Equal(t, 5.0, ps.Protein)
	assert.Equal(t, 25.0, ps.Carbs)
	assert.Equal(t, 7.5, ps.Fat)
	assert.Equal(t, 2.0, ps.Fiber)
	assert.Equal(t, 150.0, ps.ServingSizeGrams)
}

func TestPerServingDefaultsWhenTargetInvalid(t *testing.T) {
	e := testEstimator(t)

	totals := Totals{
		Nutrients:        common.Nutrients{Calories: 300},
		TotalWeightGrams: 300,
	}

	ps := e.PerServing(totals, 0)
	assert.Equal(t, 150.0, ps.ServingSizeGrams)
	assert.Equal(t, 150, ps.Calories)
}

func TestPerServingClampsExtremes(t *testing.T) {
	e := testEstimator(t)

	totals := Totals{
		Nutrients:        common.Nutrients{Calories: 90000, Protein: 5000, Carbs: 9000, Fat: 4000, Fiber: 900},
		TotalWeightGrams: 100,
	}

	ps := e.PerServing(totals, 100)
	assert.Equal(t, 1000, ps.Calories)
	assert.Equal(t, 100.0, ps.Protein)
	assert.Equal(t, 200.0, ps.Carbs)
	assert.Equal(t, 100.0, ps.Fat)
	// 纖維只有下限沒有上限
	assert.Equal(t, 900.0, ps.Fiber)
}

func TestPerServingZeroWeightGuard(t *testing.T) {
	e := testEstimator(t)

	// 總重量為零時分母以 1 克代替，不得出現 NaN 或 Inf
	totals := Totals{
		Nutrients:        common.Nutrients{Calories: 10},
		TotalWeightGrams: 0,
	}

	ps := e.PerServing(totals, 150)
	assert.Equal(t, 1000, ps.Calories)
	assert.GreaterOrEqual(t, ps.Protein, 0.0)
}

func TestServingGramsByDishType(t *testing.T) {
	e := testEstimator(t)

	assert.Equal(t, 250.0, e.ServingGrams("curry"))
	assert.Equal(t, 150.0, e.ServingGrams("unknown"))
	assert.Equal(t, 150.0, e.ServingGrams(""))
}
