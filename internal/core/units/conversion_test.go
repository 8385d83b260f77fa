package units

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConversionTable(t *testing.T) *ConversionTable {
	t.Helper()
	content := `{
		"unit_ingredient": {
			"piece": {"potato": 150, "egg": 50},
			"medium": {"onion": 120},
			"clove": {"garlic": 5}
		},
		"ingredient_category": {
			"spinach": "leafy_green",
			"sugar": "granular"
		},
		"category_units": {
			"leafy_green": {"cup": 30},
			"granular": {"cup": 200, "teaspoon": 4}
		},
		"unit_defaults": {
			"cup": 150,
			"teaspoon": 5,
			"katori": 150,
			"piece": {"default": 50, "paneer": 20}
		},
		"serving_sizes": {
			"curry": 250,
			"snack": 100
		}
	}`

	path := filepath.Join(t.TempDir(), "conversions.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	table, err := LoadConversionTable(path)
	require.NoError(t, err)
	return table
}

func TestToGramsPassthrough(t *testing.T) {
	table := testConversionTable(t)

	// 克與毫升不經過任何表
	assert.Equal(t, 200.0, table.ToGrams(ParsedQuantity{Value: 200, Unit: "g", OK: true}, "onion"))
	assert.Equal(t, 250.0, table.ToGrams(ParsedQuantity{Value: 250, Unit: "ml", OK: true}, "milk"))
}

func TestToGramsIngredientSpecific(t *testing.T) {
	table := testConversionTable(t)

	assert.Equal(t, 300.0, table.ToGrams(ParsedQuantity{Value: 2, Unit: "piece", OK: true}, "potato"))
	assert.Equal(t, 240.0, table.ToGrams(ParsedQuantity{Value: 2, Unit: "medium", OK: true}, "onion"))
	assert.Equal(t, 10.0, table.ToGrams(ParsedQuantity{Value: 2, Unit: "cloves", OK: true}, "garlic"))
}

func TestToGramsMediumFallsBackToGeneric(t *testing.T) {
	table := testConversionTable(t)

	// 無食材專屬值的 medium 使用通用常數
	assert.Equal(t, 120.0, table.ToGrams(ParsedQuantity{Value: 1, Unit: "medium", OK: true}, "eggplant"))
}

func TestToGramsCategoryLayer(t *testing.T) {
	table := testConversionTable(t)

	// 類別層優先於全域單位表：leafy_green 的 cup 是 30 而非 150
	assert.Equal(t, 60.0, table.ToGrams(ParsedQuantity{Value: 2, Unit: "cups", OK: true}, "spinach"))
	assert.Equal(t, 2.0, table.ToGrams(ParsedQuantity{Value: 0.5, Unit: "teaspoon", OK: true}, "sugar"))
}

func TestToGramsUnitDefaults(t *testing.T) {
	table := testConversionTable(t)

	// 不在任何類別的食材落到全域單位表
	assert.Equal(t, 75.0, table.ToGrams(ParsedQuantity{Value: 0.5, Unit: "cup", OK: true}, "rice"))
	assert.Equal(t, 2.5, table.ToGrams(ParsedQuantity{Value: 0.5, Unit: "tsp", OK: true}, "salt"))
	assert.Equal(t, 150.0, table.ToGrams(ParsedQuantity{Value: 1, Unit: "katori", OK: true}, "dal"))

	// piece 的物件形式：專屬值優先，否則 default
	assert.Equal(t, 20.0, table.ToGrams(ParsedQuantity{Value: 1, Unit: "piece", OK: true}, "paneer"))
	assert.Equal(t, 100.0, table.ToGrams(ParsedQuantity{Value: 2, Unit: "piece", OK: true}, "tomato"))
}

func TestToGramsAbsoluteFallbacks(t *testing.T) {
	table := testConversionTable(t)

	// tablespoon 不在測試表內，落到絕對保底表的 15 克
	assert.Equal(t, 15.0, table.ToGrams(ParsedQuantity{Value: 1, Unit: "tablespoon", OK: true}, "oil"))
	assert.Equal(t, 30.0, table.ToGrams(ParsedQuantity{Value: 1, Unit: "handful", OK: true}, "peanuts"))
}

func TestToGramsUnknownUnitUsesFallback(t *testing.T) {
	table := testConversionTable(t)

	assert.Equal(t, 20.0, table.ToGrams(ParsedQuantity{Value: 2, Unit: "smidgen", OK: true}, "salt"))
}

func TestToGramsNeverNegativeOrNaN(t *testing.T) {
	table := testConversionTable(t)

	assert.Equal(t, 0.0, table.ToGrams(ParsedQuantity{}, "onion"))
	assert.Equal(t, 0.0, table.ToGrams(ParsedQuantity{Value: -5, Unit: "cup", OK: true}, "onion"))
	assert.Equal(t, 0.0, table.ToGrams(ParsedQuantity{Value: math.NaN(), Unit: "cup", OK: true}, "onion"))
	assert.Equal(t, 0.0, table.ToGrams(ParsedQuantity{Value: math.Inf(1), Unit: "cup", OK: true}, "onion"))
}

func TestNormalizeUnit(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"cups", "cup"},
		{"Cup", "cup"},
		{"tbsp", "tablespoon"},
		{"tbsps", "tablespoon"},
		{"tsp", "teaspoon"},
		{"pcs", "piece"},
		{"glass", "glass"},
		{"katoris", "katori"},
		{"tsp.", "teaspoon"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizeUnit(tt.in), tt.in)
	}
}

func TestServingGrams(t *testing.T) {
	table := testConversionTable(t)

	assert.Equal(t, 250.0, table.ServingGrams("curry", 150))
	assert.Equal(t, 250.0, table.ServingGrams("  Curry ", 150))
	assert.Equal(t, 150.0, table.ServingGrams("unknown type", 150))
	assert.Equal(t, 150.0, table.ServingGrams("", 150))
}
