package reference

import (
	"os"
	"path/filepath"
	"testing"

	"nutrition-estimator/internal/pkg/common"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestMain(m *testing.M) {
	common.Logger = zap.NewNop()
	os.Exit(m.Run())
}

func writeTable(t *testing.T, csvContent, synonymContent string) *Table {
	t.Helper()
	dir := t.TempDir()

	csvPath := filepath.Join(dir, "nutrition.csv")
	require.NoError(t, os.WriteFile(csvPath, []byte(csvContent), 0o644))

	synPath := filepath.Join(dir, "synonyms.json")
	require.NoError(t, os.WriteFile(synPath, []byte(synonymContent), 0o644))

	table, err := Load(csvPath, synPath)
	require.NoError(t, err)
	return table
}

func TestLoadBasic(t *testing.T) {
	table := writeTable(t,
		"name,calories,protein,carbs,fat,fiber\n"+
			"onion,40,1.1,9.3,0.1,1.7\n"+
			"olive_oil,884,0,0,100,0\n",
		`{"scallion": "onion"}`)

	assert.Equal(t, 2, table.Len())

	rec, ok := table.Lookup("onion")
	require.True(t, ok)
	assert.Equal(t, 40.0, rec.Calories)
	assert.Equal(t, 1.1, rec.Protein)

	_, ok = table.Lookup("butter")
	assert.False(t, ok)
}

func TestLoadDuplicateKeepsFirst(t *testing.T) {
	table := writeTable(t,
		"name,calories,protein,carbs,fat,fiber\n"+
			"onion,40,1.1,9.3,0.1,1.7\n"+
			"onion,999,9,9,9,9\n",
		`{}`)

	assert.Equal(t, 1, table.Len())
	rec, ok := table.Lookup("onion")
	require.True(t, ok)
	assert.Equal(t, 40.0, rec.Calories)
}

func TestLoadInvalidNumbersBecomeZero(t *testing.T) {
	table := writeTable(t,
		"name,calories,protein,carbs,fat,fiber\n"+
			"mystery,abc,-5,NaN,0.5,\n",
		`{}`)

	rec, ok := table.Lookup("mystery")
	require.True(t, ok)
	assert.Equal(t, 0.0, rec.Calories)
	assert.Equal(t, 0.0, rec.Protein)
	assert.Equal(t, 0.0, rec.Carbs)
	assert.Equal(t, 0.5, rec.Fat)
	assert.Equal(t, 0.0, rec.Fiber)
}

func TestLoadSkipsMalformedRows(t *testing.T) {
	table := writeTable(t,
		"name,calories,protein,carbs,fat,fiber\n"+
			"broken,40\n"+
			" ,40,1.1,9.3,0.1,1.7\n"+
			"onion,40,1.1,9.3,0.1,1.7\n",
		`{}`)

	// 欄位不足與空名稱的列都被略過
	assert.Equal(t, 1, table.Len())
	_, ok := table.Lookup("broken")
	assert.False(t, ok)
}

func TestSynonymLookup(t *testing.T) {
	table := writeTable(t,
		"name,calories,protein,carbs,fat,fiber\n"+
			"onion,40,1.1,9.3,0.1,1.7\n",
		`{"scallion": "onion", "ghost": "missing_ingredient"}`)

	name, ok := table.Synonym("scallion")
	require.True(t, ok)
	assert.Equal(t, "onion", name)

	// 指向表內不存在名稱的同義詞必須被視為未命中
	_, ok = table.Synonym("ghost")
	assert.False(t, ok)

	_, ok = table.Synonym("unknown")
	assert.False(t, ok)
}

func TestNamesPreserveLoadOrder(t *testing.T) {
	table := writeTable(t,
		"name,calories,protein,carbs,fat,fiber\n"+
			"zucchini,17,1.2,3.1,0.3,1.0\n"+
			"apple,52,0.3,13.8,0.2,2.4\n"+
			"onion,40,1.1,9.3,0.1,1.7\n",
		`{}`)

	assert.Equal(t, []string{"zucchini", "apple", "onion"}, table.Names())
}

func TestLoadEmptyTableFails(t *testing.T) {
	dir := t.TempDir()
	csvPath := filepath.Join(dir, "nutrition.csv")
	require.NoError(t, os.WriteFile(csvPath, []byte("name,calories,protein,carbs,fat,fiber\n"), 0o644))
	synPath := filepath.Join(dir, "synonyms.json")
	require.NoError(t, os.WriteFile(synPath, []byte(`{}`), 0o644))

	_, err := Load(csvPath, synPath)
	assert.Error(t, err)
}
