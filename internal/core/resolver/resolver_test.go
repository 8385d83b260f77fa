package resolver

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"nutrition-estimator/internal/core/reference"
	"nutrition-estimator/internal/pkg/common"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestMain(m *testing.M) {
	common.Logger = zap.NewNop()
	os.Exit(m.Run())
}

func testTable(t *testing.T) *reference.Table {
	t.Helper()
	dir := t.TempDir()

	csvPath := filepath.Join(dir, "nutrition.csv")
	csvContent := "name,calories,protein,carbs,fat,fiber\n" +
		"onion,40,1.1,9.3,0.1,1.7\n" +
		"olive_oil,884,0,0,100,0\n" +
		"green_chili,40,1.9,8.8,0.4,1.5\n" +
		"red_chili_powder,282,12,49.7,14.3,34.8\n" +
		"chicken,239,27.3,0,13.6,0\n" +
		"chicken_breast,165,31,0,3.6,0\n" +
		"coriander_leaves,23,2.1,3.7,0.5,2.8\n" +
		"tomato,18,0.9,3.9,0.2,1.2\n"
	require.NoError(t, os.WriteFile(csvPath, []byte(csvContent), 0o644))

	synPath := filepath.Join(dir, "synonyms.json")
	synContent := `{"cilantro": "coriander_leaves", "scallion": "onion", "ghost": "nothing"}`
	require.NoError(t, os.WriteFile(synPath, []byte(synContent), 0o644))

	table, err := reference.Load(csvPath, synPath)
	require.NoError(t, err)
	return table
}

// fakeMatcher 以固定回覆代替外部輔助匹配
type fakeMatcher struct {
	answer string
	err    error
	called bool
}

func (f *fakeMatcher) Match(_ context.Context, _ string, _ []string) (string, error) {
	f.called = true
	return f.answer, f.err
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		raw, want string
	}{
		{"Onion", "onion"},
		{"2 cups chopped Spinach", "spinach"},
		{"finely chopped onion", "onion"},
		{"olive oil", "olive oil"},
		{"salt, to taste", "salt"},
		{"boneless chicken breast", "chicken breast"},
		{"tomato (diced)", "tomato"},
		{"spinach 200 g", "spinach"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Normalize(tt.raw), tt.raw)
	}
}

func TestNormalizeNeverReturnsEmpty(t *testing.T) {
	// 全部都是修飾語時退回原文，避免空字串進入比對
	got := Normalize("Chopped")
	assert.Equal(t, "chopped", got)
}

func TestResolveExactUnderscored(t *testing.T) {
	r := New(testTable(t), nil, 0)

	name, ok := r.Resolve(context.Background(), "olive oil")
	require.True(t, ok)
	assert.Equal(t, "olive_oil", name)
}

func TestResolveExactSpaced(t *testing.T) {
	r := New(testTable(t), nil, 0)

	name, ok := r.Resolve(context.Background(), "Onion")
	require.True(t, ok)
	assert.Equal(t, "onion", name)
}

func TestResolveSynonym(t *testing.T) {
	r := New(testTable(t), nil, 0)

	name, ok := r.Resolve(context.Background(), "cilantro")
	require.True(t, ok)
	assert.Equal(t, "coriander_leaves", name)

	// 指向不存在名稱的同義詞不得命中
	_, ok = r.Resolve(context.Background(), "ghost")
	assert.False(t, ok)
}

func TestResolvePluralViaSubstring(t *testing.T) {
	r := New(testTable(t), nil, 0)

	name, ok := r.Resolve(context.Background(), "onions")
	require.True(t, ok)
	assert.Equal(t, "onion", name)
}

func TestResolveSubstringPrefersShorter(t *testing.T) {
	r := New(testTable(t), nil, 0)

	// "chicken" 同時匹配 chicken 與 chicken_breast，取完全相同者
	name, ok := r.Resolve(context.Background(), "chicken")
	require.True(t, ok)
	assert.Equal(t, "chicken", name)

	// "chili" 匹配 green_chili 與 red_chili_powder，無完全相同者取較短者
	name, ok = r.Resolve(context.Background(), "chili")
	require.True(t, ok)
	assert.Equal(t, "green_chili", name)
}

func TestResolveIdempotent(t *testing.T) {
	r := New(testTable(t), nil, 0)

	// 已是正規名稱的輸入解析回自身
	for _, name := range []string{"onion", "olive_oil", "chicken_breast"} {
		got, ok := r.Resolve(context.Background(), name)
		require.True(t, ok, name)
		assert.Equal(t, name, got, name)
	}
}

func TestResolveUnknownWithoutMatcher(t *testing.T) {
	r := New(testTable(t), nil, 0)

	_, ok := r.Resolve(context.Background(), "dragonfruit")
	assert.False(t, ok)
}

func TestResolveAssistedMatch(t *testing.T) {
	m := &fakeMatcher{answer: "tomato"}
	r := New(testTable(t), m, 0)

	name, ok := r.Resolve(context.Background(), "roma fruit")
	require.True(t, ok)
	assert.Equal(t, "tomato", name)
	assert.True(t, m.called)
}

func TestResolveAssistedMatchRejectsUnknownAnswer(t *testing.T) {
	// 回覆不在對照表內一律視為未命中
	m := &fakeMatcher{answer: "pineapple"}
	r := New(testTable(t), m, 0)

	_, ok := r.Resolve(context.Background(), "mystery fruit")
	assert.False(t, ok)
}

func TestResolveAssistedMatchNone(t *testing.T) {
	m := &fakeMatcher{answer: "none"}
	r := New(testTable(t), m, 0)

	_, ok := r.Resolve(context.Background(), "mystery fruit")
	assert.False(t, ok)
}

func TestResolveAssistedMatchErrorDegrades(t *testing.T) {
	// 外部服務失敗降級為未解析，不報錯
	m := &fakeMatcher{err: errors.New("timeout")}
	r := New(testTable(t), m, 0)

	_, ok := r.Resolve(context.Background(), "mystery fruit")
	assert.False(t, ok)
}

func TestResolveSkipsMatcherWhenEarlierLayerHits(t *testing.T) {
	m := &fakeMatcher{answer: "tomato"}
	r := New(testTable(t), m, 0)

	name, ok := r.Resolve(context.Background(), "onion")
	require.True(t, ok)
	assert.Equal(t, "onion", name)
	assert.False(t, m.called)
}

func TestCandidateListBounded(t *testing.T) {
	r := New(testTable(t), nil, 3)

	candidates := r.candidateList("chicken curry")
	assert.LessOrEqual(t, len(candidates), 3)
	// 共享字詞的條目排在前面
	assert.Contains(t, candidates, "chicken")
}
