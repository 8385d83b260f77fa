package reference

import (
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"

	"nutrition-estimator/internal/pkg/common"

	"go.uber.org/zap"
)

// Record 單一食材的營養成分（每 100 克）
type Record struct {
	Name     string  `json:"name"` // 正規名稱，表內唯一
	Calories float64 `json:"calories"`
	Protein  float64 `json:"protein"`
	Carbs    float64 `json:"carbs"`
	Fat      float64 `json:"fat"`
	Fiber    float64 `json:"fiber"`
}

// Table 營養對照表與同義詞表，啟動時載入一次後唯讀
type Table struct {
	records  map[string]*Record
	order    []string          // 載入順序，替補排序時使用
	synonyms map[string]string // 俗名 → 正規名稱
}

// Load 從 CSV 與 JSON 檔案建立對照表
func Load(nutritionPath, synonymPath string) (*Table, error) {
	t := &Table{
		records:  make(map[string]*Record),
		synonyms: make(map[string]string),
	}

	if err := t.loadNutrition(nutritionPath); err != nil {
		return nil, fmt.Errorf("failed to load nutrition table: %w", err)
	}
	if err := t.loadSynonyms(synonymPath); err != nil {
		return nil, fmt.Errorf("failed to load synonym table: %w", err)
	}

	common.LogInfo("營養對照表已載入",
		zap.Int("食材數", len(t.records)),
		zap.Int("同義詞數", len(t.synonyms)),
	)
	return t, nil
}

// loadNutrition 載入營養對照 CSV（欄位：name,calories,protein,carbs,fat,fiber）
func (t *Table) loadNutrition(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	reader := csv.NewReader(f)
	// 欄位數不一的列自行檢查，整檔不因單列格式錯誤而失敗
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return fmt.Errorf("nutrition table is empty")
	}

	// 跳過表頭
	for i, row := range rows[1:] {
		if len(row) < 6 {
			common.LogWarn("營養對照表列欄位不足，已跳過", zap.Int("row", i+2))
			continue
		}

		name := strings.TrimSpace(strings.ToLower(row[0]))
		if name == "" {
			continue
		}
		// 重複的正規名稱以首次出現為準
		if _, exists := t.records[name]; exists {
			common.LogDebug("營養對照表出現重複名稱，已忽略", zap.String("name", name))
			continue
		}

		rec := &Record{Name: name}
		fields := []*float64{&rec.Calories, &rec.Protein, &rec.Carbs, &rec.Fat, &rec.Fiber}
		for j, dst := range fields {
			v, err := strconv.ParseFloat(strings.TrimSpace(row[j+1]), 64)
			if err != nil || math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
				common.LogWarn("營養數值無效，以 0 代入",
					zap.String("name", name),
					zap.Int("column", j+1),
				)
				v = 0
			}
			*dst = v
		}

		t.records[name] = rec
		t.order = append(t.order, name)
	}

	if len(t.records) == 0 {
		return common.ErrTableNotLoaded
	}
	return nil
}

// loadSynonyms 載入同義詞 JSON（俗名 → 正規名稱）
// 同義詞允許指向表中不存在的名稱，查詢時再行過濾
func (t *Table) loadSynonyms(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	raw := make(map[string]string)
	if err := common.ParseJSONBytes(data, &raw); err != nil {
		return fmt.Errorf("failed to parse synonym table: %w", err)
	}

	for k, v := range raw {
		key := strings.TrimSpace(strings.ToLower(k))
		if key == "" {
			continue
		}
		t.synonyms[key] = strings.TrimSpace(strings.ToLower(v))
	}
	return nil
}

// Lookup 以正規名稱查詢營養成分
func (t *Table) Lookup(name string) (*Record, bool) {
	rec, ok := t.records[name]
	return rec, ok
}

// Synonym 查詢同義詞對應的正規名稱，目標必須存在於對照表
func (t *Table) Synonym(phrase string) (string, bool) {
	target, ok := t.synonyms[phrase]
	if !ok {
		return "", false
	}
	if _, exists := t.records[target]; !exists {
		// 死同義詞：指向的名稱不在表內
		return "", false
	}
	return target, true
}

// Names 回傳所有正規名稱（依載入順序）
func (t *Table) Names() []string {
	return t.order
}

// Len 回傳對照表食材數
func (t *Table) Len() int {
	return len(t.records)
}
