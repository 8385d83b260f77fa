package common

import (
	"fmt"
	"strings"
)

// RecipeIngredient 食譜中的一項食材（名稱 + 原始份量描述）
type RecipeIngredient struct {
	Name     string `json:"name"`
	Quantity string `json:"quantity"`
}

// Recipe 外部食譜來源提供的食譜物件
type Recipe struct {
	DishName    string             `json:"dish_name"`
	DishType    string             `json:"dish_type,omitempty"` // 由外部分類器宣告，本服務不驗證
	Ingredients []RecipeIngredient `json:"ingredients"`
}

// Nutrients 五項營養素數值（卡路里為 kcal，其餘為克）
type Nutrients struct {
	Calories float64 `json:"calories"`
	Protein  float64 `json:"protein"`
	Carbs    float64 `json:"carbs"`
	Fat      float64 `json:"fat"`
	Fiber    float64 `json:"fiber"`
}

// Add 將另一組營養素累加進來
func (n *Nutrients) Add(other Nutrients) {
	n.Calories += other.Calories
	n.Protein += other.Protein
	n.Carbs += other.Carbs
	n.Fat += other.Fat
	n.Fiber += other.Fiber
}

// FormatIngredients 格式化食材列表（記錄與提示詞用）
func FormatIngredients(ingredients []RecipeIngredient) string {
	var sb strings.Builder
	for _, ing := range ingredients {
		sb.WriteString(fmt.Sprintf("- %s: %s\n", ing.Name, ing.Quantity))
	}
	return sb.String()
}
