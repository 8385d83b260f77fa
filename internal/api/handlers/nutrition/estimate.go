package nutrition

import (
	"net/http"

	nutritionService "nutrition-estimator/internal/core/nutrition"
	"nutrition-estimator/internal/pkg/common"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// EstimateRequest 菜品營養估算請求
type EstimateRequest struct {
	DishName         string            `json:"dish_name"`                      // 菜名（僅供記錄）
	DishType         string            `json:"dish_type,omitempty"`            // 菜品類型，決定預設份量
	Ingredients      []IngredientInput `json:"ingredients" binding:"required"` // 食材列表
	ServingSizeGrams float64           `json:"serving_size_grams,omitempty"`   // 自訂每份克數（可省略）
}

// IngredientInput 單一食材輸入
type IngredientInput struct {
	Name     string `json:"name" binding:"required"` // 食材名稱（原始文字）
	Quantity string `json:"quantity"`                // 份量描述（如 "2 medium"、"1/2 cup"）
}

// EstimateResponse 營養估算結果
type EstimateResponse struct {
	DishName    string                                 `json:"dish_name,omitempty"`
	Totals      nutritionService.Totals                `json:"totals"`
	PerServing  nutritionService.PerServing            `json:"per_serving"`
	Ingredients []nutritionService.ProcessedIngredient `json:"ingredients"`
}

// Handler 營養估算處理程序
type Handler struct {
	estimator *nutritionService.Estimator
}

// NewHandler 創建新的營養估算處理程序
func NewHandler(estimator *nutritionService.Estimator) *Handler {
	return &Handler{
		estimator: estimator,
	}
}

// HandleEstimate 估算整道菜與每份的營養值
func (h *Handler) HandleEstimate(c *gin.Context) {
	requestID := c.GetHeader("X-Request-ID")
	if requestID == "" {
		requestID = common.GenerateUUID()
		c.Header("X-Request-ID", requestID)
	}

	common.LogInfo("開始處理營養估算請求",
		zap.String("request_id", requestID),
		zap.String("client_ip", c.ClientIP()),
	)

	var req EstimateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.LogError("請求格式無效",
			zap.Error(err),
			zap.String("request_id", requestID),
		)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	if len(req.Ingredients) == 0 {
		common.LogError("食材列表為空",
			zap.String("request_id", requestID),
		)
		c.JSON(common.ErrEmptyIngredients.Status, gin.H{
			"error": common.ErrEmptyIngredients.Message,
			"code":  common.ErrEmptyIngredients.Code,
		})
		return
	}

	recipe := common.Recipe{
		DishName:    req.DishName,
		DishType:    req.DishType,
		Ingredients: make([]common.RecipeIngredient, len(req.Ingredients)),
	}
	for i, ing := range req.Ingredients {
		recipe.Ingredients[i] = common.RecipeIngredient{
			Name:     ing.Name,
			Quantity: ing.Quantity,
		}
	}
	common.LogDebug("用戶輸入",
		zap.String("request_id", requestID),
		zap.String("ingredients", common.FormatIngredients(recipe.Ingredients)),
	)

	result := h.estimator.Estimate(c.Request.Context(), recipe.Ingredients)

	// 份量：請求指定 > 菜品類型預設 > 全域預設
	servingGrams := req.ServingSizeGrams
	if servingGrams <= 0 {
		servingGrams = h.estimator.ServingGrams(recipe.DishType)
	}
	perServing := h.estimator.PerServing(result.Totals, servingGrams)

	resolved := 0
	for _, ing := range result.Ingredients {
		if ing.Error == "" {
			resolved++
		}
	}

	common.LogInfo("營養估算完成",
		zap.String("request_id", requestID),
		zap.String("dish_name", req.DishName),
		zap.Int("ingredient_count", len(result.Ingredients)),
		zap.Int("resolved_count", resolved),
		zap.Float64("total_weight_grams", result.Totals.TotalWeightGrams),
	)

	c.JSON(http.StatusOK, EstimateResponse{
		DishName:    req.DishName,
		Totals:      result.Totals,
		PerServing:  perServing,
		Ingredients: result.Ingredients,
	})
}
