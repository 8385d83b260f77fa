package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"nutrition-estimator/internal/api/handlers/health"
	nutritionHandler "nutrition-estimator/internal/api/handlers/nutrition"
	"nutrition-estimator/internal/api/middleware"
	"nutrition-estimator/internal/core/ai/cache"
	"nutrition-estimator/internal/core/ai/matcher"
	"nutrition-estimator/internal/core/ai/service"
	"nutrition-estimator/internal/core/nutrition"
	"nutrition-estimator/internal/core/reference"
	"nutrition-estimator/internal/core/resolver"
	"nutrition-estimator/internal/core/units"
	"nutrition-estimator/internal/infrastructure/config"
	"nutrition-estimator/internal/pkg/common"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	// 超時設置
	timeoutDuration = 60 * time.Second
	// 請求體大小限制 (1MB)，純文字請求不需要更大
	maxBodySize = 1 << 20
)

// SetupRouter 設置路由
func SetupRouter(cfg *config.Config, table *reference.Table, conversions *units.ConversionTable, cacheManager *cache.CacheManager) (*gin.Engine, error) {
	common.LogInfo("Starting router setup",
		zap.Bool("debug_mode", cfg.App.Debug),
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Env),
	)

	// 設置 gin 模式
	if !cfg.App.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	// 創建路由引擎
	router := gin.New()

	// 註冊基礎中間件
	router.Use(middleware.Recovery())
	router.Use(middleware.Logger())
	router.Use(requestid.New()) // 自動生成請求 ID

	// CORS 設置
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Request-ID"},
		ExposeHeaders:    []string{"Content-Length", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// 請求體大小限制
	router.Use(middleware.BodySizeLimit(maxBodySize))

	// 重複請求過濾與速率限制
	router.Use(middleware.Deduplication(cfg))
	if cfg.RateLimit.Enabled {
		router.Use(middleware.RateLimit(cfg.RateLimit.Requests, cfg.RateLimit.Window))
	}

	common.LogInfo("Initializing services",
		zap.Bool("cache_enabled", cfg.Cache.Enabled),
		zap.Bool("matcher_enabled", cfg.Matcher.Enabled),
		zap.String("model", cfg.OpenRouter.Model),
		zap.Int("ingredient_count", table.Len()),
	)

	// 輔助匹配服務：未啟用時 resolver 收到 nil，最後一層策略直接跳過
	var assistedMatcher resolver.Matcher
	if cfg.Matcher.Enabled {
		aiService, err := service.NewService(cfg, cacheManager)
		if err != nil || aiService == nil {
			common.LogError("Failed to initialize AI service", zap.Error(err))
			return nil, fmt.Errorf("failed to initialize AI service: %w", err)
		}
		assistedMatcher = matcher.NewAssistedMatcher(aiService)
	}

	// 初始化名稱解析與估算服務
	res := resolver.New(table, assistedMatcher, cfg.Matcher.MaxCandidates)
	estimator := nutrition.NewEstimator(table, res, conversions, cfg.Serving.DefaultGrams)
	if estimator == nil {
		common.LogError("Failed to initialize estimator service")
		return nil, fmt.Errorf("failed to initialize estimator service")
	}

	// 全局中間件：設置超時和服務
	router.Use(func(c *gin.Context) {
		// 設置請求超時
		ctx, cancel := context.WithTimeout(c.Request.Context(), timeoutDuration)
		defer cancel()

		c.Request = c.Request.WithContext(ctx)

		// 設置配置與對照表、快取狀態
		c.Set("config", cfg)
		c.Set("table_size", table.Len())
		c.Set("cache_stats", cacheManager.GetStats())

		// 處理請求
		c.Next()

		// 檢查是否超時
		if ctx.Err() == context.DeadlineExceeded {
			common.LogError("Request timeout",
				zap.String("path", c.Request.URL.Path),
				zap.String("request_id", c.GetHeader("X-Request-ID")),
				zap.Duration("timeout", timeoutDuration),
			)
			c.JSON(http.StatusGatewayTimeout, gin.H{
				"error": "Request timeout",
				"code":  "REQUEST_TIMEOUT",
				"details": gin.H{
					"timeout": timeoutDuration.String(),
				},
			})
			c.Abort()
			return
		}
	})

	// 健康檢查路由
	router.GET("/health", health.HealthCheck)
	router.GET("/ready", health.ReadinessCheck)
	router.GET("/live", health.LivenessCheck)

	// API 路由組
	api := router.Group("/api/v1")
	{
		nutritionHandlerInstance := nutritionHandler.NewHandler(estimator)

		nutritionGroup := api.Group("/nutrition")
		{
			// 整道菜營養估算
			nutritionGroup.POST("/estimate", nutritionHandlerInstance.HandleEstimate)
		}
	}

	common.LogInfo("Router setup completed successfully",
		zap.Bool("debug_mode", cfg.App.Debug),
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Env),
		zap.Bool("matcher_enabled", cfg.Matcher.Enabled),
		zap.Bool("cache_manager_initialized", cacheManager != nil),
		zap.Duration("timeout", timeoutDuration),
		zap.Int64("max_body_size", maxBodySize),
	)

	return router, nil
}
