package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"nutrition-estimator/internal/api"
	"nutrition-estimator/internal/core/ai/cache"
	"nutrition-estimator/internal/core/reference"
	"nutrition-estimator/internal/core/units"
	"nutrition-estimator/internal/infrastructure/config"
	"nutrition-estimator/internal/pkg/common"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	// 載入 .env
	if err := godotenv.Load(); err != nil {
		fmt.Println("Warning: .env file not found")
	}

	// 載入設定
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// 初始化 logger（需在載入 config 後）
	if err := common.InitLogger(cfg.LogLevel); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer common.Sync()

	// 使用 logger 記錄啟動信息
	common.LogInfo("載入設定",
		zap.String("nutrition_table", cfg.Tables.NutritionPath),
		zap.String("synonym_table", cfg.Tables.SynonymPath),
		zap.String("conversion_table", cfg.Tables.ConversionPath),
		zap.Bool("matcher_enabled", cfg.Matcher.Enabled),
	)

	// 載入對照表，失敗直接終止，服務不能在沒有資料的情況下啟動
	table, err := reference.Load(cfg.Tables.NutritionPath, cfg.Tables.SynonymPath)
	if err != nil {
		common.LogFatal("載入營養對照表失敗",
			zap.Error(err),
			zap.String("nutrition_path", cfg.Tables.NutritionPath),
		)
	}
	common.LogInfo("營養對照表載入完成",
		zap.Int("ingredient_count", table.Len()),
	)

	conversions, err := units.LoadConversionTable(cfg.Tables.ConversionPath)
	if err != nil {
		common.LogFatal("載入單位轉換表失敗",
			zap.Error(err),
			zap.String("conversion_path", cfg.Tables.ConversionPath),
		)
	}

	// 初始化快取
	cacheManager := cache.NewManager(cfg)
	// 只在快取開啟但初始化失敗時才 Fatal
	if cfg.Cache.Enabled && cacheManager == nil {
		common.LogFatal("Failed to initialize cache manager")
	}
	defer cacheManager.Close()

	// 設置路由
	router, err := api.SetupRouter(cfg, table, conversions, cacheManager)
	if err != nil {
		common.LogError("Failed to setup router", zap.Error(err))
		os.Exit(1)
	}

	// 設置 HTTP 服務器
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// 啟動服務器
	go func() {
		common.LogInfo("啟動應用",
			zap.String("version", cfg.App.Version),
			zap.String("env", cfg.App.Env),
			zap.Bool("debug", cfg.App.Debug),
		)

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			common.LogError("Failed to start server",
				zap.Error(err),
			)
			os.Exit(1)
		}
	}()

	// 等待中斷信號
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	common.LogInfo("Shutting down server...")

	// 設置關閉超時
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		common.LogError("Server forced to shutdown",
			zap.Error(err),
		)
		os.Exit(1)
	}

	common.LogInfo("Server exited")
}
