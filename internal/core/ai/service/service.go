package service

import (
	"context"
	"strings"
	"time"

	"nutrition-estimator/internal/core/ai/cache"
	"nutrition-estimator/internal/core/ai/provider"
	openrouter "nutrition-estimator/internal/core/service"
	"nutrition-estimator/internal/infrastructure/config"

	"nutrition-estimator/internal/pkg/common"
)

// Response AI 回應結構
type Response struct {
	Content string
}

// Service AI 服務：提供者之上加一層快取
type Service struct {
	config       *config.Config
	provider     provider.Provider
	cacheManager *cache.CacheManager
}

// NewService 創建 AI 服務
func NewService(cfg *config.Config, cacheManager *cache.CacheManager) (*Service, error) {
	return &Service{
		config:       cfg,
		provider:     openrouter.NewOpenRouterService(cfg),
		cacheManager: cacheManager,
	}, nil
}

// ProcessRequest 統一對外方法
func (s *Service) ProcessRequest(ctx context.Context, prompt string) (*Response, error) {
	// 統一 prompt 格式，去除多餘空白、tab、換行，確保快取 key 一致
	normalized := strings.TrimSpace(prompt)
	normalized = strings.ReplaceAll(normalized, "\t", " ")
	normalized = strings.Join(strings.Fields(normalized), " ")

	// 檢查緩存（用 cacheManager）
	if s.config.Cache.Enabled && s.cacheManager != nil {
		if val, err := s.cacheManager.Get(ctx, normalized); err == nil && val != "" {
			return &Response{Content: val}, nil
		}
	}

	start := time.Now()
	resp, err := s.provider.Generate(ctx, &provider.Request{
		Messages: []provider.Message{
			{Role: "user", Content: normalized},
		},
		MaxTokens: s.config.OpenRouter.MaxTokens,
	})
	common.LogAICall(normalized, time.Since(start), err, "")
	if err != nil {
		return nil, err
	}

	if s.config.Cache.Enabled && s.cacheManager != nil {
		_ = s.cacheManager.Set(ctx, normalized, resp.Content)
	}

	return &Response{Content: resp.Content}, nil
}
