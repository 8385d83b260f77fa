package matcher

import (
	"context"
	"fmt"
	"strings"

	"nutrition-estimator/internal/core/ai/service"
	"nutrition-estimator/internal/pkg/common"

	"go.uber.org/zap"
)

// AssistedMatcher 輔助食材名稱匹配：把無法本地解析的名稱連同候選名單交給模型挑選
type AssistedMatcher struct {
	aiService *service.Service
}

// NewAssistedMatcher 創建輔助匹配服務
func NewAssistedMatcher(aiService *service.Service) *AssistedMatcher {
	return &AssistedMatcher{aiService: aiService}
}

// Match 從候選名單中挑出與原始名稱對應的正規名稱，無法判斷時回傳 "none"
func (m *AssistedMatcher) Match(ctx context.Context, rawName string, candidates []string) (string, error) {
	if len(candidates) == 0 {
		return "none", nil
	}

	prompt := buildMatchPrompt(rawName, candidates)

	resp, err := m.aiService.ProcessRequest(ctx, prompt)
	if err != nil {
		return "", common.NewError(common.ErrMatcherUnavailable.Code, common.ErrMatcherUnavailable.Message, common.ErrMatcherUnavailable.Status, err)
	}
	if resp == nil || strings.TrimSpace(resp.Content) == "" {
		return "", common.ErrMatcherUnavailable
	}

	answer := parseMatchResponse(resp.Content)

	common.LogDebug("輔助匹配完成",
		zap.String("raw", rawName),
		zap.String("answer", answer),
	)
	return answer, nil
}

// matchResponse 模型回覆的比對結果
type matchResponse struct {
	Match string `json:"match"`
}

// buildMatchPrompt 構建提示詞：只允許回覆候選名單中的一個名稱或 none
func buildMatchPrompt(rawName string, candidates []string) string {
	var sb strings.Builder
	sb.WriteString("你是食材名稱比對工具。以下是一個食材的原始描述，以及營養對照表中的候選正規名稱。\n")
	sb.WriteString(fmt.Sprintf("原始描述：%s\n", rawName))
	sb.WriteString("候選名單：\n")
	for _, c := range candidates {
		sb.WriteString("- ")
		sb.WriteString(c)
		sb.WriteString("\n")
	}
	sb.WriteString("請僅回傳 JSON，格式如下：\n")
	sb.WriteString("{\"match\": \"候選名單中的名稱\"}\n")
	sb.WriteString("規則：\n")
	sb.WriteString("1. match 只能是候選名單中的其中一個名稱，逐字一致。\n")
	sb.WriteString("2. 找不到合理對應時 match 填 none。\n")
	sb.WriteString("3. 僅輸出單一 JSON 物件，不要包含其他文字或程式碼區塊標記。\n")
	return sb.String()
}

// parseMatchResponse 取出回覆中的名稱
// 模型偶爾不照格式回覆，JSON 解析失敗時退回純文字第一行
func parseMatchResponse(content string) string {
	text := common.ExtractJSONObject(content)

	var result matchResponse
	if err := common.ParseJSON(text, &result); err == nil && strings.TrimSpace(result.Match) != "" {
		return strings.TrimSpace(strings.ToLower(result.Match))
	}

	line := strings.TrimSpace(content)
	line = strings.Trim(line, "`\"'")
	if idx := strings.IndexAny(line, "\r\n"); idx != -1 {
		line = line[:idx]
	}
	return strings.TrimSpace(strings.ToLower(line))
}
