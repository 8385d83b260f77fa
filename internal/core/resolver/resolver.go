package resolver

import (
	"context"
	"strings"

	"nutrition-estimator/internal/core/reference"
	"nutrition-estimator/internal/pkg/common"

	"go.uber.org/zap"
)

// Matcher 外部輔助名稱匹配服務
// 回傳 "none" 或不在對照表內的名稱一律視為未命中
type Matcher interface {
	Match(ctx context.Context, rawName string, candidates []string) (string, error)
}

// Resolver 食材名稱解析器，依固定優先序逐層比對
type Resolver struct {
	table         *reference.Table
	matcher       Matcher // 可為 nil（輔助匹配關閉）
	maxCandidates int
	strategies    []strategy
}

// strategy 單一比對層級：輸入正規化後的名稱，回傳正規名稱與是否命中
type strategy func(ctx context.Context, raw, normalized string) (string, bool)

// New 創建名稱解析器
func New(table *reference.Table, matcher Matcher, maxCandidates int) *Resolver {
	r := &Resolver{
		table:         table,
		matcher:       matcher,
		maxCandidates: maxCandidates,
	}
	// 比對層級明確排序，先命中者優先
	r.strategies = []strategy{
		r.exactUnderscored,
		r.exactSpaced,
		r.synonymLookup,
		r.substringSearch,
		r.assistedMatch,
	}
	return r
}

// Resolve 將原始食材描述解析為對照表中的正規名稱
// 解析失敗回傳 ok=false，呼叫端應將該食材排除在營養加總之外，而非視為錯誤
func (r *Resolver) Resolve(ctx context.Context, rawName string) (string, bool) {
	normalized := Normalize(rawName)

	for _, try := range r.strategies {
		if name, ok := try(ctx, rawName, normalized); ok {
			common.LogDebug("食材名稱解析成功",
				zap.String("raw", rawName),
				zap.String("canonical", name),
			)
			return name, true
		}
	}

	common.LogDebug("食材名稱解析失敗",
		zap.String("raw", rawName),
		zap.String("normalized", normalized),
	)
	return "", false
}

// exactUnderscored 底線形式的完全比對
func (r *Resolver) exactUnderscored(_ context.Context, _, normalized string) (string, bool) {
	name := Underscored(normalized)
	if _, ok := r.table.Lookup(name); ok {
		return name, true
	}
	return "", false
}

// exactSpaced 空格形式的完全比對
func (r *Resolver) exactSpaced(_ context.Context, _, normalized string) (string, bool) {
	if _, ok := r.table.Lookup(normalized); ok {
		return normalized, true
	}
	return "", false
}

// synonymLookup 同義詞表查詢（目標必須存在於對照表）
func (r *Resolver) synonymLookup(_ context.Context, _, normalized string) (string, bool) {
	return r.table.Synonym(normalized)
}

// substringSearch 子字串候選搜尋
// 收集所有「正規名稱包含查詢字串或反之」的條目，再以 preferCandidate 挑出最佳者
func (r *Resolver) substringSearch(_ context.Context, _, normalized string) (string, bool) {
	if normalized == "" {
		return "", false
	}
	spaced := Spaced(normalized)
	underscored := Underscored(normalized)

	var candidates []string
	for _, name := range r.table.Names() {
		if containsEither(name, spaced) || containsEither(name, underscored) {
			candidates = append(candidates, name)
		}
	}
	if len(candidates) == 0 {
		return "", false
	}

	best := candidates[0]
	for _, c := range candidates[1:] {
		if preferCandidate(c, best, spaced, underscored) {
			best = c
		}
	}
	return best, true
}

// containsEither 雙向子字串比對
func containsEither(name, query string) bool {
	return strings.Contains(name, query) || strings.Contains(query, name)
}

// preferCandidate 子字串候選的優先序比較，回傳 a 是否優於 b：
//  1. 與查詢字串完全相同者優先
//  2. 去掉複數尾音 s 後相同者次之
//  3. 其餘取正規名稱較短者，長度相同時維持表序（即不取代）
//
// 此排序刻意保留來源系統的行為：過短的模糊名稱（如 chili）仍可能
// 命中較長的複合條目，需調整時只改這一個函式
func preferCandidate(a, b, spaced, underscored string) bool {
	aExact := a == spaced || a == underscored
	bExact := b == spaced || b == underscored
	if aExact != bExact {
		return aExact
	}

	singular := strings.TrimSuffix(spaced, "s")
	singularU := strings.TrimSuffix(underscored, "s")
	aPlural := a == singular || a == singularU
	bPlural := b == singular || b == singularU
	if aPlural != bPlural {
		return aPlural
	}

	return len(a) < len(b)
}

// assistedMatch 外部輔助匹配（最後手段，唯一可能觸發網路 I/O 的層級）
func (r *Resolver) assistedMatch(ctx context.Context, raw, normalized string) (string, bool) {
	if r.matcher == nil {
		return "", false
	}

	candidates := r.candidateList(normalized)
	answer, err := r.matcher.Match(ctx, raw, candidates)
	if err != nil {
		// 外部服務失敗或超時時降級為未解析，不中斷整筆請求
		common.LogWarn("輔助匹配呼叫失敗",
			zap.Error(err),
			zap.String("raw", raw),
		)
		return "", false
	}

	answer = strings.TrimSpace(strings.ToLower(answer))
	if answer == "" || answer == "none" {
		return "", false
	}
	if _, ok := r.table.Lookup(answer); !ok {
		// 回覆不在對照表內一律視為未命中
		common.LogDebug("輔助匹配回覆不在對照表內",
			zap.String("answer", answer),
		)
		return "", false
	}
	return answer, true
}

// candidateList 組出有界的候選名單：優先取與查詢共享字詞的條目，不足再依表序補滿
func (r *Resolver) candidateList(normalized string) []string {
	limit := r.maxCandidates
	if limit <= 0 {
		limit = 40
	}

	tokens := strings.FieldsFunc(normalized, func(c rune) bool {
		return c == ' ' || c == '_'
	})
	tokenSet := make(map[string]bool, len(tokens))
	for _, tok := range tokens {
		tokenSet[tok] = true
	}

	var candidates []string
	seen := make(map[string]bool)
	for _, name := range r.table.Names() {
		for _, part := range strings.Split(name, "_") {
			if tokenSet[part] {
				candidates = append(candidates, name)
				seen[name] = true
				break
			}
		}
		if len(candidates) >= limit {
			return candidates
		}
	}

	// 共享字詞不足時依表序補滿
	for _, name := range r.table.Names() {
		if len(candidates) >= limit {
			break
		}
		if !seen[name] {
			candidates = append(candidates, name)
		}
	}
	return candidates
}
