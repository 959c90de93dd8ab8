package priority

import "strings"

// Category 物资类别
type Category string

const (
	CategoryMedicine       Category = "Medicine"
	CategoryBlood          Category = "Blood"
	CategorySecurity       Category = "Security"
	CategoryInfrastructure Category = "Infrastructure"
	CategoryGeneral        Category = "General"
)

// defaultCategoryWeight 未登记类别的权重
const defaultCategoryWeight = 0.5

var categoryWeights = map[string]float64{
	"medicine":       1.0,
	"blood":          1.0,
	"security":       0.87,
	"infrastructure": 0.6,
	"general":        0.5,
}

// Weight 类别权重，大小写不敏感，未知类别取 0.5
func (c Category) Weight() float64 {
	if w, ok := categoryWeights[strings.ToLower(string(c))]; ok {
		return w
	}
	return defaultCategoryWeight
}

// IsCritical 是否为药品/血液类
func (c Category) IsCritical() bool {
	switch strings.ToLower(string(c)) {
	case "medicine", "blood":
		return true
	}
	return false
}

// Valid 是否为已登记的类别
func (c Category) Valid() bool {
	_, ok := categoryWeights[strings.ToLower(string(c))]
	return ok
}

// Vulnerability 受影响人群的脆弱性分类
type Vulnerability string

const (
	VulnerabilityNormal   Vulnerability = "Normal"
	VulnerabilityChild    Vulnerability = "Child"
	VulnerabilityElderly  Vulnerability = "Elderly"
	VulnerabilityDisabled Vulnerability = "Disabled"
)

// IsVulnerable 儿童、老人、残障人士返回 true（大小写不敏感）
func (v Vulnerability) IsVulnerable() bool {
	switch strings.ToLower(string(v)) {
	case "child", "elderly", "disabled":
		return true
	}
	return false
}

// Valid 是否为已登记的分类
func (v Vulnerability) Valid() bool {
	return v.IsVulnerable() || strings.EqualFold(string(v), string(VulnerabilityNormal))
}

// Tier 优先级档位
type Tier string

const (
	TierHigh   Tier = "HIGH"
	TierMedium Tier = "MEDIUM"
	TierLow    Tier = "LOW"
)

// Valid 是否为 HIGH / MEDIUM / LOW 之一
func (t Tier) Valid() bool {
	switch t {
	case TierHigh, TierMedium, TierLow:
		return true
	}
	return false
}

// 分级后的处理决策
const (
	DecisionAutoPrioritized = "System Auto-Prioritized"
	DecisionHumanInLoop     = "Human-in-the-Loop Required"
	DecisionLegacyFIFO      = "Routed to Legacy FIFO System"
)
