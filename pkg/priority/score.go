package priority

import (
	"math"

	"github.com/shopspring/decimal"
)

// 评分权重
const (
	weightUrgency  = 0.45
	weightImpact   = 0.45
	weightCategory = 0.3
	weightDistance = 0.1
)

const (
	minLevel = 1
	maxLevel = 10
	maxScore = 10.0
)

// Input 风险评分输入
type Input struct {
	Urgency            int
	Impact             int
	Category           Category
	DistanceKm         float64
	People             int
	Vulnerability      Vulnerability
	AvailableResources float64
	// FeedbackMultiplier 为 0 时按 1.0 处理
	FeedbackMultiplier float64
}

// Score 计算风险分数，结果位于 [0, 10]，保留两位小数。
//
// 基础分为 urgency / 综合影响 / 类别 / 距离 的线性加权，
// 之后再乘以可用资源系数和反馈系数，外部可据此压低分数而不改动基础公式。
func Score(in Input) float64 {
	urgency := float64(clampLevel(in.Urgency))
	impact := float64(clampLevel(in.Impact))

	peopleScore := math.Min(7, float64(in.People)/2)
	vulnerabilityScore := 0.0
	if in.Vulnerability.IsVulnerable() {
		vulnerabilityScore = 3
	}
	combinedImpact := math.Min(10, impact+peopleScore+vulnerabilityScore)

	// 每 20km 衰减 1 分，最低为 0
	distanceScore := math.Max(0, 5-in.DistanceKm/20)
	categoryScore := in.Category.Weight() * 5

	raw := float64(weightUrgency*urgency) +
		float64(weightImpact*combinedImpact) +
		float64(weightCategory*categoryScore) +
		float64(weightDistance*distanceScore)

	multiplier := in.FeedbackMultiplier
	if multiplier == 0 {
		multiplier = 1.0
	}
	adjusted := math.Min(maxScore, float64(raw*in.AvailableResources)*multiplier)
	if adjusted < 0 || math.IsNaN(adjusted) {
		adjusted = 0
	}

	return round2(adjusted)
}

func clampLevel(v int) int {
	if v < minLevel {
		return minLevel
	}
	if v > maxLevel {
		return maxLevel
	}
	return v
}

func round2(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}
