package priority

// 分级阈值（左闭右开）
const (
	highThreshold   = 6.45
	mediumThreshold = 4.0
)

// Classify 将风险分数映射为优先级档位与处理决策
func Classify(score float64) (Tier, string) {
	switch {
	case score >= highThreshold:
		return TierHigh, DecisionAutoPrioritized
	case score >= mediumThreshold:
		return TierMedium, DecisionHumanInLoop
	default:
		return TierLow, DecisionLegacyFIFO
	}
}
