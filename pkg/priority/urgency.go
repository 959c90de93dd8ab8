package priority

// 急迫度递减：每 20km 降 1 级
const urgencyDistanceDecayKm = 20.0

// shortDelayMinutes 可接受延迟低于此值时急迫度 +2
const shortDelayMinutes = 30

// ComputeUrgencyImpact 根据请求属性推导急迫度与影响度，二者均截断取整后限制在 [1, 10]
func ComputeUrgencyImpact(category Category, acceptableDelay int, distanceKm float64, people int, vulnerability Vulnerability) (urgency, impact int) {
	u, i := 1.0, 1
	if category.IsCritical() {
		u += 4
		i += 3
	}
	if vulnerability.IsVulnerable() {
		u += 2
		i += 2
	}
	i += min(people, 5)
	if acceptableDelay < shortDelayMinutes {
		u += 2
	}
	u -= distanceKm / urgencyDistanceDecayKm

	return clampTruncated(u), clampLevel(i)
}

// clampTruncated 向零截断后限幅，先在浮点域限幅以避免超大距离导致整数溢出
func clampTruncated(v float64) int {
	if v != v || v < minLevel {
		return minLevel
	}
	if v > maxLevel {
		return maxLevel
	}
	return clampLevel(int(v))
}
