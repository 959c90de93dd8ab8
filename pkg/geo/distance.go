package geo

import (
	"math"

	"github.com/shopspring/decimal"
)

// EarthRadiusKm 球面近似下的地球半径（千米）
const EarthRadiusKm = 6371.0

// Coordinate 经纬度坐标（角度制）
type Coordinate struct {
	Lat float64 `json:"lat" mapstructure:"lat"`
	Lon float64 `json:"lon" mapstructure:"lon"`
}

// Distance 使用 Haversine 公式计算两点间的大圆距离（千米），保留两位小数。
// 不校验经纬度取值范围，任意实数输入均返回非负结果。
func Distance(lat1, lon1, lat2, lon2 float64) float64 {
	phi1 := toRadians(lat1)
	phi2 := toRadians(lat2)
	deltaPhi := toRadians(lat2 - lat1)
	deltaLambda := toRadians(lon2 - lon1)

	sinPhi := math.Sin(deltaPhi / 2)
	sinLambda := math.Sin(deltaLambda / 2)
	a := float64(sinPhi*sinPhi) + float64(math.Cos(phi1)*math.Cos(phi2)*sinLambda*sinLambda)
	if a > 1 {
		a = 1
	}
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return Round2(EarthRadiusKm * c)
}

// Between 计算两个坐标点之间的距离
func Between(from, to Coordinate) float64 {
	return Distance(from.Lat, from.Lon, to.Lat, to.Lon)
}

// Round2 四舍五入保留两位小数
func Round2(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}

func toRadians(deg float64) float64 {
	return deg * (math.Pi / 180)
}
