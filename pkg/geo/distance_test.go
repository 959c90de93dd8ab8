package geo

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDistance_KnownPair(t *testing.T) {
	// 班加罗尔 → 金奈
	d := Distance(12.9716, 77.5946, 13.0827, 80.2707)
	assert.Equal(t, 290.17, d)
}

func TestDistance_Symmetric(t *testing.T) {
	pairs := [][4]float64{
		{12.9716, 77.5946, 13.0827, 80.2707},
		{-33.8688, 151.2093, 51.5074, -0.1278},
		{0, 0, 0, 180},
		{89.9, 10, -89.9, -170},
		{200, 400, -300, 1000},
	}
	for _, p := range pairs {
		assert.Equal(t, Distance(p[0], p[1], p[2], p[3]), Distance(p[2], p[3], p[0], p[1]))
	}
}

func TestDistance_SamePointIsZero(t *testing.T) {
	assert.Equal(t, 0.0, Distance(12.9716, 77.5946, 12.9716, 77.5946))
	assert.Equal(t, 0.0, Distance(-45, 170, -45, 170))
}

func TestDistance_NonNegative(t *testing.T) {
	for lat := -180.0; lat <= 180; lat += 37.5 {
		for lon := -360.0; lon <= 360; lon += 71.25 {
			d := Distance(lat, lon, -lat/2, lon+13)
			assert.GreaterOrEqual(t, d, 0.0)
		}
	}
}

func TestDistance_Antipodal(t *testing.T) {
	d := Distance(0, 0, 0, 180)
	assert.InDelta(t, math.Pi*EarthRadiusKm, d, 0.01)
}

func TestBetween(t *testing.T) {
	from := Coordinate{Lat: 12.9716, Lon: 77.5946}
	to := Coordinate{Lat: 13.0827, Lon: 80.2707}
	assert.Equal(t, Distance(from.Lat, from.Lon, to.Lat, to.Lon), Between(from, to))
}

func TestRound2(t *testing.T) {
	assert.Equal(t, 1.23, Round2(1.234))
	assert.Equal(t, 1.24, Round2(1.235))
	assert.Equal(t, 0.0, Round2(0.001))
	assert.True(t, math.IsNaN(Round2(math.NaN())))
}

func TestStaticLookup(t *testing.T) {
	l := NewStaticLookup(map[string]Coordinate{
		"Bengaluru": {Lat: 12.9716, Lon: 77.5946},
	})

	c, err := l.Resolve(context.Background(), "  bengaluru ")
	require.NoError(t, err)
	assert.Equal(t, 12.9716, c.Lat)

	_, err = l.Resolve(context.Background(), "Chennai")
	assert.ErrorIs(t, err, ErrLocationUnknown)

	l.Register("Chennai", Coordinate{Lat: 13.0827, Lon: 80.2707})
	c, err = l.Resolve(context.Background(), "CHENNAI")
	require.NoError(t, err)
	assert.Equal(t, 80.2707, c.Lon)
}
