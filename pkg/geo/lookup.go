package geo

import (
	"context"
	"errors"
	"strings"
	"sync"
)

// ErrLocationUnknown 地名未登记
var ErrLocationUnknown = errors.New("未知地点")

// Lookup 地名 → 坐标 的解析接口（地理编码服务的抽象）
type Lookup interface {
	Resolve(ctx context.Context, name string) (Coordinate, error)
}

// StaticLookup 基于固定表的地名解析，地名大小写不敏感
type StaticLookup struct {
	mu     sync.RWMutex
	places map[string]Coordinate
}

// NewStaticLookup 创建 StaticLookup
func NewStaticLookup(places map[string]Coordinate) *StaticLookup {
	l := &StaticLookup{places: make(map[string]Coordinate, len(places))}
	for name, c := range places {
		l.places[normalize(name)] = c
	}
	return l
}

// Resolve 查询地名对应的坐标
func (l *StaticLookup) Resolve(_ context.Context, name string) (Coordinate, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	c, ok := l.places[normalize(name)]
	if !ok {
		return Coordinate{}, ErrLocationUnknown
	}
	return c, nil
}

// Register 登记或覆盖一个地点
func (l *StaticLookup) Register(name string, c Coordinate) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.places[normalize(name)] = c
}

func normalize(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
