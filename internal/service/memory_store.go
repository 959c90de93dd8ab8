package service

import (
	"context"
	"sync"
	"time"
)

// MemoryStore Redis 不可用时的进程内 OTP 存储与 Token 黑名单
// 仅适用于单实例部署，重启即丢失
type MemoryStore struct {
	mu        sync.Mutex
	otps      map[string]memoryEntry
	blacklist map[string]time.Time
	now       func() time.Time
}

type memoryEntry struct {
	code      string
	expiresAt time.Time
}

// NewMemoryStore 创建内存存储
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		otps:      make(map[string]memoryEntry),
		blacklist: make(map[string]time.Time),
		now:       time.Now,
	}
}

// SaveOTP 保存验证码，覆盖同一会话之前的验证码
func (m *MemoryStore) SaveOTP(_ context.Context, sessionID, code string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gc()
	m.otps[sessionID] = memoryEntry{code: code, expiresAt: m.now().Add(ttl)}
	return nil
}

// ConsumeOTP 校验并删除验证码；无论对错，验证码只能尝试一次
func (m *MemoryStore) ConsumeOTP(_ context.Context, sessionID, code string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry, ok := m.otps[sessionID]
	if !ok {
		return false, nil
	}
	delete(m.otps, sessionID)
	if m.now().After(entry.expiresAt) {
		return false, nil
	}
	return entry.code == code, nil
}

// BlacklistToken 将 JWT ID 加入黑名单
func (m *MemoryStore) BlacklistToken(_ context.Context, jti string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gc()
	m.blacklist[jti] = m.now().Add(ttl)
	return nil
}

// IsBlacklisted 检查 JWT ID 是否在黑名单中
func (m *MemoryStore) IsBlacklisted(_ context.Context, jti string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	exp, ok := m.blacklist[jti]
	if !ok {
		return false, nil
	}
	if m.now().After(exp) {
		delete(m.blacklist, jti)
		return false, nil
	}
	return true, nil
}

// gc 清理过期条目，调用方需持有锁
func (m *MemoryStore) gc() {
	now := m.now()
	for k, e := range m.otps {
		if now.After(e.expiresAt) {
			delete(m.otps, k)
		}
	}
	for k, exp := range m.blacklist {
		if now.After(exp) {
			delete(m.blacklist, k)
		}
	}
}
