// internal/pkg/cache/local.go
package cache

import (
	"strings"
	"sync"
	"time"
)

type localEntry struct {
	value     []byte
	expiresAt time.Time
}

// Local 是每个服务实例私有的进程内 L1 缓存。
// 用 RWMutex 保护的 map 实现：相比 sync.Map，它让 TTL 清理和
// 按前缀批量删除都更可控。L1 永远不是权威数据，只是热点加速，
// 因此实现上倾向简单而不是极致的命中率（没有 LRU 淘汰）。
type Local struct {
	mu      sync.RWMutex
	entries map[string]localEntry

	stopOnce sync.Once
	stopCh   chan struct{}
}

// NewLocal 创建一个 L1 缓存并启动后台清理协程。
// janitorInterval <= 0 时不启动后台清理，过期条目只在读取时惰性剔除。
func NewLocal(janitorInterval time.Duration) *Local {
	l := &Local{
		entries: make(map[string]localEntry),
		stopCh:  make(chan struct{}),
	}
	if janitorInterval > 0 {
		go l.janitor(janitorInterval)
	}
	return l
}

// Get 读取一个 key。过期条目视为不存在并顺手删除。
func (l *Local) Get(key string) ([]byte, bool) {
	l.mu.RLock()
	e, ok := l.entries[key]
	l.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if time.Now().After(e.expiresAt) {
		l.mu.Lock()
		// 二次检查：期间可能已被覆盖写入
		if cur, still := l.entries[key]; still && time.Now().After(cur.expiresAt) {
			delete(l.entries, key)
		}
		l.mu.Unlock()
		return nil, false
	}
	return e.value, true
}

// Set 带 TTL 写入一个 key。
func (l *Local) Set(key string, value []byte, ttl time.Duration) {
	l.mu.Lock()
	l.entries[key] = localEntry{value: value, expiresAt: time.Now().Add(ttl)}
	l.mu.Unlock()
}

// Delete 删除单个 key。
func (l *Local) Delete(key string) {
	l.mu.Lock()
	delete(l.entries, key)
	l.mu.Unlock()
}

// DeletePattern 删除所有以 prefix 开头的 key。
// 促销/目录数据按命名空间前缀组织，失效时整个命名空间一起清除。
func (l *Local) DeletePattern(prefix string) {
	l.mu.Lock()
	for key := range l.entries {
		if strings.HasPrefix(key, prefix) {
			delete(l.entries, key)
		}
	}
	l.mu.Unlock()
}

// Len 返回当前条目数（含未清理的过期条目），测试用。
func (l *Local) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}

// Close 停止后台清理协程。
func (l *Local) Close() {
	l.stopOnce.Do(func() { close(l.stopCh) })
}

func (l *Local) janitor(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			now := time.Now()
			l.mu.Lock()
			for key, e := range l.entries {
				if now.After(e.expiresAt) {
					delete(l.entries, key)
				}
			}
			l.mu.Unlock()
		case <-l.stopCh:
			return
		}
	}
}
