package cache

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"github-repo-radar/internal/port"
)

// DefaultTTLs 各类缓存的默认有效期
var DefaultTTLs = map[port.TTLClass]time.Duration{
	port.TTLSearch:       5 * time.Minute,
	port.TTLTrending:     15 * time.Minute,
	port.TTLPopular:      time.Hour,
	port.TTLRepoDetails:  10 * time.Minute,
	port.TTLContributors: 30 * time.Minute,
	port.TTLDefault:      5 * time.Minute,
}

type entry struct {
	data     []byte
	storedAt time.Time
	class    port.TTLClass
}

// Store 两级缓存，实现 port.Cache。
//
// 内存层是当前进程内的权威数据；持久层只做尽力镜像，任何持久层错误都只记日志。
// 过期条目只在读取时惰性清除，从不主动扫描。
type Store struct {
	mu         sync.Mutex
	items      map[string]entry
	ttls       map[port.TTLClass]time.Duration
	persistent port.PersistentStore
	hydrated   sync.Once
	opTimeout  time.Duration
	nowFunc    func() time.Time
}

// Option 缓存配置项
type Option func(*Store)

// WithPersistentStore 挂载持久层，nil 表示只用内存
func WithPersistentStore(ps port.PersistentStore) Option {
	return func(s *Store) {
		s.persistent = ps
	}
}

// WithTTL 覆盖某一类缓存的有效期
func WithTTL(class port.TTLClass, d time.Duration) Option {
	return func(s *Store) {
		if d > 0 {
			s.ttls[class] = d
		}
	}
}

// WithClock 注入时钟，便于测试过期逻辑
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.nowFunc = now
		}
	}
}

// NewStore 创建两级缓存
func NewStore(opts ...Option) *Store {
	s := &Store{
		items:     make(map[string]entry),
		ttls:      make(map[port.TTLClass]time.Duration, len(DefaultTTLs)),
		opTimeout: 3 * time.Second,
		nowFunc:   time.Now,
	}
	for class, d := range DefaultTTLs {
		s.ttls[class] = d
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// TTL 某一类缓存的有效期，未知类别按 default 处理
func (s *Store) TTL(class port.TTLClass) time.Duration {
	if d, ok := s.ttls[class]; ok {
		return d
	}
	return s.ttls[port.TTLDefault]
}

// Get 命中且 now - storedAt < ttl 时解码到 out；过期条目会被立即从两层删除
func (s *Store) Get(key string, class port.TTLClass, out interface{}) bool {
	s.hydrate()

	s.mu.Lock()
	e, ok := s.items[key]
	if !ok {
		s.mu.Unlock()
		return false
	}
	if s.nowFunc().Sub(e.storedAt) >= s.TTL(class) {
		delete(s.items, key)
		s.mu.Unlock()
		s.persistDelete(key)
		return false
	}
	data := e.data
	s.mu.Unlock()

	if err := json.Unmarshal(data, out); err != nil {
		log.Printf("[Cache] 解码缓存 %s 失败: %v", key, err)
		return false
	}
	return true
}

// Set 先写内存层，再尽力镜像到持久层
func (s *Store) Set(key string, value interface{}, class port.TTLClass) {
	data, err := json.Marshal(value)
	if err != nil {
		log.Printf("[Cache] 序列化缓存 %s 失败: %v", key, err)
		return
	}

	s.hydrate()

	now := s.nowFunc()
	s.mu.Lock()
	s.items[key] = entry{data: data, storedAt: now, class: class}
	s.mu.Unlock()

	if s.persistent == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), s.opTimeout)
	defer cancel()
	if err := s.persistent.Put(ctx, port.PersistedEntry{
		Key:       key,
		Value:     data,
		Class:     class,
		StoredAt:  now,
		ExpiresAt: now.Add(s.TTL(class)),
	}); err != nil {
		log.Printf("[Cache] 持久化 %s 失败，仅保留内存副本: %v", key, err)
	}
}

// Delete 从两层删除
func (s *Store) Delete(key string) {
	s.hydrate()

	s.mu.Lock()
	delete(s.items, key)
	s.mu.Unlock()

	s.persistDelete(key)
}

// Clear 清空两层
func (s *Store) Clear() {
	// 清空之后不需要再从持久层回填
	s.hydrated.Do(func() {})

	s.mu.Lock()
	s.items = make(map[string]entry)
	s.mu.Unlock()

	if s.persistent == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), s.opTimeout)
	defer cancel()
	if err := s.persistent.Clear(ctx); err != nil {
		log.Printf("[Cache] 清空持久层失败: %v", err)
	}
}

// Len 内存层条目数 (包含尚未被读取清除的过期条目)
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

// hydrate 首次访问时扫描一次持久层，丢弃已过期的记录
func (s *Store) hydrate() {
	s.hydrated.Do(func() {
		if s.persistent == nil {
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), s.opTimeout)
		defer cancel()

		entries, err := s.persistent.Load(ctx)
		if err != nil {
			log.Printf("[Cache] 读取持久层失败，从空缓存开始: %v", err)
			return
		}

		now := s.nowFunc()
		var stale []string
		loaded := 0

		s.mu.Lock()
		for _, pe := range entries {
			if now.Sub(pe.StoredAt) >= s.TTL(pe.Class) {
				stale = append(stale, pe.Key)
				continue
			}
			if _, exists := s.items[pe.Key]; exists {
				continue
			}
			s.items[pe.Key] = entry{data: pe.Value, storedAt: pe.StoredAt, class: pe.Class}
			loaded++
		}
		s.mu.Unlock()

		for _, key := range stale {
			if err := s.persistent.Delete(ctx, key); err != nil {
				log.Printf("[Cache] 删除过期记录 %s 失败: %v", key, err)
			}
		}
		log.Printf("[Cache] 从持久层回填 %d 条，丢弃过期 %d 条", loaded, len(stale))
	})
}

func (s *Store) persistDelete(key string) {
	if s.persistent == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), s.opTimeout)
	defer cancel()
	if err := s.persistent.Delete(ctx, key); err != nil {
		log.Printf("[Cache] 删除持久层记录 %s 失败: %v", key, err)
	}
}
