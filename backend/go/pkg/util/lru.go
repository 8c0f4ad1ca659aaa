package util

import (
	"container/list"
	"fmt"
	"sync"
	"time"
)

// CacheConfig 用于配置 LRU 缓存的行为。
type CacheConfig[K comparable, V any] struct {
	// Capacity 是缓存的最大条目数量。为 0 时不限制数量。
	Capacity int
	// MaxWeight 是所有条目的最大权重总和。为 0 时不限制权重。
	MaxWeight int
	// TTL 是条目的存活时间。为 0 时条目永不过期。
	TTL time.Duration
}

// entry 是链表节点中保存的实际数据。
type entry[K comparable, V any] struct {
	key        K
	value      V
	weight     int
	expiration time.Time
}

// LRUCache 是一个支持泛型、可配置且线程安全的 LRU 缓存。
// 记忆检索用它缓存查询文本的嵌入向量，避免同一问题反复调用嵌入服务。
type LRUCache[K comparable, V any] struct {
	config        CacheConfig[K, V]
	ll            *list.List
	cache         map[K]*list.Element
	currentWeight int
	lock          sync.RWMutex
}

// NewWithConfig 使用指定的配置创建一个 LRU 缓存实例。
// Capacity 与 MaxWeight 至少要设置一个。
func NewWithConfig[K comparable, V any](config CacheConfig[K, V]) (*LRUCache[K, V], error) {
	if config.Capacity <= 0 && config.MaxWeight <= 0 {
		return nil, fmt.Errorf("必须设置 Capacity 或 MaxWeight 中的至少一个")
	}
	return &LRUCache[K, V]{
		config: config,
		ll:     list.New(),
		cache:  make(map[K]*list.Element),
	}, nil
}

// Get 根据键获取一个值。命中的条目被标记为最近使用；
// 过期条目在这里被动淘汰。
func (c *LRUCache[K, V]) Get(key K) (V, bool) {
	c.lock.Lock()
	defer c.lock.Unlock()

	element, ok := c.cache[key]
	if !ok {
		var zeroV V
		return zeroV, false
	}

	ent := element.Value.(*entry[K, V])
	if c.config.TTL > 0 && time.Now().After(ent.expiration) {
		c.removeElement(element)
		var zeroV V
		return zeroV, false
	}

	c.ll.MoveToFront(element)
	return ent.value, true
}

// Put 添加或更新一个键值对，并指定其权重。
// 只按容量淘汰时 weight 传 1 即可。
func (c *LRUCache[K, V]) Put(key K, value V, weight int) {
	c.lock.Lock()
	defer c.lock.Unlock()

	if element, ok := c.cache[key]; ok {
		ent := element.Value.(*entry[K, V])
		c.currentWeight += weight - ent.weight
		ent.weight = weight
		ent.value = value
		if c.config.TTL > 0 {
			ent.expiration = time.Now().Add(c.config.TTL)
		}
		c.ll.MoveToFront(element)
	} else {
		newEntry := &entry[K, V]{
			key:    key,
			value:  value,
			weight: weight,
		}
		if c.config.TTL > 0 {
			newEntry.expiration = time.Now().Add(c.config.TTL)
		}
		element := c.ll.PushFront(newEntry)
		c.cache[key] = element
		c.currentWeight += weight
	}

	// 一个大权重的新条目可能需要淘汰多个旧条目。
	for c.isOverCapacity() {
		c.evict()
	}
}

// isOverCapacity 检查是否超出容量或权重限制。调用方需持有锁。
func (c *LRUCache[K, V]) isOverCapacity() bool {
	if c.config.Capacity > 0 && c.ll.Len() > c.config.Capacity {
		return true
	}
	if c.config.MaxWeight > 0 && c.currentWeight > c.config.MaxWeight {
		return true
	}
	return false
}

// evict 淘汰最久未使用的条目。调用方需持有锁。
func (c *LRUCache[K, V]) evict() {
	if backElement := c.ll.Back(); backElement != nil {
		c.removeElement(backElement)
	}
}

// removeElement 从链表和 map 中移除一个条目。调用方需持有锁。
func (c *LRUCache[K, V]) removeElement(e *list.Element) {
	c.ll.Remove(e)
	ent := e.Value.(*entry[K, V])
	delete(c.cache, ent.key)
	c.currentWeight -= ent.weight
}

// Len 返回当前缓存中的条目数量。
func (c *LRUCache[K, V]) Len() int {
	c.lock.RLock()
	defer c.lock.RUnlock()
	return c.ll.Len()
}

// Weight 返回当前缓存中所有条目的总权重。
func (c *LRUCache[K, V]) Weight() int {
	c.lock.RLock()
	defer c.lock.RUnlock()
	return c.currentWeight
}
