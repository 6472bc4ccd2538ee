package store

import (
	"sort"
	"sync"
)

// KeyStore 记录进程内所有写入过实体缓存的 key（跨实体类型共享一个实例）。
//
// 注意：它只在显式 Add/Remove/Clear 时更新。条目被缓存自己按 TTL 淘汰时
// 这里不会收到通知，所以 Keys() 可能列出已经不在缓存里的 key——
// 这是接受的已知行为，管理接口的 key 列表只作参考。
type KeyStore struct {
	keys sync.Map // key -> struct{}
}

func NewKeyStore() *KeyStore {
	return &KeyStore{}
}

func (s *KeyStore) Track(key string) {
	if key == "" {
		return
	}
	s.keys.Store(key, struct{}{})
}

func (s *KeyStore) Remove(key string) {
	s.keys.Delete(key)
}

// Keys 返回当前登记的全部 key（排序后返回，方便管理接口展示与测试断言）。
func (s *KeyStore) Keys() []string {
	var out []string
	s.keys.Range(func(k, _ any) bool {
		if key, ok := k.(string); ok {
			out = append(out, key)
		}
		return true
	})
	sort.Strings(out)
	return out
}

// Clear 清空登记表，返回被清掉的 key（调用方负责同步清掉缓存条目）。
func (s *KeyStore) Clear() []string {
	keys := s.Keys()
	for _, k := range keys {
		s.keys.Delete(k)
	}
	return keys
}
