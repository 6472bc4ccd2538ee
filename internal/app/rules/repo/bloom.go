package repo

import (
	"sync"

	"github.com/bits-and-blooms/bloom/v3"
)

// SlugFilter 用布隆过滤器挡掉必然不存在的 slug 查询，
// 省掉一次 Mongo 往返。误判只会多查一次库，不影响正确性。
type SlugFilter struct {
	filter *bloom.BloomFilter
	mu     sync.RWMutex
}

// NewSlugFilter 创建布隆过滤器
// expectedItems: 预期 slug 数量
// falsePositiveRate: 误判率（建议 0.01 即 1%）
func NewSlugFilter(expectedItems uint, falsePositiveRate float64) *SlugFilter {
	return &SlugFilter{
		filter: bloom.NewWithEstimates(expectedItems, falsePositiveRate),
	}
}

func (b *SlugFilter) Add(slug string) {
	if b == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.filter.AddString(slug)
}

// MightExist 返回 false 表示一定不存在，true 表示可能存在。
func (b *SlugFilter) MightExist(slug string) bool {
	if b == nil {
		return true
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.filter.TestString(slug)
}

// Count 返回已添加的元素数量（估算）
func (b *SlugFilter) Count() uint32 {
	if b == nil {
		return 0
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.filter.ApproximatedSize()
}
