package util

import (
	"encoding/gob"
	"fmt"
	"hash/fnv"
	"math"
	"os"
	"sync"

	"github.com/bits-and-blooms/bitset"
)

// --- 基础的、非扩容的布隆过滤器 ---

// BloomFilter 是一个基础布隆过滤器。推送去重用它在投递前快速判断
// "这条通知是否已经发过"，误报的代价只是少发一条重复提醒。
type BloomFilter struct {
	M         uint           // 位数组大小
	K         uint           // 哈希函数数量
	Bits      *bitset.BitSet // 位数组
	ItemCount uint           // 已添加的元素数量
	Capacity  uint           // 预估容量
}

// NewBloomFilter 创建一个基础布隆过滤器。
// capacity 是预估的元素数量，errorRate 是期望的误报率（如 0.01）。
func NewBloomFilter(capacity uint, errorRate float64) *BloomFilter {
	m := calculateM(capacity, errorRate)
	k := calculateK(capacity, m)
	return &BloomFilter{
		M:        m,
		K:        k,
		Bits:     bitset.New(m),
		Capacity: capacity,
	}
}

// Add 向过滤器中添加一个元素。
func (bf *BloomFilter) Add(data []byte) {
	for _, h := range bf.hashKernels(data) {
		bf.Bits.Set(uint(h % uint64(bf.M)))
	}
	bf.ItemCount++
}

// Test 检查一个元素是否可能存在。返回 false 时元素一定不存在。
func (bf *BloomFilter) Test(data []byte) bool {
	for _, h := range bf.hashKernels(data) {
		if !bf.Bits.Test(uint(h % uint64(bf.M))) {
			return false
		}
	}
	return true
}

// isFull 检查过滤器是否已达到预估容量。
func (bf *BloomFilter) isFull() bool {
	return bf.ItemCount >= bf.Capacity
}

// hashKernels 用双哈希法生成 k 个哈希值。
func (bf *BloomFilter) hashKernels(data []byte) []uint64 {
	h1 := fnv.New64a()
	h1.Write(data)
	hash1 := h1.Sum64()

	h2 := fnv.New64()
	h2.Write(data)
	hash2 := h2.Sum64()

	hashes := make([]uint64, bf.K)
	for i := uint(0); i < bf.K; i++ {
		hashes[i] = hash1 + uint64(i)*hash2
	}
	return hashes
}

// m = - (n * log(p)) / (log(2)^2)
func calculateM(n uint, p float64) uint {
	return uint(math.Ceil(-(float64(n) * math.Log(p)) / (math.Pow(math.Log(2), 2))))
}

// k = (m / n) * log(2)
func calculateK(n uint, m uint) uint {
	k := uint(math.Ceil((float64(m) / float64(n)) * math.Log(2)))
	if k < 1 {
		return 1
	}
	return k
}

// --- 可伸缩布隆过滤器 (SBF) ---

// SBFConfig 定义了 SBF 的配置参数。字段可导出以便 gob 序列化。
type SBFConfig struct {
	InitialCapacity      uint
	ErrorRate            float64
	GrowthFactor         float64
	ErrorTighteningRatio float64
}

// sbfData 专门用于 gob 编码和解码。
type sbfData struct {
	Config  SBFConfig
	Filters []*BloomFilter
}

// ScalableBloomFilter 是一个可以自动扩容、线程安全且可持久化的布隆过滤器。
// 长期运行的去重场景（推送记录会无限增长）应使用它而不是基础版本。
type ScalableBloomFilter struct {
	config  SBFConfig
	filters []*BloomFilter
	lock    sync.RWMutex
}

// NewScalableBloomFilter 创建一个可伸缩的布隆过滤器。
func NewScalableBloomFilter(config SBFConfig) (*ScalableBloomFilter, error) {
	if config.InitialCapacity == 0 || config.ErrorRate <= 0 || config.GrowthFactor < 1 || config.ErrorTighteningRatio <= 0 || config.ErrorTighteningRatio >= 1 {
		return nil, fmt.Errorf("无效的SBF配置参数")
	}

	// 第一个子过滤器的误报率收紧一些，使整体误报率趋近 ErrorRate。
	firstErrorRate := config.ErrorRate * (1 - config.ErrorTighteningRatio)
	firstFilter := NewBloomFilter(config.InitialCapacity, firstErrorRate)

	return &ScalableBloomFilter{
		config:  config,
		filters: []*BloomFilter{firstFilter},
	}, nil
}

// Add 向 SBF 中添加一个元素。线程安全。
func (sbf *ScalableBloomFilter) Add(data []byte) {
	sbf.lock.Lock()
	defer sbf.lock.Unlock()

	lastFilter := sbf.filters[len(sbf.filters)-1]

	// 最新的子过滤器已满时，按增长因子扩容一个新的子过滤器。
	if lastFilter.isFull() {
		newCapacity := uint(float64(lastFilter.Capacity) * sbf.config.GrowthFactor)

		// 由当前子过滤器的 M、K 反推实际误报率，再按比例收紧。
		currentP := math.Pow(1-math.Exp(-float64(lastFilter.K*lastFilter.ItemCount)/float64(lastFilter.M)), float64(lastFilter.K))
		newErrorRate := currentP * sbf.config.ErrorTighteningRatio

		newFilter := NewBloomFilter(newCapacity, newErrorRate)
		sbf.filters = append(sbf.filters, newFilter)
		lastFilter = newFilter
	}

	lastFilter.Add(data)
}

// Test 检查一个元素是否可能存在于 SBF 中。线程安全。
func (sbf *ScalableBloomFilter) Test(data []byte) bool {
	sbf.lock.RLock()
	defer sbf.lock.RUnlock()

	// 从新到旧检查所有子过滤器，新元素总是落在最新的子过滤器里。
	for i := len(sbf.filters) - 1; i >= 0; i-- {
		if sbf.filters[i].Test(data) {
			return true
		}
	}
	return false
}

// Len 返回 SBF 中的子过滤器数量。
func (sbf *ScalableBloomFilter) Len() int {
	sbf.lock.RLock()
	defer sbf.lock.RUnlock()
	return len(sbf.filters)
}

// --- 持久化 ---

// WriteToFile 将当前的 SBF 状态序列化并写入文件。
func (sbf *ScalableBloomFilter) WriteToFile(filePath string) error {
	sbf.lock.RLock()
	defer sbf.lock.RUnlock()

	file, err := os.Create(filePath)
	if err != nil {
		return fmt.Errorf("创建文件失败: %w", err)
	}
	defer file.Close()

	dataToSave := sbfData{
		Config:  sbf.config,
		Filters: sbf.filters,
	}
	if err := gob.NewEncoder(file).Encode(dataToSave); err != nil {
		return fmt.Errorf("gob编码失败: %w", err)
	}
	return nil
}

// NewScalableBloomFilterFromFile 从文件加载并创建一个新的 SBF 实例。
func NewScalableBloomFilterFromFile(filePath string) (*ScalableBloomFilter, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("打开文件失败: %w", err)
	}
	defer file.Close()

	var loadedData sbfData
	if err := gob.NewDecoder(file).Decode(&loadedData); err != nil {
		return nil, fmt.Errorf("gob解码失败: %w", err)
	}

	return &ScalableBloomFilter{
		config:  loadedData.Config,
		filters: loadedData.Filters,
	}, nil
}
