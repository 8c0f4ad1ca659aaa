package service

import (
	"os"

	"Travel_Companion/backend/go/pkg/util"
)

// Deduper 用可伸缩布隆过滤器记录已下发过的通知，拦截重复推送。
// 误报的代价只是偶尔少发一条提醒，可以接受。
type Deduper struct {
	filter *util.ScalableBloomFilter
	path   string
}

// NewDeduper 创建一个去重器。path 非空时先尝试从磁盘恢复历史状态，
// 恢复失败（如首次启动）则建一个新的过滤器。
func NewDeduper(path string) (*Deduper, error) {
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			filter, err := util.NewScalableBloomFilterFromFile(path)
			if err == nil {
				return &Deduper{filter: filter, path: path}, nil
			}
		}
	}

	filter, err := util.NewScalableBloomFilter(util.SBFConfig{
		InitialCapacity:      10000,
		ErrorRate:            0.01,
		GrowthFactor:         2,
		ErrorTighteningRatio: 0.5,
	})
	if err != nil {
		return nil, err
	}
	return &Deduper{filter: filter, path: path}, nil
}

// dedupeKey 的格式是 target|title|body，target 是设备令牌或主题名。
func dedupeKey(target, title, body string) []byte {
	return []byte(target + "|" + title + "|" + body)
}

// Seen 判断这条通知是否可能已经发过。
func (d *Deduper) Seen(target, title, body string) bool {
	return d.filter.Test(dedupeKey(target, title, body))
}

// Mark 记录一条已下发的通知。
func (d *Deduper) Mark(target, title, body string) {
	d.filter.Add(dedupeKey(target, title, body))
}

// Persist 把当前过滤器状态写回磁盘。未配置路径时是空操作。
func (d *Deduper) Persist() error {
	if d.path == "" {
		return nil
	}
	return d.filter.WriteToFile(d.path)
}
