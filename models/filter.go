package models

import (
	"fmt"
	"strings"
)

// 筛选项类型常量
const (
	FilterTypeFundamental = "fundamental" // 基本面指标
	FilterTypeFS          = "fs"          // 财报指标
)

// FilterField 单个筛选项配置
type FilterField struct {
	Key   string `json:"key"`   // 后端指标标识，如 pe_ttm
	Label string `json:"label"` // 用户可见名称，如 PE-TTM
	MinID string `json:"minId"` // 下限输入框标识，恒为 <key>Min
	MaxID string `json:"maxId"` // 上限输入框标识，恒为 <key>Max
}

// FillIDs 根据 Key 回填 MinID/MaxID
func (f *FilterField) FillIDs() {
	f.MinID = f.Key + "Min"
	f.MaxID = f.Key + "Max"
}

// Complete 名称和指标标识均非空
func (f *FilterField) Complete() bool {
	return strings.TrimSpace(f.Key) != "" && strings.TrimSpace(f.Label) != ""
}

// ValidFilterType 校验筛选项类型
func ValidFilterType(filterType string) bool {
	return filterType == FilterTypeFundamental || filterType == FilterTypeFS
}

// ValidateFilterConfig 校验整组筛选项：每项非空，key 与 label 各自唯一（去首尾空格后精确匹配）
func ValidateFilterConfig(fields []FilterField) error {
	seenKeys := make(map[string]bool, len(fields))
	seenLabels := make(map[string]bool, len(fields))

	for i := range fields {
		key := strings.TrimSpace(fields[i].Key)
		label := strings.TrimSpace(fields[i].Label)

		if key == "" || label == "" {
			return fmt.Errorf("第 %d 项筛选配置缺少 key 或 label", i+1)
		}
		if seenKeys[key] {
			return fmt.Errorf("指标标识重复: %s", key)
		}
		if seenLabels[label] {
			return fmt.Errorf("指标名称重复: %s", label)
		}
		seenKeys[key] = true
		seenLabels[label] = true
	}
	return nil
}
