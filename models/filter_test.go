package models

import (
	"encoding/json"
	"testing"
)

func TestFillIDs(t *testing.T) {
	f := FilterField{Key: "pe_ttm", Label: "市盈率"}
	f.FillIDs()
	if f.MinID != "pe_ttmMin" || f.MaxID != "pe_ttmMax" {
		t.Errorf("minId/maxId 回填错误: %+v", f)
	}
}

func TestValidateFilterConfig(t *testing.T) {
	cases := []struct {
		name    string
		fields  []FilterField
		wantErr bool
	}{
		{
			name:   "合法配置",
			fields: []FilterField{{Key: "pe_ttm", Label: "市盈率"}, {Key: "pb", Label: "市净率"}},
		},
		{
			name:    "key为空",
			fields:  []FilterField{{Key: "  ", Label: "市盈率"}},
			wantErr: true,
		},
		{
			name:    "label为空",
			fields:  []FilterField{{Key: "pe_ttm", Label: ""}},
			wantErr: true,
		},
		{
			name:    "key重复",
			fields:  []FilterField{{Key: "pb", Label: "市净率"}, {Key: " pb ", Label: "另一个"}},
			wantErr: true,
		},
		{
			name:    "label重复",
			fields:  []FilterField{{Key: "a", Label: "市净率"}, {Key: "b", Label: "市净率 "}},
			wantErr: true,
		},
		{
			name:   "大小写不同视为不同",
			fields: []FilterField{{Key: "pb", Label: "x"}, {Key: "PB", Label: "y"}},
		},
		{
			name:   "空配置合法",
			fields: []FilterField{},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateFilterConfig(tc.fields)
			if tc.wantErr && err == nil {
				t.Error("期望校验失败")
			}
			if !tc.wantErr && err != nil {
				t.Errorf("期望校验通过, 实际: %v", err)
			}
		})
	}
}

func TestMetricsListUnmarshalBothForms(t *testing.T) {
	// 扁平数组形态
	var m MetricsList
	if err := json.Unmarshal([]byte(`["pe_ttm","pb"]`), &m); err != nil {
		t.Fatalf("解析扁平数组失败: %v", err)
	}
	if len(m.Fundamental) != 2 || len(m.FS) != 0 {
		t.Errorf("扁平数组解析结果错误: %+v", m)
	}

	// 分组对象形态
	m = MetricsList{}
	if err := json.Unmarshal([]byte(`{"fundamental":["pe_ttm"],"fs":["revenue"]}`), &m); err != nil {
		t.Fatalf("解析分组对象失败: %v", err)
	}
	if len(m.Fundamental) != 1 || len(m.FS) != 1 {
		t.Errorf("分组对象解析结果错误: %+v", m)
	}
	if all := m.All(); len(all) != 2 {
		t.Errorf("All 合并错误: %v", all)
	}
}
