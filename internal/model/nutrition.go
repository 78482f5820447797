package model

import (
	"encoding/json"
	"sort"
)

// Nutrition 营养接口返回的单个水果数据。
// 已知字段尽力解析，原始 JSON 保留在 Raw 里；字段形状不符时页面按 Raw 兜底展示。
type Nutrition struct {
	ID        int            `json:"id"`
	Name      string         `json:"name"`
	Family    string         `json:"family"`
	Genus     string         `json:"genus"`
	Order     string         `json:"order"`
	Nutrients map[string]any `json:"nutrition"`

	Raw json.RawMessage `json:"raw,omitempty"`
}

// Field 展示用的一行 键/值。
type Field struct {
	Key   string
	Value string
}

// Typed 是否解析出了任何已知字段。
func (n Nutrition) Typed() bool {
	return n.Name != "" || n.Family != "" || n.Genus != "" || n.Order != "" || len(n.Nutrients) > 0
}

// RawFields 把 Raw 展开成表格行：对象按顶层 key 排序，其它形状整体一行。
func (n Nutrition) RawFields() []Field {
	if len(n.Raw) == 0 {
		return nil
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(n.Raw, &obj); err != nil {
		return []Field{{Key: "value", Value: string(n.Raw)}}
	}
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]Field, 0, len(keys))
	for _, k := range keys {
		out = append(out, Field{Key: k, Value: rawValue(obj[k])})
	}
	return out
}

// rawValue 字符串去掉引号，其它保持 JSON 文本。
func rawValue(v json.RawMessage) string {
	var s string
	if err := json.Unmarshal(v, &s); err == nil {
		return s
	}
	return string(v)
}
