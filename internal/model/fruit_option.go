package model

// FruitOption 目录表中的一种水果：展示名 + 营养接口查询键。
type FruitOption struct {
	FruitID   uint   `gorm:"column:fruit_id;primarykey" json:"fruit_id"`
	FruitName string `gorm:"column:fruit_name;size:100;uniqueIndex;not null" json:"fruit_name"`
	// SearchOn 为空时回退为 FruitName。
	SearchOn string `gorm:"column:search_on;size:100" json:"search_on"`
}

func (FruitOption) TableName() string { return "fruit_options" }

// LookupKey 返回调用营养接口时使用的键。
func (f FruitOption) LookupKey() string {
	if f.SearchOn != "" {
		return f.SearchOn
	}
	return f.FruitName
}
