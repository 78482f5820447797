package catalog

import (
	"context"

	"smoothies/internal/model"

	"gorm.io/gorm"
)

// DefaultFruits 初始水果目录（展示名 -> 营养接口查询键）。
var DefaultFruits = []Ingredient{
	{Name: "Apples", LookupKey: "Apple"},
	{Name: "Blueberries", LookupKey: "Blueberry"},
	{Name: "Cantaloupe", LookupKey: "Cantaloupe"},
	{Name: "Dragon Fruit", LookupKey: "Dragonfruit"},
	{Name: "Elderberries", LookupKey: "Elderberry"},
	{Name: "Figs", LookupKey: "Fig"},
	{Name: "Guava", LookupKey: "Guava"},
	{Name: "Honeydew", LookupKey: "Honeydew"},
	{Name: "Jackfruit", LookupKey: "Jackfruit"},
	{Name: "Kiwi", LookupKey: "Kiwi"},
	{Name: "Lime", LookupKey: "Lime"},
	{Name: "Mango", LookupKey: "Mango"},
	{Name: "Nectarine", LookupKey: "Nectarine"},
	{Name: "Papaya", LookupKey: "Papaya"},
	{Name: "Raspberries", LookupKey: "Raspberry"},
	{Name: "Strawberries", LookupKey: "Strawberry"},
	{Name: "Tangerine", LookupKey: "Tangerine"},
	{Name: "Watermelon", LookupKey: "Watermelon"},
}

// Seed 仅当目录为空时写入 items，返回实际写入条数。
func Seed(ctx context.Context, db *gorm.DB, items []Ingredient) (int, error) {
	var n int64
	if err := db.WithContext(ctx).Model(&model.FruitOption{}).Count(&n).Error; err != nil {
		return 0, &DataAccessError{Op: "seed", Err: err}
	}
	if n > 0 || len(items) == 0 {
		return 0, nil
	}

	rows := make([]model.FruitOption, 0, len(items))
	for _, it := range items {
		rows = append(rows, model.FruitOption{FruitName: it.Name, SearchOn: it.LookupKey})
	}
	if err := db.WithContext(ctx).Create(&rows).Error; err != nil {
		return 0, &DataAccessError{Op: "seed", Err: err}
	}
	return len(rows), nil
}
