package testutil

import (
	"context"
	"path/filepath"
	"testing"

	"smoothies/internal/model"
	"smoothies/internal/store"

	"gorm.io/gorm"
)

// OpenDB 在临时目录中创建独立的 SQLite 库并建表，测试结束自动关闭。
func OpenDB(t testing.TB) *gorm.DB {
	t.Helper()
	db, err := store.Open(filepath.Join(t.TempDir(), "smoothies_test.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = store.Close(db) })
	return db
}

// SeedFruits 写入给定的 name -> search_on 目录。
func SeedFruits(t testing.TB, db *gorm.DB, fruits map[string]string) {
	t.Helper()
	for name, key := range fruits {
		row := model.FruitOption{FruitName: name, SearchOn: key}
		if err := db.WithContext(context.Background()).Create(&row).Error; err != nil {
			t.Fatal(err)
		}
	}
}

// CountOrders 返回 orders 表行数。
func CountOrders(t testing.TB, db *gorm.DB) int64 {
	t.Helper()
	var n int64
	if err := db.Model(&model.Order{}).Count(&n).Error; err != nil {
		t.Fatal(err)
	}
	return n
}
