package store

import (
	"fmt"

	"smoothies/internal/model"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Open 连接 SQLite 并自动建表（fruit_options / orders）。
func Open(path string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("db open: %w", err)
	}
	if err := Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

// Migrate 建表。与 Open 分开，便于测试构造“缺表”场景。
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&model.FruitOption{}, &model.Order{}); err != nil {
		return fmt.Errorf("db migrate: %w", err)
	}
	return nil
}

// Close 释放底层连接。
func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
