package model

import "time"

// Order 一杯 smoothie 订单，提交后只追加、不修改（出餐标记除外）。
type Order struct {
	ID          uint      `gorm:"primarykey" json:"-"`
	OrderUID    string    `gorm:"column:order_uid;size:64;uniqueIndex;not null" json:"order_uid"`
	NameOnOrder string    `gorm:"column:name_on_order;size:100;not null" json:"name_on_order"`
	Ingredients string    `gorm:"column:ingredients;size:200;not null" json:"ingredients"`
	OrderFilled bool      `gorm:"column:order_filled;not null" json:"order_filled"`
	OrderTS     time.Time `gorm:"column:order_ts;autoCreateTime" json:"order_ts"`
}

// 显式实现结构，确定表名
func (Order) TableName() string { return "orders" }
