package catalog

import (
	"context"
	"errors"
	"fmt"

	"smoothies/internal/model"

	"gorm.io/gorm"
)

// DataAccessError 目录表不可读（库不可达、缺表、缺列），对整次渲染是致命错误。
type DataAccessError struct {
	Op  string
	Err error
}

func (e *DataAccessError) Error() string {
	return fmt.Sprintf("catalog %s: %v", e.Op, e.Err)
}

func (e *DataAccessError) Unwrap() error { return e.Err }

// IsDataAccess 判断 err 链上是否存在 DataAccessError。
func IsDataAccess(err error) bool {
	var e *DataAccessError
	return errors.As(err, &e)
}

// Ingredient 目录中的一项。
type Ingredient struct {
	Name      string `json:"name"`
	LookupKey string `json:"lookup_key"`
}

// Catalog 一次渲染内加载的目录快照：按名称排序，可按名称查 key。
type Catalog struct {
	items  []Ingredient
	byName map[string]string
}

// New 由条目构造 Catalog，重复名称保留第一条。
func New(items []Ingredient) Catalog {
	c := Catalog{
		items:  make([]Ingredient, 0, len(items)),
		byName: make(map[string]string, len(items)),
	}
	for _, it := range items {
		if _, dup := c.byName[it.Name]; dup {
			continue
		}
		c.byName[it.Name] = it.LookupKey
		c.items = append(c.items, it)
	}
	return c
}

// Items 按展示顺序返回全部条目（副本）。
func (c Catalog) Items() []Ingredient {
	out := make([]Ingredient, len(c.items))
	copy(out, c.items)
	return out
}

// Names 按展示顺序返回名称。
func (c Catalog) Names() []string {
	out := make([]string, 0, len(c.items))
	for _, it := range c.items {
		out = append(out, it.Name)
	}
	return out
}

// Keys 返回 name -> lookup_key 映射（副本）。
func (c Catalog) Keys() map[string]string {
	out := make(map[string]string, len(c.byName))
	for k, v := range c.byName {
		out[k] = v
	}
	return out
}

// Lookup 查询名称对应的 key。
func (c Catalog) Lookup(name string) (string, bool) {
	key, ok := c.byName[name]
	return key, ok
}

func (c Catalog) Len() int { return len(c.items) }

// Load 读取完整目录。不做缓存，每次渲染重新查询。
func Load(ctx context.Context, db *gorm.DB) (Catalog, error) {
	var rows []model.FruitOption
	err := db.WithContext(ctx).
		Select("fruit_name", "search_on").
		Order("fruit_name").
		Find(&rows).Error
	if err != nil {
		return Catalog{}, &DataAccessError{Op: "load", Err: err}
	}

	items := make([]Ingredient, 0, len(rows))
	for _, r := range rows {
		items = append(items, Ingredient{Name: r.FruitName, LookupKey: r.LookupKey()})
	}
	return New(items), nil
}
