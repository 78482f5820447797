package order

import "strings"

// FulfilledPolicy 决定新订单创建时 order_filled 的初始值。
type FulfilledPolicy func(nameOnOrder string) bool

// NeverFulfilled 默认策略：新订单一律未出餐。
func NeverFulfilled(string) bool { return false }

// PrefilledNames 配置中列出的顾客（忽略大小写与首尾空白）下单即视为已出餐。
// 名单为空时等价于 NeverFulfilled。
func PrefilledNames(names ...string) FulfilledPolicy {
	set := make(map[string]struct{}, len(names))
	for _, n := range names {
		n = strings.ToLower(strings.TrimSpace(n))
		if n != "" {
			set[n] = struct{}{}
		}
	}
	if len(set) == 0 {
		return NeverFulfilled
	}
	return func(name string) bool {
		_, ok := set[strings.ToLower(strings.TrimSpace(name))]
		return ok
	}
}
