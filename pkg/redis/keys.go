package redis

import "fmt"

// SubmitLockKey 标记某个表单 token 是否已提交过订单。
func SubmitLockKey(formToken string) string {
	return fmt.Sprintf("smoothies:submit:lock:%s", formToken)
}

// SubmitRateKeyByName 按订单署名限流。
func SubmitRateKeyByName(nameOnOrder string) string {
	return fmt.Sprintf("rate_limit:smoothies:name:%s", nameOnOrder)
}

// SubmitRateKeyByIP 解析不到署名时按 IP 限流。
func SubmitRateKeyByIP(ip string) string {
	return fmt.Sprintf("rate_limit:smoothies:ip:%s", ip)
}
