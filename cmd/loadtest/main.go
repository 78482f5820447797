package main

import (
	"flag"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
)

// Result 记录单次请求的 HTTP 结果，便于聚合统计。
type Result struct {
	Status int
	Body   string
	Err    error
}

type orderReq struct {
	NameOnOrder string   `json:"name_on_order"`
	Ingredients []string `json:"ingredients"`
	FormToken   string   `json:"form_token,omitempty"`
}

func main() {
	baseURL := flag.String("base", "http://localhost:8080", "server base url")
	nCustomers := flag.Int("customers", 100, "distinct customers")
	concurrency := flag.Int("c", 20, "max concurrency")
	fruits := flag.String("fruits", "Apples,Mango", "comma separated ingredients for every order")
	flag.Parse()

	client := resty.New().
		SetBaseURL(*baseURL).
		SetTimeout(5 * time.Second)

	ingredients := splitCSV(*fruits)

	before, err := pendingCount(client)
	if err != nil {
		panic(fmt.Sprintf("pending count failed: %v", err))
	}

	// 1) 不同顾客并发下单：成功数应等于 pending 增量
	fmt.Printf("start concurrent orders: customers=%d concurrency=%d\n", *nCustomers, *concurrency)
	results := runOrders(client, *nCustomers, *concurrency, func(i int) orderReq {
		return orderReq{NameOnOrder: fmt.Sprintf("loadtest-%d-%d", time.Now().Unix(), i), Ingredients: ingredients}
	})
	printSummary("orders", results)

	after, err := pendingCount(client)
	if err != nil {
		fmt.Println("pending count err:", err)
	} else {
		fmt.Printf("pending delta: %d (expected %d)\n", after-before, countStatus(results, 200))
	}

	// 2) 同一表单 token 重复提交：开启 Redis 时只应有 1 个 200
	token := fmt.Sprintf("loadtest-token-%d", time.Now().UnixNano())
	fmt.Println("\nstart duplicate submit test: same form token, 20 requests")
	results2 := runOrders(client, 20, 20, func(i int) orderReq {
		return orderReq{NameOnOrder: fmt.Sprintf("dup-%d", i), Ingredients: ingredients, FormToken: token}
	})
	printSummary("duplicate_submit", results2)

	// 3) 同一署名连续下单，触发 429
	fmt.Println("\nstart rate limit test: same name, 60 requests")
	results3 := runOrders(client, 60, 20, func(int) orderReq {
		return orderReq{NameOnOrder: "loadtest-same-name", Ingredients: ingredients}
	})
	printSummary("rate_limit", results3)
}

func runOrders(client *resty.Client, total, concurrency int, build func(i int) orderReq) []Result {
	sem := make(chan struct{}, concurrency)
	var wg sync.WaitGroup
	results := make([]Result, total)

	for i := 0; i < total; i++ {
		wg.Add(1)
		sem <- struct{}{}
		go func(idx int) {
			defer wg.Done()
			defer func() { <-sem }()
			results[idx] = orderOnce(client, build(idx))
		}(i)
	}

	wg.Wait()
	return results
}

func orderOnce(client *resty.Client, req orderReq) Result {
	res, err := client.R().SetBody(req).Post("/api/orders")
	if err != nil {
		return Result{Err: err}
	}
	return Result{Status: res.StatusCode(), Body: res.String()}
}

func countStatus(results []Result, status int) int {
	n := 0
	for _, r := range results {
		if r.Err == nil && r.Status == status {
			n++
		}
	}
	return n
}

// printSummary 聚合输出不同状态码分布。
func printSummary(name string, results []Result) {
	count := map[int]int{}
	errCount := 0
	for _, r := range results {
		if r.Err != nil {
			errCount++
			continue
		}
		count[r.Status]++
	}
	codes := make([]int, 0, len(count))
	for code := range count {
		codes = append(codes, code)
	}
	sort.Ints(codes)

	fmt.Printf("[%s] http status summary:\n", name)
	for _, code := range codes {
		fmt.Printf("  %d -> %d\n", code, count[code])
	}
	if errCount > 0 {
		fmt.Printf("  errors -> %d\n", errCount)
	}
}

// pendingCount 查询未出餐订单数，用于压测后校验是否丢单或重复写入。
func pendingCount(client *resty.Client) (int, error) {
	var out struct {
		Code int `json:"code"`
		Data []struct {
			OrderUID string `json:"order_uid"`
		} `json:"data"`
	}
	res, err := client.R().SetResult(&out).Get("/api/orders/pending")
	if err != nil {
		return 0, err
	}
	if res.IsError() {
		return 0, fmt.Errorf("status=%d body=%s", res.StatusCode(), res.String())
	}
	return len(out.Data), nil
}

func splitCSV(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
