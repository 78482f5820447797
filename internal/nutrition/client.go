package nutrition

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"smoothies/internal/model"

	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

// FetchError 单个水果营养查询失败；只影响该水果，不影响其它查询与提交。
type FetchError struct {
	Ingredient string
	Key        string
	StatusCode int // 0 表示未拿到响应（网络错误、超时）
	Reason     string
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("nutrition lookup for %s (%s): HTTP %d: %s", e.Ingredient, e.Key, e.StatusCode, e.Reason)
	}
	return fmt.Sprintf("nutrition lookup for %s (%s): %s", e.Ingredient, e.Key, e.Reason)
}

// IsFetch 判断 err 链上是否存在 FetchError。
func IsFetch(err error) bool {
	var e *FetchError
	return errors.As(err, &e)
}

// Item 一次查询的输入：展示名 + 查询键。
type Item struct {
	Ingredient string
	Key        string
}

// Result 一次查询的输出，Err 非 nil 时 Payload 为空。
type Result struct {
	Item
	Payload model.Nutrition
	Err     error
}

// Options 客户端参数，零值字段使用默认值。
type Options struct {
	BaseURL     string
	Timeout     time.Duration
	Concurrency int
	HTTPClient  *http.Client
}

const (
	defaultTimeout     = 5 * time.Second
	defaultConcurrency = 5
)

// Client 营养接口客户端：GET <base>/<key>，仅 200 + JSON 视为成功。
type Client struct {
	rc          *resty.Client
	baseURL     string
	timeout     time.Duration
	concurrency int
	tracer      trace.Tracer
}

func NewClient(opts Options) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = defaultConcurrency
	}

	var rc *resty.Client
	if opts.HTTPClient != nil {
		rc = resty.NewWithClient(opts.HTTPClient)
	} else {
		rc = resty.New()
	}
	rc.SetHeader("Accept", "application/json")
	rc.SetTimeout(opts.Timeout)

	return &Client{
		rc:          rc,
		baseURL:     strings.TrimRight(opts.BaseURL, "/"),
		timeout:     opts.Timeout,
		concurrency: opts.Concurrency,
		tracer:      otel.Tracer("smoothies/nutrition"),
	}
}

// Fetch 查询单个水果。超时由 Options.Timeout 控制，超时也返回 FetchError。
func (c *Client) Fetch(ctx context.Context, item Item) (model.Nutrition, error) {
	ctx, span := c.tracer.Start(ctx, "nutrition.fetch", trace.WithAttributes(
		attribute.String("nutrition.ingredient", item.Ingredient),
		attribute.String("nutrition.key", item.Key),
	))
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	payload, err := c.fetch(ctx, item)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return model.Nutrition{}, err
	}
	return payload, nil
}

func (c *Client) fetch(ctx context.Context, item Item) (model.Nutrition, error) {
	fail := func(status int, reason string) error {
		return &FetchError{Ingredient: item.Ingredient, Key: item.Key, StatusCode: status, Reason: reason}
	}
	if strings.TrimSpace(item.Key) == "" {
		return model.Nutrition{}, fail(0, "empty lookup key")
	}

	res, err := c.rc.R().
		SetContext(ctx).
		Get(c.baseURL + "/" + url.PathEscape(item.Key))
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return model.Nutrition{}, fail(0, "timed out")
		}
		return model.Nutrition{}, fail(0, err.Error())
	}
	if res.StatusCode() != http.StatusOK {
		return model.Nutrition{}, fail(res.StatusCode(), http.StatusText(res.StatusCode()))
	}

	// 200 + 合法 JSON 即成功；已知字段形状不符时只丢弃对应字段，原文保留在 Raw
	body := res.Body()
	if !json.Valid(body) {
		return model.Nutrition{}, fail(res.StatusCode(), "invalid JSON")
	}
	var payload model.Nutrition
	if err := json.Unmarshal(body, &payload); err != nil {
		slog.DebugContext(ctx, "nutrition payload shape", "key", item.Key, "err", err)
	}
	payload.Raw = append(json.RawMessage(nil), body...)
	return payload, nil
}

// FetchAll 每个 item 发一次请求，并发数受限；结果与输入同序。
// 单个失败只写入对应 Result.Err，不会取消其它请求。
func (c *Client) FetchAll(ctx context.Context, items []Item) []Result {
	results := make([]Result, len(items))

	var g errgroup.Group
	g.SetLimit(c.concurrency)
	for i, it := range items {
		i, it := i, it
		g.Go(func() error {
			payload, err := c.Fetch(ctx, it)
			results[i] = Result{Item: it, Payload: payload, Err: err}
			return nil
		})
	}
	_ = g.Wait()

	return results
}
