package middleware

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	rediskey "smoothies/pkg/redis"

	"github.com/gin-gonic/gin"
	"github.com/hashicorp/golang-lru/v2/expirable"
	rd "github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"
)

// luaRateLimit：Redis 滑动窗口限流 Lua 脚本（原子操作）
// KEYS[1]=限流key，ARGV[1]=当前时间戳，ARGV[2]=窗口开始时间戳，ARGV[3]=窗口秒数，ARGV[4]=member，ARGV[5]=limit
// 返回：当前窗口内的请求数（如果 >= limit 则返回 -1 表示限流）
const luaRateLimit = `
local key = KEYS[1]
local now = tonumber(ARGV[1])
local windowStart = tonumber(ARGV[2])
local windowSec = tonumber(ARGV[3])
local member = ARGV[4]

-- 删除窗口外的旧记录
redis.call('ZREMRANGEBYSCORE', key, '0', windowStart)

-- 统计当前窗口内的请求数
local count = redis.call('ZCARD', key)

-- 添加当前请求（如果还没超限）
if count < tonumber(ARGV[5]) then
  redis.call('ZADD', key, now, member)
  redis.call('EXPIRE', key, windowSec)
  return count + 1
else
  return -1
end
`

// TooManyMsg 限流提示文案。
const TooManyMsg = "Too many orders, please try again later."

// localBucketSize 进程内限流最多保留的 key 数，超出按 LRU 淘汰。
const localBucketSize = 10000

// RejectFunc 触发限流时的响应；nil 表示默认的 JSON 429。
type RejectFunc func(c *gin.Context)

func rejectJSON(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
		"code": 429,
		"msg":  TooManyMsg,
	})
}

// RedisRateLimit Redis 分布式限流（Lua 原子操作 + 按订单署名）
func RedisRateLimit(rdb *rd.Client, limit int, window time.Duration, reject RejectFunc) gin.HandlerFunc {
	if reject == nil {
		reject = rejectJSON
	}
	return func(c *gin.Context) {
		key := rateKey(c)

		now := time.Now()
		nowMs := now.UnixMilli()
		windowSec := int64(window.Seconds())
		windowStart := nowMs - window.Milliseconds()
		member := fmt.Sprintf("%d-%d", nowMs, now.UnixNano())

		res, err := rdb.Eval(c.Request.Context(), luaRateLimit, []string{key},
			nowMs, windowStart, windowSec, member, limit).Int()

		if err != nil {
			// Redis 出错时放行（降级策略）
			slog.WarnContext(c.Request.Context(), "rate limit unavailable", "err", err)
			c.Next()
			return
		}

		if res < 0 {
			reject(c)
			c.Abort()
			return
		}
		c.Next()
	}
}

// limiterSet 按 key 分桶的令牌桶。空闲超过一个窗口的桶会过期，
// 此时桶本已回满，淘汰不改变限流结果。
type limiterSet struct {
	mu      sync.Mutex
	buckets *expirable.LRU[string, *rate.Limiter]
	every   rate.Limit
	burst   int
}

func newLimiterSet(limit int, window time.Duration, size int) *limiterSet {
	return &limiterSet{
		buckets: expirable.NewLRU[string, *rate.Limiter](size, nil, window),
		every:   rate.Every(window / time.Duration(limit)),
		burst:   limit,
	}
}

// get 取出或新建 key 的令牌桶，并刷新过期时间。
func (s *limiterSet) get(key string) *rate.Limiter {
	s.mu.Lock()
	defer s.mu.Unlock()
	lim, ok := s.buckets.Get(key)
	if !ok {
		lim = rate.NewLimiter(s.every, s.burst)
	}
	s.buckets.Add(key, lim)
	return lim
}

// LocalRateLimit 未配置 Redis 时的进程内限流（令牌桶，按 key 分桶）。
func LocalRateLimit(limit int, window time.Duration, reject RejectFunc) gin.HandlerFunc {
	if reject == nil {
		reject = rejectJSON
	}
	set := newLimiterSet(limit, window, localBucketSize)

	return func(c *gin.Context) {
		if !set.get(rateKey(c)).Allow() {
			reject(c)
			c.Abort()
			return
		}
		c.Next()
	}
}

// rateKey 按订单署名（解析成功）或 IP（降级）生成限流 key。
func rateKey(c *gin.Context) string {
	name, err := extractName(c)
	if err != nil || name == "" {
		return rediskey.SubmitRateKeyByIP(c.ClientIP())
	}
	return rediskey.SubmitRateKeyByName(strings.ToLower(name))
}

// extractName 从 JSON 或表单 body 中解析 name_on_order（不消耗 body，可重复读）
func extractName(c *gin.Context) (string, error) {
	if c.Request.Body == nil {
		return "", nil
	}
	bodyBytes, err := io.ReadAll(c.Request.Body)
	if err != nil {
		return "", err
	}

	// 重置 body，让后续 handler 能继续读
	c.Request.Body = io.NopCloser(bytes.NewBuffer(bodyBytes))

	if strings.HasPrefix(c.ContentType(), gin.MIMEPOSTForm) {
		values, err := url.ParseQuery(string(bodyBytes))
		if err != nil {
			return "", err
		}
		return strings.TrimSpace(values.Get("name_on_order")), nil
	}

	var req struct {
		NameOnOrder string `json:"name_on_order"`
	}
	if err := json.Unmarshal(bodyBytes, &req); err != nil {
		return "", err
	}
	return strings.TrimSpace(req.NameOnOrder), nil
}
