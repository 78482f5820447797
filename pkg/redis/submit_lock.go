package redis

import (
	"context"
	"time"

	"github.com/google/uuid"
	rd "github.com/redis/go-redis/v9"
)

// luaReleaseSubmitLockIfMatch 仅当锁值匹配本次 attempt 时才删除，避免误删其它请求的锁。
const luaReleaseSubmitLockIfMatch = `
local lockKey = KEYS[1]
local attemptID = ARGV[1]
if redis.call('GET', lockKey) == attemptID then
  return redis.call('DEL', lockKey)
end
return 0
`

// SubmitGuard 基于 SETNX 的防重复提交：同一表单 token 在 ttl 内只能占位一次。
type SubmitGuard struct {
	rdb *rd.Client
	ttl time.Duration
}

func NewSubmitGuard(rdb *rd.Client, ttl time.Duration) *SubmitGuard {
	return &SubmitGuard{rdb: rdb, ttl: ttl}
}

// Acquire 占位成功返回 attemptID，已被占用返回 ok=false。
func (g *SubmitGuard) Acquire(ctx context.Context, formToken string) (string, bool, error) {
	attemptID := uuid.New().String()
	ok, err := g.rdb.SetNX(ctx, SubmitLockKey(formToken), attemptID, g.ttl).Result()
	if err != nil {
		return "", false, err
	}
	return attemptID, ok, nil
}

// Release 安全释放占位锁（写库失败后允许重试）。
func (g *SubmitGuard) Release(ctx context.Context, formToken, attemptID string) error {
	lockKey := SubmitLockKey(formToken)
	_, err := g.rdb.Eval(ctx, luaReleaseSubmitLockIfMatch, []string{lockKey}, attemptID).Int()
	return err
}
