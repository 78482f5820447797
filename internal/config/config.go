package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// AppConfig 聚合运行时配置，尽量通过环境变量注入，避免硬编码。
type AppConfig struct {
	HTTPAddr string
	DBPath   string
	LogLevel string

	// 营养接口：GET <base>/<search_on>
	NutritionBaseURL     string
	NutritionTimeout     time.Duration
	NutritionConcurrency int

	// 下单策略：5 种上限是否强制、哪些顾客下单即视为已出餐
	EnforceIngredientCap bool
	PrefilledCustomers   []string

	// Redis 为空时关闭分布式限流与防重复提交
	RedisAddr string
	RedisDB   int

	SubmitRateLimit  int
	SubmitRateWindow time.Duration
	SubmitLockTTL    time.Duration

	// Kafka 为空时不发布下单事件
	KafkaBrokers []string
	KafkaTopic   string

	// 出餐接口的简单管理员令牌（demo 级别保护）
	AdminToken string

	SeedCatalog bool
}

// Load 读取并校验配置，缺失时使用默认值。
func Load() (AppConfig, error) {
	cfg := AppConfig{
		HTTPAddr:             getEnv("HTTP_ADDR", ":8080"),
		DBPath:               getEnv("DB_PATH", "smoothies.db"),
		LogLevel:             getEnv("LOG_LEVEL", "info"),
		NutritionBaseURL:     strings.TrimRight(getEnv("NUTRITION_BASE_URL", "https://my.smoothiefroot.com/api/fruit"), "/"),
		NutritionTimeout:     5 * time.Second,
		NutritionConcurrency: 5,
		PrefilledCustomers:   splitCSV(getEnv("PREFILLED_CUSTOMERS", "")),
		RedisAddr:            getEnv("REDIS_ADDR", ""),
		RedisDB:              0,
		SubmitRateLimit:      30,
		SubmitRateWindow:     time.Minute,
		SubmitLockTTL:        10 * time.Minute,
		KafkaBrokers:         splitCSV(getEnv("KAFKA_BROKERS", "")),
		KafkaTopic:           getEnv("KAFKA_TOPIC", "smoothie-orders"),
		AdminToken:           getEnv("ADMIN_TOKEN", "dev-admin-token"),
	}

	timeoutMS, err := getEnvInt("NUTRITION_TIMEOUT_MS", int(cfg.NutritionTimeout.Milliseconds()))
	if err != nil {
		return AppConfig{}, fmt.Errorf("invalid NUTRITION_TIMEOUT_MS: %w", err)
	}
	if timeoutMS <= 0 {
		return AppConfig{}, fmt.Errorf("NUTRITION_TIMEOUT_MS must be > 0")
	}
	cfg.NutritionTimeout = time.Duration(timeoutMS) * time.Millisecond

	concurrency, err := getEnvInt("NUTRITION_CONCURRENCY", cfg.NutritionConcurrency)
	if err != nil {
		return AppConfig{}, fmt.Errorf("invalid NUTRITION_CONCURRENCY: %w", err)
	}
	if concurrency <= 0 {
		return AppConfig{}, fmt.Errorf("NUTRITION_CONCURRENCY must be > 0")
	}
	cfg.NutritionConcurrency = concurrency

	enforce, err := getEnvBool("ENFORCE_INGREDIENT_CAP", false)
	if err != nil {
		return AppConfig{}, fmt.Errorf("invalid ENFORCE_INGREDIENT_CAP: %w", err)
	}
	cfg.EnforceIngredientCap = enforce

	seed, err := getEnvBool("SEED_CATALOG", true)
	if err != nil {
		return AppConfig{}, fmt.Errorf("invalid SEED_CATALOG: %w", err)
	}
	cfg.SeedCatalog = seed

	redisDB, err := getEnvInt("REDIS_DB", cfg.RedisDB)
	if err != nil {
		return AppConfig{}, fmt.Errorf("invalid REDIS_DB: %w", err)
	}
	cfg.RedisDB = redisDB

	rateLimit, err := getEnvInt("SUBMIT_RATE_LIMIT", cfg.SubmitRateLimit)
	if err != nil {
		return AppConfig{}, fmt.Errorf("invalid SUBMIT_RATE_LIMIT: %w", err)
	}
	if rateLimit <= 0 {
		return AppConfig{}, fmt.Errorf("SUBMIT_RATE_LIMIT must be > 0")
	}
	cfg.SubmitRateLimit = rateLimit

	rateWindowSec, err := getEnvInt("SUBMIT_RATE_WINDOW_SEC", int(cfg.SubmitRateWindow.Seconds()))
	if err != nil {
		return AppConfig{}, fmt.Errorf("invalid SUBMIT_RATE_WINDOW_SEC: %w", err)
	}
	if rateWindowSec <= 0 {
		return AppConfig{}, fmt.Errorf("SUBMIT_RATE_WINDOW_SEC must be > 0")
	}
	cfg.SubmitRateWindow = time.Duration(rateWindowSec) * time.Second

	lockTTLSec, err := getEnvInt("SUBMIT_LOCK_TTL_SEC", int(cfg.SubmitLockTTL.Seconds()))
	if err != nil {
		return AppConfig{}, fmt.Errorf("invalid SUBMIT_LOCK_TTL_SEC: %w", err)
	}
	if lockTTLSec <= 0 {
		return AppConfig{}, fmt.Errorf("SUBMIT_LOCK_TTL_SEC must be > 0")
	}
	cfg.SubmitLockTTL = time.Duration(lockTTLSec) * time.Second

	if cfg.NutritionBaseURL == "" {
		return AppConfig{}, fmt.Errorf("NUTRITION_BASE_URL must not be empty")
	}
	if len(cfg.KafkaBrokers) > 0 && cfg.KafkaTopic == "" {
		return AppConfig{}, fmt.Errorf("KAFKA_TOPIC must not be empty when KAFKA_BROKERS is set")
	}
	if cfg.AdminToken == "" {
		return AppConfig{}, fmt.Errorf("ADMIN_TOKEN must not be empty")
	}

	return cfg, nil
}

// RedisEnabled 是否配置了 Redis。
func (c AppConfig) RedisEnabled() bool { return c.RedisAddr != "" }

// KafkaEnabled 是否配置了 Kafka。
func (c AppConfig) KafkaEnabled() bool { return len(c.KafkaBrokers) > 0 }

// getEnv 读取字符串环境变量，若为空则返回默认值。
func getEnv(key, fallback string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	return v
}

// getEnvInt 读取整数环境变量，若为空则返回默认值。
func getEnvInt(key string, fallback int) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	return strconv.Atoi(v)
}

// getEnvBool 读取布尔环境变量（true/false/1/0），若为空则返回默认值。
func getEnvBool(key string, fallback bool) (bool, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	return strconv.ParseBool(v)
}

// splitCSV 将逗号分隔字符串解析为字符串切片。
func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		s := strings.TrimSpace(p)
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}
