package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"smoothies/internal/catalog"
	"smoothies/internal/config"
	"smoothies/internal/logging"
	"smoothies/internal/middleware"
	"smoothies/internal/nutrition"
	"smoothies/internal/order"
	"smoothies/internal/queue"
	"smoothies/internal/router"
	"smoothies/internal/store"
	"smoothies/internal/workflow"
	rediskey "smoothies/pkg/redis"

	"github.com/gin-gonic/gin"
	rd "github.com/redis/go-redis/v9"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "err", err)
		os.Exit(1)
	}
	logging.Setup(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err = run(ctx, cfg)
	stop()
	if err != nil {
		slog.Error("server exited", "err", err)
		os.Exit(1)
	}
}

// run 启动服务直到 ctx 取消；所有资源在返回前释放。
func run(ctx context.Context, cfg config.AppConfig) error {
	// 1. 连接 SQLite，自动建表
	db, err := store.Open(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer store.Close(db)

	if cfg.SeedCatalog {
		n, err := catalog.Seed(ctx, db, catalog.DefaultFruits)
		if err != nil {
			return fmt.Errorf("seed catalog: %w", err)
		}
		if n > 0 {
			slog.Info("catalog seeded", "fruits", n)
		}
	}

	// 2. 可选依赖：Redis（限流 + 防重复提交）、Kafka（下单事件）
	var (
		rdb   *rd.Client
		guard workflow.SubmitGuard
	)
	if cfg.RedisEnabled() {
		rdb = rd.NewClient(&rd.Options{Addr: cfg.RedisAddr, DB: cfg.RedisDB})
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			slog.Warn("redis ping failed, continuing degraded", "addr", cfg.RedisAddr, "err", err)
		}
		guard = rediskey.NewSubmitGuard(rdb, cfg.SubmitLockTTL)
	}

	var publisher order.Publisher
	if cfg.KafkaEnabled() {
		producer := queue.NewProducer(cfg.KafkaBrokers, cfg.KafkaTopic)
		defer producer.Close()
		publisher = producer
	}

	capMode := order.CapAdvisory
	if cfg.EnforceIngredientCap {
		capMode = order.CapEnforced
	}

	svc := workflow.NewService(db,
		nutrition.NewClient(nutrition.Options{
			BaseURL:     cfg.NutritionBaseURL,
			Timeout:     cfg.NutritionTimeout,
			Concurrency: cfg.NutritionConcurrency,
		}),
		order.NewWriter(db, order.PrefilledNames(cfg.PrefilledCustomers...), publisher),
		workflow.Options{CapMode: capMode, Guard: guard},
	)

	// 3. 路由
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger())
	if err := router.Setup(r, svc, rdb, cfg); err != nil {
		return fmt.Errorf("setup router: %w", err)
	}

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: r}
	errCh := make(chan error, 1)
	go func() {
		slog.Info("listening", "addr", cfg.HTTPAddr, "enforce_ingredient_cap", cfg.EnforceIngredientCap)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
