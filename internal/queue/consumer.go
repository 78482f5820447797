package queue

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/segmentio/kafka-go"
)

// messageReader 便于测试替换 *kafka.Reader。
type messageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
}

// Consumer 订阅下单事件（出餐看板等下游使用）。
type Consumer struct {
	r messageReader
}

func NewConsumer(brokers []string, topic, groupID string) *Consumer {
	return &Consumer{
		r: kafka.NewReader(kafka.ReaderConfig{
			Brokers:  brokers,
			Topic:    topic,
			GroupID:  groupID,
			MinBytes: 1,
			MaxBytes: 1e6,
		}),
	}
}

func (c *Consumer) Close() error { return c.r.Close() }

// Run 逐条交给 handle，直到 ctx 取消或连接断开。
// 脏消息与 handle 错误只记日志，不阻塞后续消息。
func (c *Consumer) Run(ctx context.Context, handle func(context.Context, OrderMessage) error) {
	for {
		m, err := c.r.ReadMessage(ctx)
		if err != nil {
			return // ctx cancel / 连接断开等
		}

		var msg OrderMessage
		if err := json.Unmarshal(m.Value, &msg); err != nil {
			slog.WarnContext(ctx, "consumer unmarshal", "offset", m.Offset, "err", err)
			continue
		}
		if err := msg.Validate(); err != nil {
			slog.WarnContext(ctx, "consumer invalid message", "offset", m.Offset, "err", err)
			continue
		}
		if err := handle(ctx, msg); err != nil {
			slog.WarnContext(ctx, "consumer handle", "order_uid", msg.OrderUID, "err", err)
		}
	}
}
