package queue

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"smoothies/internal/model"

	"github.com/segmentio/kafka-go"
)

// messageWriter 便于测试替换 *kafka.Writer。
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Producer 封装 Kafka 写入器。
type Producer struct {
	w messageWriter
}

// NewProducer 创建生产者并配置可靠性参数：
// - Hash + Key: 同一订单的事件落到同一分区。
// - RequireAll: 等待 ISR 副本确认，降低消息丢失风险。
// - Async: 写入在后台批量发送，下单响应不等待 broker；失败由 Completion 记日志。
func NewProducer(brokers []string, topic string) *Producer {
	return &Producer{
		w: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireAll,
			Async:        true,
			Completion:   logCompletion,
			MaxAttempts:  3,
			WriteTimeout: 2 * time.Second,
			ReadTimeout:  2 * time.Second,
			BatchTimeout: 10 * time.Millisecond,
		},
	}
}

// logCompletion 异步发送结果回调，只记录失败的批次。
func logCompletion(msgs []kafka.Message, err error) {
	if err == nil {
		return
	}
	keys := make([]string, 0, len(msgs))
	for _, m := range msgs {
		keys = append(keys, string(m.Key))
	}
	slog.Warn("order event publish failed", "order_uids", keys, "err", err)
}

// Close 释放 writer 资源。
func (p *Producer) Close() error { return p.w.Close() }

// Publish 写入一条事件，order_uid 作为 Kafka key。
func (p *Producer) Publish(ctx context.Context, msg OrderMessage) error {
	b, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return p.w.WriteMessages(ctx, kafka.Message{
		Key:   []byte(msg.OrderUID),
		Value: b,
	})
}

// PublishOrderPlaced 实现 order.Publisher。异步 writer 下只排队，不阻塞下单。
func (p *Producer) PublishOrderPlaced(ctx context.Context, o model.Order) error {
	return p.Publish(ctx, NewOrderPlaced(o))
}
