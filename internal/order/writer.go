package order

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"smoothies/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// InsertColumns 下单 INSERT 写入的列，值一律走参数绑定。
var InsertColumns = []string{"order_uid", "name_on_order", "ingredients", "order_filled", "order_ts"}

// ErrOrderNotFound 出餐标记时找不到订单。
var ErrOrderNotFound = errors.New("order not found")

// WriteError 写库失败（约束冲突、连接断开等），订单视为未持久化，不自动重试。
type WriteError struct {
	Op  string
	Err error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("order %s: %v", e.Op, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }

// IsWrite 判断 err 链上是否存在 WriteError。
func IsWrite(err error) bool {
	var e *WriteError
	return errors.As(err, &e)
}

// Publisher 下单成功后的事件出口（Kafka 等），可为 nil。
type Publisher interface {
	PublishOrderPlaced(ctx context.Context, o model.Order) error
}

// Writer 负责 orders 表的写入。
type Writer struct {
	db        *gorm.DB
	fulfilled FulfilledPolicy
	publisher Publisher
}

// NewWriter policy 为 nil 时使用 NeverFulfilled。
func NewWriter(db *gorm.DB, policy FulfilledPolicy, publisher Publisher) *Writer {
	if policy == nil {
		policy = NeverFulfilled
	}
	return &Writer{db: db, fulfilled: policy, publisher: publisher}
}

// Build 由名字与选择构造待写入的订单，不做校验。
func (w *Writer) Build(name string, selection []string) model.Order {
	return model.Order{
		OrderUID:    uuid.New().String(),
		NameOnOrder: name,
		Ingredients: Compose(selection),
		OrderFilled: w.fulfilled(name),
	}
}

// Submit 参数化插入一行订单。
// 事件发布失败只记日志，不影响已提交的订单。
func (w *Writer) Submit(ctx context.Context, o model.Order) (model.Order, error) {
	if o.OrderUID == "" {
		o.OrderUID = uuid.New().String()
	}
	if err := w.db.WithContext(ctx).Select(InsertColumns).Create(&o).Error; err != nil {
		return model.Order{}, &WriteError{Op: "insert", Err: err}
	}
	slog.DebugContext(ctx, "order inserted",
		"order_uid", o.OrderUID,
		"name_on_order", o.NameOnOrder,
		"ingredients", o.Ingredients,
		"order_filled", o.OrderFilled,
	)

	if w.publisher != nil {
		if err := w.publisher.PublishOrderPlaced(ctx, o); err != nil {
			slog.WarnContext(ctx, "publish order placed", "order_uid", o.OrderUID, "err", err)
		}
	}
	return o, nil
}

// ListPending 按下单时间返回未出餐订单。
func (w *Writer) ListPending(ctx context.Context) ([]model.Order, error) {
	var list []model.Order
	err := w.db.WithContext(ctx).
		Where("order_filled = ?", false).
		Order("order_ts").
		Order("id").
		Find(&list).Error
	if err != nil {
		return nil, &WriteError{Op: "list pending", Err: err}
	}
	return list, nil
}

// MarkFilled 将订单标记为已出餐；幂等。
func (w *Writer) MarkFilled(ctx context.Context, orderUID string) (model.Order, error) {
	var o model.Order
	err := w.db.WithContext(ctx).Where("order_uid = ?", orderUID).First(&o).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return model.Order{}, ErrOrderNotFound
		}
		return model.Order{}, &WriteError{Op: "mark filled", Err: err}
	}
	if o.OrderFilled {
		return o, nil
	}
	err = w.db.WithContext(ctx).Model(&o).Update("order_filled", true).Error
	if err != nil {
		return model.Order{}, &WriteError{Op: "mark filled", Err: err}
	}
	o.OrderFilled = true
	return o, nil
}
