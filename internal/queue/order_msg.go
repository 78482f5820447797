package queue

import (
	"fmt"
	"time"

	"smoothies/internal/model"
)

// EventOrderPlaced 下单成功事件类型。
const EventOrderPlaced = "order.placed"

// OrderMessage 是写入 Kafka 的下单事件。
type OrderMessage struct {
	Event       string    `json:"event"`
	OrderUID    string    `json:"order_uid"`
	NameOnOrder string    `json:"name_on_order"`
	Ingredients string    `json:"ingredients"`
	OrderFilled bool      `json:"order_filled"`
	OrderTS     time.Time `json:"order_ts"`
}

// NewOrderPlaced 由已落库订单构造事件。
func NewOrderPlaced(o model.Order) OrderMessage {
	return OrderMessage{
		Event:       EventOrderPlaced,
		OrderUID:    o.OrderUID,
		NameOnOrder: o.NameOnOrder,
		Ingredients: o.Ingredients,
		OrderFilled: o.OrderFilled,
		OrderTS:     o.OrderTS,
	}
}

// Validate 做最小字段校验，防止消费者处理脏消息。
func (m OrderMessage) Validate() error {
	if m.Event != EventOrderPlaced {
		return fmt.Errorf("unknown event %q", m.Event)
	}
	if m.OrderUID == "" {
		return fmt.Errorf("order_uid is required")
	}
	if m.NameOnOrder == "" {
		return fmt.Errorf("name_on_order is required")
	}
	if m.Ingredients == "" {
		return fmt.Errorf("ingredients is required")
	}
	return nil
}
