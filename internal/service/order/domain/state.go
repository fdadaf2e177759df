// internal/service/order/domain/state.go
package domain

import "fmt"

// Status 定义了订单的配送生命周期状态，取值即对外的线上格式
type Status string

const (
	StatusPreparing      Status = "YOUR_FOOD_IS_BEING_PREPARED"   // 餐厅备餐中 (初始状态)
	StatusReadyForPickup Status = "YOUR_FOOD_IS_READY_FOR_PICKUP" // 等待骑手取餐
	StatusOnTheWay       Status = "YOUR_FOOD_IS_ON_THE_WAY"       // 配送中
	StatusDelivered      Status = "YOUR_FOOD_HAS_BEEN_DELIVERED"  // 已送达 (终态)
	StatusCancelled      Status = "YOUR_ORDER_HAS_BEEN_CANCELLED" // 已取消 (终态)
)

// transitions 是正常流程下的合法迁移表。终态没有出边。
var transitions = map[Status][]Status{
	StatusPreparing:      {StatusReadyForPickup, StatusOnTheWay, StatusCancelled},
	StatusReadyForPickup: {StatusOnTheWay, StatusCancelled},
	StatusOnTheWay:       {StatusDelivered, StatusCancelled},
	StatusDelivered:      nil,
	StatusCancelled:      nil,
}

// TerminalStatuses 列出所有终态，仓储用它做条件更新
var TerminalStatuses = []Status{StatusDelivered, StatusCancelled}

// ParseStatus 把外部输入解析为已知状态，未知值返回 ErrInvalidStatus
func ParseStatus(raw string) (Status, error) {
	s := Status(raw)
	if _, ok := transitions[s]; !ok {
		return "", fmt.Errorf("%w: %q", ErrInvalidStatus, raw)
	}
	return s, nil
}

func (s Status) IsValid() bool {
	_, ok := transitions[s]
	return ok
}

// IsTerminal 终态是吸收态，任何后续迁移都是空操作
func (s Status) IsTerminal() bool {
	return s.IsValid() && len(transitions[s]) == 0
}

// CanTransition 判断 from -> to 是否在正常流程的迁移表中
func CanTransition(from, to Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

func (s Status) String() string { return string(s) }
