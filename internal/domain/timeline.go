package domain

import "time"

// TimelineEvent описывает событие в жизненном цикле заказа.
type TimelineEvent struct {
	OrderID int64
	Type    string
	// FromStatus/ToStatus фиксируют переход статуса, если событие о нём.
	FromStatus OrderStatus
	ToStatus   OrderStatus
	Reason     string
	Occurred   time.Time
}
