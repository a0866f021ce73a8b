package domain

import "time"

// TimelineEvent описывает событие в жизненном цикле заказа.
type TimelineEvent struct {
	OrderID  int64
	Type     string
	Reason   string
	Occurred time.Time
}

// Типы событий timeline заказа.
const (
	TimelineOrderCreated             = "OrderCreated"
	TimelineOrderLinesRejected       = "OrderLinesRejected"
	TimelineDeliveryAddressRefreshed = "OrderDeliveryAddressRefreshed"
	TimelineDeliveryAddressChanged   = "OrderDeliveryAddressChanged"
	TimelineOrderCanceled            = "OrderCanceled"
	TimelineTicketOpened             = "TicketOpened"
	TimelineTicketResolved           = "TicketResolved"
)
