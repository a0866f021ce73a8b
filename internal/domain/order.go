package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// EntityOrder: имя сущности в ошибках.
const EntityOrder = "Order"

// OrderState: наблюдаемое состояние заказа.
type OrderState string

const (
	// OrderStateOpen: заказ действует.
	OrderStateOpen OrderState = "open"
	// OrderStateCancelled: заказ отменён (soft-delete), состояние терминальное.
	OrderStateCancelled OrderState = "cancelled"
)

// Order связывает клиента, адрес доставки и набор позиций.
// Владелец неизменяем; адрес доставки меняется только через явное обновление.
type Order struct {
	ID                int64
	CustomerID        int64
	DeliveryAddressID int64
	CreatedAt         time.Time
	Deleted           bool
	// Lines заполняется сервисом при чтении; сами позиции хранятся отдельно.
	Lines []OrderLine
}

// State вычисляет состояние из флага удаления.
func (o Order) State() OrderState {
	if o.Deleted {
		return OrderStateCancelled
	}
	return OrderStateOpen
}

// Visible сообщает, виден ли заказ обычным запросам.
func (o Order) Visible() bool { return !o.Deleted }

// MarkDeleted отменяет заказ. Возвращает false, если заказ уже был отменён.
func (o *Order) MarkDeleted() bool {
	if o.Deleted {
		return false
	}
	o.Deleted = true
	return true
}

// LineRequest: запрошенная позиция при создании заказа.
type LineRequest struct {
	EntryID  int64
	Quantity int
	Discount decimal.Decimal
}

var one = decimal.NewFromInt(1)

// Validate проверяет количество (> 0) и скидку в диапазоне [0, 1).
func (r LineRequest) Validate() error {
	var fields []string
	if r.EntryID <= 0 {
		fields = append(fields, "EntryID")
	}
	if r.Quantity <= 0 {
		fields = append(fields, "Quantity")
	}
	if r.Discount.IsNegative() || r.Discount.GreaterThanOrEqual(one) {
		fields = append(fields, "Discount")
	}
	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

// OrderLine: позиция заказа; идентичность задаётся парой (OrderID, EntryID).
type OrderLine struct {
	OrderID    int64
	EntryID    int64
	Quantity   int
	Discount   decimal.Decimal
	TotalPrice decimal.Decimal
}

// LineKey: составной ключ позиции.
type LineKey struct {
	OrderID int64
	EntryID int64
}

// Key возвращает составной ключ позиции.
func (l OrderLine) Key() LineKey {
	return LineKey{OrderID: l.OrderID, EntryID: l.EntryID}
}

// NewOrderLine фиксирует итоговую цену позиции в момент оформления:
// unitPrice * quantity * (1 - discount). Цена потом не пересчитывается.
func NewOrderLine(orderID int64, entry CatalogEntry, req LineRequest) OrderLine {
	total := entry.UnitPrice.
		Mul(decimal.NewFromInt(int64(req.Quantity))).
		Mul(one.Sub(req.Discount))
	return OrderLine{
		OrderID:    orderID,
		EntryID:    entry.ID,
		Quantity:   req.Quantity,
		Discount:   req.Discount,
		TotalPrice: total,
	}
}

// OrdersInfo: агрегаты количества открытых и отменённых заказов.
type OrdersInfo struct {
	Open      int
	Cancelled int
}
