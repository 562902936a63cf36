package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus описывает жизненный цикл заказа.
type OrderStatus string

const (
	// OrderStatusCreated: заказ принят и сохранён. Других статусов пока нет.
	OrderStatusCreated OrderStatus = "CREATED"
)

// Valid проверяет, что статус относится к поддерживаемым значениям.
func (s OrderStatus) Valid() bool {
	return s == OrderStatusCreated
}

// OrderItem представляет одну позицию заказа.
type OrderItem struct {
	ItemName string
	Quantity int
	Price    decimal.Decimal
	// OrderID: обратная ссылка на владельца. Выставляется только самим заказом.
	OrderID int64
}

// Order агрегирует состояние заказа и его позиции.
type Order struct {
	ID          int64
	ProductName string
	Quantity    int
	Price       decimal.Decimal
	Status      OrderStatus
	CreatedAt   time.Time
	Items       []OrderItem
}

// AssignID выставляет идентификатор заказа ровно один раз и обновляет обратные ссылки позиций.
func (o *Order) AssignID(id int64) error {
	if id <= 0 {
		return ErrOrderIDInvalid
	}
	if o.ID != 0 {
		return ErrOrderIDAlreadyAssigned
	}
	o.ID = id
	o.LinkItems()
	return nil
}

// MarkCreated фиксирует момент создания. Повторный вызов запрещён.
func (o *Order) MarkCreated(at time.Time) error {
	if !o.CreatedAt.IsZero() {
		return ErrCreatedAtAlreadySet
	}
	o.CreatedAt = at
	return nil
}

// AddItem добавляет позицию и привязывает её к заказу.
func (o *Order) AddItem(item OrderItem) {
	item.OrderID = o.ID
	o.Items = append(o.Items, item)
}

// LinkItems гарантирует, что каждая позиция ссылается на этот заказ.
func (o *Order) LinkItems() {
	for i := range o.Items {
		o.Items[i].OrderID = o.ID
	}
}

// Clone возвращает копию заказа с собственным срезом позиций.
func (o Order) Clone() Order {
	if o.Items != nil {
		items := make([]OrderItem, len(o.Items))
		copy(items, o.Items)
		o.Items = items
	}
	return o
}
