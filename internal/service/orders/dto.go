package orders

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreateOrderRequest: входные данные для создания заказа.
// Указатели отличают отсутствующее поле от нулевого значения.
type CreateOrderRequest struct {
	ProductName string             `json:"productName"     validate:"notblank"`
	Quantity    *int               `json:"quantity"        validate:"required,gte=1"`
	Price       *decimal.Decimal   `json:"price"           validate:"required,gte=0"`
	Items       []OrderItemRequest `json:"items,omitempty" validate:"omitempty,dive"`
}

// OrderItemRequest: позиция в запросе на создание.
type OrderItemRequest struct {
	ItemName string           `json:"itemName" validate:"notblank"`
	Quantity *int             `json:"quantity" validate:"required,gte=1"`
	Price    *decimal.Decimal `json:"price"    validate:"required,gte=0"`
}

// OrderResponse: представление заказа для клиента.
type OrderResponse struct {
	OrderID     int64               `json:"orderId"`
	ProductName string              `json:"productName"`
	Quantity    int                 `json:"quantity"`
	Price       Amount              `json:"price"`
	Status      string              `json:"status"`
	CreatedAt   string              `json:"createdAt"`
	Items       []OrderItemResponse `json:"items,omitempty"`
}

// OrderItemResponse: позиция заказа в ответе.
type OrderItemResponse struct {
	ItemName string `json:"itemName"`
	Quantity int    `json:"quantity"`
	Price    Amount `json:"price"`
}

// Amount: денежное значение в ответе. В JSON пишется числом без кавычек,
// глобальная настройка decimal при этом не меняется.
type Amount struct {
	decimal.Decimal
}

// MarshalJSON пишет точное десятичное представление.
func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(a.Decimal.String()), nil
}

// PageResponse: страница заказов с метаданными.
type PageResponse struct {
	Content       []OrderResponse `json:"content"`
	TotalElements int64           `json:"totalElements"`
	TotalPages    int             `json:"totalPages"`
	PageNumber    int             `json:"pageNumber"`
	PageSize      int             `json:"pageSize"`
}

// ListOrdersQuery: параметры постраничной выборки.
type ListOrdersQuery struct {
	Page        int
	Size        int
	SortBy      string
	Direction   string
	ProductName string
	MinPrice    *decimal.Decimal
	MinQuantity *int
	CreatedFrom *time.Time
	CreatedTo   *time.Time
}
