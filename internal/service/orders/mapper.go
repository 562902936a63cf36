package orders

import (
	"time"

	"github.com/omslab/ordercore/internal/domain"
)

// Mapper преобразует запросы в сущности и сущности в ответы. Без состояния.
type Mapper struct{}

// ToEntity строит новый заказ из провалидированного запроса.
// ID, CreatedAt и Status остаются нулевыми: их выставляют сервис и хранилище.
func (Mapper) ToEntity(req CreateOrderRequest) *domain.Order {
	order := &domain.Order{ProductName: req.ProductName}
	if req.Quantity != nil {
		order.Quantity = *req.Quantity
	}
	if req.Price != nil {
		order.Price = *req.Price
	}
	for _, it := range req.Items {
		item := domain.OrderItem{ItemName: it.ItemName}
		if it.Quantity != nil {
			item.Quantity = *it.Quantity
		}
		if it.Price != nil {
			item.Price = *it.Price
		}
		order.AddItem(item)
	}
	return order
}

// ToResponse копирует поля заказа; статус берётся из сущности.
func (Mapper) ToResponse(order domain.Order) OrderResponse {
	resp := OrderResponse{
		OrderID:     order.ID,
		ProductName: order.ProductName,
		Quantity:    order.Quantity,
		Price:       Amount{Decimal: order.Price},
		Status:      string(order.Status),
		CreatedAt:   FormatTimestamp(order.CreatedAt),
	}
	if len(order.Items) > 0 {
		resp.Items = make([]OrderItemResponse, 0, len(order.Items))
		for _, item := range order.Items {
			resp.Items = append(resp.Items, OrderItemResponse{
				ItemName: item.ItemName,
				Quantity: item.Quantity,
				Price:    Amount{Decimal: item.Price},
			})
		}
	}
	return resp
}

// ToPageResponse сохраняет порядок элементов и метаданные страницы.
func (m Mapper) ToPageResponse(page domain.Page) PageResponse {
	content := make([]OrderResponse, 0, len(page.Content))
	for _, order := range page.Content {
		content = append(content, m.ToResponse(order))
	}
	return PageResponse{
		Content:       content,
		TotalElements: page.TotalElements,
		TotalPages:    page.TotalPages,
		PageNumber:    page.Number,
		PageSize:      page.Size,
	}
}

// FormatTimestamp выводит время в UTC в формате RFC 3339 с наносекундами.
func FormatTimestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}
