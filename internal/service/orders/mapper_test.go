package orders

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/omslab/ordercore/internal/domain"
)

func TestMapper_ToEntity(t *testing.T) {
	req := validRequest()
	req.Items = []OrderItemRequest{{ItemName: "case", Quantity: intPtr(3), Price: decPtr("9.90")}}

	order := Mapper{}.ToEntity(req)

	require.Zero(t, order.ID)
	require.True(t, order.CreatedAt.IsZero())
	require.Empty(t, order.Status)
	require.Equal(t, "iPhone", order.ProductName)
	require.Equal(t, 2, order.Quantity)
	require.True(t, order.Price.Equal(decimal.RequireFromString("123000")))
	require.Len(t, order.Items, 1)
	require.Equal(t, 3, order.Items[0].Quantity)
}

func TestMapper_ToResponse(t *testing.T) {
	created := time.Date(2025, 3, 4, 5, 6, 7, 123456789, time.FixedZone("MSK", 3*3600))
	order := domain.Order{
		ID:          7,
		ProductName: "Pixel",
		Quantity:    1,
		Price:       decimal.RequireFromString("499.99"),
		Status:      domain.OrderStatus("CUSTOM"),
		CreatedAt:   created,
		Items:       []domain.OrderItem{{ItemName: "cable", Quantity: 2, Price: decimal.RequireFromString("5"), OrderID: 7}},
	}

	resp := Mapper{}.ToResponse(order)

	require.Equal(t, int64(7), resp.OrderID)
	require.Equal(t, "CUSTOM", resp.Status, "status must come from the entity")
	require.Equal(t, "2025-03-04T02:06:07.123456789Z", resp.CreatedAt)
	require.Len(t, resp.Items, 1)
	require.Equal(t, "cable", resp.Items[0].ItemName)

	parsed, err := time.Parse(time.RFC3339Nano, resp.CreatedAt)
	require.NoError(t, err)
	require.True(t, parsed.Equal(created))
}

func TestMapper_ToPageResponse(t *testing.T) {
	page := domain.Page{
		Content:       []domain.Order{{ID: 3}, {ID: 2}},
		TotalElements: 3,
		TotalPages:    2,
		Number:        0,
		Size:          2,
	}

	resp := Mapper{}.ToPageResponse(page)

	require.Equal(t, []int64{3, 2}, []int64{resp.Content[0].OrderID, resp.Content[1].OrderID})
	require.Equal(t, int64(3), resp.TotalElements)
	require.Equal(t, 2, resp.TotalPages)
	require.Equal(t, 0, resp.PageNumber)
	require.Equal(t, 2, resp.PageSize)

	empty := Mapper{}.ToPageResponse(domain.Page{})
	require.NotNil(t, empty.Content)
}

func TestAmount_MarshalsAsNumber(t *testing.T) {
	resp := OrderItemResponse{ItemName: "cable", Quantity: 2, Price: Amount{Decimal: decimal.RequireFromString("5.50")}}

	raw, err := json.Marshal(resp)
	require.NoError(t, err)
	require.JSONEq(t, `{"itemName":"cable","quantity":2,"price":5.5}`, string(raw))

	// глобальный формат decimal не затронут: сам decimal по-прежнему пишется строкой
	plain, err := json.Marshal(decimal.RequireFromString("5.50"))
	require.NoError(t, err)
	require.Equal(t, `"5.5"`, string(plain))
}
