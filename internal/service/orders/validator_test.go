package orders

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/omslab/ordercore/internal/domain"
)

func intPtr(v int) *int { return &v }

func decPtr(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func validRequest() CreateOrderRequest {
	return CreateOrderRequest{
		ProductName: "iPhone",
		Quantity:    intPtr(2),
		Price:       decPtr("123000"),
	}
}

func TestValidator_Valid(t *testing.T) {
	v := NewValidator(100)
	req := validRequest()
	req.Items = []OrderItemRequest{{ItemName: "case", Quantity: intPtr(1), Price: decPtr("0")}}
	if err := v.Validate(req); err != nil {
		t.Fatalf("expected valid request, got %v", err)
	}
}

func TestValidator_ShapeErrors(t *testing.T) {
	cases := []struct {
		name  string
		mut   func(r *CreateOrderRequest)
		field string
		msg   string
	}{
		{name: "blank name", mut: func(r *CreateOrderRequest) { r.ProductName = "   " }, field: "productName", msg: msgNotBlank},
		{name: "missing quantity", mut: func(r *CreateOrderRequest) { r.Quantity = nil }, field: "quantity", msg: msgNotNull},
		{name: "zero quantity", mut: func(r *CreateOrderRequest) { r.Quantity = intPtr(0) }, field: "quantity", msg: msgMinOne},
		{name: "missing price", mut: func(r *CreateOrderRequest) { r.Price = nil }, field: "price", msg: msgNotNull},
		{name: "negative price", mut: func(r *CreateOrderRequest) { r.Price = decPtr("-0.01") }, field: "price", msg: msgMinZero},
		{
			name: "bad item",
			mut: func(r *CreateOrderRequest) {
				r.Items = []OrderItemRequest{{ItemName: "", Quantity: intPtr(1), Price: decPtr("1")}}
			},
			field: "items[0].itemName",
			msg:   msgNotBlank,
		},
		{
			name:  "item without quantity",
			mut:   func(r *CreateOrderRequest) { r.Items = []OrderItemRequest{{ItemName: "x", Price: decPtr("1")}} },
			field: "items[0].quantity",
			msg:   msgNotNull,
		},
	}

	v := NewValidator(100)
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := validRequest()
			tc.mut(&req)

			err := v.Validate(req)
			var verr *domain.ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if verr.Fields[tc.field] != tc.msg {
				t.Fatalf("field %s: got %q want %q (all: %v)", tc.field, verr.Fields[tc.field], tc.msg, verr.Fields)
			}
		})
	}
}

func TestValidator_CollectsAllFields(t *testing.T) {
	err := NewValidator(100).Validate(CreateOrderRequest{})
	var verr *domain.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if len(verr.Fields) != 3 {
		t.Fatalf("expected 3 field errors, got %v", verr.Fields)
	}
}

func TestValidator_QuantityLimit(t *testing.T) {
	v := NewValidator(100)

	req := validRequest()
	req.Quantity = intPtr(100)
	if err := v.Validate(req); err != nil {
		t.Fatalf("limit itself must be allowed: %v", err)
	}

	req.Quantity = intPtr(1000)
	err := v.Validate(req)
	var rule *domain.BusinessRuleError
	if !errors.As(err, &rule) {
		t.Fatalf("expected BusinessRuleError, got %v", err)
	}
	if rule.Message != "Quantity exceeds allowed limit" || rule.Code != domain.CodeQuantityLimit {
		t.Fatalf("unexpected rule error %+v", rule)
	}
}

func TestValidator_ShapeBeforeLimit(t *testing.T) {
	req := validRequest()
	req.Quantity = intPtr(1000)
	req.ProductName = ""
	if err := NewValidator(100).Validate(req); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("shape errors must win over business rule, got %v", err)
	}
}

func TestNewValidator_DefaultLimit(t *testing.T) {
	v := NewValidator(0)

	req := validRequest()
	req.Quantity = intPtr(defaultMaxQty)
	if err := v.Validate(req); err != nil {
		t.Fatalf("default limit itself must be allowed: %v", err)
	}

	req.Quantity = intPtr(defaultMaxQty + 1)
	if err := v.Validate(req); !errors.Is(err, domain.ErrBusinessRule) {
		t.Fatalf("expected business rule error above default limit, got %v", err)
	}
}

func TestValidator_ItemErrorsUseJSONPaths(t *testing.T) {
	req := validRequest()
	req.Items = []OrderItemRequest{
		{ItemName: "case", Quantity: intPtr(1), Price: decPtr("1")},
		{ItemName: " ", Quantity: intPtr(0), Price: decPtr("-5")},
	}

	err := NewValidator(100).Validate(req)
	var verr *domain.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	want := map[string]string{
		"items[1].itemName": msgNotBlank,
		"items[1].quantity": msgMinOne,
		"items[1].price":    msgMinZero,
	}
	if len(verr.Fields) != len(want) {
		t.Fatalf("unexpected fields %v", verr.Fields)
	}
	for field, msg := range want {
		if verr.Fields[field] != msg {
			t.Fatalf("field %s: got %q want %q", field, verr.Fields[field], msg)
		}
	}
}

func TestValidator_ZeroPriceAllowed(t *testing.T) {
	req := validRequest()
	req.Price = decPtr("0")
	if err := NewValidator(100).Validate(req); err != nil {
		t.Fatalf("zero price must be valid: %v", err)
	}
}
