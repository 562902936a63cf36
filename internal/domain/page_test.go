package domain_test

import (
	"errors"
	"math"
	"sort"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/omslab/ordercore/internal/domain"
)

func TestParseDirection(t *testing.T) {
	cases := map[string]domain.Direction{
		"desc":    domain.Desc,
		"DESC":    domain.Desc,
		" Desc ":  domain.Desc,
		"asc":     domain.Asc,
		"":        domain.Asc,
		"sideway": domain.Asc,
	}
	for in, want := range cases {
		if got := domain.ParseDirection(in); got != want {
			t.Fatalf("ParseDirection(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestParseSortField(t *testing.T) {
	for _, name := range []string{"id", "productName", "quantity", "price", "status", "createdAt"} {
		if _, err := domain.ParseSortField(name); err != nil {
			t.Fatalf("field %q rejected: %v", name, err)
		}
	}
	if _, err := domain.ParseSortField("password"); !errors.Is(err, domain.ErrUnsupportedSortField) {
		t.Fatalf("expected ErrUnsupportedSortField, got %v", err)
	}
}

func TestPageRequestLess_TieBreaksByID(t *testing.T) {
	at := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)
	orders := []domain.Order{
		{ID: 2, CreatedAt: at},
		{ID: 3, CreatedAt: at.Add(time.Second)},
		{ID: 1, CreatedAt: at},
	}

	req := domain.PageRequest{Sort: domain.SortByCreatedAt, Direction: domain.Desc}
	sort.SliceStable(orders, func(i, j int) bool { return req.Less(orders[i], orders[j]) })

	got := []int64{orders[0].ID, orders[1].ID, orders[2].ID}
	want := []int64{3, 2, 1}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("order mismatch: got %v want %v", got, want)
		}
	}
}

func TestPageRequestLess_Price(t *testing.T) {
	cheap := domain.Order{ID: 1, Price: decimal.RequireFromString("9.99")}
	pricey := domain.Order{ID: 2, Price: decimal.RequireFromString("10")}
	req := domain.PageRequest{Sort: domain.SortByPrice, Direction: domain.Asc}
	if !req.Less(cheap, pricey) || req.Less(pricey, cheap) {
		t.Fatalf("price ordering is wrong")
	}
}

func TestNewPage(t *testing.T) {
	cases := []struct {
		name  string
		total int64
		size  int
		pages int
	}{
		{name: "empty", total: 0, size: 10, pages: 0},
		{name: "exact", total: 20, size: 10, pages: 2},
		{name: "remainder", total: 21, size: 10, pages: 3},
		{name: "single", total: 3, size: 2, pages: 2},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			page := domain.NewPage(nil, tc.total, domain.PageRequest{Page: 1, Size: tc.size})
			if page.TotalPages != tc.pages {
				t.Fatalf("total pages = %d, want %d", page.TotalPages, tc.pages)
			}
			if page.Content == nil || page.Number != 1 || page.Size != tc.size {
				t.Fatalf("unexpected page metadata %+v", page)
			}
		})
	}
}

func TestFilterMatch(t *testing.T) {
	at := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	order := domain.Order{
		ProductName: "iPhone",
		Quantity:    5,
		Price:       decimal.RequireFromString("100.00"),
		CreatedAt:   at,
	}

	cases := []struct {
		name   string
		filter domain.Filter
		want   bool
	}{
		{name: "name equal", filter: domain.ProductNameEquals("iPhone"), want: true},
		{name: "name differs", filter: domain.ProductNameEquals("iphone"), want: false},
		{name: "price boundary", filter: domain.PriceAtLeast(decimal.RequireFromString("100")), want: true},
		{name: "price above", filter: domain.PriceAtLeast(decimal.RequireFromString("100.01")), want: false},
		{name: "quantity", filter: domain.QuantityAtLeast(5), want: true},
		{name: "quantity above", filter: domain.QuantityAtLeast(6), want: false},
		{name: "created inside", filter: domain.CreatedBetween(at.Add(-time.Hour), at), want: true},
		{name: "created outside", filter: domain.CreatedBetween(at.Add(time.Second), at.Add(time.Hour)), want: false},
		{name: "unknown field", filter: domain.Filter{Field: domain.SortByStatus, Op: domain.OpEq}, want: false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.filter.Match(order); got != tc.want {
				t.Fatalf("Match() = %v, want %v", got, tc.want)
			}
		})
	}

	req := domain.PageRequest{Filters: []domain.Filter{
		domain.ProductNameEquals("iPhone"),
		domain.QuantityAtLeast(10),
	}}
	if req.Matches(order) {
		t.Fatalf("all filters must pass")
	}
}

func TestPageRequestOffset(t *testing.T) {
	cases := []struct {
		page, size, want int
	}{
		{page: 0, size: 10, want: 0},
		{page: 3, size: 10, want: 30},
		{page: 1 << 62, size: 4, want: math.MaxInt},
		{page: 1<<61 + 1<<60, size: 4, want: math.MaxInt},
		{page: math.MaxInt, size: 1, want: math.MaxInt},
		{page: 5, size: 0, want: 0},
	}
	for _, tc := range cases {
		got := domain.PageRequest{Page: tc.page, Size: tc.size}.Offset()
		if got != tc.want {
			t.Fatalf("Offset(page=%d, size=%d) = %d, want %d", tc.page, tc.size, got, tc.want)
		}
	}
}
