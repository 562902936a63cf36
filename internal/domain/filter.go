package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// FilterOp: операция сравнения в фильтре.
type FilterOp string

const (
	OpEq      FilterOp = "eq"
	OpGte     FilterOp = "gte"
	OpBetween FilterOp = "between"
)

// Filter: предикат выборки заказов. Хранилища в памяти вызывают Match,
// SQL-хранилища переводят тройку Field/Op/Values в условие WHERE.
type Filter struct {
	Field  SortField
	Op     FilterOp
	Values []any
}

// ProductNameEquals отбирает заказы с точным совпадением названия.
func ProductNameEquals(name string) Filter {
	return Filter{Field: SortByProductName, Op: OpEq, Values: []any{name}}
}

// PriceAtLeast отбирает заказы с ценой не ниже min.
func PriceAtLeast(min decimal.Decimal) Filter {
	return Filter{Field: SortByPrice, Op: OpGte, Values: []any{min}}
}

// QuantityAtLeast отбирает заказы с количеством не ниже min.
func QuantityAtLeast(min int) Filter {
	return Filter{Field: SortByQuantity, Op: OpGte, Values: []any{min}}
}

// CreatedBetween отбирает заказы, созданные в интервале [from, to].
func CreatedBetween(from, to time.Time) Filter {
	return Filter{Field: SortByCreatedAt, Op: OpBetween, Values: []any{from, to}}
}

// Match проверяет заказ. Неизвестные комбинации ничего не пропускают.
func (f Filter) Match(o Order) bool {
	switch f.Field {
	case SortByProductName:
		name, ok := f.value(0).(string)
		return ok && f.Op == OpEq && o.ProductName == name
	case SortByPrice:
		min, ok := f.value(0).(decimal.Decimal)
		return ok && f.Op == OpGte && o.Price.GreaterThanOrEqual(min)
	case SortByQuantity:
		min, ok := f.value(0).(int)
		return ok && f.Op == OpGte && o.Quantity >= min
	case SortByCreatedAt:
		from, okFrom := f.value(0).(time.Time)
		to, okTo := f.value(1).(time.Time)
		return okFrom && okTo && f.Op == OpBetween &&
			!o.CreatedAt.Before(from) && !o.CreatedAt.After(to)
	default:
		return false
	}
}

func (f Filter) value(i int) any {
	if i < len(f.Values) {
		return f.Values[i]
	}
	return nil
}
