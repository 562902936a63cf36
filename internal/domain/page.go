package domain

import (
	"fmt"
	"math"
	"strings"
)

// Direction задаёт порядок сортировки.
type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

// ParseDirection разбирает направление без учёта регистра. Всё, кроме "desc", считается возрастанием.
func ParseDirection(s string) Direction {
	if strings.EqualFold(strings.TrimSpace(s), string(Desc)) {
		return Desc
	}
	return Asc
}

// SortField: поле заказа, по которому разрешена сортировка.
type SortField string

const (
	SortByID          SortField = "id"
	SortByProductName SortField = "productName"
	SortByQuantity    SortField = "quantity"
	SortByPrice       SortField = "price"
	SortByStatus      SortField = "status"
	SortByCreatedAt   SortField = "createdAt"
)

var sortFields = map[string]SortField{
	string(SortByID):          SortByID,
	string(SortByProductName): SortByProductName,
	string(SortByQuantity):    SortByQuantity,
	string(SortByPrice):       SortByPrice,
	string(SortByStatus):      SortByStatus,
	string(SortByCreatedAt):   SortByCreatedAt,
}

// ParseSortField проверяет имя поля сортировки.
func ParseSortField(s string) (SortField, error) {
	field, ok := sortFields[strings.TrimSpace(s)]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedSortField, s)
	}
	return field, nil
}

// PageRequest описывает запрошенное окно выборки.
type PageRequest struct {
	Page      int
	Size      int
	Sort      SortField
	Direction Direction
	Filters   []Filter
}

// Offset возвращает число пропускаемых записей. При переполнении Page*Size
// возвращается math.MaxInt: такая страница заведомо за пределами выборки.
func (r PageRequest) Offset() int {
	if r.Page <= 0 || r.Size <= 0 {
		return 0
	}
	if r.Page > (math.MaxInt-1)/r.Size {
		return math.MaxInt
	}
	return r.Page * r.Size
}

// Matches проверяет заказ по всем фильтрам запроса.
func (r PageRequest) Matches(o Order) bool {
	for _, f := range r.Filters {
		if !f.Match(o) {
			return false
		}
	}
	return true
}

// Less сравнивает два заказа в порядке запроса. При равенстве ключей порядок определяет ID.
func (r PageRequest) Less(a, b Order) bool {
	c := compareBy(r.Sort, a, b)
	if c == 0 {
		c = compareInt64(a.ID, b.ID)
	}
	if r.Direction == Desc {
		return c > 0
	}
	return c < 0
}

func compareBy(field SortField, a, b Order) int {
	switch field {
	case SortByProductName:
		return strings.Compare(a.ProductName, b.ProductName)
	case SortByQuantity:
		return compareInt64(int64(a.Quantity), int64(b.Quantity))
	case SortByPrice:
		return a.Price.Cmp(b.Price)
	case SortByStatus:
		return strings.Compare(string(a.Status), string(b.Status))
	case SortByCreatedAt:
		return a.CreatedAt.Compare(b.CreatedAt)
	default:
		return compareInt64(a.ID, b.ID)
	}
}

func compareInt64(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// Page: окно результатов с метаданными.
type Page struct {
	Content       []Order
	TotalElements int64
	TotalPages    int
	Number        int
	Size          int
}

// NewPage собирает страницу и вычисляет количество страниц.
func NewPage(content []Order, total int64, req PageRequest) Page {
	if content == nil {
		content = []Order{}
	}
	pages := 0
	if req.Size > 0 {
		pages = int((total + int64(req.Size) - 1) / int64(req.Size))
	}
	return Page{
		Content:       content,
		TotalElements: total,
		TotalPages:    pages,
		Number:        req.Page,
		Size:          req.Size,
	}
}
