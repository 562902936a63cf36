package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/omslab/ordercore/internal/domain"
)

// orderRepositoryInMemory: in-memory реализация OrderRepository поверх sync.Map.
// Хранит снимки заказов; чтения не блокируют друг друга.
type orderRepositoryInMemory struct {
	items sync.Map // int64 -> domain.Order
	seq   Sequence
	now   func() time.Time
}

// Option настраивает in-memory репозиторий.
type Option func(*orderRepositoryInMemory)

// WithClock подменяет источник времени (для тестов).
func WithClock(now func() time.Time) Option {
	return func(r *orderRepositoryInMemory) {
		if now != nil {
			r.now = now
		}
	}
}

// NewOrderRepository возвращает in-memory репозиторий для локальной разработки и тестов.
// Каждый экземпляр владеет собственной последовательностью идентификаторов.
func NewOrderRepository(opts ...Option) domain.OrderRepository {
	r := &orderRepositoryInMemory{
		now: func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Save присваивает идентификатор и время создания, затем сохраняет снимок заказа.
func (r *orderRepositoryInMemory) Save(ctx context.Context, order *domain.Order) (domain.Order, error) {
	if err := ctx.Err(); err != nil {
		return domain.Order{}, err
	}
	if order == nil {
		return domain.Order{}, fmt.Errorf("save order: nil order")
	}

	if err := order.AssignID(r.seq.Next()); err != nil {
		return domain.Order{}, fmt.Errorf("save order: %w", err)
	}
	if err := order.MarkCreated(r.now()); err != nil {
		return domain.Order{}, fmt.Errorf("save order %d: %w", order.ID, err)
	}

	snapshot := order.Clone()
	if _, loaded := r.items.LoadOrStore(snapshot.ID, snapshot); loaded {
		return domain.Order{}, fmt.Errorf("save order %d: %w", snapshot.ID, domain.ErrOrderAlreadyExists)
	}
	return snapshot.Clone(), nil
}

// FindByID возвращает копию заказа; found=false, если его нет.
func (r *orderRepositoryInMemory) FindByID(ctx context.Context, id int64) (domain.Order, bool, error) {
	if err := ctx.Err(); err != nil {
		return domain.Order{}, false, err
	}
	value, ok := r.items.Load(id)
	if !ok {
		return domain.Order{}, false, nil
	}
	return value.(domain.Order).Clone(), true, nil
}

// FindPage фильтрует, сортирует и нарезает заказы в памяти.
func (r *orderRepositoryInMemory) FindPage(ctx context.Context, req domain.PageRequest) (domain.Page, error) {
	if err := ctx.Err(); err != nil {
		return domain.Page{}, err
	}

	matched := make([]domain.Order, 0)
	r.items.Range(func(_, value any) bool {
		order := value.(domain.Order)
		if req.Matches(order) {
			matched = append(matched, order)
		}
		return true
	})

	sort.Slice(matched, func(i, j int) bool {
		return req.Less(matched[i], matched[j])
	})

	total := int64(len(matched))
	start := req.Offset()
	if req.Size <= 0 || start < 0 || start >= len(matched) {
		return domain.NewPage(nil, total, req), nil
	}
	end := start + req.Size
	if end < start || end > len(matched) {
		end = len(matched)
	}

	content := make([]domain.Order, 0, end-start)
	for _, order := range matched[start:end] {
		content = append(content, order.Clone())
	}
	return domain.NewPage(content, total, req), nil
}

// Delete удаляет заказ; позиции принадлежат снимку и исчезают вместе с ним.
func (r *orderRepositoryInMemory) Delete(ctx context.Context, id int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, loaded := r.items.LoadAndDelete(id); !loaded {
		return &domain.NotFoundError{ID: id}
	}
	return nil
}

var _ domain.OrderRepository = (*orderRepositoryInMemory)(nil)
