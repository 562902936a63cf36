package orders

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/omslab/ordercore/internal/domain"
	"github.com/omslab/ordercore/internal/metrics"
	"github.com/omslab/ordercore/internal/notify"
)

const (
	defaultPageSize    = 10
	defaultMaxPageSize = 100

	opCreate = "create"
	opGet    = "get"
	opList   = "list"
)

// Границы интервала createdAt, если клиент указал только одну из них.
var (
	createdRangeStart = time.Unix(0, 0).UTC()
	createdRangeEnd   = time.Date(9999, time.December, 31, 23, 59, 59, 0, time.UTC)
)

// Config задаёт лимиты сервиса.
type Config struct {
	MaxQuantity     int
	DefaultPageSize int
	MaxPageSize     int
}

func (c Config) withDefaults() Config {
	if c.MaxQuantity <= 0 {
		c.MaxQuantity = defaultMaxQty
	}
	if c.MaxPageSize <= 0 {
		c.MaxPageSize = defaultMaxPageSize
	}
	if c.DefaultPageSize <= 0 {
		c.DefaultPageSize = defaultPageSize
	}
	if c.DefaultPageSize > c.MaxPageSize {
		c.DefaultPageSize = c.MaxPageSize
	}
	return c
}

// Option настраивает сервис.
type Option func(*Service)

// WithLogger задаёт логгер сервиса.
func WithLogger(logger *log.Entry) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithNotifier задаёт канал уведомлений о созданных заказах.
func WithNotifier(n notify.Notifier) Option {
	return func(s *Service) {
		if n != nil {
			s.notifier = n
		}
	}
}

// WithMetrics подключает метрики.
func WithMetrics(m *metrics.OrderMetrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// Service оркестрирует создание и чтение заказов. Безопасен для конкурентного использования.
type Service struct {
	repo      domain.OrderRepository
	mapper    Mapper
	validator Validator
	cfg       Config
	logger    *log.Entry
	notifier  notify.Notifier
	metrics   *metrics.OrderMetrics
}

// NewService конструирует сервис с зависимостями.
func NewService(repo domain.OrderRepository, mapper Mapper, cfg Config, opts ...Option) *Service {
	cfg = cfg.withDefaults()
	s := &Service{
		repo:      repo,
		mapper:    mapper,
		validator: NewValidator(cfg.MaxQuantity),
		cfg:       cfg,
		logger:    log.New().WithField("component", "order-service"),
		notifier:  notify.Noop{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// DefaultPageSize возвращает размер страницы по умолчанию.
func (s *Service) DefaultPageSize() int {
	return s.cfg.DefaultPageSize
}

// CreateOrder валидирует запрос, сохраняет заказ в статусе CREATED и возвращает его представление.
// При ошибке валидации хранилище не вызывается.
func (s *Service) CreateOrder(ctx context.Context, req CreateOrderRequest) (OrderResponse, error) {
	started := time.Now()
	defer func() { s.metrics.ObserveOperation(opCreate, time.Since(started)) }()

	if err := s.validator.Validate(req); err != nil {
		if errors.Is(err, domain.ErrBusinessRule) {
			s.metrics.RecordCreateRejected(metrics.ReasonBusinessRule)
		} else {
			s.metrics.RecordCreateRejected(metrics.ReasonValidation)
		}
		return OrderResponse{}, err
	}

	order := s.mapper.ToEntity(req)
	order.Status = domain.OrderStatusCreated
	order.LinkItems()

	saved, err := s.repo.Save(ctx, order)
	if err != nil {
		s.metrics.RecordCreateRejected(metrics.ReasonStorage)
		return OrderResponse{}, fmt.Errorf("save order: %w", err)
	}
	s.metrics.RecordOrderCreated()

	s.logger.WithFields(log.Fields{
		"order_id": saved.ID,
		"product":  saved.ProductName,
		"quantity": saved.Quantity,
	}).Info("order created")

	s.notify(ctx, notify.MessageOrderCreated+": "+strconv.FormatInt(saved.ID, 10))

	return s.mapper.ToResponse(saved), nil
}

// GetOrderByID возвращает заказ или *domain.NotFoundError.
func (s *Service) GetOrderByID(ctx context.Context, id int64) (OrderResponse, error) {
	started := time.Now()
	defer func() { s.metrics.ObserveOperation(opGet, time.Since(started)) }()

	order, found, err := s.repo.FindByID(ctx, id)
	if err != nil {
		s.metrics.RecordLookup("error")
		return OrderResponse{}, fmt.Errorf("find order %d: %w", id, err)
	}
	if !found {
		s.metrics.RecordLookup("not_found")
		return OrderResponse{}, &domain.NotFoundError{ID: id}
	}
	s.metrics.RecordLookup("found")
	return s.mapper.ToResponse(order), nil
}

// GetOrders возвращает страницу заказов в запрошенном порядке.
func (s *Service) GetOrders(ctx context.Context, q ListOrdersQuery) (PageResponse, error) {
	started := time.Now()
	defer func() { s.metrics.ObserveOperation(opList, time.Since(started)) }()

	req, err := s.pageRequest(q)
	if err != nil {
		return PageResponse{}, err
	}

	page, err := s.repo.FindPage(ctx, req)
	if err != nil {
		return PageResponse{}, fmt.Errorf("find orders page: %w", err)
	}
	s.metrics.RecordPageServed()
	return s.mapper.ToPageResponse(page), nil
}

func (s *Service) pageRequest(q ListOrdersQuery) (domain.PageRequest, error) {
	verr := &domain.ValidationError{}

	if q.Page < 0 {
		verr.Add("page", "must be greater than or equal to 0")
	}
	if q.Size < 1 || q.Size > s.cfg.MaxPageSize {
		verr.Add("size", fmt.Sprintf("must be between 1 and %d", s.cfg.MaxPageSize))
	}

	sortBy := strings.TrimSpace(q.SortBy)
	if sortBy == "" {
		sortBy = string(domain.SortByCreatedAt)
	}
	field, err := domain.ParseSortField(sortBy)
	if err != nil {
		verr.Add("sortBy", "unsupported sort field")
	}
	if q.MinPrice != nil && q.MinPrice.IsNegative() {
		verr.Add("minPrice", msgMinZero)
	}
	if q.MinQuantity != nil && *q.MinQuantity < 1 {
		verr.Add("minQuantity", msgMinOne)
	}
	if q.CreatedFrom != nil && q.CreatedTo != nil && q.CreatedTo.Before(*q.CreatedFrom) {
		verr.Add("createdTo", "must not be before createdFrom")
	}
	if !verr.Empty() {
		return domain.PageRequest{}, verr
	}

	req := domain.PageRequest{
		Page:      q.Page,
		Size:      q.Size,
		Sort:      field,
		Direction: domain.ParseDirection(q.Direction),
	}
	if name := strings.TrimSpace(q.ProductName); name != "" {
		req.Filters = append(req.Filters, domain.ProductNameEquals(name))
	}
	if q.MinPrice != nil {
		req.Filters = append(req.Filters, domain.PriceAtLeast(*q.MinPrice))
	}
	if q.MinQuantity != nil {
		req.Filters = append(req.Filters, domain.QuantityAtLeast(*q.MinQuantity))
	}
	if q.CreatedFrom != nil || q.CreatedTo != nil {
		from, to := createdRangeStart, createdRangeEnd
		if q.CreatedFrom != nil {
			from = q.CreatedFrom.UTC()
		}
		if q.CreatedTo != nil {
			to = q.CreatedTo.UTC()
		}
		req.Filters = append(req.Filters, domain.CreatedBetween(from, to))
	}
	return req, nil
}

// notify отправляет уведомление; ошибка доставки не влияет на результат операции.
func (s *Service) notify(ctx context.Context, message string) {
	if err := s.notifier.Notify(ctx, message); err != nil {
		s.metrics.RecordNotificationFailed()
		s.logger.WithError(err).WithField("message", message).Warn("notification failed")
	}
}
