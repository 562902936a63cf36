package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/omslab/ordercore/internal/domain"
	"github.com/omslab/ordercore/internal/service/orders"
)

// OrderService: операции над заказами, которые обслуживает REST API.
type OrderService interface {
	CreateOrder(ctx context.Context, req orders.CreateOrderRequest) (orders.OrderResponse, error)
	GetOrderByID(ctx context.Context, id int64) (orders.OrderResponse, error)
	GetOrders(ctx context.Context, q orders.ListOrdersQuery) (orders.PageResponse, error)
	DefaultPageSize() int
}

func (a *api) createOrder(w http.ResponseWriter, r *http.Request) {
	var req orders.CreateOrderRequest
	if err := decodeJSON(w, r, &req); err != nil {
		a.writeError(w, r, err)
		return
	}

	resp, err := a.orders.CreateOrder(r.Context(), req)
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	w.Header().Set("Location", fmt.Sprintf("/orders/%d", resp.OrderID))
	writeJSON(w, http.StatusCreated, resp)
}

func (a *api) getOrder(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		a.writeError(w, r, domain.NewValidationError("id", "must be a positive integer"))
		return
	}

	resp, err := a.orders.GetOrderByID(r.Context(), id)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (a *api) listOrders(w http.ResponseWriter, r *http.Request) {
	q, err := a.parseListQuery(r)
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	page, err := a.orders.GetOrders(r.Context(), q)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

// parseListQuery читает page, size, sortBy, direction и фильтры (productName, minPrice, minQuantity, createdFrom, createdTo).
// По умолчанию: page=0, size из настроек сервиса, sortBy=createdAt, direction=desc.
func (a *api) parseListQuery(r *http.Request) (orders.ListOrdersQuery, error) {
	values := r.URL.Query()
	verr := &domain.ValidationError{}

	q := orders.ListOrdersQuery{
		Page:        0,
		Size:        a.orders.DefaultPageSize(),
		SortBy:      string(domain.SortByCreatedAt),
		Direction:   string(domain.Desc),
		ProductName: strings.TrimSpace(values.Get("productName")),
	}

	if raw := values.Get("page"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			verr.Add("page", "must be an integer")
		}
		q.Page = n
	}
	if raw := values.Get("size"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			verr.Add("size", "must be an integer")
		}
		q.Size = n
	}
	if raw := values.Get("sortBy"); raw != "" {
		q.SortBy = raw
	}
	if raw := values.Get("direction"); raw != "" {
		q.Direction = raw
	}
	if raw := values.Get("minPrice"); raw != "" {
		d, err := decimal.NewFromString(raw)
		if err != nil {
			verr.Add("minPrice", "must be a decimal number")
		} else {
			q.MinPrice = &d
		}
	}
	if raw := values.Get("minQuantity"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			verr.Add("minQuantity", "must be an integer")
		} else {
			q.MinQuantity = &n
		}
	}

	q.CreatedFrom = parseTimeParam(verr, values.Get("createdFrom"), "createdFrom")
	q.CreatedTo = parseTimeParam(verr, values.Get("createdTo"), "createdTo")

	if !verr.Empty() {
		return orders.ListOrdersQuery{}, verr
	}
	return q, nil
}

// parseTimeParam разбирает метку времени RFC 3339; пустое значение означает отсутствие фильтра.
func parseTimeParam(verr *domain.ValidationError, raw, field string) *time.Time {
	if raw == "" {
		return nil
	}
	ts, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		verr.Add(field, "must be an RFC 3339 timestamp")
		return nil
	}
	return &ts
}

func (a *api) health(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OMS Service is up"))
}

func (a *api) env(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = fmt.Fprintf(w, "Running in %s environment", a.environment)
}
