package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"

	"github.com/omslab/ordercore/internal/metrics"
	"github.com/omslab/ordercore/internal/service/orders"
	"github.com/omslab/ordercore/internal/storage/memory"
)

func newTestRouter(t *testing.T) (http.Handler, *prometheus.Registry) {
	t.Helper()

	logger, _ := test.NewNullLogger()
	reg := prometheus.NewRegistry()
	svc := orders.NewService(memory.NewOrderRepository(), orders.Mapper{}, orders.Config{},
		orders.WithLogger(logger.WithField("component", "test")),
		orders.WithMetrics(metrics.NewOrderMetricsWithRegisterer(reg)),
	)
	router := NewRouter(svc, Config{
		Environment: "qa",
		Logger:      logger.WithField("component", "http"),
		Metrics:     metrics.NewHTTPMetricsWithRegisterer(reg),
	})
	return router, reg
}

func doRequest(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestCreateOrder_Created(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := doRequest(t, router, http.MethodPost, "/orders", `{"productName":"iPhone","quantity":2,"price":123000}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	require.Equal(t, "/orders/1", rec.Header().Get("Location"))

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, float64(1), body["orderId"])
	require.Equal(t, "iPhone", body["productName"])
	require.Equal(t, float64(2), body["quantity"])
	require.Equal(t, float64(123000), body["price"])
	require.Equal(t, "CREATED", body["status"])
	require.NotEmpty(t, body["createdAt"])
}

func TestCreateOrder_QuantityLimit(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := doRequest(t, router, http.MethodPost, "/orders", `{"productName":"iPhone","quantity":1000,"price":10}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	body := decodeError(t, rec)
	require.Equal(t, "ORD-4002", body["errorCode"])
	require.Equal(t, "Quantity exceeds allowed limit", body["message"])
	require.Equal(t, "/orders", body["path"])
	require.Nil(t, body["traceId"])
}

func TestCreateOrder_ValidationErrors(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := doRequest(t, router, http.MethodPost, "/orders", `{"productName":"  ","quantity":0}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	body := decodeError(t, rec)
	require.Equal(t, "ORD-4001", body["errorCode"])
	require.Equal(t, "Validation failed", body["message"])
	fields, ok := body["errors"].(map[string]any)
	require.True(t, ok, "errors map expected")
	require.Contains(t, fields, "productName")
	require.Contains(t, fields, "quantity")
	require.Contains(t, fields, "price")
}

func TestCreateOrder_MalformedJSON(t *testing.T) {
	router, _ := newTestRouter(t)

	for _, payload := range []string{`{"productName":`, `{"productName":"a","quantity":"two","price":1}`, `{} {}`} {
		rec := doRequest(t, router, http.MethodPost, "/orders", payload)
		require.Equal(t, http.StatusBadRequest, rec.Code, payload)
		require.Equal(t, "ORD-4004", decodeError(t, rec)["errorCode"], payload)
	}
}

func TestGetOrder_FoundAndMissing(t *testing.T) {
	router, _ := newTestRouter(t)

	created := doRequest(t, router, http.MethodPost, "/orders", `{"productName":"Book","quantity":1,"price":9.99}`)
	require.Equal(t, http.StatusCreated, created.Code)

	rec := doRequest(t, router, http.MethodGet, "/orders/1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var order map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &order))
	require.Equal(t, "Book", order["productName"])
	require.Equal(t, 9.99, order["price"])

	rec = doRequest(t, router, http.MethodGet, "/orders/42", "")
	require.Equal(t, http.StatusNotFound, rec.Code)
	body := decodeError(t, rec)
	require.Equal(t, "ORD-4041", body["errorCode"])
	require.Equal(t, "order not found with id: 42", body["message"])
	require.Equal(t, "/orders/42", body["path"])
}

func TestGetOrder_InvalidID(t *testing.T) {
	router, _ := newTestRouter(t)

	for _, target := range []string{"/orders/abc", "/orders/0", "/orders/-3"} {
		rec := doRequest(t, router, http.MethodGet, target, "")
		require.Equal(t, http.StatusBadRequest, rec.Code, target)
		require.Equal(t, "ORD-4001", decodeError(t, rec)["errorCode"], target)
	}
}

func TestListOrders_Paging(t *testing.T) {
	router, _ := newTestRouter(t)

	for _, name := range []string{"a", "b", "c"} {
		rec := doRequest(t, router, http.MethodPost, "/orders", `{"productName":"`+name+`","quantity":1,"price":1}`)
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	rec := doRequest(t, router, http.MethodGet, "/orders?page=0&size=2&sortBy=id&direction=asc", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var page orders.PageResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
	require.Equal(t, int64(3), page.TotalElements)
	require.Equal(t, 2, page.TotalPages)
	require.Equal(t, 0, page.PageNumber)
	require.Equal(t, 2, page.PageSize)
	require.Len(t, page.Content, 2)
	require.Equal(t, int64(1), page.Content[0].OrderID)
	require.Equal(t, int64(2), page.Content[1].OrderID)

	rec = doRequest(t, router, http.MethodGet, "/orders?productName=b", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
	require.Len(t, page.Content, 1)
	require.Equal(t, "b", page.Content[0].ProductName)
}

func TestListOrders_EmptyStore(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := doRequest(t, router, http.MethodGet, "/orders", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"content":[]`)
	require.Contains(t, rec.Body.String(), `"totalElements":0`)
}

func TestListOrders_InvalidQuery(t *testing.T) {
	router, _ := newTestRouter(t)

	for _, target := range []string{"/orders?page=x", "/orders?size=0", "/orders?sortBy=secret", "/orders?minPrice=abc"} {
		rec := doRequest(t, router, http.MethodGet, target, "")
		require.Equal(t, http.StatusBadRequest, rec.Code, target)
		require.Equal(t, "ORD-4001", decodeError(t, rec)["errorCode"], target)
	}
}

func TestHealthAndEnv(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := doRequest(t, router, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "OMS Service is up", rec.Body.String())

	rec = doRequest(t, router, http.MethodGet, "/env", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "Running in qa environment", rec.Body.String())
}

func TestRouter_RecordsHTTPMetrics(t *testing.T) {
	router, reg := newTestRouter(t)

	doRequest(t, router, http.MethodGet, "/orders/7", "")
	doRequest(t, router, http.MethodGet, "/orders/8", "")

	count, err := testutil.GatherAndCount(reg, "oms_http_requests_total")
	require.NoError(t, err)
	require.Equal(t, 1, count, "route label must use the pattern, not the raw path")
}

type brokenService struct{}

func (brokenService) CreateOrder(context.Context, orders.CreateOrderRequest) (orders.OrderResponse, error) {
	return orders.OrderResponse{}, errors.New("disk on fire")
}

func (brokenService) GetOrderByID(context.Context, int64) (orders.OrderResponse, error) {
	return orders.OrderResponse{}, errors.New("connection reset")
}

func (brokenService) GetOrders(context.Context, orders.ListOrdersQuery) (orders.PageResponse, error) {
	return orders.PageResponse{}, errors.New("timeout")
}

func (brokenService) DefaultPageSize() int { return 10 }

func TestUnexpectedErrorsAreMasked(t *testing.T) {
	logger, hook := test.NewNullLogger()
	router := NewRouter(brokenService{}, Config{Logger: logger.WithField("component", "http")})

	rec := doRequest(t, router, http.MethodGet, "/orders/1", "")
	require.Equal(t, http.StatusInternalServerError, rec.Code)

	body := decodeError(t, rec)
	require.Equal(t, "ORD-5001", body["errorCode"])
	require.Equal(t, "Unexpected error occurred", body["message"])
	require.NotContains(t, rec.Body.String(), "connection reset")

	var logged bool
	for _, entry := range hook.AllEntries() {
		if entry.Level == log.ErrorLevel {
			logged = true
		}
	}
	require.True(t, logged, "unexpected error must be logged at error level")
}

func TestListOrders_PageFarBeyondData(t *testing.T) {
	router, _ := newTestRouter(t)
	created := doRequest(t, router, http.MethodPost, "/orders", `{"productName":"a","quantity":1,"price":1}`)
	require.Equal(t, http.StatusCreated, created.Code)

	// page*size не помещается в int: должна вернуться пустая страница, а не первая и не 500
	for _, target := range []string{
		"/orders?page=3458764513820540928&size=4",
		"/orders?page=4611686018427387904&size=4",
		"/orders?page=9223372036854775807&size=100",
	} {
		rec := doRequest(t, router, http.MethodGet, target, "")
		require.Equal(t, http.StatusOK, rec.Code, target)

		var page orders.PageResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page), target)
		require.Empty(t, page.Content, target)
		require.Equal(t, int64(1), page.TotalElements, target)
		require.Equal(t, 1, page.TotalPages, target)
	}
}

func TestListOrders_CreatedRange(t *testing.T) {
	router, _ := newTestRouter(t)
	created := doRequest(t, router, http.MethodPost, "/orders", `{"productName":"a","quantity":1,"price":1}`)
	require.Equal(t, http.StatusCreated, created.Code)

	past := time.Now().Add(-time.Hour).UTC().Format(time.RFC3339)
	future := time.Now().Add(time.Hour).UTC().Format(time.RFC3339)

	cases := []struct {
		query string
		want  int64
	}{
		{query: "createdFrom=" + past, want: 1},
		{query: "createdTo=" + past, want: 0},
		{query: "createdFrom=" + future, want: 0},
		{query: "createdFrom=" + past + "&createdTo=" + future, want: 1},
	}
	for _, tc := range cases {
		rec := doRequest(t, router, http.MethodGet, "/orders?"+tc.query, "")
		require.Equal(t, http.StatusOK, rec.Code, tc.query)

		var page orders.PageResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
		require.Equal(t, tc.want, page.TotalElements, tc.query)
	}

	rec := doRequest(t, router, http.MethodGet, "/orders?createdFrom=yesterday", "")
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, decodeError(t, rec)["errors"], "createdFrom")

	rec = doRequest(t, router, http.MethodGet, "/orders?createdFrom="+future+"&createdTo="+past, "")
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, decodeError(t, rec)["errors"], "createdTo")
}

func TestRouter_UnknownRouteAndMethod(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := doRequest(t, router, http.MethodGet, "/customers", "")
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	body := decodeError(t, rec)
	require.Equal(t, CodeRouteNotFound, body["errorCode"])
	require.Equal(t, "No handler found for GET /customers", body["message"])
	require.Equal(t, "/customers", body["path"])

	rec = doRequest(t, router, http.MethodDelete, "/orders/1", "")
	require.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	body = decodeError(t, rec)
	require.Equal(t, CodeMethodNotAllowed, body["errorCode"])
	require.Equal(t, float64(http.StatusMethodNotAllowed), body["status"])
}

// panickingService падает в обработчике списка.
type panickingService struct{ brokenService }

func (panickingService) GetOrders(context.Context, orders.ListOrdersQuery) (orders.PageResponse, error) {
	var page *orders.PageResponse
	return *page, nil
}

func TestRouter_PanicBecomesStructuredError(t *testing.T) {
	logger, hook := test.NewNullLogger()
	router := NewRouter(panickingService{}, Config{Logger: logger.WithField("component", "http")})

	rec := doRequest(t, router, http.MethodGet, "/orders?page=1", "")
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	body := decodeError(t, rec)
	require.Equal(t, "ORD-5001", body["errorCode"])
	require.Equal(t, "Unexpected error occurred", body["message"])
	require.Equal(t, "/orders", body["path"])
	require.NotContains(t, rec.Body.String(), "nil pointer")

	var stack string
	for _, entry := range hook.AllEntries() {
		if entry.Level == log.ErrorLevel {
			stack, _ = entry.Data["stack"].(string)
		}
	}
	require.Contains(t, stack, "GetOrders", "panic stack must be logged")
}

func TestResponses_DoNotChangeGlobalDecimalFormat(t *testing.T) {
	require.False(t, decimal.MarshalJSONWithoutQuotes)
}
