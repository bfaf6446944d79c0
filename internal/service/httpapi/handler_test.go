package httpapi_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/vladislavdragonenkov/orderdal/internal/service/httpapi"
	"github.com/vladislavdragonenkov/orderdal/internal/storage/memory"
)

var fixtureNow = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

type testServer struct {
	router *mux.Router
	spans  *tracetest.SpanRecorder
}

func newTestServer(t *testing.T) testServer {
	t.Helper()

	fixtures, err := memory.DefaultFixtures(fixtureNow)
	require.NoError(t, err)
	store := memory.NewStore(fixtures)

	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	entry := logrus.NewEntry(logger)

	repo := memory.NewOrderRepository(store,
		memory.WithLogger(entry),
		memory.WithCustomers(memory.NewCustomerRepository(store, entry)),
		memory.WithOrderItems(memory.NewOrderItemRepository(store, entry)),
	)

	spans := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(spans))

	router := mux.NewRouter()
	httpapi.NewHandler(repo, entry, tp).Register(router)
	return testServer{router: router, spans: spans}
}

func (s testServer) do(t *testing.T, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func TestListOrders(t *testing.T) {
	srv := newTestServer(t)

	w := srv.do(t, http.MethodGet, "/api/v1/orders", "")
	require.Equal(t, http.StatusOK, w.Code)

	var orders []map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &orders))
	require.Len(t, orders, 3)
	require.Equal(t, float64(1), orders[0]["id"])
}

func TestListOrderInfo_Paging(t *testing.T) {
	srv := newTestServer(t)

	w := srv.do(t, http.MethodGet, "/api/v1/orders/info?start=1&page_size=5", "")
	require.Equal(t, http.StatusOK, w.Code)

	var infos []map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &infos))
	require.Len(t, infos, 2)
	require.Equal(t, float64(2), infos[0]["order_id"])
	require.Equal(t, "Back Ordered", infos[0]["status"])
	require.Equal(t, float64(109700), infos[0]["total_minor"])
}

func TestListOrderInfo_BadQuery(t *testing.T) {
	srv := newTestServer(t)

	w := srv.do(t, http.MethodGet, "/api/v1/orders/info?page_size=ten", "")
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetOrder(t *testing.T) {
	srv := newTestServer(t)

	w := srv.do(t, http.MethodGet, "/api/v1/orders/2", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.JSONEq(t, `{"id":2,"customer_id":2,"order_date":"`+fixtureNow.AddDate(0, -1, 0).Format(time.RFC3339Nano)+`"}`, w.Body.String())

	w = srv.do(t, http.MethodGet, "/api/v1/orders/404", "")
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestOrdersByCustomerAndProduct(t *testing.T) {
	srv := newTestServer(t)

	w := srv.do(t, http.MethodGet, "/api/v1/customers/3/orders", "")
	require.Equal(t, http.StatusOK, w.Code)
	var byCustomer []map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &byCustomer))
	require.Len(t, byCustomer, 1)

	w = srv.do(t, http.MethodGet, "/api/v1/products/3/orders", "")
	require.Equal(t, http.StatusOK, w.Code)
	var byProduct []map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &byProduct))
	require.Len(t, byProduct, 2)
}

func TestCreateUpdateDeleteOrder(t *testing.T) {
	srv := newTestServer(t)

	w := srv.do(t, http.MethodPost, "/api/v1/orders", `{"customer_id":1,"order_date":"2024-05-20T00:00:00Z"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	require.Equal(t, "/api/v1/orders/4", w.Header().Get("Location"))

	w = srv.do(t, http.MethodPut, "/api/v1/orders/4", `{"customer_id":2,"order_date":"2024-05-21T00:00:00Z"}`)
	require.Equal(t, http.StatusOK, w.Code)
	require.JSONEq(t, `{"id":4,"customer_id":2,"order_date":"2024-05-21T00:00:00Z"}`, w.Body.String())

	w = srv.do(t, http.MethodDelete, "/api/v1/orders/4", "")
	require.Equal(t, http.StatusNoContent, w.Code)

	w = srv.do(t, http.MethodDelete, "/api/v1/orders/4", "")
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestCreateOrder_InvalidPayload(t *testing.T) {
	srv := newTestServer(t)

	w := srv.do(t, http.MethodPost, "/api/v1/orders", `{"customer":"x"}`)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUpdateOrder_NotFound(t *testing.T) {
	srv := newTestServer(t)

	w := srv.do(t, http.MethodPut, "/api/v1/orders/99", `{"customer_id":1}`)
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestListOrderInfo_BrokenCustomerReference(t *testing.T) {
	srv := newTestServer(t)

	w := srv.do(t, http.MethodPost, "/api/v1/orders", `{"customer_id":999,"order_date":"2024-05-20T00:00:00Z"}`)
	require.Equal(t, http.StatusCreated, w.Code)

	w = srv.do(t, http.MethodGet, "/api/v1/orders/info?start=0&page_size=10", "")
	require.Equal(t, http.StatusInternalServerError, w.Code)
	require.JSONEq(t, `{"error":"internal error"}`, w.Body.String())
}

func TestTraceMiddleware_UsesRouteTemplate(t *testing.T) {
	srv := newTestServer(t)

	srv.do(t, http.MethodGet, "/api/v1/orders/1", "")

	ended := srv.spans.Ended()
	require.Len(t, ended, 1)
	require.Equal(t, "GET /api/v1/orders/{id:[0-9]+}", ended[0].Name())
}
