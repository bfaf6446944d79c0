// Package httpapi публикует репозиторий заказов как JSON API.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/vladislavdragonenkov/orderdal/internal/domain"
)

const maxBodyBytes = 1 << 20

type orderDTO struct {
	ID         int64     `json:"id"`
	CustomerID int64     `json:"customer_id"`
	OrderDate  time.Time `json:"order_date"`
}

type orderInfoDTO struct {
	OrderID         int64     `json:"order_id"`
	OrderDate       time.Time `json:"order_date"`
	CustomerName    string    `json:"customer_name"`
	CustomerID      int64     `json:"customer_id"`
	TotalMinor      int64     `json:"total_minor"`
	Status          string    `json:"status"`
	HasShippedItems bool      `json:"has_shipped_items"`
}

type errorDTO struct {
	Error string `json:"error"`
}

// Handler обслуживает /api/v1.
type Handler struct {
	repo   domain.OrderDataProxy
	logger *log.Entry
	tracer trace.Tracer
}

// NewHandler создаёт обработчик. tp может быть nil.
func NewHandler(repo domain.OrderDataProxy, logger *log.Entry, tp trace.TracerProvider) *Handler {
	if logger == nil {
		logger = log.WithField("component", "http-api")
	}
	if tp == nil {
		tp = noop.NewTracerProvider()
	}
	return &Handler{
		repo:   repo,
		logger: logger,
		tracer: tp.Tracer("github.com/vladislavdragonenkov/orderdal/internal/service/httpapi"),
	}
}

// Register монтирует маршруты API на роутер.
func (h *Handler) Register(r *mux.Router) {
	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(h.traceMiddleware)

	api.HandleFunc("/orders", h.listOrders).Methods(http.MethodGet)
	api.HandleFunc("/orders", h.createOrder).Methods(http.MethodPost)
	api.HandleFunc("/orders/info", h.listOrderInfo).Methods(http.MethodGet)
	api.HandleFunc("/orders/{id:[0-9]+}", h.getOrder).Methods(http.MethodGet)
	api.HandleFunc("/orders/{id:[0-9]+}", h.updateOrder).Methods(http.MethodPut)
	api.HandleFunc("/orders/{id:[0-9]+}", h.deleteOrder).Methods(http.MethodDelete)
	api.HandleFunc("/customers/{id:[0-9]+}/orders", h.ordersByCustomer).Methods(http.MethodGet)
	api.HandleFunc("/products/{id:[0-9]+}/orders", h.ordersByProduct).Methods(http.MethodGet)
}

func (h *Handler) traceMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		name := r.Method + " " + r.URL.Path
		if route := mux.CurrentRoute(r); route != nil {
			if tpl, err := route.GetPathTemplate(); err == nil {
				name = r.Method + " " + tpl
			}
		}

		ctx, span := h.tracer.Start(r.Context(), name, trace.WithSpanKind(trace.SpanKindServer))
		defer span.End()

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r.WithContext(ctx))

		span.SetAttributes(
			attribute.String("http.request.method", r.Method),
			attribute.Int("http.response.status_code", rec.status),
		)
		if rec.status >= http.StatusInternalServerError {
			span.SetStatus(codes.Error, http.StatusText(rec.status))
		}
	})
}

func (h *Handler) listOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.repo.GetAll(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderDTOs(orders))
}

// listOrderInfo принимает start и page_size; по умолчанию отдаёт первую страницу.
func (h *Handler) listOrderInfo(w http.ResponseWriter, r *http.Request) {
	start, err := queryInt(r, "start", 0)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorDTO{Error: err.Error()})
		return
	}
	pageSize, err := queryInt(r, "page_size", domain.DefaultPageSize)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorDTO{Error: err.Error()})
		return
	}

	infos, err := h.repo.GetAllInfo(r.Context(), start, pageSize)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	out := make([]orderInfoDTO, 0, len(infos))
	for _, info := range infos {
		out = append(out, orderInfoDTO{
			OrderID:         info.OrderID,
			OrderDate:       info.OrderDate,
			CustomerName:    info.CustomerName,
			CustomerID:      info.CustomerID,
			TotalMinor:      info.TotalMinor,
			Status:          info.Status,
			HasShippedItems: info.HasShippedItems,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request) {
	order, err := h.repo.GetByID(r.Context(), pathID(r))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderDTO(order))
}

func (h *Handler) ordersByCustomer(w http.ResponseWriter, r *http.Request) {
	orders, err := h.repo.GetByCustomer(r.Context(), pathID(r))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderDTOs(orders))
}

func (h *Handler) ordersByProduct(w http.ResponseWriter, r *http.Request) {
	orders, err := h.repo.GetByProduct(r.Context(), pathID(r))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderDTOs(orders))
}

func (h *Handler) createOrder(w http.ResponseWriter, r *http.Request) {
	dto, ok := decodeOrder(w, r)
	if !ok {
		return
	}

	saved, err := h.repo.Insert(r.Context(), domain.Order{CustomerID: dto.CustomerID, OrderDate: dto.OrderDate})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	w.Header().Set("Location", "/api/v1/orders/"+strconv.FormatInt(saved.ID, 10))
	writeJSON(w, http.StatusCreated, toOrderDTO(saved))
}

// updateOrder берёт id из пути, id в теле игнорируется.
func (h *Handler) updateOrder(w http.ResponseWriter, r *http.Request) {
	dto, ok := decodeOrder(w, r)
	if !ok {
		return
	}

	saved, err := h.repo.Update(r.Context(), domain.Order{
		ID:         pathID(r),
		CustomerID: dto.CustomerID,
		OrderDate:  dto.OrderDate,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderDTO(saved))
}

func (h *Handler) deleteOrder(w http.ResponseWriter, r *http.Request) {
	if err := h.repo.Delete(r.Context(), pathID(r)); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case domain.IsNotFound(err):
		writeJSON(w, http.StatusNotFound, errorDTO{Error: err.Error()})
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		writeJSON(w, http.StatusServiceUnavailable, errorDTO{Error: err.Error()})
	default:
		h.logger.WithError(err).WithFields(log.Fields{
			"method": r.Method,
			"path":   r.URL.Path,
		}).Error("repository call failed")
		writeJSON(w, http.StatusInternalServerError, errorDTO{Error: "internal error"})
	}
}

func decodeOrder(w http.ResponseWriter, r *http.Request) (orderDTO, bool) {
	var dto orderDTO
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&dto); err != nil {
		writeJSON(w, http.StatusBadRequest, errorDTO{Error: "invalid order payload: " + err.Error()})
		return orderDTO{}, false
	}
	return dto, true
}

// pathID читает {id}; маршрут уже гарантирует, что это число.
func pathID(r *http.Request) int64 {
	id, _ := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	return id
}

func queryInt(r *http.Request, key string, fallback int) (int, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, errors.New(key + " must be an integer")
	}
	return v, nil
}

func toOrderDTO(o domain.Order) orderDTO {
	return orderDTO{ID: o.ID, CustomerID: o.CustomerID, OrderDate: o.OrderDate}
}

func toOrderDTOs(orders []domain.Order) []orderDTO {
	out := make([]orderDTO, 0, len(orders))
	for _, o := range orders {
		out = append(out, toOrderDTO(o))
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}
