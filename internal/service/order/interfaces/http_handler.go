// internal/service/order/interfaces/http_handler.go
package interfaces

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"mtogo/internal/pkg/constants"
	"mtogo/internal/pkg/logger"
	"mtogo/internal/service/order/application"
	"mtogo/internal/service/order/domain"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

const maxBodyBytes = 1 << 20

// OrderService 是 HTTP 层需要的应用服务能力
type OrderService interface {
	CreateOrder(ctx context.Context, cmd application.CreateOrderCommand) (*domain.Order, error)
	GetOrder(ctx context.Context, orderID string) (*domain.Order, error)
}

// OrderHandler 封装了订单服务的 HTTP 处理器
type OrderHandler struct {
	service OrderService
	tracer  trace.Tracer
}

// NewOrderHandler 创建一个新的 HTTP 处理器实例
func NewOrderHandler(service OrderService, tracer trace.Tracer) *OrderHandler {
	return &OrderHandler{service: service, tracer: tracer}
}

type callerKey struct{}

// RegisterRoutes 在 chi 路由上注册所有路由
func (h *OrderHandler) RegisterRoutes(r chi.Router) {
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	r.Get("/healthcheck", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/orders", func(r chi.Router) {
		r.Use(h.traceRequest, identity, requireCustomer)
		r.Post("/", h.createOrder)
		r.Get("/{id}", h.getOrder)
	})
}

// traceRequest 恢复上游链路并开启服务端 span
func (h *OrderHandler) traceRequest(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))
		ctx, span := h.tracer.Start(ctx, "http "+r.Method+" "+r.URL.Path, trace.WithSpanKind(trace.SpanKindServer))
		defer span.End()
		span.SetAttributes(
			attribute.String("http.method", r.Method),
			attribute.String("http.target", r.URL.Path),
		)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// identity 读取网关注入的调用方身份头
func identity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		caller := domain.CallerIdentity{
			Role:   r.Header.Get(constants.HeaderUserRole),
			UserID: r.Header.Get(constants.HeaderUserID),
			Email:  r.Header.Get(constants.HeaderUserEmail),
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), callerKey{}, caller)))
	})
}

func requireCustomer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if callerFrom(r.Context()).Role != constants.RoleCustomer {
			writeJSON(w, http.StatusForbidden, map[string]string{"message": "Access denied. Customer role required"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func callerFrom(ctx context.Context) domain.CallerIdentity {
	caller, _ := ctx.Value(callerKey{}).(domain.CallerIdentity)
	return caller
}

func (h *OrderHandler) createOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	span := trace.SpanFromContext(ctx)

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "Request body too large or unreadable"})
		return
	}

	req, fieldErrs, err := decodeCreateOrder(body)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": err.Error()})
		return
	}
	if len(fieldErrs) > 0 {
		span.SetStatus(codes.Error, "validation failed")
		writeJSON(w, http.StatusBadRequest, map[string]any{"errors": fieldErrs})
		return
	}

	order, err := h.service.CreateOrder(ctx, req.toCommand(callerFrom(ctx)))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		if isClientError(err) {
			writeJSON(w, http.StatusBadRequest, map[string]string{"message": "Failed to create order: " + err.Error()})
			return
		}
		logger.Ctx(ctx).Error().Err(err).Str("basket_id", req.BasketID).Msg("Create order failed")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"message": "Internal Server Error"})
		return
	}

	span.SetAttributes(attribute.String("order.id", order.ID))
	writeJSON(w, http.StatusCreated, map[string]any{
		"message": "Order created successfully",
		"order":   toOrderResponse(order),
	})
}

func (h *OrderHandler) getOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	orderID := chi.URLParam(r, "id")

	order, err := h.service.GetOrder(ctx, orderID)
	switch {
	case errors.Is(err, domain.ErrOrderNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "Order not found"})
		return
	case err != nil:
		logger.Ctx(ctx).Error().Err(err).Str("order_id", orderID).Msg("Get order failed")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"message": "Internal Server Error"})
		return
	}

	// 只能查看自己的订单
	if caller := callerFrom(ctx); caller.UserID == "" || order.CustomerID != caller.UserID {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "Order not found"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"order": toOrderResponse(order)})
}

// isClientError 判断是否是调用方可以修正的业务失败
func isClientError(err error) bool {
	return errors.Is(err, domain.ErrInvalidInput) ||
		errors.Is(err, domain.ErrBasketUnavailable) ||
		errors.Is(err, domain.ErrEmptyBasket) ||
		errors.Is(err, domain.ErrPaymentFailed)
}

type orderItemResponse struct {
	MenuID    string  `json:"menuId"`
	Title     string  `json:"title"`
	UnitPrice float64 `json:"unitPrice"`
	Quantity  int     `json:"quantity"`
}

type orderResponse struct {
	ID              string                 `json:"id"`
	CustomerID      string                 `json:"customerId"`
	RestaurantID    string                 `json:"restaurantId"`
	PaymentIntentID string                 `json:"paymentIntentId"`
	TotalAmount     float64                `json:"totalAmount"`
	Status          domain.Status          `json:"status"`
	Items           []orderItemResponse    `json:"items"`
	DeliveryAddress domain.DeliveryAddress `json:"deliveryAddress"`
	CreatedAt       time.Time              `json:"createdAt"`
	UpdatedAt       time.Time              `json:"updatedAt"`
}

func toOrderResponse(o *domain.Order) orderResponse {
	items := make([]orderItemResponse, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, orderItemResponse{
			MenuID:    it.MenuID,
			Title:     it.Title,
			UnitPrice: it.UnitPrice.InexactFloat64(),
			Quantity:  it.Quantity,
		})
	}
	return orderResponse{
		ID:              o.ID,
		CustomerID:      o.CustomerID,
		RestaurantID:    o.RestaurantID,
		PaymentIntentID: o.PaymentIntentID,
		TotalAmount:     o.TotalAmount.InexactFloat64(),
		Status:          o.Status,
		Items:           items,
		DeliveryAddress: o.DeliveryAddress,
		CreatedAt:       o.CreatedAt,
		UpdatedAt:       o.UpdatedAt,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
