package adapter

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"mtogo/internal/pkg/constants"
	"mtogo/internal/pkg/httpclient"
	"mtogo/internal/service/order/domain"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"
)

var caller = domain.CallerIdentity{Role: "customer", UserID: "cust-1", Email: "ann@example.com"}

func newClient(t *testing.T, handler http.HandlerFunc) *httpclient.Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	resolver := httpclient.StaticResolver{
		constants.RestaurantService: srv.URL,
		constants.PaymentService:    srv.URL,
		constants.DeliveryService:   srv.URL,
	}
	return httpclient.NewClient(noop.NewTracerProvider().Tracer("test"), resolver, time.Second)
}

func TestBasketAdapter_GetBasket(t *testing.T) {
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/basket/b-1", r.URL.Path)
		assert.Equal(t, "customer", r.Header.Get(constants.HeaderUserRole))
		assert.Equal(t, "cust-1", r.Header.Get(constants.HeaderUserID))
		assert.Equal(t, "ann@example.com", r.Header.Get(constants.HeaderUserEmail))
		_, _ = w.Write([]byte(`{"basket":{"id":"b-1","customerId":"cust-1","restaurantId":"r-1",
			"items":[{"menuId":"m-1","title":"Pizza","price":10.5,"quantity":2}]}}`))
	})

	basket, err := NewBasketHTTPAdapter(client).GetBasket(context.Background(), caller, "b-1")

	require.NoError(t, err)
	assert.Equal(t, "r-1", basket.RestaurantID)
	require.Len(t, basket.Items, 1)
	assert.True(t, decimal.RequireFromString("10.5").Equal(basket.Items[0].Price))
	assert.Equal(t, "21", basket.Total().String())
}

func TestBasketAdapter_NotFoundCarriesRemoteMessage(t *testing.T) {
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"message":"Basket not found"}`))
	})

	_, err := NewBasketHTTPAdapter(client).GetBasket(context.Background(), caller, "b-404")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "Basket not found")
	var statusErr *httpclient.StatusError
	assert.True(t, errors.As(err, &statusErr))
}

func TestBasketAdapter_ClearBasket(t *testing.T) {
	called := false
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		called = true
		assert.Equal(t, http.MethodDelete, r.Method)
		assert.Equal(t, "/api/basket/b-1/clear", r.URL.Path)
		assert.Equal(t, "cust-1", r.Header.Get(constants.HeaderUserID))
		w.WriteHeader(http.StatusNoContent)
	})

	require.NoError(t, NewBasketHTTPAdapter(client).ClearBasket(context.Background(), caller, "b-1"))
	assert.True(t, called)
}

func TestPaymentAdapter_ProcessPayment(t *testing.T) {
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/payment/process", r.URL.Path)
		assert.Equal(t, "cust-1", r.Header.Get(constants.HeaderUserID))

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, 20.0, body["amount"])
		assert.Equal(t, map[string]any{"method": "VISA"}, body["payment"])
		address := body["address"].(map[string]any)
		assert.Equal(t, "Main 1", address["street"])

		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"payment":{"id":"pi_42"}}`))
	})

	receipt, err := NewPaymentHTTPAdapter(client).ProcessPayment(context.Background(), caller, domain.PaymentRequest{
		Amount:  decimal.NewFromInt(20),
		Address: domain.DeliveryAddress{Street: "Main 1", City: "Aarhus", Zip: "8000"},
		Method:  domain.PaymentVisa,
	})

	require.NoError(t, err)
	assert.Equal(t, "pi_42", receipt.PaymentIntentID)
}

func TestPaymentAdapter_Declined(t *testing.T) {
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusPaymentRequired)
		_, _ = w.Write([]byte(`{"message":"Card declined"}`))
	})

	_, err := NewPaymentHTTPAdapter(client).ProcessPayment(context.Background(), caller, domain.PaymentRequest{Amount: decimal.NewFromInt(1)})

	assert.ErrorContains(t, err, "Card declined")
}

func TestRestaurantAdapter_GetRestaurant(t *testing.T) {
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/restaurant/r-1", r.URL.Path)
		_, _ = w.Write([]byte(`{"restaurant":{"name":"Luigi's","phone":"+45 1234","street":"Side 2","city":"Aarhus","zip":"8000","x":56.1,"y":10.2}}`))
	})

	r, err := NewRestaurantHTTPAdapter(client).GetRestaurant(context.Background(), "r-1")

	require.NoError(t, err)
	assert.Equal(t, "Luigi's", r.Name)
	assert.Equal(t, 56.1, r.X)
}

func TestRestaurantAdapter_EmptyBodyIsError(t *testing.T) {
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	})

	_, err := NewRestaurantHTTPAdapter(client).GetRestaurant(context.Background(), "r-1")

	assert.ErrorContains(t, err, "no restaurant")
}

func TestDeliveryAdapter_GetDeliveryByOrder(t *testing.T) {
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/delivery/order/o-1", r.URL.Path)
		_, _ = w.Write([]byte(`{"delivery":{"id":"d-1","orderId":"o-1","courierId":"c-9","status":"DELIVERED","deliveredAt":"2026-01-02T15:04:05Z"}}`))
	})

	d, err := NewDeliveryHTTPAdapter(client).GetDeliveryByOrder(context.Background(), "o-1")

	require.NoError(t, err)
	assert.Equal(t, "c-9", d.CourierID)
	require.NotNil(t, d.DeliveredAt)
	assert.Equal(t, 2026, d.DeliveredAt.Year())
}

func TestDeliveryAdapter_ServerError(t *testing.T) {
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, err := NewDeliveryHTTPAdapter(client).GetDeliveryByOrder(context.Background(), "o-1")

	var statusErr *httpclient.StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusInternalServerError, statusErr.StatusCode)
}
