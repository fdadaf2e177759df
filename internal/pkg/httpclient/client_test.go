package httpclient

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"
)

func newTestClient(srv *httptest.Server, timeout time.Duration) *Client {
	return NewClient(noop.NewTracerProvider().Tracer("test"), StaticResolver{"svc": srv.URL}, timeout)
}

func TestCallService_DecodesJSONAndForwardsHeaders(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/things", r.URL.Path)
		assert.Equal(t, "customer", r.Header.Get("x-user-role"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var in map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		assert.Equal(t, "v", in["k"])

		_ = json.NewEncoder(w).Encode(map[string]string{"id": "t1"})
	}))
	defer srv.Close()

	var out struct {
		ID string `json:"id"`
	}
	err := newTestClient(srv, time.Second).CallService(context.Background(), "svc", Request{
		Method: http.MethodPost,
		Path:   "/api/things",
		Header: http.Header{"x-user-role": []string{"customer"}},
		Body:   map[string]string{"k": "v"},
	}, &out)

	require.NoError(t, err)
	assert.Equal(t, "t1", out.ID)
}

func TestCallService_NonSuccessCarriesRemoteMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"message":"Basket not found"}`))
	}))
	defer srv.Close()

	err := newTestClient(srv, time.Second).CallService(context.Background(), "svc", Request{Method: http.MethodGet, Path: "/x"}, nil)

	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusNotFound, statusErr.StatusCode)
	assert.Equal(t, "Basket not found", statusErr.Message)
	assert.Contains(t, err.Error(), "Basket not found")
}

func TestCallService_NonJSONErrorFallsBackToStatusText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	defer srv.Close()

	err := newTestClient(srv, time.Second).CallService(context.Background(), "svc", Request{Method: http.MethodGet, Path: "/x"}, nil)

	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, "502 Bad Gateway", statusErr.Message)
}

func TestCallService_TimeoutIsAnError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	err := newTestClient(srv, 50*time.Millisecond).CallService(context.Background(), "svc", Request{Method: http.MethodGet, Path: "/slow"}, nil)

	require.Error(t, err)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}

func TestCallService_UnknownService(t *testing.T) {
	c := NewClient(noop.NewTracerProvider().Tracer("test"), StaticResolver{}, time.Second)

	err := c.CallService(context.Background(), "ghost", Request{Method: http.MethodGet, Path: "/"}, nil)

	assert.ErrorContains(t, err, "ghost")
}
