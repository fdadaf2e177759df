package adapter

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"mtogo/internal/pkg/constants"
	"mtogo/internal/pkg/httpclient"
	"mtogo/internal/service/order/domain"

	"github.com/pkg/errors"
)

// DeliveryHTTPAdapter 实现了 port.DeliveryService 接口。
type DeliveryHTTPAdapter struct {
	client *httpclient.Client
}

func NewDeliveryHTTPAdapter(client *httpclient.Client) *DeliveryHTTPAdapter {
	return &DeliveryHTTPAdapter{client: client}
}

func (a *DeliveryHTTPAdapter) GetDeliveryByOrder(ctx context.Context, orderID string) (*domain.Delivery, error) {
	var resp struct {
		Delivery *domain.Delivery `json:"delivery"`
	}
	err := a.client.CallService(ctx, constants.DeliveryService, httpclient.Request{
		Method: http.MethodGet,
		Path:   fmt.Sprintf(constants.DeliveryByOrderPath, url.PathEscape(orderID)),
	}, &resp)
	if err != nil {
		return nil, errors.Wrapf(err, "get delivery for order %s", orderID)
	}
	if resp.Delivery == nil {
		return nil, errors.Errorf("get delivery for order %s: response has no delivery", orderID)
	}
	return resp.Delivery, nil
}
