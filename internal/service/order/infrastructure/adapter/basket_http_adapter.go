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

// BasketHTTPAdapter 实现了 port.BasketService 接口，购物车由餐厅服务托管。
type BasketHTTPAdapter struct {
	client *httpclient.Client
}

func NewBasketHTTPAdapter(client *httpclient.Client) *BasketHTTPAdapter {
	return &BasketHTTPAdapter{client: client}
}

type basketResponse struct {
	Basket *domain.Basket `json:"basket"`
}

func (a *BasketHTTPAdapter) GetBasket(ctx context.Context, caller domain.CallerIdentity, basketID string) (*domain.Basket, error) {
	var resp basketResponse
	err := a.client.CallService(ctx, constants.RestaurantService, httpclient.Request{
		Method: http.MethodGet,
		Path:   fmt.Sprintf(constants.BasketPath, url.PathEscape(basketID)),
		Header: identityHeader(caller),
	}, &resp)
	if err != nil {
		return nil, errors.Wrapf(err, "get basket %s", basketID)
	}
	if resp.Basket == nil {
		return nil, errors.Errorf("get basket %s: response has no basket", basketID)
	}
	return resp.Basket, nil
}

func (a *BasketHTTPAdapter) ClearBasket(ctx context.Context, caller domain.CallerIdentity, basketID string) error {
	err := a.client.CallService(ctx, constants.RestaurantService, httpclient.Request{
		Method: http.MethodDelete,
		Path:   fmt.Sprintf(constants.ClearBasketPath, url.PathEscape(basketID)),
		Header: identityHeader(caller),
	}, nil)
	return errors.Wrapf(err, "clear basket %s", basketID)
}
