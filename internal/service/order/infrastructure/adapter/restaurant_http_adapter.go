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

// RestaurantHTTPAdapter 实现了 port.RestaurantService 接口。
type RestaurantHTTPAdapter struct {
	client *httpclient.Client
}

func NewRestaurantHTTPAdapter(client *httpclient.Client) *RestaurantHTTPAdapter {
	return &RestaurantHTTPAdapter{client: client}
}

func (a *RestaurantHTTPAdapter) GetRestaurant(ctx context.Context, restaurantID string) (*domain.Restaurant, error) {
	var resp struct {
		Restaurant *domain.Restaurant `json:"restaurant"`
	}
	err := a.client.CallService(ctx, constants.RestaurantService, httpclient.Request{
		Method: http.MethodGet,
		Path:   fmt.Sprintf(constants.RestaurantPath, url.PathEscape(restaurantID)),
	}, &resp)
	if err != nil {
		return nil, errors.Wrapf(err, "get restaurant %s", restaurantID)
	}
	if resp.Restaurant == nil {
		return nil, errors.Errorf("get restaurant %s: response has no restaurant", restaurantID)
	}
	return resp.Restaurant, nil
}
