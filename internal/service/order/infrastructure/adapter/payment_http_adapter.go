package adapter

import (
	"context"
	"net/http"

	"mtogo/internal/pkg/constants"
	"mtogo/internal/pkg/httpclient"
	"mtogo/internal/service/order/domain"

	"github.com/pkg/errors"
)

// PaymentHTTPAdapter 实现了 port.PaymentService 接口。
type PaymentHTTPAdapter struct {
	client *httpclient.Client
}

func NewPaymentHTTPAdapter(client *httpclient.Client) *PaymentHTTPAdapter {
	return &PaymentHTTPAdapter{client: client}
}

type paymentRequestBody struct {
	Amount  float64                `json:"amount"`
	Address domain.DeliveryAddress `json:"address"`
	Payment paymentMethodBody      `json:"payment"`
}

type paymentMethodBody struct {
	Method domain.PaymentMethod `json:"method"`
}

type paymentResponse struct {
	Payment struct {
		ID string `json:"id"`
	} `json:"payment"`
}

func (a *PaymentHTTPAdapter) ProcessPayment(ctx context.Context, caller domain.CallerIdentity, req domain.PaymentRequest) (*domain.PaymentReceipt, error) {
	var resp paymentResponse
	err := a.client.CallService(ctx, constants.PaymentService, httpclient.Request{
		Method: http.MethodPost,
		Path:   constants.PaymentProcessPath,
		Header: identityHeader(caller),
		Body: paymentRequestBody{
			Amount:  req.Amount.InexactFloat64(),
			Address: req.Address,
			Payment: paymentMethodBody{Method: req.Method},
		},
	}, &resp)
	if err != nil {
		return nil, errors.Wrap(err, "process payment")
	}
	return &domain.PaymentReceipt{PaymentIntentID: resp.Payment.ID}, nil
}
