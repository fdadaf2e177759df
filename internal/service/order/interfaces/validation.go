package interfaces

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"mtogo/internal/service/order/application"
	"mtogo/internal/service/order/domain"

	"github.com/go-playground/validator/v10"
)

const (
	msgBasketIDRequired = "Basket ID required"
	msgInvalidAddress   = "Invalid delivery address. Required fields: street, city, zip. Optional field: floor"
	msgInvalidPayment   = "Invalid payment method object. Required fields method. Currently supported payment methods: MASTER_CARD & VISA"
)

// createOrderRequest 是 POST /api/orders 的请求体
type createOrderRequest struct {
	BasketID        string                  `json:"basketId" validate:"required"`
	DeliveryAddress *deliveryAddressRequest `json:"deliveryAddress" validate:"required"`
	Payment         *paymentRequest         `json:"payment" validate:"required"`
}

type deliveryAddressRequest struct {
	RecipientName string `json:"recipientName"`
	Street        string `json:"street" validate:"required"`
	City          string `json:"city" validate:"required"`
	Zip           string `json:"zip" validate:"required"`
	Floor         string `json:"floor"`
}

type paymentRequest struct {
	Method string `json:"method" validate:"required,oneof=MASTER_CARD VISA"`
}

// FieldError 对应响应中的 {field, message}
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// 错误里使用 JSON 字段名
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// decodeCreateOrder 解析并校验请求体。返回的 FieldError 非空时应以 400 响应。
func decodeCreateOrder(body []byte) (*createOrderRequest, []FieldError, error) {
	var req createOrderRequest
	if err := json.Unmarshal(body, &req); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return nil, []FieldError{typeMismatch(typeErr)}, nil
		}
		return nil, nil, fmt.Errorf("%w: malformed JSON body", domain.ErrInvalidInput)
	}

	if err := validate.Struct(&req); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return nil, nil, err
		}
		out := make([]FieldError, 0, len(verrs))
		for _, fe := range verrs {
			out = append(out, toFieldError(fe))
		}
		return nil, out, nil
	}
	return &req, nil, nil
}

func toFieldError(fe validator.FieldError) FieldError {
	field := fe.Namespace()
	if i := strings.Index(field, "."); i >= 0 {
		field = field[i+1:]
	}
	return FieldError{Field: field, Message: messageFor(field, fe)}
}

func messageFor(field string, fe validator.FieldError) string {
	switch field {
	case "basketId":
		return msgBasketIDRequired
	case "deliveryAddress":
		return msgInvalidAddress
	case "deliveryAddress.street":
		return "Street required"
	case "deliveryAddress.city":
		return "City required"
	case "deliveryAddress.zip":
		return "ZIP required"
	case "payment":
		return msgInvalidPayment
	case "payment.method":
		if fe.Tag() == "oneof" {
			return fmt.Sprintf("Invalid enum value. Expected 'MASTER_CARD' | 'VISA', received '%v'", fe.Value())
		}
		return msgInvalidPayment
	}
	return fmt.Sprintf("%s is invalid", field)
}

// typeMismatch 处理类型不符的字段，例如 deliveryAddress 传成了字符串
func typeMismatch(err *json.UnmarshalTypeError) FieldError {
	field := err.Field
	switch {
	case field == "basketId":
		return FieldError{Field: field, Message: msgBasketIDRequired}
	case strings.HasPrefix(field, "deliveryAddress"):
		return FieldError{Field: field, Message: msgInvalidAddress}
	case strings.HasPrefix(field, "payment"):
		return FieldError{Field: field, Message: msgInvalidPayment}
	}
	return FieldError{Field: field, Message: fmt.Sprintf("Expected %s", err.Type)}
}

func (r *createOrderRequest) toCommand(caller domain.CallerIdentity) application.CreateOrderCommand {
	return application.CreateOrderCommand{
		Caller:   caller,
		BasketID: r.BasketID,
		DeliveryAddress: domain.DeliveryAddress{
			Street:        r.DeliveryAddress.Street,
			City:          r.DeliveryAddress.City,
			Zip:           r.DeliveryAddress.Zip,
			Floor:         r.DeliveryAddress.Floor,
			RecipientName: r.DeliveryAddress.RecipientName,
		},
		PaymentMethod: domain.PaymentMethod(r.Payment.Method),
	}
}
