package adapter

import (
	"net/http"

	"mtogo/internal/pkg/constants"
	"mtogo/internal/service/order/domain"
)

// identityHeader 把调用方身份原样转发给下游
func identityHeader(caller domain.CallerIdentity) http.Header {
	h := http.Header{}
	if caller.Role != "" {
		h.Set(constants.HeaderUserRole, caller.Role)
	}
	if caller.UserID != "" {
		h.Set(constants.HeaderUserID, caller.UserID)
	}
	if caller.Email != "" {
		h.Set(constants.HeaderUserEmail, caller.Email)
	}
	return h
}
