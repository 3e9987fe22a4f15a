package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/samvad-hq/item-relay/internal/remote"
	"github.com/samvad-hq/item-relay/pkg/itemjson"
	"github.com/samvad-hq/item-relay/pkg/uri"
)

type errorResponse struct {
	Code           string `json:"code"`
	Message        string `json:"message"`
	UpstreamStatus *int   `json:"upstream_status,omitempty"`
}

// statusFor maps relay errors onto the inbound response.
func statusFor(err error) (int, errorResponse) {
	var (
		inputErr    *uri.CallerInputError
		dispatchErr *remote.DispatchError
		decodeErr   *itemjson.DecodeError
	)

	switch {
	case errors.As(err, &inputErr):
		return http.StatusBadRequest, errorResponse{Code: "bad_request", Message: err.Error()}
	case errors.As(err, &dispatchErr):
		upstream := dispatchErr.Status
		if dispatchErr.Timeout() {
			return http.StatusGatewayTimeout, errorResponse{Code: "upstream_timeout", Message: err.Error(), UpstreamStatus: &upstream}
		}
		return http.StatusBadGateway, errorResponse{Code: "upstream_error", Message: err.Error(), UpstreamStatus: &upstream}
	case errors.As(err, &decodeErr):
		return http.StatusBadGateway, errorResponse{Code: "upstream_contract_violation", Message: err.Error()}
	default:
		return http.StatusInternalServerError, errorResponse{Code: "internal_error", Message: err.Error()}
	}
}

func writeError(c *gin.Context, err error) {
	status, body := statusFor(err)
	_ = c.Error(err)
	c.AbortWithStatusJSON(status, body)
}
