package helper

import (
	"net/http"

	types "voice-order/internal/common/type"
	"voice-order/internal/pkg/logger"
)

// ParseResponse fills in a default message and logs server-side failures.
func ParseResponse(r *types.Response) *types.Response {
	if r.Code == 0 {
		r.Code = http.StatusOK
		if r.Error != nil {
			r.Code = http.StatusInternalServerError
		}
	}
	if r.Message == "" {
		r.Message = http.StatusText(r.Code)
	}
	if r.Error != nil && r.Code >= http.StatusInternalServerError {
		logger.Error.Printf("%s: %v", r.Message, r.Error)
	}
	return r
}

// ToResponseAPI renders a service response as the wire envelope. Server-side
// error details never leave the process.
func ToResponseAPI(r *types.Response) types.ResponseAPI {
	res := types.ResponseAPI{
		Status:  r.Code,
		Message: r.Message,
		Data:    r.Data,
	}
	if r.Error != nil && r.Code < http.StatusInternalServerError {
		res.Error = r.Error.Error()
	}
	return res
}
