package response

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/oksasatya/cep-users/pkg/apperror"
)

type APIResponse[T any] struct {
	Status    int         `json:"status"`
	Timestamp time.Time   `json:"timestamp"`
	RequestID string      `json:"request_id"`
	Success   bool        `json:"success"`
	Message   string      `json:"message"`
	Data      T           `json:"data,omitempty"`
	Meta      interface{} `json:"meta,omitempty"`
	Error     interface{} `json:"error,omitempty"`
}

// ErrorBody is the payload placed under "error" for failed requests
type ErrorBody struct {
	Code    string `json:"code"`
	Details any    `json:"details,omitempty"`
}

func Success[T any](ctx *gin.Context, status int, data T, message string, meta interface{}) APIResponse[T] {
	if status == 0 {
		status = http.StatusOK
	}
	res := APIResponse[T]{
		Status:    status,
		Timestamp: time.Now(),
		RequestID: ctx.GetString("request_id"),
		Success:   true,
		Message:   message,
		Data:      data,
		Meta:      meta,
	}
	ctx.JSON(status, res)
	return res
}

func Error[T any](ctx *gin.Context, status int, message string, err interface{}) APIResponse[T] {
	if status == 0 {
		status = http.StatusBadRequest
	}
	res := APIResponse[T]{
		Status:    status,
		Timestamp: time.Now(),
		RequestID: ctx.GetString("request_id"),
		Success:   false,
		Message:   message,
		Error:     err,
	}
	ctx.AbortWithStatusJSON(status, res)
	return res
}

// NoContent writes an empty 204
func NoContent(ctx *gin.Context) {
	ctx.Status(http.StatusNoContent)
}

// FromError renders err using its apperror kind. Errors without a kind are
// reported as a generic 500 so internals never leak to clients.
func FromError(ctx *gin.Context, err error) {
	ae, ok := apperror.As(err)
	if !ok || ae.Kind == apperror.KindUnknown {
		Error[any](ctx, http.StatusInternalServerError, "internal server error", ErrorBody{Code: apperror.KindUnknown.String()})
		return
	}
	Error[any](ctx, ae.Status(), ae.Message, ErrorBody{Code: ae.Kind.String(), Details: ae.Details})
}
