package response

import (
	"fmt"
	"net/http"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Err struct {
	StatusCode int    `json:"status_code"`
	ErrorMsg   string `json:"error"`
	RequestID  string `json:"request_id,omitempty"`
}

func (e *Err) Error() string {
	return fmt.Sprintf("status_code=%v, error=%v, request_id=%v", e.StatusCode, e.ErrorMsg, e.RequestID)
}

func NewErr(statusCode int, err error) *Err {
	return &Err{
		StatusCode: statusCode,
		ErrorMsg:   err.Error(),
	}
}

func ErrBadRequest(err error) *Err {
	return NewErr(http.StatusBadRequest, err)
}

func ErrUnauthorized(err error) *Err {
	return NewErr(http.StatusUnauthorized, err)
}

func ErrPermissionDenied(err error) *Err {
	return NewErr(http.StatusForbidden, err)
}

func ErrNotFound(resource, key string, value any) *Err {
	return NewErr(http.StatusNotFound, fmt.Errorf("%v not found by %v (%v)", resource, key, value))
}

func ErrConflict(err error) *Err {
	return NewErr(http.StatusConflict, err)
}

func ErrUnprocessable(err error) *Err {
	return NewErr(http.StatusUnprocessableEntity, err)
}

// ErrInternalServerError logs the real cause and returns an opaque
// message, so internals never leak to the client.
func ErrInternalServerError(err error) *Err {
	zap.L().Error("internal server error", zap.Error(err))

	return &Err{
		StatusCode: http.StatusInternalServerError,
		ErrorMsg:   "internal server error",
	}
}

func RenderErr(ctx *gin.Context, err *Err) {
	err.RequestID = requestid.Get(ctx)

	ctx.AbortWithStatusJSON(err.StatusCode, err)
}
