package resputil

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/grad-lab/capstone-backend/pkg/apperror"
)

// Response is the envelope every endpoint returns.
type Response[T any] struct {
	Code ErrorCode `json:"code"`
	Data T         `json:"data"`
	Msg  string    `json:"msg"`
}

func Success[T any](c *gin.Context, data T) {
	c.JSON(http.StatusOK, Response[T]{
		Code: OK,
		Data: data,
		Msg:  "",
	})
}

func HTTPError(c *gin.Context, statusCode int, msg string, code ErrorCode) {
	c.JSON(statusCode, Response[any]{
		Code: code,
		Data: nil,
		Msg:  msg,
	})
}

func Error(c *gin.Context, msg string, code ErrorCode) {
	HTTPError(c, http.StatusInternalServerError, msg, code)
}

func BadRequestError(c *gin.Context, msg string) {
	HTTPError(c, http.StatusBadRequest, msg, InvalidRequest)
}

// WrapServiceError renders a workflow/grading error with the HTTP status and
// code matching its kind. Unknown errors become a 500.
func WrapServiceError(c *gin.Context, err error) {
	switch apperror.KindOf(err) {
	case apperror.KindValidation:
		HTTPError(c, http.StatusBadRequest, err.Error(), InvalidRequest)
	case apperror.KindForbidden:
		HTTPError(c, http.StatusForbidden, err.Error(), PermissionDenied)
	case apperror.KindNotFound:
		HTTPError(c, http.StatusNotFound, err.Error(), NotFound)
	case apperror.KindConflict:
		HTTPError(c, http.StatusConflict, err.Error(), Conflict)
	case apperror.KindInvalidTransition:
		HTTPError(c, http.StatusUnprocessableEntity, err.Error(), InvalidTransition)
	case apperror.KindInvalidState:
		HTTPError(c, http.StatusUnprocessableEntity, err.Error(), InvalidState)
	default:
		Error(c, err.Error(), NotSpecified)
	}
}
