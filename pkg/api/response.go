package api

import (
	"github.com/gin-gonic/gin"

	"github.com/huynhanx03/batch-ingestor/pkg/apperr"
)

// Application response codes.
const (
	CodeSuccess          = 0
	CodeParamInvalid     = 4001
	CodeQueueUnavailable = 5031
	CodeStoreUnavailable = 5032
	CodeInternalServer   = 5001
)

type errorBody struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// ErrorResponse renders an AppError with its HTTP status.
func ErrorResponse(c *gin.Context, err *apperr.AppError) {
	c.JSON(err.HTTPStatus, errorBody{Code: err.Code, Message: err.Message})
}

// SuccessResponse renders a payload with the given HTTP status.
func SuccessResponse(c *gin.Context, status int, payload any) {
	c.JSON(status, payload)
}
