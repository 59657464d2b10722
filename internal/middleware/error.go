package middleware

import (
	"errors"

	"github.com/GoPolymarket/vesu-deployer/internal/pkg/apperrors"
	"github.com/GoPolymarket/vesu-deployer/internal/pkg/logger"
	"github.com/gin-gonic/gin"
)

// errorBody is an AppError plus the request ID, so a failed inspector call
// can be matched to its log line.
type errorBody struct {
	*apperrors.AppError
	RequestID string `json:"request_id,omitempty"`
}

// ErrorHandler renders the last c.Error as JSON. Errors that are not
// AppErrors become INTERNAL_ERROR.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}

		err := c.Errors.Last().Err
		var appErr *apperrors.AppError
		if !errors.As(err, &appErr) {
			appErr = apperrors.New(apperrors.ErrInternal, err.Error(), err)
		}

		reqID := c.GetString(ContextRequestID)
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		fields := []any{
			"request_id", reqID,
			"route", route,
			"params", c.Params,
			"code", appErr.Type,
		}
		// upstream RPC failures land here as 5xx
		if appErr.HTTPStatus >= 500 {
			logger.LogError(c.Request.Context(), appErr, "Inspector request failed", fields...)
		} else {
			logger.Warn(appErr.Message, fields...)
		}

		if c.Writer.Written() {
			return
		}
		c.JSON(appErr.HTTPStatus, errorBody{AppError: appErr, RequestID: reqID})
	}
}
