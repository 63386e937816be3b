// Package httputil provides shared HTTP response helpers.
package httputil

import "github.com/gin-gonic/gin"

// errorBody is the error envelope every non-2xx JSON response carries.
// RequestID echoes the id assigned by the request ID middleware so clients
// can quote it when reporting problems.
type errorBody struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

// RespondError writes a standardized JSON error response and aborts the request.
func RespondError(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, errorBody{
		Code:      code,
		Message:   message,
		RequestID: c.GetString("request_id"),
	})
}
