package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/roach88/workint/internal/provider"
)

// errorBody is the JSON body of every error response.
type errorBody struct {
	Status string      `json:"status"`
	Error  errorDetail `json:"error"`
}

type errorDetail struct {
	Code    provider.ErrorCode `json:"code"`
	Message string             `json:"message"`
}

// statusFor maps a provider error code to an HTTP status.
func statusFor(code provider.ErrorCode) int {
	switch code {
	case provider.CodeInvalidResource, provider.CodeResourceNotFound:
		return http.StatusNotFound
	case provider.CodeUnsupportedStreamType:
		return http.StatusNotAcceptable
	case provider.CodeMissingRequiredField, provider.CodeUnknownColumn,
		provider.CodeEmptyValues, provider.CodeInvalidValue, provider.CodeInvalidFilter:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// writeError aborts the request with the mapped status and error body.
func (s *Server) writeError(c *gin.Context, err error) {
	code := provider.Code(err)
	status := statusFor(code)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "path", c.Request.URL.Path, "error", err)
	}
	c.AbortWithStatusJSON(status, errorBody{
		Status: "error",
		Error:  errorDetail{Code: code, Message: err.Error()},
	})
}

// badRequest aborts with 400 for malformed input the provider never saw.
func (s *Server) badRequest(c *gin.Context, code provider.ErrorCode, err error) {
	c.AbortWithStatusJSON(http.StatusBadRequest, errorBody{
		Status: "error",
		Error:  errorDetail{Code: code, Message: err.Error()},
	})
}
