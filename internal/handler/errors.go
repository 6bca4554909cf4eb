package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prperemyshlev/reply-assistant/internal/dto"
	"github.com/prperemyshlev/reply-assistant/internal/service"
)

var kindStatus = map[service.ErrorKind]int{
	service.KindValidation:      http.StatusBadRequest,
	service.KindAuthentication:  http.StatusUnauthorized,
	service.KindAuthorization:   http.StatusForbidden,
	service.KindNotFound:        http.StatusNotFound,
	service.KindConflict:        http.StatusConflict,
	service.KindExternalService: http.StatusBadGateway,
	service.KindConfiguration:   http.StatusInternalServerError,
	service.KindRateLimited:     http.StatusTooManyRequests,
}

// StatusFor maps a service error to its HTTP status
func StatusFor(err error) int {
	if status, ok := kindStatus[service.KindOf(err)]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// respondError writes err as a dto.ErrorResponse. Internal errors are not echoed.
func respondError(c *gin.Context, err error) {
	_ = c.Error(err)

	status := StatusFor(err)
	message := "internal server error"

	var svcErr *service.Error
	if errors.As(err, &svcErr) && svcErr.Kind != service.KindInternal {
		message = svcErr.Message
	}

	c.JSON(status, dto.ErrorResponse{
		Error:   http.StatusText(status),
		Message: message,
	})
}

// abortWithError responds like respondError and stops the handler chain
func abortWithError(c *gin.Context, err error) {
	respondError(c, err)
	c.Abort()
}

// respondBindError reports a request body that failed binding or validation
func respondBindError(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, dto.ErrorResponse{
		Error:   "Validation failed",
		Message: err.Error(),
	})
}
