package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vladislavdragonenkov/shop/internal/domain"
)

// errorResponse — единый формат тела ошибки.
type errorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"requestId,omitempty"`
}

func errorBody(c *gin.Context, message string) errorResponse {
	return errorResponse{
		Error:     message,
		RequestID: c.GetString(ctxKeyRequestID),
	}
}

// respondError переводит доменную ошибку в HTTP-статус.
func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	message := "internal server error"

	switch {
	case errors.Is(err, domain.ErrInvalidCredentials):
		status = http.StatusUnauthorized
		message = err.Error()
	case domain.IsNotFound(err):
		status = http.StatusNotFound
		message = err.Error()
	case domain.IsForbidden(err):
		status = http.StatusForbidden
		message = err.Error()
	case domain.IsConflict(err):
		status = http.StatusConflict
		message = err.Error()
	case domain.IsInvalid(err):
		status = http.StatusBadRequest
		message = err.Error()
	}

	c.AbortWithStatusJSON(status, errorBody(c, message))
}

// respondBadRequest отвечает 400 на ошибку разбора запроса.
func respondBadRequest(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, errorBody(c, message))
}
