package controller

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"relaychat/service"
)

func statusFor(err error) int {
	var (
		validationErr *service.ValidationError
		notFoundErr   *service.NotFoundError
		providerErr   *service.ProviderNotSupportedError
	)
	switch {
	case errors.As(err, &validationErr):
		return http.StatusBadRequest
	case errors.As(err, &notFoundErr), errors.As(err, &providerErr):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func abortWithError(c *gin.Context, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		logger.Errorf("[%s] %s", c.GetString("requestId"), err)
	} else {
		logger.Warnf("[%s] %s", c.GetString("requestId"), err)
	}
	c.AbortWithStatusJSON(status, gin.H{"error": err.Error()})
}
