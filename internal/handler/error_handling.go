package handler

import (
	"errors"
	"net/http"

	"worldforge/shared/middleware"
	"worldforge/shared/models"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// modelUnavailableMessage replaces upstream model errors in responses; the
// underlying error is logged instead.
const modelUnavailableMessage = "The model returned no usable output. Please try again."

// errorStatus maps a service error to its HTTP status and response body.
func errorStatus(err error) (int, models.ErrorResponse) {
	switch {
	case errors.Is(err, models.ErrNotFound):
		return http.StatusNotFound, models.ErrorResponse{Code: models.ErrCodeNotFound, Message: err.Error()}
	case errors.Is(err, models.ErrInvalidYears):
		return http.StatusBadRequest, models.ErrorResponse{Code: models.ErrCodeValidation, Message: err.Error()}
	case errors.Is(err, models.ErrInvalidInput), errors.Is(err, models.ErrUnknownBoon):
		return http.StatusBadRequest, models.ErrorResponse{Code: models.ErrCodeValidation, Message: err.Error()}
	case errors.Is(err, models.ErrBadRequest):
		return http.StatusBadRequest, models.ErrorResponse{Code: models.ErrCodeBadRequest, Message: err.Error()}
	case errors.Is(err, models.ErrAdvanceInProgress):
		return http.StatusConflict, models.ErrorResponse{Code: models.ErrCodeAdvanceInProgress, Message: err.Error()}
	case errors.Is(err, models.ErrAlreadyExists):
		return http.StatusConflict, models.ErrorResponse{Code: models.ErrCodeConflict, Message: err.Error()}
	case errors.Is(err, models.ErrNameCollision):
		return http.StatusConflict, models.ErrorResponse{Code: models.ErrCodeNameCollision, Message: err.Error()}
	case errors.Is(err, models.ErrInsufficientPoints):
		return http.StatusPaymentRequired, models.ErrorResponse{Code: models.ErrCodeInsufficientPoints, Message: err.Error()}
	case errors.Is(err, models.ErrModelUnavailable):
		return http.StatusBadGateway, models.ErrorResponse{Code: models.ErrCodeModelUnavailable, Message: modelUnavailableMessage}
	default:
		return http.StatusInternalServerError, models.ErrorResponse{Code: models.ErrCodeInternal, Message: "An unexpected internal error occurred"}
	}
}

func handleServiceError(c *gin.Context, err error, logger *zap.Logger) {
	status, resp := errorStatus(err)
	log := logger.With(
		zap.String("request_id", c.GetString(middleware.RequestIDKey)),
		zap.String("path", c.FullPath()),
	)
	if status >= http.StatusInternalServerError {
		log.Error("Request failed", zap.Error(err))
	} else {
		log.Debug("Request rejected", zap.Int("status", status), zap.Error(err))
	}
	_ = c.Error(err)
	c.AbortWithStatusJSON(status, resp)
}
