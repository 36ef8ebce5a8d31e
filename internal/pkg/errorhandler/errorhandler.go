package errorhandler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/okcoin/okcoin-api/internal/pkg/apperr"
	"github.com/okcoin/okcoin-api/internal/pkg/logger"
	"github.com/okcoin/okcoin-api/internal/pkg/response"
)

const internalMessage = "An error occurred while processing the request. Please try again later."

// Handle writes err into the response envelope. Known kinds keep their
// message, anything else is logged and reported as an internal error.
func Handle(ctx context.Context, w http.ResponseWriter, op string, err error) {
	status, code := classify(err)
	if status == http.StatusInternalServerError {
		log.Error().
			Str("request_id", logger.RequestID(ctx)).
			Str("operation", op).
			Err(err).
			Msg("Request error")
		response.Error(w, status, code, internalMessage)
		return
	}

	log.Debug().
		Str("request_id", logger.RequestID(ctx)).
		Str("operation", op).
		Str("error_code", code).
		Err(err).
		Msg("Request rejected")
	response.Error(w, status, code, apperr.Message(err, internalMessage))
}

func classify(err error) (int, string) {
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		return http.StatusNotFound, "NOT_FOUND"
	case errors.Is(err, apperr.ErrInvalidInput):
		return http.StatusBadRequest, "INVALID_INPUT"
	case errors.Is(err, apperr.ErrInsufficientFunds):
		return http.StatusBadRequest, "INSUFFICIENT_FUNDS"
	case errors.Is(err, apperr.ErrConflict):
		return http.StatusConflict, "CONFLICT"
	case errors.Is(err, apperr.ErrUpstreamUnavailable):
		return http.StatusServiceUnavailable, "UPSTREAM_UNAVAILABLE"
	default:
		return http.StatusInternalServerError, "INTERNAL_ERROR"
	}
}

// LogValidationError logs validation errors with details
func LogValidationError(ctx context.Context, fieldErrors map[string]string) {
	errJSON, _ := json.Marshal(fieldErrors)
	log.Warn().
		Str("request_id", logger.RequestID(ctx)).
		RawJSON("validation_errors", errJSON).
		Msg("Validation error")
}

// LogExternalServiceError logs errors from external service calls
func LogExternalServiceError(ctx context.Context, service string, endpoint string, statusCode int, err error) {
	log.Error().
		Str("request_id", logger.RequestID(ctx)).
		Str("external_service", service).
		Str("endpoint", endpoint).
		Int("status_code", statusCode).
		Err(err).
		Msg("External service error")
}
