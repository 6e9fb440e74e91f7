package handlers

import (
	"errors"
	"net/http"

	"github.com/upb/login-api/services"
	"github.com/upb/login-api/utils"
	"go.uber.org/zap"
)

// HandleServiceError maps domain errors to HTTP responses. The body is
// always {"errors":[message]}; errors outside the taxonomy never leak their
// text to the client.
func HandleServiceError(w http.ResponseWriter, err error, logger *zap.Logger) {
	if err == nil {
		return
	}

	var domainErr *services.DomainError
	if !errors.As(err, &domainErr) {
		logger.Error("unhandled error type", zap.Error(err))
		if err := utils.WriteInternalServerError(w); err != nil {
			logger.Error("failed to write internal error response", zap.Error(err))
		}
		return
	}

	fields := []zap.Field{
		zap.String("type", string(domainErr.Type)),
		zap.String("message", domainErr.Message),
		zap.Int("status", domainErr.HTTPStatus()),
	}
	switch {
	case services.IsUnexpectedError(domainErr):
		logger.Error("unexpected error", append(fields, zap.Error(domainErr.Err), zap.Stack("stack"))...)
	case services.IsInternalError(domainErr):
		logger.Debug("handled internal error", append(fields, zap.Error(domainErr.Err))...)
	case services.IsForbiddenError(domainErr):
		logger.Debug("access denied", fields...)
	case services.IsUnprocessableError(domainErr):
		logger.Debug("request input rejected", fields...)
	default:
		logger.Debug("handled service error", fields...)
	}

	if err := utils.WriteErrors(w, domainErr.HTTPStatus(), domainErr.Message); err != nil {
		logger.Error("failed to write error response", zap.Error(err))
	}
}
