package events_api

import (
	"errors"
	"fmt"
	"net/http"

	"ms-gallery/internal/apperr"
	"ms-gallery/internal/logger"
	"ms-gallery/internal/utils"
)

// StatusFor maps a workflow error to its HTTP status and client message.
func StatusFor(err error) (int, string) {
	var (
		validation *apperr.ValidationError
		cfgErr     *apperr.ConfigurationError
		remote     *apperr.RemoteServiceError
		storage    *apperr.StorageError
	)

	switch {
	case errors.As(err, &validation):
		return http.StatusBadRequest, validation.Error()
	case errors.Is(err, apperr.ErrNoRemoteListing):
		return http.StatusBadRequest, apperr.ErrNoRemoteListing.Error()
	case errors.Is(err, apperr.ErrUnauthorized):
		return http.StatusUnauthorized, apperr.ErrUnauthorized.Error()
	case errors.Is(err, apperr.ErrNotFound):
		return http.StatusNotFound, apperr.ErrNotFound.Error()
	case errors.As(err, &cfgErr):
		return http.StatusServiceUnavailable, cfgErr.Error()
	case errors.As(err, &remote):
		return http.StatusBadGateway, remote.Error()
	case errors.As(err, &storage):
		return http.StatusInternalServerError, storage.Error()
	default:
		return http.StatusInternalServerError, "internal error"
	}
}

func writeError(w http.ResponseWriter, log *logger.Logger, message string, err error) {
	status, detail := StatusFor(err)
	if status >= http.StatusInternalServerError {
		log.Error("API", fmt.Sprintf("%s: %v", message, err))
	}
	utils.WriteJSON(w, status, utils.ErrorResponse(message, detail))
}
