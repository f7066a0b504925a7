package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/neopath7/pethoria-matchpage-server/internal/domain/errs"
	swipesvc "github.com/neopath7/pethoria-matchpage-server/internal/services/swipes"
	httperrors "github.com/neopath7/pethoria-matchpage-server/internal/transport/http/errors"
)

func decodeJSON(r *http.Request, target any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(target)
}

func writeBadRequest(w http.ResponseWriter, code, message string) {
	httperrors.Write(w, http.StatusBadRequest, httperrors.APIError{Code: code, Message: message})
}

func writeUnauthorized(w http.ResponseWriter, code, message string) {
	httperrors.Write(w, http.StatusUnauthorized, httperrors.APIError{Code: code, Message: message})
}

func writeInternal(w http.ResponseWriter, code, message string) {
	httperrors.Write(w, http.StatusInternalServerError, httperrors.APIError{Code: code, Message: message})
}

// writeServiceError maps domain error kinds onto the HTTP error contract.
// fallback is used as the message of a plain 500.
func writeServiceError(w http.ResponseWriter, log *zap.Logger, err error, fallback string) {
	if tf, ok := swipesvc.IsTooFast(err); ok {
		httperrors.WriteRetryable(w, http.StatusTooManyRequests, httperrors.RetryableError{
			Code:          "TOO_FAST",
			Message:       "too many swipes, slow down",
			RetryAfterSec: tf.RetryAfter(),
		})
		return
	}
	if tu, ok := errs.IsTempUnavailable(err); ok {
		httperrors.WriteRetryable(w, http.StatusServiceUnavailable, httperrors.RetryableError{
			Code:          "TEMP_UNAVAILABLE",
			Message:       "storage is temporarily unavailable, retry later",
			RetryAfterSec: tu.RetryAfter(),
		})
		return
	}
	if ve, ok := errs.IsValidation(err); ok {
		writeBadRequest(w, "VALIDATION_ERROR", ve.Error())
		return
	}

	switch {
	case errors.Is(err, errs.ErrLocationNotSet):
		httperrors.Write(w, http.StatusPreconditionFailed, httperrors.APIError{
			Code:    "LOCATION_NOT_SET",
			Message: "set your location first",
		})
	case errors.Is(err, errs.ErrNotFound):
		httperrors.Write(w, http.StatusNotFound, httperrors.APIError{
			Code:    "NOT_FOUND",
			Message: err.Error(),
		})
	default:
		if log != nil {
			log.Error("request failed", zap.Error(err))
		}
		writeInternal(w, "INTERNAL_ERROR", fallback)
	}
}
