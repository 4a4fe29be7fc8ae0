// pkg/utils/response.go
package utils

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/render"
	"go.uber.org/zap"

	"hcert-verifier/internal/models"
	apperrors "hcert-verifier/pkg/errors"
)

// SendJSONResponse sends a JSON response with proper error handling
func SendJSONResponse(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Content-Type-Options", "nosniff")

	// Marshal the data first to catch any encoding errors
	jsonData, err := json.Marshal(data)
	if err != nil {
		zap.L().Error("Error marshaling JSON response", zap.Error(err))
		w.WriteHeader(http.StatusInternalServerError)
		_ = json.NewEncoder(w).Encode(models.ErrorResponse{
			Error: "Internal server error: failed to encode response",
			Type:  apperrors.ErrInternalServer,
		})
		return
	}

	w.WriteHeader(statusCode)

	if _, writeErr := w.Write(jsonData); writeErr != nil {
		zap.L().Warn("Error writing response", zap.Error(writeErr))
	}
}

// SendErrorResponse sends an error response. AppErrors keep their type and
// status; anything else becomes a 500.
func SendErrorResponse(w http.ResponseWriter, err error) {
	statusCode := apperrors.GetStatusCode(err)
	errType := apperrors.GetErrorType(err)

	var appErr *apperrors.AppError
	if errType != "" && errors.As(err, &appErr) {
		logFn := zap.L().Debug
		if apperrors.IsErrorType(err, apperrors.ErrUnauthorized) {
			logFn = zap.L().Info
		}
		logFn("Sending error response",
			zap.String("type", errType),
			zap.Int("status", statusCode),
			zap.String("message", appErr.Message))

		SendJSONResponse(w, statusCode, models.ErrorResponse{
			Error:   appErr.Message,
			Type:    errType,
			Details: appErr.Details,
		})
		return
	}

	zap.L().Error("Unhandled error", zap.Error(err))
	SendJSONResponse(w, statusCode, models.ErrorResponse{
		Error: "internal server error",
		Type:  apperrors.ErrInternalServer,
	})
}

func DecodeJSONBody(r *http.Request, dst interface{}) error {
	if err := render.DecodeJSON(r.Body, dst); err != nil {
		return apperrors.NewAppError(apperrors.ErrBadRequest, http.StatusBadRequest, "invalid JSON format")
	}
	return nil
}
