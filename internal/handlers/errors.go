package handlers

import (
	"errors"
	"net/http"

	"peerprep/interview/internal/interviews"
	"peerprep/interview/internal/llm"
	"peerprep/interview/internal/models"
	"peerprep/interview/internal/repositories"
	"peerprep/interview/internal/utils"

	"go.uber.org/zap"
)

// writeError maps domain errors onto HTTP responses
func writeError(w http.ResponseWriter, logger *zap.Logger, err error) {
	var validationErr *models.ErrorResponse
	switch {
	case errors.As(err, &validationErr):
		utils.JSON(w, http.StatusBadRequest, *validationErr)
	case errors.Is(err, interviews.ErrInvalidInput):
		utils.Error(w, http.StatusBadRequest, "invalid_input", "User and interview ids are required")
	case errors.Is(err, repositories.ErrNotFound):
		utils.Error(w, http.StatusNotFound, "not_found", "Interview or feedback not found")
	default:
		if pe, ok := llm.AsProviderError(err); ok {
			logger.Warn("Scoring oracle failed", zap.String("code", pe.Code), zap.Error(err))
			utils.Error(w, http.StatusBadGateway, pe.Code, "Feedback could not be generated")
			return
		}
		logger.Error("Request failed", zap.Error(err))
		utils.Error(w, http.StatusInternalServerError, "internal_error", "Internal server error")
	}
}
