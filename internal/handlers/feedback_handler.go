package handlers

import (
	"net/http"

	"peerprep/interview/internal/feedback"
	"peerprep/interview/internal/interviews"
	"peerprep/interview/internal/middleware"
	"peerprep/interview/internal/models"
	"peerprep/interview/internal/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type FeedbackHandler struct {
	engine          *interviews.Engine
	feedbackManager *feedback.FeedbackManager
	logger          *zap.Logger
}

func NewFeedbackHandler(engine *interviews.Engine, feedbackManager *feedback.FeedbackManager, logger *zap.Logger) *FeedbackHandler {
	return &FeedbackHandler{
		engine:          engine,
		feedbackManager: feedbackManager,
		logger:          logger,
	}
}

// Create handles POST /api/v1/interviews/{id}/feedback
func (fh *FeedbackHandler) Create(w http.ResponseWriter, r *http.Request) {
	req := middleware.GetValidatedRequest[*models.CreateFeedbackRequest](r)
	userID := middleware.UserIDFromContext(r.Context())

	attemptID, err := fh.engine.PrepareAttempt(r.Context(), userID, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, fh.logger, err)
		return
	}
	feedbackID, err := fh.feedbackManager.CreateFeedback(r.Context(), attemptID, userID, req.Transcript)
	if err != nil {
		writeError(w, fh.logger, err)
		return
	}
	utils.JSON(w, http.StatusCreated, models.CreateFeedbackResponse{
		FeedbackID:  feedbackID,
		InterviewID: attemptID,
	})
}

// Get handles GET /api/v1/interviews/{id}/feedback
func (fh *FeedbackHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFromContext(r.Context())

	attemptID, err := fh.engine.ResolveAttempt(r.Context(), userID, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, fh.logger, err)
		return
	}
	rec, err := fh.feedbackManager.GetFeedback(r.Context(), attemptID, userID)
	if err != nil {
		writeError(w, fh.logger, err)
		return
	}
	utils.JSON(w, http.StatusOK, rec)
}
