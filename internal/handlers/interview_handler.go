package handlers

import (
	"net/http"
	"strconv"

	"peerprep/interview/internal/interviews"
	"peerprep/interview/internal/middleware"
	"peerprep/interview/internal/models"
	"peerprep/interview/internal/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type InterviewHandler struct {
	engine *interviews.Engine
	logger *zap.Logger
}

func NewInterviewHandler(engine *interviews.Engine, logger *zap.Logger) *InterviewHandler {
	return &InterviewHandler{engine: engine, logger: logger}
}

// ListAvailable handles GET /api/v1/interviews?limit=
func (h *InterviewHandler) ListAvailable(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			utils.Error(w, http.StatusBadRequest, "invalid_limit", "limit must be a non-negative integer")
			return
		}
		limit = n
	}

	userID := middleware.UserIDFromContext(r.Context())
	templates, err := h.engine.ListAvailable(r.Context(), userID, limit)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	h.writeCards(w, r, userID, templates)
}

// ListMine handles GET /api/v1/interviews/mine
func (h *InterviewHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFromContext(r.Context())
	templates, err := h.engine.ListOwned(r.Context(), userID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	h.writeCards(w, r, userID, templates)
}

// Create handles POST /api/v1/interviews
func (h *InterviewHandler) Create(w http.ResponseWriter, r *http.Request) {
	req := middleware.GetValidatedRequest[*models.CreateInterviewRequest](r)
	userID := middleware.UserIDFromContext(r.Context())

	created, err := h.engine.CreateInterview(r.Context(), userID, *req)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	utils.JSON(w, http.StatusCreated, created)
}

// Get handles GET /api/v1/interviews/{id}
func (h *InterviewHandler) Get(w http.ResponseWriter, r *http.Request) {
	t, err := h.engine.GetInterview(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	utils.JSON(w, http.StatusOK, t)
}

// Take handles POST /api/v1/interviews/{id}/take
func (h *InterviewHandler) Take(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFromContext(r.Context())
	t, err := h.engine.TakeInterview(r.Context(), userID, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	utils.JSON(w, http.StatusOK, t)
}

func (h *InterviewHandler) writeCards(w http.ResponseWriter, r *http.Request, userID string, templates []models.InterviewTemplate) {
	cards, err := h.engine.BuildCards(r.Context(), userID, templates)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	utils.JSON(w, http.StatusOK, models.InterviewCardsResponse{
		Total: len(cards),
		Items: cards,
	})
}
