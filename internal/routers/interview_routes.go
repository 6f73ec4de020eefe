package routers

import (
	"peerprep/interview/internal/handlers"
	"peerprep/interview/internal/middleware"
	"peerprep/interview/internal/models"

	"github.com/go-chi/chi/v5"
)

func InterviewRoutes(router *chi.Mux, interviewHandler *handlers.InterviewHandler, feedbackHandler *handlers.FeedbackHandler, jwtSecret string) {
	requireAuth := middleware.RequireAuth(jwtSecret)

	router.Route("/api/v1/interviews", func(r chi.Router) {
		r.With(middleware.OptionalAuth(jwtSecret)).Get("/", interviewHandler.ListAvailable)
		r.With(requireAuth).Get("/mine", interviewHandler.ListMine)
		r.With(requireAuth, middleware.ValidateRequest[*models.CreateInterviewRequest]()).Post("/", interviewHandler.Create)

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", interviewHandler.Get)
			r.With(requireAuth).Post("/take", interviewHandler.Take)
			r.With(requireAuth, middleware.ValidateRequest[*models.CreateFeedbackRequest]()).Post("/feedback", feedbackHandler.Create)
			r.With(requireAuth).Get("/feedback", feedbackHandler.Get)
		})
	})
}
