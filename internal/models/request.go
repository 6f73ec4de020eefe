package models

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

type CreateInterviewRequest struct {
	Role      string   `json:"role" validate:"required,max=120"`
	Type      string   `json:"type" validate:"required,max=60"`
	TechStack []string `json:"techstack" validate:"max=20,dive,required,max=60"`
	Questions []string `json:"questions" validate:"required,min=1,max=50,dive,required"`
	Finalized bool     `json:"finalized"`
}

// implements the Validator interface
func (r *CreateInterviewRequest) Validate() error {
	r.Role = strings.TrimSpace(r.Role)
	r.Type = strings.TrimSpace(r.Type)
	for i := range r.TechStack {
		r.TechStack[i] = strings.TrimSpace(r.TechStack[i])
	}
	return validationError(validate.Struct(r))
}

type CreateFeedbackRequest struct {
	Transcript []TranscriptMessage `json:"transcript" validate:"required,min=1,dive"`
}

func (r *CreateFeedbackRequest) Validate() error {
	return validationError(validate.Struct(r))
}

// ValidateAssessment checks an oracle result: scores in range and exactly the five fixed categories.
func ValidateAssessment(a *Assessment) error {
	if err := validate.Struct(a); err != nil {
		return err
	}
	seen := make(map[string]bool, len(a.CategoryScores))
	for _, c := range a.CategoryScores {
		seen[c.Name] = true
	}
	for _, name := range FeedbackCategories() {
		if !seen[name] {
			return errors.New("missing category: " + name)
		}
	}
	return nil
}

// converts validator output into the uniform error payload
func validationError(err error) error {
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return &ErrorResponse{Code: "validation_error", Message: err.Error()}
	}
	details := make([]ValidationErrorDetail, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		details = append(details, ValidationErrorDetail{
			Field:  fe.Namespace(),
			Reason: fe.Tag(),
		})
	}
	return &ErrorResponse{
		Code:    "validation_error",
		Message: "Request failed validation",
		Details: details,
	}
}
