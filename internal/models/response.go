package models

// uniform error payload
type ErrorResponse struct {
	Code    string                  `json:"code"`
	Message string                  `json:"message"`
	Details []ValidationErrorDetail `json:"details,omitempty"`
}

// implements error so request validators can return it directly
func (e *ErrorResponse) Error() string {
	return e.Message
}

// a single field error
type ValidationErrorDetail struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

// represents the response structure for interview list endpoints
type InterviewCardsResponse struct {
	Total int             `json:"total"`
	Items []InterviewCard `json:"items"`
}

type CreateFeedbackResponse struct {
	FeedbackID  string `json:"feedbackId"`
	InterviewID string `json:"interviewId"`
}
