package models

import "time"

const (
	cardDateLayout      = "Jan 2, 2006"
	notTakenAssessment  = "You haven't taken the interview yet. Take it now to improve your skills."
	actionCheckFeedback = "Check feedback"
	actionViewInterview = "View Interview"
)

// InterviewCard is the list view of one interview for one viewer.
type InterviewCard struct {
	ID              string    `json:"id"`
	Role            string    `json:"role"`
	Type            string    `json:"type"`
	TechStack       []string  `json:"techstack"`
	CreatedAt       time.Time `json:"createdAt"`
	DisplayDate     string    `json:"displayDate"`
	TotalScore      *int      `json:"totalScore"`
	FinalAssessment string    `json:"finalAssessment"`
	HasFeedback     bool      `json:"hasFeedback"`
	Action          string    `json:"action"`
	Link            string    `json:"link"`
}

// NewInterviewCard builds the card for a template and the viewer's feedback on it, which may be nil.
func NewInterviewCard(t InterviewTemplate, fb *FeedbackRecord) InterviewCard {
	techStack := t.TechStack
	if techStack == nil {
		techStack = []string{}
	}
	card := InterviewCard{
		ID:              t.ID,
		Role:            t.Role,
		Type:            DisplayType(t.Type),
		TechStack:       techStack,
		CreatedAt:       t.CreatedAt,
		FinalAssessment: notTakenAssessment,
		Action:          actionViewInterview,
		Link:            "/interview/" + t.ID,
	}

	shown := t.CreatedAt
	if fb != nil {
		score := fb.TotalScore
		card.TotalScore = &score
		card.HasFeedback = true
		card.Action = actionCheckFeedback
		card.Link = "/interview/" + t.ID + "/feedback"
		if fb.FinalAssessment != "" {
			card.FinalAssessment = fb.FinalAssessment
		}
		if !fb.CreatedAt.IsZero() {
			shown = fb.CreatedAt
		}
	}
	if !shown.IsZero() {
		card.DisplayDate = shown.Format(cardDateLayout)
	}
	return card
}
