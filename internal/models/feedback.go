package models

import "time"

// the five fixed categories the scoring oracle grades
const (
	CategoryCommunication   = "Communication Skills"
	CategoryTechnical       = "Technical Knowledge"
	CategoryProblemSolving  = "Problem-Solving"
	CategoryCulturalFit     = "Cultural & Role Fit"
	CategoryConfidenceClear = "Confidence & Clarity"
)

func FeedbackCategories() []string {
	return []string{
		CategoryCommunication,
		CategoryTechnical,
		CategoryProblemSolving,
		CategoryCulturalFit,
		CategoryConfidenceClear,
	}
}

type CategoryScore struct {
	Name    string `json:"name" bson:"name" validate:"required"`
	Score   int    `json:"score" bson:"score" validate:"min=0,max=100"`
	Comment string `json:"comment" bson:"comment"`
}

// Assessment is what the scoring oracle returns for one transcript.
type Assessment struct {
	TotalScore          int             `json:"totalScore" validate:"min=0,max=100"`
	CategoryScores      []CategoryScore `json:"categoryScores" validate:"len=5,dive"`
	Strengths           []string        `json:"strengths"`
	AreasForImprovement []string        `json:"areasForImprovement"`
	FinalAssessment     string          `json:"finalAssessment"`
}

// FeedbackRecord is the stored assessment of one user for one concrete interview record.
// There is at most one per (InterviewID, UserID).
type FeedbackRecord struct {
	ID          string `json:"id"`
	InterviewID string `json:"interviewId"`
	UserID      string `json:"userId"`
	Assessment
	CreatedAt time.Time `json:"createdAt"`
}

// FeedbackFields is the payload written by an upsert.
type FeedbackFields struct {
	Assessment
	CreatedAt time.Time
}

// TranscriptMessage is one turn of the interview conversation.
type TranscriptMessage struct {
	Role    string `json:"role" validate:"required,oneof=user system assistant"`
	Content string `json:"content"`
}
