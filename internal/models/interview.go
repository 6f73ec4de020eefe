package models

import (
	"regexp"
	"time"
)

// InterviewTemplate is an interview definition, or a user's personal copy of one.
type InterviewTemplate struct {
	ID          string    `json:"id"`
	OwnerUserID string    `json:"userId"`
	Role        string    `json:"role"`
	TechStack   []string  `json:"techstack"`
	Type        string    `json:"type"`
	Questions   []string  `json:"questions"`
	Finalized   bool      `json:"finalized"`
	CreatedAt   time.Time `json:"createdAt"`

	// set on copies only; points at the original template
	OriginalInterviewID string `json:"originalInterviewId,omitempty"`
}

// IsCopy reports whether the record was created by taking another template.
func (t *InterviewTemplate) IsCopy() bool {
	return t.OriginalInterviewID != ""
}

// IdentityID is the id of the interview this record stands for: the original for copies, itself otherwise.
func (t *InterviewTemplate) IdentityID() string {
	if t.IsCopy() {
		return t.OriginalInterviewID
	}
	return t.ID
}

// InterviewPatch carries the mutable fields of a template. Nil fields are left untouched.
// Questions are fixed at creation and cannot be patched.
type InterviewPatch struct {
	Role      *string  `json:"role,omitempty"`
	TechStack []string `json:"techstack,omitempty"`
	Type      *string  `json:"type,omitempty"`
	Finalized *bool    `json:"finalized,omitempty"`
}

// IsEmpty reports whether the patch would change nothing.
func (p InterviewPatch) IsEmpty() bool {
	return p.Role == nil && p.TechStack == nil && p.Type == nil && p.Finalized == nil
}

var mixedType = regexp.MustCompile(`(?i)mix`)

// DisplayType normalises the interview type for display; anything mentioning "mix" is shown as Mixed.
func DisplayType(interviewType string) string {
	if mixedType.MatchString(interviewType) {
		return "Mixed"
	}
	return interviewType
}
