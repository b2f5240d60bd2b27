package model

import "time"

// JobStatus represents the lifecycle state of an enrichment job. A job is
// created as researching and transitions exactly once to a terminal state.
type JobStatus string

const (
	JobStatusResearching JobStatus = "researching"
	JobStatusQualified   JobStatus = "qualified"
	JobStatusRejected    JobStatus = "rejected"
)

// Terminal reports whether the status is a terminal state.
func (s JobStatus) Terminal() bool {
	return s == JobStatusQualified || s == JobStatusRejected
}

// ContactType classifies a contact's likely role in a purchase decision.
type ContactType string

const (
	ContactTypeDecisionMaker ContactType = "Decision Maker"
	ContactTypeChampion      ContactType = "Champion"
	ContactTypeInfluencer    ContactType = "Influencer"
)

// Valid reports whether the type is one of the declared categories.
func (t ContactType) Valid() bool {
	switch t {
	case ContactTypeDecisionMaker, ContactTypeChampion, ContactTypeInfluencer:
		return true
	}
	return false
}

// Contact is a named individual extracted from a company's website.
// Email is always populated after normalization; EmailGuessed marks
// addresses the normalizer fabricated rather than found in source text.
type Contact struct {
	Name         string      `json:"name"`
	Role         string      `json:"role"`
	Type         ContactType `json:"type"`
	LinkedIn     string      `json:"linkedin,omitempty"`
	Email        string      `json:"email"`
	EmailGuessed bool        `json:"email_guessed,omitempty"`
}

// ExtractionStatus tags how the model output was handled, so a parse
// failure is distinguishable from a genuinely empty extraction.
type ExtractionStatus string

const (
	ExtractionStatusParsed   ExtractionStatus = "parsed"
	ExtractionStatusFallback ExtractionStatus = "fallback"
	ExtractionStatusFailed   ExtractionStatus = "failed"
)

// Job is one enrichment request for a single domain.
type Job struct {
	ID               string           `json:"id"`
	Domain           string           `json:"domain"`
	Status           JobStatus        `json:"status"`
	LeadScore        int              `json:"lead_score"`
	Summary          string           `json:"summary"`
	Contacts         []Contact        `json:"contacts"`
	EmailDraft       string           `json:"email_draft"`
	ExtractionStatus ExtractionStatus `json:"extraction_status,omitempty"`
	FailureReason    string           `json:"failure_reason,omitempty"`
	CreatedAt        time.Time        `json:"created_at"`
	UpdatedAt        time.Time        `json:"updated_at"`
}

// EnrichmentResult is the payload of the single terminal write.
type EnrichmentResult struct {
	Status           JobStatus        `json:"status"`
	LeadScore        int              `json:"lead_score"`
	Summary          string           `json:"summary"`
	Contacts         []Contact        `json:"contacts"`
	EmailDraft       string           `json:"email_draft"`
	ExtractionStatus ExtractionStatus `json:"extraction_status"`
	FailureReason    string           `json:"failure_reason,omitempty"`
}
