// Package scorer derives a lead score from a normalized extraction.
package scorer

import "github.com/company-scout/scout-cli/internal/model"

// Scorer turns normalized contacts into a lead score. The interface exists
// so a richer model (hiring velocity, funding signals, tech-stack fit) can
// replace the baseline without touching upstream components.
type Scorer interface {
	Score(contacts []model.Contact) int
}

// ContactCount is the baseline policy: score equals the number of
// extracted contacts. The score is deliberately not clamped to the 0-100
// range some UIs assume; the count is the signal.
type ContactCount struct{}

// Score returns the number of contacts.
func (ContactCount) Score(contacts []model.Contact) int {
	return len(contacts)
}
