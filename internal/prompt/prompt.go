// Package prompt constructs the org-chart extraction prompt.
package prompt

import (
	"fmt"
	"strings"
)

const promptTemplate = `Act as an elite sales intelligence agent for Company Scout.

GOAL: Build an org chart of the INTERNAL TEAM at %s.

CRITICAL RULES:
%s

Source Material:
"%s..."

Provide a JSON response with:
- summary: A punchy, sales-focused company summary (max 2 sentences).
- contacts: Array of found employees.
  Schema: {
    "name": string,
    "role": string,
    "type": "Decision Maker" | "Champion" | "Influencer",
    "linkedin": string (optional),
    "email": string (optional, guess format first.last@domain.com only if high confidence)
  }
- emailDraft: A highly personalized cold outreach email to the highest ranking person found.
  Constraint: Max 2 sentences.
  Tone: Professional, witty, mentioning specific details found.

Return ONLY valid JSON.`

// Build renders the extraction prompt for a domain and its corpus. The
// output is deterministic for a given (domain, corpus, rules) triple. The
// corpus is embedded as-is; callers are responsible for capping its size.
func Build(domain, corpusText string, rules Rules) string {
	var numbered []string
	n := 1
	for _, r := range rules.Exclusions {
		numbered = append(numbered, fmt.Sprintf("%d. %s", n, r))
		n++
	}
	for _, r := range rules.Inclusions {
		numbered = append(numbered, fmt.Sprintf("%d. %s", n, r))
		n++
	}

	return fmt.Sprintf(promptTemplate, domain, strings.Join(numbered, "\n"), corpusText)
}
