// Package extract parses and normalizes the model's extraction output.
// The model is assumed unreliable: output may be fenced, prefixed with
// prose, or not JSON at all. Parsing never fails the job; the outcome
// carries a tag distinguishing a real parse from fallback defaults.
package extract

import (
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/company-scout/scout-cli/internal/model"
)

// Extraction is the expected shape of model output.
type Extraction struct {
	Summary    string          `json:"summary"`
	Contacts   []model.Contact `json:"contacts"`
	EmailDraft string          `json:"emailDraft"`
}

// Outcome is a tagged parse result. Status is parsed when the model
// produced usable JSON and fallback when defaults were substituted, so a
// failed extraction never masquerades as "successfully extracted nothing".
type Outcome struct {
	Extraction
	Status model.ExtractionStatus
	// RawExcerpt holds the head of unparseable output for diagnostics.
	RawExcerpt string
}

// Parse validates raw model output against the expected schema and
// normalizes the contacts for the target domain. On parse failure it
// returns fallback defaults: a placeholder summary, no contacts, no draft.
func Parse(raw, domain string) Outcome {
	target := TargetDomain(domain)

	cleaned := cleanJSON(raw)

	var data Extraction
	if err := json.Unmarshal([]byte(cleaned), &data); err != nil {
		zap.L().Warn("extract: model output failed JSON parse",
			zap.String("domain", domain),
			zap.Error(err),
		)
		return Outcome{
			Extraction: Extraction{
				Summary:    fmt.Sprintf("Could not analyze %s", domain),
				Contacts:   []model.Contact{},
				EmailDraft: "",
			},
			Status:     model.ExtractionStatusFallback,
			RawExcerpt: excerpt(raw, 500),
		}
	}

	if data.Summary == "" {
		data.Summary = fmt.Sprintf("Could not analyze %s", domain)
	}
	data.Contacts = NormalizeContacts(data.Contacts, target)
	if data.Contacts == nil {
		data.Contacts = []model.Contact{}
	}

	return Outcome{Extraction: data, Status: model.ExtractionStatusParsed}
}

// TargetDomain reduces an input domain or URL to its bare host: scheme,
// leading www., and any path are stripped.
func TargetDomain(domain string) string {
	d := strings.TrimPrefix(domain, "https://")
	d = strings.TrimPrefix(d, "http://")
	d = strings.TrimPrefix(d, "www.")
	if idx := strings.IndexByte(d, '/'); idx >= 0 {
		d = d[:idx]
	}
	return d
}

// NormalizeContacts enforces the post-extraction contact guarantees:
// every contact is named, typed with a declared category, and carries an
// email whose domain is the target domain. An email that is absent,
// malformed, or on a foreign domain (a testimonial or customer that
// slipped past the prompt filter) is replaced with a deterministic guess
// of first-name@domain, flagged as guessed.
func NormalizeContacts(contacts []model.Contact, targetDomain string) []model.Contact {
	out := make([]model.Contact, 0, len(contacts))
	for _, c := range contacts {
		c.Name = strings.TrimSpace(c.Name)
		if c.Name == "" {
			// The prompt requires explicitly named individuals; an unnamed
			// contact is noise.
			continue
		}

		if !c.Type.Valid() {
			c.Type = model.ContactTypeInfluencer
		}

		if needsEmailGuess(c.Email, targetDomain) {
			first := strings.ToLower(strings.Fields(c.Name)[0])
			c.Email = first + "@" + targetDomain
			c.EmailGuessed = true
		}

		out = append(out, c)
	}
	return out
}

// needsEmailGuess reports whether the email should be replaced with the
// deterministic guess: missing, no @ at all, or addressed to a domain
// other than the target.
func needsEmailGuess(email, targetDomain string) bool {
	at := strings.LastIndexByte(email, '@')
	if at < 0 {
		return true
	}
	emailDomain := strings.TrimPrefix(strings.ToLower(email[at+1:]), "www.")
	return emailDomain != strings.ToLower(targetDomain)
}

// cleanJSON attempts to extract a JSON object from text that may contain
// markdown code fences or other wrapping.
func cleanJSON(text string) string {
	text = strings.TrimSpace(text)

	// Strip markdown code fences.
	if strings.HasPrefix(text, "```json") {
		text = strings.TrimPrefix(text, "```json")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
	} else if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
	}

	// Find first { and last }.
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start >= 0 && end > start {
		text = text[start : end+1]
	}

	return strings.TrimSpace(text)
}

func excerpt(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
