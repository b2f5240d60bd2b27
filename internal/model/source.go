package model

// SourceDocument is one fetched page contributing to a corpus. It exists
// only for the duration of a pipeline run and is never persisted.
type SourceDocument struct {
	URL    string `json:"url"`
	Label  string `json:"label"` // provenance tag, e.g. "HOMEPAGE (https://acme.com)"
	Text   string `json:"text"`
	Length int    `json:"length"`
}

// Corpus is the merged, bounded, provenance-tagged text handed to the
// extraction agent. Sources lists the documents that survived the quality
// filter, in merge order.
type Corpus struct {
	Text    string           `json:"text"`
	Sources []SourceDocument `json:"sources"`
}

// Empty reports whether no source produced usable text.
func (c *Corpus) Empty() bool {
	return c == nil || c.Text == ""
}
