// Package corpus turns a bare domain into one bounded, provenance-tagged
// text corpus by fetching the homepage plus a fixed set of candidate
// sub-pages.
package corpus

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/company-scout/scout-cli/internal/fetch"
	"github.com/company-scout/scout-cli/internal/model"
)

// Options bounds corpus assembly.
type Options struct {
	// CandidatePaths are fetched concurrently in addition to the homepage.
	// Fan-out width equals the length of this slice.
	CandidatePaths []string
	// MinPageChars drops near-empty sub-pages (redirect stubs, soft 404s).
	// The homepage is exempt.
	MinPageChars int
	// MaxChars caps the merged corpus; truncation drops the tail so
	// homepage content survives.
	MaxChars int
}

// DefaultOptions returns the standard candidate set and bounds.
func DefaultOptions() Options {
	return Options{
		CandidatePaths: []string{"/about", "/about-us", "/team", "/company"},
		MinPageChars:   500,
		MaxChars:       25000,
	}
}

// Builder assembles a corpus for a domain.
type Builder struct {
	fetcher fetch.Fetcher
	opts    Options
}

// NewBuilder creates a Builder, applying defaults for zero-value options.
func NewBuilder(fetcher fetch.Fetcher, opts Options) *Builder {
	def := DefaultOptions()
	if len(opts.CandidatePaths) == 0 {
		opts.CandidatePaths = def.CandidatePaths
	}
	if opts.MinPageChars <= 0 {
		opts.MinPageChars = def.MinPageChars
	}
	if opts.MaxChars <= 0 {
		opts.MaxChars = def.MaxChars
	}
	return &Builder{fetcher: fetcher, opts: opts}
}

// BaseURL normalizes a domain into a fetchable base URL, prefixing https://
// when no scheme is present and trimming a trailing slash.
func BaseURL(domain string) string {
	base := domain
	if !strings.HasPrefix(base, "http://") && !strings.HasPrefix(base, "https://") {
		base = "https://" + base
	}
	return strings.TrimSuffix(base, "/")
}

// Build fetches the homepage and candidate sub-pages and merges them into
// one corpus. Individual fetch failures are absorbed as empty content; a
// missing page is not fatal to the job. Merge order is deterministic
// (homepage, then declared path order) regardless of completion order.
func (b *Builder) Build(ctx context.Context, domain string) *model.Corpus {
	base := BaseURL(domain)
	log := zap.L().With(zap.String("domain", domain))

	// Homepage first, before the fan-out, so its content anchors the corpus.
	homeText := b.fetchAbsorbed(ctx, base, log)

	// Candidate sub-pages concurrently, results written to fixed slots so
	// completion order cannot affect merge order.
	texts := make([]string, len(b.opts.CandidatePaths))
	g, gCtx := errgroup.WithContext(ctx)
	for i, p := range b.opts.CandidatePaths {
		g.Go(func() error {
			texts[i] = b.fetchAbsorbed(gCtx, base+p, log)
			return nil
		})
	}
	_ = g.Wait()

	c := &model.Corpus{}
	var merged strings.Builder

	if homeText != "" {
		doc := model.SourceDocument{
			URL:    base,
			Label:  fmt.Sprintf("HOMEPAGE (%s)", base),
			Text:   homeText,
			Length: len(homeText),
		}
		c.Sources = append(c.Sources, doc)
		merged.WriteString("SOURCE: " + doc.Label + "\n")
		merged.WriteString(homeText)
	}

	for i, p := range b.opts.CandidatePaths {
		text := texts[i]
		if len(text) <= b.opts.MinPageChars {
			if text != "" {
				log.Debug("corpus: dropping thin sub-page",
					zap.String("path", p),
					zap.Int("chars", len(text)),
				)
			}
			continue
		}
		doc := model.SourceDocument{
			URL:    base + p,
			Label:  strings.ToUpper(p) + " PAGE",
			Text:   text,
			Length: len(text),
		}
		c.Sources = append(c.Sources, doc)
		if merged.Len() > 0 {
			merged.WriteString("\n")
		}
		merged.WriteString("SOURCE: " + doc.Label + "\n")
		merged.WriteString(text)
	}

	c.Text = fetch.Truncate(merged.String(), b.opts.MaxChars)

	log.Info("corpus: assembled",
		zap.Int("sources", len(c.Sources)),
		zap.Int("chars", len(c.Text)),
	)
	return c
}

// fetchAbsorbed fetches one URL, converting any failure into empty text.
func (b *Builder) fetchAbsorbed(ctx context.Context, url string, log *zap.Logger) string {
	text, err := b.fetcher.FetchText(ctx, url)
	if err != nil {
		log.Debug("corpus: page fetch absorbed", zap.String("url", url), zap.Error(err))
		return ""
	}
	return text
}
