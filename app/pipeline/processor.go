// Package pipeline runs the save flow for an incoming URL: validation,
// platform detection, metadata extraction, enrichment, and persistence.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/mvolkova/stashbot/app/ai"
	"github.com/mvolkova/stashbot/app/content"
	"github.com/mvolkova/stashbot/app/database"
)

const relatedLimit = 2

// Extractor fetches page metadata for a URL.
type Extractor interface {
	Run(ctx context.Context, rawURL string, platform content.Platform) (*content.Metadata, error)
}

// ContentStore is the slice of the repository the save flow needs.
type ContentStore interface {
	Insert(content database.SavedContent) (int64, error)
	GetByID(id int64) (*database.SavedContent, error)
	GetByURLAndUser(url, userPhone string) (*database.SavedContent, error)
	GetRelated(userPhone, category string, excludeID int64, limit int) ([]database.SavedContent, error)
	Update(id int64, fields database.UpdateFields) (bool, error)
}

// Enricher generates the category, summary, and tags for extracted metadata.
type Enricher interface {
	Enrich(ctx context.Context, in ai.Input) ai.Enrichment
}

// Result is the outcome of a successful save.
type Result struct {
	Content *database.SavedContent
	Related []database.SavedContent
	Reply   string
}

// Processor owns the save flow.
type Processor struct {
	repo      ContentStore
	extractor Extractor
	enricher  Enricher
	baseURL   string
}

// NewProcessor builds a processor. enricher may be nil when no model is
// configured; records then get default enrichment values.
func NewProcessor(repo ContentStore, extractor Extractor, enricher Enricher, baseURL string) *Processor {
	return &Processor{
		repo:      repo,
		extractor: extractor,
		enricher:  enricher,
		baseURL:   strings.TrimRight(baseURL, "/"),
	}
}

// Process saves a URL for a user. Extraction failures degrade to an empty
// metadata record; a duplicate URL is a hard stop returning *DuplicateError
// with the existing record. The record is written exactly once.
func (p *Processor) Process(ctx context.Context, userPhone, rawURL string) (*Result, error) {
	if !content.IsValidURL(rawURL) {
		return nil, ErrInvalidURL
	}

	platform := content.DetectPlatform(rawURL)

	existing, err := p.repo.GetByURLAndUser(rawURL, userPhone)
	if err != nil {
		return nil, fmt.Errorf("failed to check for duplicate: %w", err)
	}
	if existing != nil {
		return nil, &DuplicateError{Existing: existing}
	}

	meta := p.extract(ctx, rawURL, platform)
	enrichment := p.enrich(ctx, meta)

	record := database.SavedContent{
		URL:       rawURL,
		Platform:  string(platform),
		Title:     meta.Title,
		Caption:   meta.Caption,
		ImageURL:  meta.ImageURL,
		Category:  enrichment.Category,
		Summary:   enrichment.Summary,
		Tags:      enrichment.Tags,
		UserPhone: userPhone,
	}

	id, err := p.repo.Insert(record)
	if err != nil {
		if errors.Is(err, database.ErrDuplicateURL) {
			// Lost the race with a concurrent save of the same URL.
			if existing, lookupErr := p.repo.GetByURLAndUser(rawURL, userPhone); lookupErr == nil && existing != nil {
				return nil, &DuplicateError{Existing: existing}
			}
		}
		return nil, fmt.Errorf("failed to save content: %w", err)
	}

	saved, err := p.repo.GetByID(id)
	if err != nil || saved == nil {
		return nil, fmt.Errorf("failed to load saved content: %w", err)
	}

	related, err := p.repo.GetRelated(userPhone, saved.Category, id, relatedLimit)
	if err != nil {
		slog.Warn("Failed to load related content", "id", id, "error", err.Error())
		related = nil
	}

	return &Result{
		Content: saved,
		Related: related,
		Reply:   p.saveReply(saved, related),
	}, nil
}

// Regenerate re-runs enrichment over the metadata already on file and
// updates category, summary, and tags in place. The page is not fetched
// again; extracted fields and the creation timestamp are untouched.
func (p *Processor) Regenerate(ctx context.Context, id int64) (*database.SavedContent, error) {
	existing, err := p.repo.GetByID(id)
	if err != nil {
		return nil, fmt.Errorf("failed to load content: %w", err)
	}
	if existing == nil {
		return nil, nil
	}

	enrichment := p.enrich(ctx, &content.Metadata{
		URL:      existing.URL,
		Platform: content.Platform(existing.Platform),
		Title:    existing.Title,
		Caption:  existing.Caption,
	})

	fields := database.UpdateFields{
		Category: &enrichment.Category,
		Summary:  &enrichment.Summary,
		Tags:     enrichment.Tags,
	}
	if fields.Tags == nil {
		fields.Tags = []string{}
	}

	if _, err := p.repo.Update(id, fields); err != nil {
		return nil, fmt.Errorf("failed to update content: %w", err)
	}

	return p.repo.GetByID(id)
}

func (p *Processor) extract(ctx context.Context, rawURL string, platform content.Platform) *content.Metadata {
	meta, err := p.extractor.Run(ctx, rawURL, platform)
	if err != nil {
		slog.Warn("Content extraction failed, saving bare record", "url", rawURL, "error", err.Error())
		return &content.Metadata{URL: rawURL, Platform: platform}
	}
	return meta
}

func (p *Processor) enrich(ctx context.Context, meta *content.Metadata) ai.Enrichment {
	if p.enricher == nil {
		return ai.Enrichment{Category: ai.DefaultCategory}
	}
	return p.enricher.Enrich(ctx, ai.Input{
		URL:      meta.URL,
		Title:    meta.Title,
		Caption:  meta.Caption,
		Platform: string(meta.Platform),
	})
}

func (p *Processor) saveReply(item *database.SavedContent, related []database.SavedContent) string {
	var b strings.Builder
	b.WriteString("Content saved successfully!\n\n")
	fmt.Fprintf(&b, "Title: %s\n", truncate(item.Title, 50))
	fmt.Fprintf(&b, "Platform: %s\n", item.Platform)
	fmt.Fprintf(&b, "Category: %s\n", item.Category)
	if item.Summary != "" {
		fmt.Fprintf(&b, "Summary: %s\n", item.Summary)
	}
	if len(item.Tags) > 0 {
		fmt.Fprintf(&b, "Tags: %s\n", strings.Join(item.Tags, ", "))
	}
	fmt.Fprintf(&b, "\nView on dashboard: %s/content/%d", p.baseURL, item.ID)

	if len(related) > 0 {
		b.WriteString("\n\nRelated saves you might revisit:\n")
		for _, r := range related {
			fmt.Fprintf(&b, "- %s -> %s\n", truncate(r.Title, 40), r.URL)
		}
	}

	return b.String()
}

// DuplicateReply formats the response for an already-saved URL.
func (p *Processor) DuplicateReply(existing *database.SavedContent) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You already saved this on %s!\n\n", existing.CreatedAt.Format("2006-01-02"))
	fmt.Fprintf(&b, "Title: %s\n", existing.Title)
	fmt.Fprintf(&b, "Category: %s\n", existing.Category)
	fmt.Fprintf(&b, "Summary: %s\n\n", existing.Summary)
	fmt.Fprintf(&b, "View it: %s/content/%d", p.baseURL, existing.ID)
	return b.String()
}

func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + "..."
}
