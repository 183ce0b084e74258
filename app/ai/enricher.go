package ai

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const (
	maxSummaryWords = 20
	maxTags         = 12
)

// Generic tokens that carry no search value; dropped from generator output.
// The tag set is not topped back up after removal.
var tagDenylist = map[string]bool{
	"post":    true,
	"content": true,
	"link":    true,
	"video":   true,
	"article": true,
	"media":   true,
	"online":  true,
	"social":  true,
}

// Input carries the extracted metadata an enrichment call works from.
type Input struct {
	URL      string
	Title    string
	Caption  string
	Platform string
}

// Enrichment is the combined result of the three enrichment calls.
type Enrichment struct {
	Category string
	Summary  string
	Tags     []string
}

// Enricher runs the three independent generation tasks against extracted
// metadata. Each task is fail-soft: a failed call degrades to a default or
// empty value and never blocks the save.
type Enricher struct {
	client Client
}

func NewEnricher(client Client) *Enricher {
	return &Enricher{client: client}
}

// Enrich runs Categorize, Summarize, and ExtractTags concurrently. The three
// calls are independent; a failure in one never cancels the others.
func (e *Enricher) Enrich(ctx context.Context, in Input) Enrichment {
	var result Enrichment
	var wg sync.WaitGroup

	wg.Add(3)
	go func() {
		defer wg.Done()
		result.Category = e.Categorize(ctx, in)
	}()
	go func() {
		defer wg.Done()
		result.Summary = e.Summarize(ctx, in)
	}()
	go func() {
		defer wg.Done()
		result.Tags = e.ExtractTags(ctx, in)
	}()
	wg.Wait()

	return result
}

// Categorize assigns one label from the fixed category set. Unrecognized or
// failed output falls back to DefaultCategory.
func (e *Enricher) Categorize(ctx context.Context, in Input) string {
	prompt := fmt.Sprintf(categoryPrompt,
		strings.Join(Categories(), ", "),
		in.URL,
		orDefault(in.Title, "No title"),
		orDefault(in.Caption, "No caption"))

	raw, err := e.client.Generate(ctx, prompt)
	if err != nil {
		slog.Warn("Categorization failed, using default", "url", in.URL, "error", err)
		return DefaultCategory
	}

	if canonical, ok := CanonicalCategory(raw); ok {
		return canonical
	}

	slog.Warn("Categorizer returned unknown label, using default", "url", in.URL, "label", raw)
	return DefaultCategory
}

// Summarize produces a one-sentence hook of at most 20 words. Failed or
// empty output leaves the summary empty.
func (e *Enricher) Summarize(ctx context.Context, in Input) string {
	prompt := fmt.Sprintf(summaryPrompt,
		in.Platform,
		orDefault(in.Title, "Unknown title"),
		orDefault(in.Caption, "No caption available"))

	raw, err := e.client.Generate(ctx, prompt)
	if err != nil {
		slog.Warn("Summarization failed, leaving summary empty", "url", in.URL, "error", err)
		return ""
	}

	return normalizeSummary(raw)
}

// ExtractTags produces up to 12 lowercase hyphenated tags. Denylisted and
// duplicate tokens are dropped; a failed call yields no tags.
func (e *Enricher) ExtractTags(ctx context.Context, in Input) []string {
	prompt := fmt.Sprintf(tagsPrompt,
		in.URL,
		in.Platform,
		orDefault(in.Title, "No title"),
		orDefault(in.Caption, "No caption"))

	raw, err := e.client.Generate(ctx, prompt)
	if err != nil {
		slog.Warn("Tag extraction failed, leaving tags empty", "url", in.URL, "error", err)
		return nil
	}

	return normalizeTags(raw)
}

// Answer runs one constrained RAG generation call. The prompt instructs the
// model to answer only from the supplied context; an explicit "not in your
// saves" response is a valid outcome, not an error.
func (e *Enricher) Answer(ctx context.Context, question, contextBlocks string) (string, error) {
	prompt := fmt.Sprintf(ragPrompt, question, contextBlocks)
	answer, err := e.client.Generate(ctx, prompt)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(answer), nil
}

// DailyDigest writes the daily-dose message for a resurfaced save.
func (e *Enricher) DailyDigest(ctx context.Context, topCategories, title, category, summary, timeAgo, url string) (string, error) {
	prompt := fmt.Sprintf(digestPrompt, topCategories, title, category, summary, timeAgo, url)
	message, err := e.client.Generate(ctx, prompt)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(message), nil
}

func normalizeSummary(raw string) string {
	summary := strings.TrimSpace(raw)
	for _, prefix := range []string{"One-liner:", "Summary:", "Description:"} {
		summary = strings.TrimSpace(strings.TrimPrefix(summary, prefix))
	}
	summary = strings.Trim(summary, `"`)

	words := strings.Fields(summary)
	if len(words) > maxSummaryWords {
		summary = strings.Join(words[:maxSummaryWords], " ") + "..."
	}
	return summary
}

func normalizeTags(raw string) []string {
	cleaned := strings.ToLower(strings.TrimSpace(raw))
	cleaned = strings.TrimPrefix(cleaned, "tags:")
	cleaned = strings.ReplaceAll(cleaned, `"`, "")
	cleaned = strings.ReplaceAll(cleaned, "'", "")

	var tags []string
	seen := make(map[string]bool)
	for _, part := range strings.Split(cleaned, ",") {
		tag := normalizeTag(part)
		if tag == "" || tagDenylist[tag] || seen[tag] {
			continue
		}
		seen[tag] = true
		tags = append(tags, tag)
		if len(tags) == maxTags {
			break
		}
	}
	return tags
}

var asciiFold = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// normalizeTag lowercases, strips diacritics, hyphenates spaces, and drops
// anything outside [a-z0-9-].
func normalizeTag(raw string) string {
	tag := strings.ToLower(strings.TrimSpace(raw))
	if folded, _, err := transform.String(asciiFold, tag); err == nil {
		tag = folded
	}

	var b strings.Builder
	for _, r := range tag {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-':
			b.WriteRune(r)
		case r == ' ' || r == '_':
			b.WriteRune('-')
		}
	}
	return strings.Trim(b.String(), "-")
}

func orDefault(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}
