package ai

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
)

// stubClient returns canned responses keyed by a prompt substring; unmatched
// prompts fail with a GenerationError.
type stubClient struct {
	mu        sync.Mutex
	responses map[string]string
	failAll   bool
	prompts   []string
}

func (s *stubClient) Generate(ctx context.Context, prompt string) (string, error) {
	s.mu.Lock()
	s.prompts = append(s.prompts, prompt)
	s.mu.Unlock()

	if s.failAll {
		return "", &GenerationError{Err: errors.New("stub failure")}
	}
	for key, response := range s.responses {
		if strings.Contains(prompt, key) {
			return response, nil
		}
	}
	return "", &GenerationError{Err: errors.New("no stubbed response")}
}

func TestCategories_FixedTable(t *testing.T) {
	cats := Categories()

	if len(cats) != 100 {
		t.Errorf("Expected 100 categories, got %d", len(cats))
	}
	if cats[len(cats)-1] != "Other" {
		t.Errorf("Expected 'Other' to be the final category, got %q", cats[len(cats)-1])
	}

	seen := make(map[string]bool)
	for _, cat := range cats {
		if seen[cat] {
			t.Errorf("Duplicate category %q", cat)
		}
		seen[cat] = true
	}
}

func TestCanonicalCategory(t *testing.T) {
	cases := []struct {
		raw       string
		canonical string
		ok        bool
	}{
		{"Web Development", "Web Development", true},
		{"web development", "Web Development", true},
		{"  Recipes & Cooking  ", "Recipes & Cooking", true},
		{`"Photography"`, "Photography", true},
		{"Yoga & Stretching.", "Yoga & Stretching", true},
		{"Underwater Basket Weaving", "", false},
		{"", "", false},
	}

	for _, tc := range cases {
		canonical, ok := CanonicalCategory(tc.raw)
		if ok != tc.ok {
			t.Errorf("CanonicalCategory(%q) ok = %v, want %v", tc.raw, ok, tc.ok)
			continue
		}
		if ok && canonical != tc.canonical {
			t.Errorf("CanonicalCategory(%q) = %q, want %q", tc.raw, canonical, tc.canonical)
		}
	}
}

func TestEnricher_Categorize_UnknownLabelFallsBackToOther(t *testing.T) {
	client := &stubClient{responses: map[string]string{"content librarian": "Quantum Flower Arranging"}}
	enricher := NewEnricher(client)

	category := enricher.Categorize(context.Background(), Input{URL: "https://example.com"})
	if category != DefaultCategory {
		t.Errorf("Expected fallback to %q, got %q", DefaultCategory, category)
	}
}

func TestEnricher_Categorize_NormalizesCase(t *testing.T) {
	client := &stubClient{responses: map[string]string{"content librarian": "  machine learning "}}
	enricher := NewEnricher(client)

	category := enricher.Categorize(context.Background(), Input{URL: "https://example.com"})
	if category != "Machine Learning" {
		t.Errorf("Expected 'Machine Learning', got %q", category)
	}
}

func TestEnricher_Summarize_StripsPrefixAndTruncates(t *testing.T) {
	long := "Summary: " + strings.Repeat("word ", 30)
	client := &stubClient{responses: map[string]string{"viral content writer": long}}
	enricher := NewEnricher(client)

	summary := enricher.Summarize(context.Background(), Input{Title: "Test"})

	if strings.HasPrefix(summary, "Summary:") {
		t.Errorf("Expected prefix stripped, got %q", summary)
	}
	words := strings.Fields(strings.TrimSuffix(summary, "..."))
	if len(words) > 20 {
		t.Errorf("Expected at most 20 words, got %d: %q", len(words), summary)
	}
}

func TestEnricher_Summarize_FailureLeavesEmpty(t *testing.T) {
	enricher := NewEnricher(&stubClient{failAll: true})

	if summary := enricher.Summarize(context.Background(), Input{Title: "Test"}); summary != "" {
		t.Errorf("Expected empty summary on failure, got %q", summary)
	}
}

func TestEnricher_ExtractTags_DenylistAndDedup(t *testing.T) {
	client := &stubClient{responses: map[string]string{
		"search engine optimizer": "Python, post, machine learning, python, VIDEO, café-culture, clean code",
	}}
	enricher := NewEnricher(client)

	tags := enricher.ExtractTags(context.Background(), Input{Title: "Test"})

	expected := []string{"python", "machine-learning", "cafe-culture", "clean-code"}
	if len(tags) != len(expected) {
		t.Fatalf("Expected tags %v, got %v", expected, tags)
	}
	for i, tag := range expected {
		if tags[i] != tag {
			t.Errorf("Expected tag %q at position %d, got %q", tag, i, tags[i])
		}
	}
}

func TestEnricher_ExtractTags_CapsAtTwelve(t *testing.T) {
	parts := make([]string, 20)
	for i := range parts {
		parts[i] = strings.Repeat("t", i+1) // unique tags
	}
	client := &stubClient{responses: map[string]string{
		"search engine optimizer": strings.Join(parts, ", "),
	}}
	enricher := NewEnricher(client)

	tags := enricher.ExtractTags(context.Background(), Input{Title: "Test"})
	if len(tags) != 12 {
		t.Errorf("Expected 12 tags, got %d", len(tags))
	}
}

func TestEnricher_Enrich_PartialFailureDoesNotBlockOthers(t *testing.T) {
	// Only the categorize prompt succeeds; summary and tags degrade.
	client := &stubClient{responses: map[string]string{"content librarian": "Photography"}}
	enricher := NewEnricher(client)

	result := enricher.Enrich(context.Background(), Input{URL: "https://example.com", Title: "Lens review"})

	if result.Category != "Photography" {
		t.Errorf("Expected category 'Photography', got %q", result.Category)
	}
	if result.Summary != "" {
		t.Errorf("Expected empty summary, got %q", result.Summary)
	}
	if len(result.Tags) != 0 {
		t.Errorf("Expected no tags, got %v", result.Tags)
	}
}

func TestEnricher_Enrich_TotalFailureYieldsDefaults(t *testing.T) {
	enricher := NewEnricher(&stubClient{failAll: true})

	result := enricher.Enrich(context.Background(), Input{URL: "https://example.com"})

	if result.Category != DefaultCategory {
		t.Errorf("Expected category %q, got %q", DefaultCategory, result.Category)
	}
	if result.Summary != "" || len(result.Tags) != 0 {
		t.Errorf("Expected empty summary and tags, got %+v", result)
	}
}

func TestNormalizeTag(t *testing.T) {
	cases := []struct {
		raw      string
		expected string
	}{
		{"Machine Learning", "machine-learning"},
		{"  café culture  ", "cafe-culture"},
		{"C++", "c"},
		{"--edge--", "edge"},
		{"snake_case", "snake-case"},
		{"", ""},
	}

	for _, tc := range cases {
		if got := normalizeTag(tc.raw); got != tc.expected {
			t.Errorf("normalizeTag(%q) = %q, want %q", tc.raw, got, tc.expected)
		}
	}
}
