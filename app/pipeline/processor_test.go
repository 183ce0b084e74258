package pipeline

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/mvolkova/stashbot/app/ai"
	"github.com/mvolkova/stashbot/app/content"
	"github.com/mvolkova/stashbot/app/database"
)

type fakeStore struct {
	items  map[int64]*database.SavedContent
	nextID int64

	insertErr error
	inserted  []database.SavedContent
}

func newFakeStore() *fakeStore {
	return &fakeStore{items: make(map[int64]*database.SavedContent), nextID: 1}
}

func (s *fakeStore) Insert(c database.SavedContent) (int64, error) {
	if s.insertErr != nil {
		return 0, s.insertErr
	}
	for _, existing := range s.items {
		if existing.URL == c.URL && existing.UserPhone == c.UserPhone {
			return 0, database.ErrDuplicateURL
		}
	}
	c.ID = s.nextID
	c.CreatedAt = time.Now().UTC()
	s.nextID++
	s.items[c.ID] = &c
	s.inserted = append(s.inserted, c)
	return c.ID, nil
}

func (s *fakeStore) GetByID(id int64) (*database.SavedContent, error) {
	return s.items[id], nil
}

func (s *fakeStore) GetByURLAndUser(url, userPhone string) (*database.SavedContent, error) {
	for _, item := range s.items {
		if item.URL == url && item.UserPhone == userPhone {
			return item, nil
		}
	}
	return nil, nil
}

func (s *fakeStore) GetRelated(userPhone, category string, excludeID int64, limit int) ([]database.SavedContent, error) {
	var related []database.SavedContent
	for _, item := range s.items {
		if item.UserPhone == userPhone && item.Category == category && item.ID != excludeID {
			related = append(related, *item)
		}
		if len(related) == limit {
			break
		}
	}
	return related, nil
}

func (s *fakeStore) Update(id int64, fields database.UpdateFields) (bool, error) {
	item, ok := s.items[id]
	if !ok {
		return false, nil
	}
	if fields.Title != nil {
		item.Title = *fields.Title
	}
	if fields.Caption != nil {
		item.Caption = *fields.Caption
	}
	if fields.ImageURL != nil {
		item.ImageURL = *fields.ImageURL
	}
	if fields.Category != nil {
		item.Category = *fields.Category
	}
	if fields.Summary != nil {
		item.Summary = *fields.Summary
	}
	if fields.Tags != nil {
		item.Tags = fields.Tags
	}
	return true, nil
}

type stubEnricher struct {
	result ai.Enrichment
	input  ai.Input
	calls  int
}

func (s *stubEnricher) Enrich(_ context.Context, in ai.Input) ai.Enrichment {
	s.input = in
	s.calls++
	return s.result
}

type countingExtractor struct {
	calls int
}

func (e *countingExtractor) Run(_ context.Context, rawURL string, platform content.Platform) (*content.Metadata, error) {
	e.calls++
	return &content.Metadata{URL: rawURL, Platform: platform}, nil
}

func newTestExtractor() *content.Extractor {
	return content.NewExtractor(&http.Client{}, "test-agent/1.0", 5*time.Second)
}

func TestProcessSavesArticle(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><head>
			<meta property="og:title" content="Test Article">
			<meta property="og:description" content="An article used for testing.">
			<meta property="og:image" content="https://example.com/img.jpg">
		</head><body><p>Body text here.</p></body></html>`))
	}))
	defer server.Close()

	store := newFakeStore()
	enricher := &stubEnricher{result: ai.Enrichment{
		Category: "Programming & Coding",
		Summary:  "An article used for testing.",
		Tags:     []string{"testing", "golang"},
	}}
	processor := NewProcessor(store, newTestExtractor(), enricher, "https://stash.example.com/")

	result, err := processor.Process(context.Background(), "+1111", server.URL)
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}

	saved := result.Content
	if saved.Platform != "website" {
		t.Errorf("Platform = %q, want website", saved.Platform)
	}
	if saved.Title != "Test Article" {
		t.Errorf("Title = %q, want Test Article", saved.Title)
	}
	if saved.Category != "Programming & Coding" {
		t.Errorf("Category = %q", saved.Category)
	}
	if len(saved.Tags) != 2 {
		t.Errorf("Tags = %v, want 2 tags", saved.Tags)
	}
	if enricher.calls != 1 {
		t.Errorf("enricher called %d times, want 1", enricher.calls)
	}
	if enricher.input.Title != "Test Article" {
		t.Errorf("enricher input title = %q", enricher.input.Title)
	}

	if !strings.Contains(result.Reply, "Content saved successfully!") {
		t.Errorf("Reply = %q, missing confirmation", result.Reply)
	}
	if !strings.Contains(result.Reply, "An article used for testing.") {
		t.Errorf("Reply = %q, missing summary", result.Reply)
	}
	if !strings.Contains(result.Reply, "Programming & Coding") {
		t.Errorf("Reply = %q, missing category", result.Reply)
	}
	if !strings.Contains(result.Reply, "https://stash.example.com/content/1") {
		t.Errorf("Reply = %q, missing dashboard link", result.Reply)
	}
}

func TestProcessInvalidURL(t *testing.T) {
	processor := NewProcessor(newFakeStore(), newTestExtractor(), nil, "https://stash.example.com")

	for _, raw := range []string{"not a url", "ftp://example.com/x", ""} {
		_, err := processor.Process(context.Background(), "+1111", raw)
		if !errors.Is(err, ErrInvalidURL) {
			t.Errorf("Process(%q) error = %v, want ErrInvalidURL", raw, err)
		}
	}
}

func TestProcessDuplicateURL(t *testing.T) {
	store := newFakeStore()
	store.items[7] = &database.SavedContent{
		ID: 7, URL: "https://example.com/seen", UserPhone: "+1111",
		Title: "Seen Before", Category: "Other",
		CreatedAt: time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC),
	}
	processor := NewProcessor(store, newTestExtractor(), nil, "https://stash.example.com")

	_, err := processor.Process(context.Background(), "+1111", "https://example.com/seen")
	var dup *DuplicateError
	if !errors.As(err, &dup) {
		t.Fatalf("Process() error = %v, want DuplicateError", err)
	}
	if dup.Existing.ID != 7 {
		t.Errorf("Existing.ID = %d, want 7", dup.Existing.ID)
	}
	if len(store.inserted) != 0 {
		t.Error("duplicate URL must not be inserted again")
	}

	reply := processor.DuplicateReply(dup.Existing)
	if !strings.Contains(reply, "You already saved this on 2025-05-01!") {
		t.Errorf("DuplicateReply = %q", reply)
	}
	if !strings.Contains(reply, "https://stash.example.com/content/7") {
		t.Errorf("DuplicateReply = %q, missing link", reply)
	}
}

func TestProcessSameURLDifferentUser(t *testing.T) {
	store := newFakeStore()
	store.items[1] = &database.SavedContent{
		ID: 1, URL: "https://example.com/shared", UserPhone: "+2222",
	}
	store.nextID = 2

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><head><title>Shared</title></head><body></body></html>`))
	}))
	defer server.Close()

	processor := NewProcessor(store, newTestExtractor(), nil, "https://stash.example.com")

	// The fake store matches on URL alone for its duplicate check, so re-point
	// the saved record's URL at the test server to exercise the user scoping.
	store.items[1].URL = server.URL

	result, err := processor.Process(context.Background(), "+1111", server.URL)
	if err != nil {
		t.Fatalf("Process() for second user error = %v", err)
	}
	if result.Content.UserPhone != "+1111" {
		t.Errorf("UserPhone = %q, want +1111", result.Content.UserPhone)
	}
}

func TestProcessExtractionFailureSavesBareRecord(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	store := newFakeStore()
	processor := NewProcessor(store, newTestExtractor(), nil, "https://stash.example.com")

	result, err := processor.Process(context.Background(), "+1111", server.URL)
	if err != nil {
		t.Fatalf("Process() error = %v, extraction failure must not abort the save", err)
	}

	saved := result.Content
	if saved.Title != "" || saved.Caption != "" {
		t.Errorf("bare record should have empty metadata, got title=%q caption=%q", saved.Title, saved.Caption)
	}
	if saved.Category != ai.DefaultCategory {
		t.Errorf("Category = %q, want %q", saved.Category, ai.DefaultCategory)
	}
	if saved.URL != server.URL {
		t.Errorf("URL = %q, want %q", saved.URL, server.URL)
	}
}

func TestProcessWithoutEnricherUsesDefaults(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><head><title>Plain</title></head><body></body></html>`))
	}))
	defer server.Close()

	store := newFakeStore()
	processor := NewProcessor(store, newTestExtractor(), nil, "https://stash.example.com")

	result, err := processor.Process(context.Background(), "+1111", server.URL)
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if result.Content.Category != ai.DefaultCategory {
		t.Errorf("Category = %q, want default", result.Content.Category)
	}
	if result.Content.Summary != "" || len(result.Content.Tags) != 0 {
		t.Errorf("summary/tags should be empty without a model, got %q %v",
			result.Content.Summary, result.Content.Tags)
	}
}

func TestProcessIncludesRelatedSaves(t *testing.T) {
	store := newFakeStore()
	store.items[1] = &database.SavedContent{
		ID: 1, URL: "https://example.com/r1", UserPhone: "+1111",
		Title: "Earlier Save", Category: "Programming & Coding",
	}
	store.nextID = 2

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><head><title>New</title></head><body></body></html>`))
	}))
	defer server.Close()

	enricher := &stubEnricher{result: ai.Enrichment{Category: "Programming & Coding"}}
	processor := NewProcessor(store, newTestExtractor(), enricher, "https://stash.example.com")

	result, err := processor.Process(context.Background(), "+1111", server.URL)
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if len(result.Related) != 1 || result.Related[0].ID != 1 {
		t.Errorf("Related = %v, want the earlier same-category save", result.Related)
	}
	if !strings.Contains(result.Reply, "Related saves you might revisit:") {
		t.Errorf("Reply = %q, missing related block", result.Reply)
	}
	if !strings.Contains(result.Reply, "Earlier Save") {
		t.Errorf("Reply = %q, missing related title", result.Reply)
	}
}

func TestRegenerate(t *testing.T) {
	store := newFakeStore()
	created := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	store.items[5] = &database.SavedContent{
		ID: 5, URL: "https://example.com/stored", UserPhone: "+1111",
		Title: "Stored Title", Caption: "Stored caption.", ImageURL: "https://example.com/img.jpg",
		Category: "Other", CreatedAt: created,
	}

	extractor := &countingExtractor{}
	enricher := &stubEnricher{result: ai.Enrichment{
		Category: "Science & Research",
		Summary:  "Fresh summary.",
		Tags:     []string{"fresh"},
	}}
	processor := NewProcessor(store, extractor, enricher, "https://stash.example.com")

	updated, err := processor.Regenerate(context.Background(), 5)
	if err != nil {
		t.Fatalf("Regenerate() error = %v", err)
	}
	if extractor.calls != 0 {
		t.Errorf("extractor called %d times, regeneration must not refetch", extractor.calls)
	}
	if enricher.input.Title != "Stored Title" || enricher.input.Caption != "Stored caption." {
		t.Errorf("enricher input = %+v, want the stored metadata", enricher.input)
	}
	if updated.Title != "Stored Title" || updated.Caption != "Stored caption." || updated.ImageURL != "https://example.com/img.jpg" {
		t.Errorf("extracted fields changed: title=%q caption=%q image=%q",
			updated.Title, updated.Caption, updated.ImageURL)
	}
	if updated.Category != "Science & Research" {
		t.Errorf("Category = %q", updated.Category)
	}
	if updated.Summary != "Fresh summary." || len(updated.Tags) != 1 {
		t.Errorf("Summary = %q, Tags = %v", updated.Summary, updated.Tags)
	}
	if !updated.CreatedAt.Equal(created) {
		t.Errorf("CreatedAt = %v, must not change", updated.CreatedAt)
	}
}

func TestRegenerateMissingContent(t *testing.T) {
	processor := NewProcessor(newFakeStore(), newTestExtractor(), nil, "https://stash.example.com")

	updated, err := processor.Regenerate(context.Background(), 404)
	if err != nil {
		t.Fatalf("Regenerate() error = %v", err)
	}
	if updated != nil {
		t.Errorf("Regenerate(missing) = %v, want nil", updated)
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("short", 50); got != "short" {
		t.Errorf("truncate(short) = %q", got)
	}
	long := strings.Repeat("a", 60)
	if got := truncate(long, 50); got != strings.Repeat("a", 50)+"..." {
		t.Errorf("truncate(long) = %q", got)
	}
}
