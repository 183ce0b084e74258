package bot

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/mvolkova/stashbot/app/database"
	"github.com/mvolkova/stashbot/app/pipeline"
)

type stubSaver struct {
	result *pipeline.Result
	err    error

	gotURL  string
	gotUser string
}

func (s *stubSaver) Process(_ context.Context, userPhone, rawURL string) (*pipeline.Result, error) {
	s.gotUser = userPhone
	s.gotURL = rawURL
	return s.result, s.err
}

func (s *stubSaver) DuplicateReply(existing *database.SavedContent) string {
	return "already saved: " + existing.Title
}

type stubBrowser struct {
	items         []database.SavedContent
	fallbackItems []database.SavedContent
	dates         []time.Time

	gotCategories [][]string
}

func (s *stubBrowser) GetRandom(_ string, categories []string, _ int) ([]database.SavedContent, error) {
	s.gotCategories = append(s.gotCategories, categories)
	if categories == nil {
		if s.fallbackItems != nil {
			return s.fallbackItems, nil
		}
		return s.items, nil
	}
	return s.items, nil
}

func (s *stubBrowser) SaveDates(string) ([]time.Time, error) {
	return s.dates, nil
}

type stubAsker struct {
	answer      string
	gotQuestion string
}

func (s *stubAsker) Ask(_ context.Context, _, question string) (string, error) {
	s.gotQuestion = question
	return s.answer, nil
}

func newTestBot(saver *stubSaver, browser *stubBrowser, asker *stubAsker) *Bot {
	if saver == nil {
		saver = &stubSaver{}
	}
	if browser == nil {
		browser = &stubBrowser{}
	}
	if asker == nil {
		asker = &stubAsker{}
	}
	b := New(saver, browser, asker, "https://stash.example.com")
	b.now = func() time.Time { return time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC) }
	return b
}

func TestHandleMessageURL(t *testing.T) {
	saver := &stubSaver{result: &pipeline.Result{Reply: "saved!"}}
	bot := newTestBot(saver, nil, nil)

	reply := bot.HandleMessage(context.Background(), "+1111", "check this out https://example.com/post extra words")
	if reply != "saved!" {
		t.Errorf("reply = %q, want the processor reply", reply)
	}
	if saver.gotURL != "https://example.com/post" {
		t.Errorf("extracted url = %q", saver.gotURL)
	}
	if saver.gotUser != "+1111" {
		t.Errorf("user = %q", saver.gotUser)
	}
}

func TestHandleMessageDuplicateURL(t *testing.T) {
	saver := &stubSaver{err: &pipeline.DuplicateError{
		Existing: &database.SavedContent{ID: 3, Title: "Old Post"},
	}}
	bot := newTestBot(saver, nil, nil)

	reply := bot.HandleMessage(context.Background(), "+1111", "https://example.com/dup")
	if reply != "already saved: Old Post" {
		t.Errorf("reply = %q", reply)
	}
}

func TestHandleMessageInvalidURL(t *testing.T) {
	saver := &stubSaver{err: pipeline.ErrInvalidURL}
	bot := newTestBot(saver, nil, nil)

	reply := bot.HandleMessage(context.Background(), "+1111", "https://")
	if !strings.Contains(reply, "Invalid URL") {
		t.Errorf("reply = %q", reply)
	}
}

func TestHandleMessageProcessError(t *testing.T) {
	saver := &stubSaver{err: errors.New("database exploded")}
	bot := newTestBot(saver, nil, nil)

	reply := bot.HandleMessage(context.Background(), "+1111", "https://example.com/x")
	if !strings.Contains(reply, "An error occurred") {
		t.Errorf("reply = %q", reply)
	}
	if strings.Contains(reply, "database exploded") {
		t.Error("internal error details must not leak into the reply")
	}
}

func TestHandleMessageSurpriseMe(t *testing.T) {
	browser := &stubBrowser{items: []database.SavedContent{{
		Title: "A Find", Category: "Travel Destinations",
		Summary: "Hidden beaches.", URL: "https://example.com/beach",
	}}}
	bot := newTestBot(nil, browser, nil)

	for _, cmd := range []string{"surprise me", "Inspire Me", "  SURPRISE ME  "} {
		reply := bot.HandleMessage(context.Background(), "+1111", cmd)
		if !strings.Contains(reply, "A Find") || !strings.Contains(reply, "https://example.com/beach") {
			t.Errorf("HandleMessage(%q) = %q", cmd, reply)
		}
	}
}

func TestHandleMessageThemedPicks(t *testing.T) {
	tests := []struct {
		command      string
		wantCategory string
	}{
		{"motivate me", "Motivation & Self-Help"},
		{"teach me", "Programming & Coding"},
		{"feed me", "Recipes & Cooking"},
	}

	for _, tt := range tests {
		browser := &stubBrowser{items: []database.SavedContent{{Title: "Pick"}}}
		bot := newTestBot(nil, browser, nil)

		bot.HandleMessage(context.Background(), "+1111", tt.command)
		if len(browser.gotCategories) != 1 {
			t.Fatalf("%q: GetRandom called %d times, want 1", tt.command, len(browser.gotCategories))
		}
		found := false
		for _, cat := range browser.gotCategories[0] {
			if cat == tt.wantCategory {
				found = true
			}
		}
		if !found {
			t.Errorf("%q queried categories %v, want %q included", tt.command, browser.gotCategories[0], tt.wantCategory)
		}
	}
}

func TestHandleMessageThemedPickFallsBack(t *testing.T) {
	browser := &stubBrowser{
		items:         nil,
		fallbackItems: []database.SavedContent{{Title: "Any Save", URL: "https://example.com/any"}},
	}
	bot := newTestBot(nil, browser, nil)

	reply := bot.HandleMessage(context.Background(), "+1111", "motivate me")
	if !strings.Contains(reply, "Any Save") {
		t.Errorf("reply = %q, want fallback pick", reply)
	}
	if len(browser.gotCategories) != 2 || browser.gotCategories[1] != nil {
		t.Errorf("expected category query then unrestricted fallback, got %v", browser.gotCategories)
	}
}

func TestHandleMessageNoSaves(t *testing.T) {
	bot := newTestBot(nil, &stubBrowser{}, nil)

	reply := bot.HandleMessage(context.Background(), "+1111", "surprise me")
	if !strings.Contains(reply, "don't have any saved content yet") {
		t.Errorf("reply = %q", reply)
	}
}

func TestHandleMessageStreak(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	browser := &stubBrowser{dates: []time.Time{
		now, now.AddDate(0, 0, -1), now.AddDate(0, 0, -2), now.AddDate(0, 0, -3), now.AddDate(0, 0, -4),
	}}
	bot := newTestBot(nil, browser, nil)

	for _, cmd := range []string{"my streak", "stats"} {
		reply := bot.HandleMessage(context.Background(), "+1111", cmd)
		if !strings.Contains(reply, "Current streak: 5 days") {
			t.Errorf("HandleMessage(%q) = %q", cmd, reply)
		}
		if !strings.Contains(reply, "Saved this week: 5 links") {
			t.Errorf("HandleMessage(%q) = %q", cmd, reply)
		}
		if !strings.Contains(reply, "You're on fire!") {
			t.Errorf("HandleMessage(%q) = %q, want mid-tier motivational line", cmd, reply)
		}
	}
}

func TestHandleMessageStreakEmpty(t *testing.T) {
	bot := newTestBot(nil, &stubBrowser{}, nil)

	reply := bot.HandleMessage(context.Background(), "+1111", "my streak")
	if !strings.Contains(reply, "Current streak: 0 days") {
		t.Errorf("reply = %q", reply)
	}
	if !strings.Contains(reply, "Start saving today") {
		t.Errorf("reply = %q, want zero-streak motivational line", reply)
	}
}

func TestHandleMessageAsk(t *testing.T) {
	asker := &stubAsker{answer: "You saved three pasta recipes."}
	bot := newTestBot(nil, nil, asker)

	reply := bot.HandleMessage(context.Background(), "+1111", "ask: What did I save about Pasta?")
	if reply != "You saved three pasta recipes." {
		t.Errorf("reply = %q", reply)
	}
	if asker.gotQuestion != "What did I save about Pasta?" {
		t.Errorf("question = %q, casing must be preserved", asker.gotQuestion)
	}
}

func TestHandleMessageAskEmptyQuestion(t *testing.T) {
	bot := newTestBot(nil, nil, &stubAsker{})

	reply := bot.HandleMessage(context.Background(), "+1111", "ask:   ")
	if !strings.Contains(reply, "Please include a question") {
		t.Errorf("reply = %q", reply)
	}
}

func TestHandleMessageHelp(t *testing.T) {
	bot := newTestBot(nil, nil, nil)

	reply := bot.HandleMessage(context.Background(), "+1111", "hello there")
	if !strings.Contains(reply, "Welcome to Stashbot!") {
		t.Errorf("reply = %q", reply)
	}
	if !strings.Contains(reply, "https://stash.example.com/dashboard") {
		t.Errorf("reply = %q, missing dashboard link", reply)
	}
}
