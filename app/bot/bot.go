// Package bot routes incoming chat messages: URLs go through the save flow,
// everything else is matched against the command set.
package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/mvolkova/stashbot/app/database"
	"github.com/mvolkova/stashbot/app/pipeline"
	"github.com/mvolkova/stashbot/app/streak"
)

var urlRe = regexp.MustCompile(`https?://[^\s]+`)

// Category groups behind the themed pick commands.
var (
	motivateCategories = []string{"Motivation & Self-Help", "Fitness & Workouts", "Mental Health & Mindfulness"}
	teachCategories    = []string{"Programming & Coding", "Science & Research", "Data Science", "Online Courses"}
	feedCategories     = []string{"Recipes & Cooking", "Food Science"}
)

// Saver runs the save flow for a URL.
type Saver interface {
	Process(ctx context.Context, userPhone, rawURL string) (*pipeline.Result, error)
	DuplicateReply(existing *database.SavedContent) string
}

// Browser reads back a user's saves for the pick and streak commands.
type Browser interface {
	GetRandom(userPhone string, categories []string, limit int) ([]database.SavedContent, error)
	SaveDates(userPhone string) ([]time.Time, error)
}

// Asker answers free-form questions over a user's saves.
type Asker interface {
	Ask(ctx context.Context, userPhone, question string) (string, error)
}

// Bot holds the command router's dependencies.
type Bot struct {
	saver   Saver
	browser Browser
	asker   Asker
	baseURL string
	now     func() time.Time
}

func New(saver Saver, browser Browser, asker Asker, baseURL string) *Bot {
	return &Bot{
		saver:   saver,
		browser: browser,
		asker:   asker,
		baseURL: strings.TrimRight(baseURL, "/"),
		now:     time.Now,
	}
}

// HandleMessage produces the reply for one incoming message. It always
// returns something sendable; internal failures degrade to an apology.
func (b *Bot) HandleMessage(ctx context.Context, from, body string) string {
	if match := urlRe.FindString(body); match != "" {
		return b.handleURL(ctx, from, match)
	}

	text := strings.ToLower(strings.TrimSpace(body))

	switch {
	case text == "surprise me" || text == "inspire me":
		return b.randomPick(from, nil)
	case text == "motivate me":
		return b.randomPick(from, motivateCategories)
	case text == "teach me":
		return b.randomPick(from, teachCategories)
	case text == "feed me":
		return b.randomPick(from, feedCategories)
	case text == "my streak" || text == "stats":
		return b.streakReply(from)
	case strings.HasPrefix(text, "ask:"):
		// Take the question from the raw body to preserve its casing.
		question := strings.TrimSpace(strings.TrimSpace(body)[4:])
		return b.askReply(ctx, from, question)
	default:
		return b.helpReply()
	}
}

func (b *Bot) handleURL(ctx context.Context, from, rawURL string) string {
	result, err := b.saver.Process(ctx, from, rawURL)
	if err != nil {
		var dup *pipeline.DuplicateError
		switch {
		case errors.As(err, &dup):
			return b.saver.DuplicateReply(dup.Existing)
		case errors.Is(err, pipeline.ErrInvalidURL):
			return "Invalid URL. Please send a valid URL to save."
		default:
			slog.Error("Failed to process url", "url", rawURL, "error", err.Error())
			return "An error occurred while processing your URL. Please try again."
		}
	}
	return result.Reply
}

func (b *Bot) randomPick(from string, categories []string) string {
	items, err := b.browser.GetRandom(from, categories, 1)
	if err != nil {
		slog.Error("Failed to pick random content", "error", err.Error())
		return "Something went wrong. Please try again."
	}
	if len(items) == 0 && len(categories) > 0 {
		// Nothing in the themed categories, fall back to any save.
		items, err = b.browser.GetRandom(from, nil, 1)
		if err != nil {
			slog.Error("Failed to pick random content", "error", err.Error())
			return "Something went wrong. Please try again."
		}
	}
	if len(items) == 0 {
		return "You don't have any saved content yet! Send me a URL to get started."
	}

	item := items[0]
	var sb strings.Builder
	sb.WriteString("Here's something from your saves:\n\n")
	fmt.Fprintf(&sb, "Title: %s\n", item.Title)
	fmt.Fprintf(&sb, "Category: %s\n", item.Category)
	fmt.Fprintf(&sb, "Summary: %s\n\n", item.Summary)
	fmt.Fprintf(&sb, "URL: %s", item.URL)
	return sb.String()
}

func (b *Bot) streakReply(from string) string {
	dates, err := b.browser.SaveDates(from)
	if err != nil {
		slog.Error("Failed to load save dates", "error", err.Error())
		return "Something went wrong. Please try again."
	}

	snapshot := streak.Compute(dates, b.now())

	var motivational string
	switch {
	case snapshot.CurrentStreak == 0:
		motivational = "Start saving today to begin your streak!"
	case snapshot.CurrentStreak <= 3:
		motivational = "Great start! Keep it going!"
	case snapshot.CurrentStreak <= 6:
		motivational = "You're on fire! Don't break the chain!"
	default:
		motivational = "Legendary! You're a knowledge hoarder!"
	}

	var sb strings.Builder
	sb.WriteString("Your Stash Stats!\n\n")
	fmt.Fprintf(&sb, "Current streak: %d days\n", snapshot.CurrentStreak)
	fmt.Fprintf(&sb, "Saved this week: %d links\n", snapshot.WeekCount)
	fmt.Fprintf(&sb, "Best streak ever: %d days\n\n", snapshot.BestStreak)
	sb.WriteString(motivational)
	return sb.String()
}

func (b *Bot) askReply(ctx context.Context, from, question string) string {
	if question == "" {
		return "Please include a question after 'ask:'\n\nExample: ask: what did I save about Python?"
	}
	answer, err := b.asker.Ask(ctx, from, question)
	if err != nil {
		slog.Error("Failed to answer question", "error", err.Error())
		return "Something went wrong answering that. Please try again."
	}
	return answer
}

func (b *Bot) helpReply() string {
	return "Welcome to Stashbot!\n\n" +
		"Send me any URL from Instagram, Twitter, YouTube, Reddit, " +
		"or any blog, and I'll save it with generated categories and summaries.\n\n" +
		"Or try these commands:\n" +
		"- 'surprise me' - Random pick\n" +
		"- 'motivate me' - Motivation & wellness\n" +
		"- 'teach me' - Learning & tech\n" +
		"- 'feed me' - Food & recipes\n" +
		"- 'my streak' - Your saving streak\n" +
		"- 'ask: <question>' - Search your saves\n\n" +
		fmt.Sprintf("View your saved content: %s/dashboard", b.baseURL)
}
