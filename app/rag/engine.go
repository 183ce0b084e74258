// Package rag answers questions about a user's saved content by retrieving
// lexically matching records and handing them to the language model as
// context.
package rag

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/mvolkova/stashbot/app/database"
)

const (
	maxContextItems = 5
	searchLimit     = 20

	// EmptyReply is sent when retrieval finds nothing. No model call is
	// made in that case.
	EmptyReply = "I couldn't find anything saved about that. Try saving some links first, or ask about something else!"
)

// Answerer is the model call used to compose the final reply.
type Answerer interface {
	Answer(ctx context.Context, question, contextBlocks string) (string, error)
}

// Searcher retrieves candidate records by lexical token match.
type Searcher interface {
	Search(userPhone string, tokens []string, limit int) ([]database.SavedContent, error)
}

// Engine wires retrieval and generation together.
type Engine struct {
	repo     Searcher
	answerer Answerer
}

func NewEngine(repo Searcher, answerer Answerer) *Engine {
	return &Engine{repo: repo, answerer: answerer}
}

// stopwords excluded from retrieval tokens. Question words carry no
// retrieval signal and would match almost everything.
var stopwords = map[string]bool{
	"a": true, "an": true, "the": true, "i": true, "me": true, "my": true,
	"is": true, "are": true, "was": true, "were": true, "be": true,
	"do": true, "does": true, "did": true, "have": true, "has": true,
	"what": true, "which": true, "who": true, "when": true, "where": true,
	"how": true, "why": true, "can": true, "could": true, "should": true,
	"about": true, "for": true, "from": true, "with": true, "that": true,
	"this": true, "those": true, "these": true, "you": true, "your": true,
	"of": true, "on": true, "in": true, "to": true, "and": true, "or": true,
	"any": true, "some": true, "show": true, "find": true, "saved": true,
	"save": true, "it": true, "its": true, "there": true,
}

// Ask answers a free-form question against the user's saved content.
func (e *Engine) Ask(ctx context.Context, userPhone, question string) (string, error) {
	tokens := Tokenize(question)
	if len(tokens) == 0 {
		return EmptyReply, nil
	}

	matches, err := e.repo.Search(userPhone, tokens, searchLimit)
	if err != nil {
		return "", fmt.Errorf("failed to search saved content: %w", err)
	}
	if len(matches) == 0 {
		return EmptyReply, nil
	}

	ranked := rank(matches, tokens)
	if len(ranked) > maxContextItems {
		ranked = ranked[:maxContextItems]
	}

	blocks := make([]string, 0, len(ranked))
	for _, item := range ranked {
		blocks = append(blocks, formatContextBlock(item))
	}

	answer, err := e.answerer.Answer(ctx, question, strings.Join(blocks, "\n\n---\n\n"))
	if err != nil {
		return "", fmt.Errorf("failed to generate answer: %w", err)
	}
	return answer, nil
}

// Tokenize lowercases the question, strips punctuation, and drops stopwords
// and single-character leftovers.
func Tokenize(question string) []string {
	fields := strings.FieldsFunc(strings.ToLower(question), func(r rune) bool {
		return !('a' <= r && r <= 'z') && !('0' <= r && r <= '9')
	})

	seen := make(map[string]bool, len(fields))
	var tokens []string
	for _, field := range fields {
		if len(field) < 2 || stopwords[field] || seen[field] {
			continue
		}
		seen[field] = true
		tokens = append(tokens, field)
	}
	return tokens
}

// rank orders matches by how many distinct tokens each one hits, newest
// first among equals.
func rank(items []database.SavedContent, tokens []string) []database.SavedContent {
	scores := make(map[int64]int, len(items))
	for _, item := range items {
		haystack := strings.ToLower(strings.Join([]string{
			item.Title, item.Caption, item.Summary, strings.Join(item.Tags, " "),
		}, " "))
		for _, token := range tokens {
			if strings.Contains(haystack, token) {
				scores[item.ID]++
			}
		}
	}

	ranked := make([]database.SavedContent, len(items))
	copy(ranked, items)
	sort.SliceStable(ranked, func(i, j int) bool {
		if scores[ranked[i].ID] != scores[ranked[j].ID] {
			return scores[ranked[i].ID] > scores[ranked[j].ID]
		}
		return ranked[i].CreatedAt.After(ranked[j].CreatedAt)
	})
	return ranked
}

func formatContextBlock(item database.SavedContent) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Title: %s\n", item.Title)
	if item.Summary != "" {
		fmt.Fprintf(&b, "Summary: %s\n", item.Summary)
	}
	fmt.Fprintf(&b, "Category: %s\n", item.Category)
	if len(item.Tags) > 0 {
		fmt.Fprintf(&b, "Tags: %s\n", strings.Join(item.Tags, ", "))
	}
	fmt.Fprintf(&b, "URL: %s", item.URL)
	return b.String()
}
