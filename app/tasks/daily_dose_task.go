package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/mvolkova/stashbot/app/database"
	"github.com/mvolkova/stashbot/app/messenger"
)

// DailyDoseTask resurfaces one forgotten save per user. One failed send does
// not stop delivery to the remaining users, and the task itself is never
// retried: the next scheduled run covers it.
type DailyDoseTask struct {
	Task
	repo     ContentReader
	sender   messenger.Sender
	digester Digester
}

func NewDailyDoseTask(repo ContentReader, sender messenger.Sender, digester Digester) *DailyDoseTask {
	return &DailyDoseTask{
		Task:     NewTask(TaskTypeDailyDose),
		repo:     repo,
		sender:   sender,
		digester: digester,
	}
}

func (t *DailyDoseTask) Execute(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	users, err := t.repo.DistinctUsers()
	if err != nil {
		return fmt.Errorf("failed to list users: %w", err)
	}
	if len(users) == 0 {
		slog.Debug("No users with saved content, skipping daily dose")
		return nil
	}

	sent := 0
	for _, user := range users {
		items, err := t.repo.GetRandom(user, nil, 1)
		if err != nil {
			slog.Warn("Failed to pick daily dose content", "user", user, "error", err.Error())
			continue
		}
		if len(items) == 0 {
			continue
		}

		message := t.compose(ctx, user, items[0])
		if err := t.sender.Send(ctx, user, message); err != nil {
			slog.Warn("Failed to send daily dose", "user", user, "error", err.Error())
			continue
		}
		sent++
	}

	slog.Info("Daily dose run completed", "users", len(users), "sent", sent)
	return nil
}

func (t *DailyDoseTask) compose(ctx context.Context, user string, item database.SavedContent) string {
	timeAgo := humanTimeAgo(item.CreatedAt, time.Now())

	if t.digester != nil {
		counts, err := t.repo.CategoryCountsSince(user, time.Now().AddDate(0, 0, -30))
		if err == nil {
			message, genErr := t.digester.DailyDigest(ctx, topCategoryList(counts, 3),
				item.Title, item.Category, item.Summary, timeAgo, item.URL)
			if genErr == nil && message != "" {
				return message
			}
			if genErr != nil {
				slog.Warn("Daily digest generation failed, using template", "user", user, "error", genErr.Error())
			}
		}
	}

	var b strings.Builder
	b.WriteString("Your Daily Dose of Inspiration!\n\n")
	fmt.Fprintf(&b, "You saved this %s and never revisited it\n\n", timeAgo)
	fmt.Fprintf(&b, "Title: %s\n", item.Title)
	fmt.Fprintf(&b, "Category: %s\n", item.Category)
	fmt.Fprintf(&b, "Summary: %s\n\n", item.Summary)
	fmt.Fprintf(&b, "URL: %s\n\n", item.URL)
	b.WriteString("Rediscover something great today!")
	return b.String()
}

func topCategoryList(counts map[string]int, n int) string {
	type entry struct {
		name  string
		count int
	}
	entries := make([]entry, 0, len(counts))
	for name, count := range counts {
		entries = append(entries, entry{name, count})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].count != entries[j].count {
			return entries[i].count > entries[j].count
		}
		return entries[i].name < entries[j].name
	})

	var names []string
	for i, e := range entries {
		if i == n {
			break
		}
		names = append(names, e.name)
	}
	return strings.Join(names, ", ")
}

// humanTimeAgo renders a save age the way a person would say it.
func humanTimeAgo(saved, now time.Time) string {
	days := int(now.Sub(saved).Hours() / 24)
	weeks := days / 7
	months := days / 30

	switch {
	case days <= 0:
		return "today"
	case days == 1:
		return "1 day ago"
	case days < 7:
		return fmt.Sprintf("%d days ago", days)
	case weeks == 1:
		return "1 week ago"
	case weeks < 4:
		return fmt.Sprintf("%d weeks ago", weeks)
	case months == 1:
		return "1 month ago"
	default:
		return fmt.Sprintf("%d months ago", months)
	}
}
