package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/mvolkova/stashbot/app/messenger"
)

// WeeklyDigestTask sends each user a summary of their past week's saves.
// Users with nothing saved that week are skipped.
type WeeklyDigestTask struct {
	Task
	repo    ContentReader
	sender  messenger.Sender
	baseURL string
}

func NewWeeklyDigestTask(repo ContentReader, sender messenger.Sender, baseURL string) *WeeklyDigestTask {
	return &WeeklyDigestTask{
		Task:    NewTask(TaskTypeWeeklyDigest),
		repo:    repo,
		sender:  sender,
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

func (t *WeeklyDigestTask) Execute(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	users, err := t.repo.DistinctUsers()
	if err != nil {
		return fmt.Errorf("failed to list users: %w", err)
	}

	weekAgo := time.Now().AddDate(0, 0, -7)
	sent := 0

	for _, user := range users {
		total, err := t.repo.CountSince(user, weekAgo)
		if err != nil {
			slog.Warn("Failed to count weekly saves", "user", user, "error", err.Error())
			continue
		}
		if total == 0 {
			continue
		}

		counts, err := t.repo.CategoryCountsSince(user, weekAgo)
		if err != nil {
			slog.Warn("Failed to count weekly categories", "user", user, "error", err.Error())
			continue
		}

		if err := t.sender.Send(ctx, user, t.compose(total, counts)); err != nil {
			slog.Warn("Failed to send weekly digest", "user", user, "error", err.Error())
			continue
		}
		sent++
	}

	slog.Info("Weekly digest run completed", "users", len(users), "sent", sent)
	return nil
}

func (t *WeeklyDigestTask) compose(total int, counts map[string]int) string {
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

	var b strings.Builder
	b.WriteString("Your Weekly Stash Digest!\n\n")
	fmt.Fprintf(&b, "You saved %d links this week\n\n", total)

	if len(entries) > 0 {
		b.WriteString("Top categories:\n")
		ranks := []string{"1st", "2nd", "3rd"}
		for i, e := range entries {
			if i == len(ranks) {
				break
			}
			fmt.Fprintf(&b, "%s %s - %d links\n", ranks[i], e.name, e.count)
		}
	}

	b.WriteString("\nKeep it up!\n")
	fmt.Fprintf(&b, "View dashboard: %s/dashboard", t.baseURL)
	return b.String()
}
