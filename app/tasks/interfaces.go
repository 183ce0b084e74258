package tasks

import (
	"context"
	"time"

	"github.com/mvolkova/stashbot/app/database"
)

// TaskSchedulerInterface defines the interface for background task
// scheduling. Used by the main application to manage the worker pool and by
// HTTP handlers to trigger digests on demand.
type TaskSchedulerInterface interface {
	Start()
	Stop()
	EnqueueTask(task TaskInterface) error
}

// ContentReader is the slice of the repository the digest tasks need.
type ContentReader interface {
	DistinctUsers() ([]string, error)
	GetRandom(userPhone string, categories []string, limit int) ([]database.SavedContent, error)
	CountSince(userPhone string, since time.Time) (int, error)
	CategoryCountsSince(userPhone string, since time.Time) (map[string]int, error)
}

// Digester composes the daily dose message with the language model. A nil
// Digester falls back to the plain template.
type Digester interface {
	DailyDigest(ctx context.Context, topCategories, title, category, summary, timeAgo, url string) (string, error)
}
