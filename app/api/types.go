package api

import (
	"context"

	"github.com/mvolkova/stashbot/app/bot"
	"github.com/mvolkova/stashbot/app/database"
	"github.com/mvolkova/stashbot/app/messenger"
	"github.com/mvolkova/stashbot/app/pipeline"
	"github.com/mvolkova/stashbot/app/tasks"
)

type MessageHandlerInterface interface {
	HandleMessage(ctx context.Context, from, body string) string
}

var _ MessageHandlerInterface = (*bot.Bot)(nil)

type RegeneratorInterface interface {
	Regenerate(ctx context.Context, id int64) (*database.SavedContent, error)
}

var _ RegeneratorInterface = (*pipeline.Processor)(nil)

type Handler struct {
	contentRepo    database.ContentRepository
	collectionRepo database.CollectionRepository
	bot            MessageHandlerInterface
	regenerator    RegeneratorInterface
	scheduler      tasks.TaskSchedulerInterface
	sender         messenger.Sender
	digester       tasks.Digester
	baseURL        string
}
