package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mvolkova/stashbot/app/ai"
	"github.com/mvolkova/stashbot/app/api"
	"github.com/mvolkova/stashbot/app/bot"
	"github.com/mvolkova/stashbot/app/cfg"
	"github.com/mvolkova/stashbot/app/content"
	"github.com/mvolkova/stashbot/app/database"
	"github.com/mvolkova/stashbot/app/messenger"
	"github.com/mvolkova/stashbot/app/pipeline"
	"github.com/mvolkova/stashbot/app/rag"
	"github.com/mvolkova/stashbot/app/tasks"
)

func main() {
	appCfg, err := cfg.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if appCfg == nil {
		// Help was shown
		return
	}

	logLevel := slog.LevelInfo
	if appCfg.Debug {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})))

	slog.Info("Starting Stashbot server", "version", appCfg.Version)

	db, err := database.NewConnection(appCfg.DBPath)
	if err != nil {
		slog.Error("Failed to open database", "path", appCfg.DBPath, "error", err.Error())
		os.Exit(1)
	}
	defer db.Close()

	version, dirty, err := database.RunMigrations(db)
	if err != nil {
		slog.Error("Failed to run migrations", "error", err.Error())
		os.Exit(1)
	}
	slog.Info("Database ready", "path", appCfg.DBPath, "schema_version", version, "dirty", dirty)

	contentRepo := database.NewContentRepository(db)
	collectionRepo := database.NewCollectionRepository(db)

	httpClient := &http.Client{Timeout: time.Duration(appCfg.RequestTimeout) * time.Second}
	extractor := content.NewExtractor(httpClient, appCfg.UserAgent,
		time.Duration(appCfg.RequestTimeout)*time.Second)

	var enricher *ai.Enricher
	if appCfg.AIConfigured() {
		client := ai.NewGroqClient(appCfg.AIAPIKey, appCfg.AIBaseUrl, appCfg.AIModel, appCfg.AITemperature)
		enricher = ai.NewEnricher(client)
		slog.Info("AI enrichment enabled", "model", appCfg.AIModel)
	} else {
		slog.Warn("AI enrichment disabled (AI_API_KEY not set), saves get default category")
	}

	var sender messenger.Sender = messenger.LogSender{}
	if appCfg.MessengerConfigured() {
		sender = messenger.NewTwilioSender(appCfg.TwilioAccountSID, appCfg.TwilioAuthToken, appCfg.TwilioFromNumber)
		slog.Info("Messenger sending enabled")
	} else {
		slog.Warn("Messenger sending disabled (Twilio credentials not set), digests are logged only")
	}

	var processor *pipeline.Processor
	if enricher != nil {
		processor = pipeline.NewProcessor(contentRepo, extractor, enricher, appCfg.BaseUrl)
	} else {
		processor = pipeline.NewProcessor(contentRepo, extractor, nil, appCfg.BaseUrl)
	}

	var ragEngine *rag.Engine
	if enricher != nil {
		ragEngine = rag.NewEngine(contentRepo, enricher)
	}

	chatBot := bot.New(processor, contentRepo, botAsker(ragEngine, contentRepo), appCfg.BaseUrl)

	var digester tasks.Digester
	if enricher != nil {
		digester = enricher
	}
	scheduler := tasks.NewScheduler(contentRepo, sender, digester)
	scheduler.Start()
	defer scheduler.Stop()
	slog.Info("Background scheduler started", "workers", appCfg.WorkerCount,
		"daily_dose_hour", appCfg.DailyDoseHour, "weekly_digest_day", appCfg.WeeklyDigestDay)

	apiHandler := api.NewHandler(contentRepo, collectionRepo, chatBot, processor,
		scheduler, sender, digester, appCfg.BaseUrl)
	server := api.NewServer(apiHandler)

	httpServer := &http.Server{
		Addr:         ":" + appCfg.Port,
		Handler:      server,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serverErrChan := make(chan error, 1)
	go func() {
		slog.Info("HTTP server listening", "port", appCfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		slog.Info("Received signal", "signal", sig.String())
	case err := <-serverErrChan:
		slog.Error("Server error", "error", err.Error())
	}

	slog.Info("Shutting down gracefully")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err.Error())
	}

	slog.Info("Shutdown complete")
}

// botAsker adapts the RAG engine for the bot, answering without the model
// when enrichment is not configured.
func botAsker(engine *rag.Engine, repo database.ContentRepository) bot.Asker {
	if engine != nil {
		return engine
	}
	return plainAsker{repo: repo}
}

// plainAsker lists matching saves without generating an answer.
type plainAsker struct {
	repo database.ContentRepository
}

func (a plainAsker) Ask(_ context.Context, userPhone, question string) (string, error) {
	tokens := rag.Tokenize(question)
	if len(tokens) == 0 {
		return rag.EmptyReply, nil
	}

	items, err := a.repo.Search(userPhone, tokens, 5)
	if err != nil {
		return "", err
	}
	if len(items) == 0 {
		return rag.EmptyReply, nil
	}

	reply := fmt.Sprintf("Found %d relevant save(s):\n\n", len(items))
	for _, item := range items {
		title := item.Title
		if title == "" {
			title = "Untitled"
		}
		reply += fmt.Sprintf("- %s: %s\n", title, item.URL)
	}
	return reply, nil
}
