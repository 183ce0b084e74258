package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/mvolkova/stashbot/app/cfg"
	"github.com/mvolkova/stashbot/app/messenger"
)

var _ TaskSchedulerInterface = (*Scheduler)(nil)

type Scheduler struct {
	repo     ContentReader
	sender   messenger.Sender
	digester Digester

	baseURL         string
	dailyDoseHour   int
	weeklyDigestDay time.Weekday
	workerCount     int

	lastDailyDose    string
	lastWeeklyDigest string

	now       func() time.Time
	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	taskQueue chan TaskInterface
}

func NewScheduler(repo ContentReader, sender messenger.Sender, digester Digester) TaskSchedulerInterface {
	ctx, cancel := context.WithCancel(context.Background())
	cfg := cfg.Get()

	return &Scheduler{
		repo:            repo,
		sender:          sender,
		digester:        digester,
		baseURL:         cfg.BaseUrl,
		dailyDoseHour:   cfg.DailyDoseHour,
		weeklyDigestDay: parseWeekday(cfg.WeeklyDigestDay),
		workerCount:     cfg.WorkerCount,
		now:             time.Now,
		ctx:             ctx,
		cancel:          cancel,
		taskQueue:       make(chan TaskInterface, 100),
	}
}

func (s *Scheduler) Start() {
	for i := 0; i < s.workerCount; i++ {
		s.wg.Add(1)
		go s.worker(i)
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()

		for {
			select {
			case <-s.ctx.Done():
				return
			case <-ticker.C:
				s.enqueueDueTasks()
			}
		}
	}()
}

func (s *Scheduler) Stop() {
	s.cancel()
	s.wg.Wait()
	close(s.taskQueue)
}

func (s *Scheduler) EnqueueTask(task TaskInterface) error {
	select {
	case s.taskQueue <- task:
		return nil
	case <-s.ctx.Done():
		return s.ctx.Err()
	default:
		return fmt.Errorf("task queue is full")
	}
}

// enqueueDueTasks fires each digest at most once per day, at the configured
// local hour.
func (s *Scheduler) enqueueDueTasks() {
	now := s.now()
	today := now.Format("2006-01-02")

	if now.Hour() == s.dailyDoseHour && s.lastDailyDose != today {
		s.lastDailyDose = today
		task := NewDailyDoseTask(s.repo, s.sender, s.digester)
		if err := s.EnqueueTask(task); err != nil {
			slog.Warn("Failed to enqueue DailyDoseTask", "error", err.Error())
		}
	}

	if now.Weekday() == s.weeklyDigestDay && now.Hour() == s.dailyDoseHour && s.lastWeeklyDigest != today {
		s.lastWeeklyDigest = today
		task := NewWeeklyDigestTask(s.repo, s.sender, s.baseURL)
		if err := s.EnqueueTask(task); err != nil {
			slog.Warn("Failed to enqueue WeeklyDigestTask", "error", err.Error())
		}
	}
}

func (s *Scheduler) worker(id int) {
	defer s.wg.Done()

	for {
		select {
		case task, ok := <-s.taskQueue:
			if !ok {
				return
			}
			s.executeTask(id, task)

		case <-s.ctx.Done():
			return
		}
	}
}

func (s *Scheduler) executeTask(workerID int, task TaskInterface) {
	task.Start()

	taskCtx, cancel := context.WithTimeout(s.ctx, 5*time.Minute)
	defer cancel()

	err := task.Execute(taskCtx)
	if err == nil {
		slog.Debug("Task completed", "worker_id", workerID, "type", string(task.GetType()), "duration", task.GetDuration().String())
		return
	}

	// Digests are not retried; the next scheduled run covers the gap.
	slog.Error("Worker task execution failed", "worker_id", workerID, "type", string(task.GetType()), "id", task.GetID(), "error", err)
}

func parseWeekday(name string) time.Weekday {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "monday":
		return time.Monday
	case "tuesday":
		return time.Tuesday
	case "wednesday":
		return time.Wednesday
	case "thursday":
		return time.Thursday
	case "friday":
		return time.Friday
	case "saturday":
		return time.Saturday
	default:
		return time.Sunday
	}
}
