package reminder

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/robfig/cron/v3"
)

// Scheduler invokes the reminder run on a fixed interval.
type Scheduler struct {
	cron     *cron.Cron
	service  *Service
	interval time.Duration
	entryID  cron.EntryID
}

// NewScheduler creates a scheduler running the service every interval.
func NewScheduler(service *Service, interval time.Duration) *Scheduler {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &Scheduler{
		cron:     cron.New(),
		service:  service,
		interval: interval,
	}
}

// Start begins the periodic reminder runs.
func (s *Scheduler) Start() error {
	spec := "@every " + s.interval.String()
	entryID, err := s.cron.AddFunc(spec, s.run)
	if err != nil {
		return fmt.Errorf("scheduling reminder run: %w", err)
	}
	s.entryID = entryID

	s.cron.Start()
	log.Printf("Reminder scheduler started (every %s)", s.interval)
	return nil
}

// Stop gracefully shuts down the scheduler, waiting for a running job.
func (s *Scheduler) Stop() {
	log.Println("Stopping reminder scheduler...")
	ctx := s.cron.Stop()
	<-ctx.Done()
	log.Println("Reminder scheduler stopped")
}

// TriggerRun starts an immediate run in the background, for ops use.
func (s *Scheduler) TriggerRun() {
	go s.run()
}

// NextRun returns the next scheduled run time.
func (s *Scheduler) NextRun() time.Time {
	return s.cron.Entry(s.entryID).Next
}

func (s *Scheduler) run() {
	ctx := context.Background()
	log.Println("Starting reminder run")

	summary, err := s.service.RunAll(ctx)
	if err != nil {
		log.Printf("Reminder run failed: %v", err)
		return
	}

	log.Printf("Reminder run %s completed: %d users, %d reminders sent, %d errors",
		summary.RunID, summary.UsersProcessed, summary.RemindersSent, len(summary.Errors))
	for _, e := range summary.Errors {
		log.Printf("Reminder run %s error for user %s: %s", summary.RunID, e.UserID, e.Message)
	}
}
