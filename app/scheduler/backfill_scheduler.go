// Package scheduler
package scheduler

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/elevatehq/gamify/app/middleware"
	businessflow "github.com/elevatehq/gamify/business_flow"
	"github.com/elevatehq/gamify/utils"
)

// BackfillScheduler periodically sweeps queued completion events and re-drives
// those whose contact id has since been linked to a registered user.
type BackfillScheduler struct {
	reconcileFlow businessflow.ReconcileFlow
	logger        *log.Logger
	interval      time.Duration

	logFile *os.File
}

func NewBackfillScheduler(reconcileFlow businessflow.ReconcileFlow, interval time.Duration) *BackfillScheduler {
	if interval <= 0 {
		interval = utils.BackfillInterval
	}

	s := &BackfillScheduler{
		reconcileFlow: reconcileFlow,
		interval:      interval,
	}

	// Initialize scheduler-specific logger (to stdout and persistent file)
	if err := s.initSchedulerLogger(); err != nil {
		// Fallback to default stdout logger if file logger init fails
		s.logger = log.Default()
		s.logger.Printf("scheduler: failed to initialize file logger: %v", err)
	}

	return s
}

// initSchedulerLogger configures a logger that writes to both stdout and a persistent file under data/ (or /data)
func (s *BackfillScheduler) initSchedulerLogger() error {
	// Prefer relative data/ then fallback to /data for containerized environments
	candidates := []string{
		filepath.Join("data"),
		"/data",
	}
	for _, dir := range candidates {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			continue
		}
		logPath := filepath.Join(dir, "backfill.log")
		f, err := os.OpenFile(logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			continue
		}
		s.logFile = f
		mw := io.MultiWriter(os.Stdout, f)
		// log.Logger is goroutine-safe; include timestamps with microseconds and UTC
		s.logger = log.New(mw, "scheduler ", log.LstdFlags|log.Lmicroseconds|log.LUTC)
		return nil
	}
	return fmt.Errorf("could not create backfill log file in any candidate directory")
}

// Start launches the scheduler loop in a background goroutine and returns a stop function
func (s *BackfillScheduler) Start(parent context.Context) func() {
	ctx, cancel := context.WithCancel(parent)

	go func() {
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		s.runOnce(ctx)

		for {
			select {
			case <-ctx.Done():
				if s.logFile != nil {
					s.logFile.Close()
				}
				return
			case <-ticker.C:
				s.runOnce(ctx)
			}
		}
	}()

	return cancel
}

func (s *BackfillScheduler) runOnce(ctx context.Context) {
	sweepCtx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	metadata := &businessflow.ClientMetadata{
		IPAddress: "internal",
		UserAgent: "backfill-scheduler",
	}

	summary, err := s.reconcileFlow.BackfillAll(sweepCtx, metadata)
	if err != nil {
		s.logger.Printf("scheduler: backfill sweep failed: %v", err)
		if summary != nil {
			middleware.CountBackfillEvents(summary.Credited, summary.Ignored, summary.Failed)
		}
		return
	}
	if summary.Scanned == 0 {
		return
	}

	s.logger.Printf("scheduler: backfill sweep scanned=%d credited=%d ignored=%d failed=%d",
		summary.Scanned, summary.Credited, summary.Ignored, summary.Failed)
	middleware.CountBackfillEvents(summary.Credited, summary.Ignored, summary.Failed)
}
