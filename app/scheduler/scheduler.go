package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/vibetix/event-scraper/app/scraper"
)

// State is the scheduler's explicit lifecycle state.
type State string

const (
	StateIdle         State = "idle"
	StateRunning      State = "running"
	StateRetryPending State = "retry_pending"
)

const (
	defaultTickInterval  = 60 * time.Second
	defaultSettlingDelay = 30 * time.Second
	defaultRetryDelay    = 30 * time.Minute
	defaultMaxRetries    = 2
	defaultStaleAfter    = 24 * time.Hour
)

// Orchestrator is the slice of the scraper service the scheduler
// drives.
type Orchestrator interface {
	Run(ctx context.Context, platformIDs []string) (*scraper.RunResult, error)
	LastScrapedAt() (*time.Time, error)
}

type trigger struct {
	reason string
	retry  bool
}

// Scheduler decides when the orchestrator runs: a fixed daily local
// time, a startup catch-up when the catalog is stale, and a bounded
// retry after a failed cycle. Runs execute on a single goroutine, so
// they can never overlap from here; ticks that land mid-run are
// dropped, not queued.
type Scheduler struct {
	orchestrator Orchestrator
	hour         int
	minute       int

	tickInterval  time.Duration
	settlingDelay time.Duration
	retryDelay    time.Duration
	maxRetries    int
	staleAfter    time.Duration

	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	triggers chan trigger

	mu         sync.Mutex
	active     bool
	state      State
	retryCount int
	lastRunAt  *time.Time
	lastResult *scraper.RunResult
}

func NewScheduler(orchestrator Orchestrator, hour, minute int) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())

	return &Scheduler{
		orchestrator:  orchestrator,
		hour:          hour,
		minute:        minute,
		tickInterval:  defaultTickInterval,
		settlingDelay: defaultSettlingDelay,
		retryDelay:    defaultRetryDelay,
		maxRetries:    defaultMaxRetries,
		staleAfter:    defaultStaleAfter,
		ctx:           ctx,
		cancel:        cancel,
		triggers:      make(chan trigger),
		state:         StateIdle,
	}
}

func (s *Scheduler) Start() {
	s.mu.Lock()
	s.active = true
	s.mu.Unlock()

	s.wg.Add(1)
	go s.runLoop()

	s.wg.Add(1)
	go s.tickLoop()

	slog.Info("Scheduler started", "daily_at", timeOfDay(s.hour, s.minute))
}

func (s *Scheduler) Stop() {
	s.cancel()
	s.wg.Wait()

	s.mu.Lock()
	s.active = false
	s.mu.Unlock()
}

func (s *Scheduler) tickLoop() {
	defer s.wg.Done()

	s.checkCatchUp()

	ticker := time.NewTicker(s.tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			now := time.Now().In(time.Local)
			if now.Hour() == s.hour && now.Minute() == s.minute {
				s.fire(trigger{reason: "daily schedule"})
			}
		}
	}
}

// checkCatchUp bounds catalog staleness independent of the daily tick:
// a deploy or crash must not push the next scrape a full day out.
func (s *Scheduler) checkCatchUp() {
	lastScraped, err := s.orchestrator.LastScrapedAt()
	if err != nil {
		slog.Error("Failed to determine last scrape time for catch-up", "error", err)
		return
	}

	if lastScraped == nil {
		slog.Info("No previous scrape found, scheduling initial run", "delay", s.settlingDelay)
		s.fireAfter(s.settlingDelay, trigger{reason: "initial run"})
		return
	}

	if age := time.Since(*lastScraped); age > s.staleAfter {
		slog.Info("Catalog is stale, triggering catch-up run", "last_scraped_at", lastScraped, "age", age)
		// Blocking send: at startup nothing else holds the run loop, and
		// the catch-up must not race the loop coming up and get dropped.
		select {
		case s.triggers <- trigger{reason: "catch-up"}:
		case <-s.ctx.Done():
		}
	}
}

// fire hands a trigger to the run loop. If a run is in progress the
// trigger is dropped: ticks are not queued.
func (s *Scheduler) fire(trg trigger) {
	select {
	case s.triggers <- trg:
	case <-s.ctx.Done():
	default:
		slog.Info("Run already in progress, skipping trigger", "reason", trg.reason)
	}
}

func (s *Scheduler) fireAfter(delay time.Duration, trg trigger) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		timer := time.NewTimer(delay)
		defer timer.Stop()
		select {
		case <-s.ctx.Done():
		case <-timer.C:
			s.fire(trg)
		}
	}()
}

func (s *Scheduler) runLoop() {
	defer s.wg.Done()

	for {
		select {
		case <-s.ctx.Done():
			return
		case trg := <-s.triggers:
			s.executeRun(trg)
		}
	}
}

func (s *Scheduler) executeRun(trg trigger) {
	s.mu.Lock()
	if !trg.retry {
		// A fresh triggering event starts a new retry budget.
		s.retryCount = 0
	}
	s.state = StateRunning
	s.mu.Unlock()

	slog.Info("Scheduled scraper run starting", "reason", trg.reason)

	result, err := s.orchestrator.Run(s.ctx, nil)

	if errors.Is(err, scraper.ErrRunInProgress) {
		slog.Warn("Scraper run already in progress, trigger ignored", "reason", trg.reason)
		s.mu.Lock()
		s.state = StateIdle
		s.mu.Unlock()
		return
	}

	now := time.Now().UTC()

	s.mu.Lock()
	s.lastRunAt = &now
	s.lastResult = result
	failed := err != nil || (result != nil && !result.Success)

	if failed && s.retryCount < s.maxRetries {
		s.retryCount++
		s.state = StateRetryPending
		attempt := s.retryCount
		s.mu.Unlock()

		if err != nil {
			slog.Error("Scraper run failed, scheduling retry", "reason", trg.reason, "attempt", attempt, "max_retries", s.maxRetries, "delay", s.retryDelay.String(), "error", err)
		} else {
			slog.Warn("Scraper run partially failed, scheduling retry", "reason", trg.reason, "attempt", attempt, "max_retries", s.maxRetries, "delay", s.retryDelay.String())
		}

		s.fireAfter(s.retryDelay, trigger{reason: "retry", retry: true})
		return
	}

	if failed {
		slog.Error("Scraper run failed after maximum retries, giving up until next trigger", "reason", trg.reason, "retry_count", s.retryCount, "error", err)
	}
	s.state = StateIdle
	s.mu.Unlock()
}

// Snapshot is a read-only view of the scheduler state for status
// queries.
type Snapshot struct {
	Active         bool       `json:"active"`
	State          State      `json:"state"`
	DailyAt        string     `json:"daily_at"`
	RetryCount     int        `json:"retry_count"`
	LastRunAt      *time.Time `json:"last_run_at,omitempty"`
	LastRunSuccess *bool      `json:"last_run_success,omitempty"`
}

func (s *Scheduler) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		Active:     s.active,
		State:      s.state,
		DailyAt:    timeOfDay(s.hour, s.minute),
		RetryCount: s.retryCount,
		LastRunAt:  s.lastRunAt,
	}
	if s.lastResult != nil {
		success := s.lastResult.Success
		snap.LastRunSuccess = &success
	}
	return snap
}

func timeOfDay(hour, minute int) string {
	return time.Date(0, 1, 1, hour, minute, 0, 0, time.UTC).Format("15:04")
}
