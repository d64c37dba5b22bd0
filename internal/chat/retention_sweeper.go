package chat

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

const (
	DefaultRetention     = time.Hour
	DefaultSweepInterval = 5 * time.Minute
)

// RetentionSweeper periodically prunes old messages and empty ad-hoc rooms.
type RetentionSweeper struct {
	rooms    *RoomRegistry
	maxAge   time.Duration
	interval time.Duration
	log      *slog.Logger
	now      func() time.Time

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	done    chan struct{}
}

func NewRetentionSweeper(rooms *RoomRegistry, maxAge, interval time.Duration, log *slog.Logger) *RetentionSweeper {
	if maxAge <= 0 {
		maxAge = DefaultRetention
	}
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	if log == nil {
		log = slog.Default()
	}
	return &RetentionSweeper{
		rooms:    rooms,
		maxAge:   maxAge,
		interval: interval,
		log:      log,
		now:      time.Now,
	}
}

// Start launches the sweep loop. It returns immediately; calling Start on a
// running sweeper does nothing. The loop ends when ctx is cancelled or Stop
// is called.
func (s *RetentionSweeper) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return
	}

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})
	s.running = true

	s.log.Info("Starting retention sweeper", "interval", s.interval, "maxAge", s.maxAge)
	go s.loop(ctx, s.done)
}

func (s *RetentionSweeper) loop(ctx context.Context, done chan struct{}) {
	defer close(done)
	defer s.finish(done)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			// A tick may race with cancellation; never mutate after Stop.
			if ctx.Err() != nil {
				return
			}
			if _, err := s.SweepOnce(); err != nil {
				s.log.Error("Retention sweep failed", "error", err)
			}
		case <-ctx.Done():
			s.log.Info("Stopping retention sweeper")
			return
		}
	}
}

// finish marks the sweeper stopped when the loop that owns done exits on
// its own, so a later Start can launch a new loop.
func (s *RetentionSweeper) finish(done chan struct{}) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.done == done {
		s.running = false
	}
}

// Stop cancels the loop and waits for it to exit. No sweep runs after Stop
// returns.
func (s *RetentionSweeper) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.cancel()
	done := s.done
	s.running = false
	s.mu.Unlock()

	<-done
}

func (s *RetentionSweeper) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// SweepOnce runs a single sweep. A panic inside the registry is converted
// into an error so the loop keeps ticking.
func (s *RetentionSweeper) SweepOnce() (result SweepResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("sweep panicked: %v", r)
		}
	}()

	result = s.rooms.Sweep(s.maxAge, s.now())
	if result.MessagesRemoved > 0 || len(result.RoomsRemoved) > 0 {
		s.log.Info("Retention sweep completed",
			"messagesRemoved", result.MessagesRemoved,
			"roomsRemoved", result.RoomsRemoved)
	}
	return result, nil
}
