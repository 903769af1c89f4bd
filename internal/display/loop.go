package display

import (
	"context"
	"errors"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
)

var (
	ErrLoopBusy    = errors.New("display loop command queue is full")
	ErrLoopStopped = errors.New("display loop is not running")
)

// Command runs on the loop goroutine between ticks.
type Command func(*DisplayScheduler)

// Loop owns the scheduler. Ticks and commands are handled on one goroutine,
// so no tick ever sees a half-applied command.
type Loop struct {
	scheduler *DisplayScheduler
	commands  chan Command
	frame     time.Duration
	clock     clockwork.Clock
	logger    *zap.Logger
	done      chan struct{}
}

func NewLoop(scheduler *DisplayScheduler, fps int, clock clockwork.Clock, logger *zap.Logger) *Loop {
	if fps <= 0 {
		fps = 30
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Loop{
		scheduler: scheduler,
		commands:  make(chan Command, 32),
		frame:     time.Second / time.Duration(fps),
		clock:     clock,
		logger:    logger,
		done:      make(chan struct{}),
	}
}

// Run ticks the scheduler once per frame until ctx is cancelled.
func (l *Loop) Run(ctx context.Context) error {
	defer close(l.done)

	ticker := l.clock.NewTicker(l.frame)
	defer ticker.Stop()

	last := l.clock.Now()
	l.logger.Info("Display loop started",
		zap.Duration("frame", l.frame),
		zap.Int("screens", len(l.scheduler.State().ScreenOrder)))

	for {
		select {
		case <-ctx.Done():
			l.logger.Info("Display loop stopped")
			return ctx.Err()
		case cmd := <-l.commands:
			cmd(l.scheduler)
		case <-ticker.Chan():
			now := l.clock.Now()
			l.scheduler.Tick(now.Sub(last))
			last = now
		}
	}
}

// Send queues cmd without blocking.
func (l *Loop) Send(cmd Command) error {
	select {
	case <-l.done:
		return ErrLoopStopped
	default:
	}
	select {
	case l.commands <- cmd:
		return nil
	default:
		return ErrLoopBusy
	}
}

// Do runs fn on the loop goroutine and waits for it to finish.
func (l *Loop) Do(ctx context.Context, fn func(*DisplayScheduler)) error {
	finished := make(chan struct{})
	err := l.Send(func(s *DisplayScheduler) {
		defer close(finished)
		fn(s)
	})
	if err != nil {
		return err
	}
	select {
	case <-finished:
		return nil
	case <-l.done:
		return ErrLoopStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Status returns a copy of the schedule state and the active flags.
func (l *Loop) Status(ctx context.Context) (ScheduleState, Flags, error) {
	var (
		state ScheduleState
		flags Flags
	)
	err := l.Do(ctx, func(s *DisplayScheduler) {
		state = s.State()
		flags = s.Flags()
	})
	return state, flags, err
}

func NextCommand() Command {
	return func(s *DisplayScheduler) { s.Next() }
}

func PreviousCommand() Command {
	return func(s *DisplayScheduler) { s.Previous() }
}

func TogglePauseCommand() Command {
	return func(s *DisplayScheduler) { s.TogglePause() }
}

func SetFlagsCommand(flags Flags) Command {
	return func(s *DisplayScheduler) { s.SetFlags(flags) }
}
