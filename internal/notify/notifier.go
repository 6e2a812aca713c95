// Package notify fans tournament lifecycle events out to observers.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/AdamBeresnev/op-tournament-engine/internal/bracket"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

type EventType string

const (
	TournamentCreated   EventType = "tournament_created"
	TournamentStarted   EventType = "tournament_started"
	MatchCompleted      EventType = "match_completed"
	TournamentCompleted EventType = "tournament_completed"
)

type Event struct {
	Type         EventType          `json:"type"`
	TournamentID uuid.UUID          `json:"tournamentId"`
	MatchID      *uuid.UUID         `json:"matchId,omitempty"`
	WinnerID     *uuid.UUID         `json:"winnerId,omitempty"`
	Standings    []bracket.Standing `json:"standings,omitempty"`
	At           time.Time          `json:"at"`
}

type Observer interface {
	Name() string
	Observe(ctx context.Context, event Event) error
}

const DefaultTimeout = 5 * time.Second

// Notifier delivers every event to all observers concurrently. Each observer
// runs under its own timeout; errors, panics and timeouts are logged and never
// reach the caller or the other observers.
type Notifier struct {
	timeout time.Duration

	mu        sync.RWMutex
	observers []Observer
}

func New(timeout time.Duration, observers ...Observer) *Notifier {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Notifier{timeout: timeout, observers: observers}
}

func (n *Notifier) Subscribe(o Observer) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.observers = append(n.observers, o)
}

// Notify returns once every observer has finished or timed out.
func (n *Notifier) Notify(ctx context.Context, event Event) {
	if event.At.IsZero() {
		event.At = time.Now().UTC()
	}

	n.mu.RLock()
	observers := make([]Observer, len(n.observers))
	copy(observers, n.observers)
	n.mu.RUnlock()

	// A plain group: one failing observer must not cancel the rest.
	var g errgroup.Group
	for _, o := range observers {
		g.Go(func() error {
			n.deliver(ctx, o, event)
			return nil
		})
	}
	_ = g.Wait()
}

func (n *Notifier) deliver(ctx context.Context, o Observer, event Event) {
	ctx, cancel := context.WithTimeout(ctx, n.timeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- fmt.Errorf("observer panicked: %v", r)
			}
		}()
		done <- o.Observe(ctx, event)
	}()

	select {
	case err := <-done:
		if err != nil {
			slog.Error("observer failed", "observer", o.Name(), "event", event.Type, "tournament_id", event.TournamentID, "error", err)
		}
	case <-ctx.Done():
		slog.Warn("observer timed out", "observer", o.Name(), "event", event.Type, "tournament_id", event.TournamentID, "error", ctx.Err())
	}
}

// LogObserver writes one structured log line per event.
type LogObserver struct {
	Logger *slog.Logger
}

func (LogObserver) Name() string { return "log" }

func (l LogObserver) Observe(ctx context.Context, event Event) error {
	logger := l.Logger
	if logger == nil {
		logger = slog.Default()
	}

	attrs := []any{"event", event.Type, "tournament_id", event.TournamentID}
	if event.MatchID != nil {
		attrs = append(attrs, "match_id", *event.MatchID)
	}
	if event.WinnerID != nil {
		attrs = append(attrs, "winner_id", *event.WinnerID)
	}
	logger.InfoContext(ctx, "tournament event", attrs...)
	return nil
}
