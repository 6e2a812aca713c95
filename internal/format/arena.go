package format

import (
	"context"
	"fmt"
	"sync"

	"github.com/AdamBeresnev/op-tournament-engine/internal/bracket"
	"github.com/google/uuid"
)

// Arena is an in-memory Repository holding one tournament's match graph keyed
// by match id. Generation builds brackets inside an arena so byes go through
// the same propagation path as reported results.
type Arena struct {
	mu      sync.Mutex
	matches map[uuid.UUID]*bracket.Match
	order   []uuid.UUID

	WinnerID *uuid.UUID
	Status   bracket.TournamentStatus
}

func NewArena(matches ...bracket.Match) *Arena {
	a := &Arena{
		matches: make(map[uuid.UUID]*bracket.Match, len(matches)),
		Status:  bracket.TournamentActive,
	}
	for i := range matches {
		a.put(matches[i])
	}
	return a
}

func (a *Arena) put(m bracket.Match) {
	if _, ok := a.matches[m.ID]; !ok {
		a.order = append(a.order, m.ID)
	}
	copied := m
	a.matches[m.ID] = &copied
}

// Matches returns copies of every match in insertion order.
func (a *Arena) Matches() []bracket.Match {
	a.mu.Lock()
	defer a.mu.Unlock()

	out := make([]bracket.Match, 0, len(a.order))
	for _, id := range a.order {
		out = append(out, *a.matches[id])
	}
	return out
}

func (a *Arena) Len() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.order)
}

func (a *Arena) GetMatch(_ context.Context, id uuid.UUID) (*bracket.Match, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	m, ok := a.matches[id]
	if !ok {
		return nil, fmt.Errorf("match %s: %w", id, bracket.ErrNotFound)
	}
	copied := *m
	return &copied, nil
}

func (a *Arena) GetTournamentMatches(_ context.Context, tournamentID uuid.UUID) ([]bracket.Match, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	out := make([]bracket.Match, 0, len(a.order))
	for _, id := range a.order {
		if m := a.matches[id]; m.TournamentID == tournamentID {
			out = append(out, *m)
		}
	}
	bracket.SortMatches(out)
	return out, nil
}

func (a *Arena) UpdateMatch(_ context.Context, id uuid.UUID, update bracket.MatchUpdate) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	m, ok := a.matches[id]
	if !ok {
		return fmt.Errorf("match %s: %w", id, bracket.ErrNotFound)
	}
	if update.ExpectStatus != nil && m.Status != *update.ExpectStatus {
		return fmt.Errorf("match %s is %s: %w", id, m.Status, bracket.ErrMatchNotPlayable)
	}
	update.Apply(m)
	return nil
}

func (a *Arena) CreateMatch(_ context.Context, match *bracket.Match) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if _, ok := a.matches[match.ID]; ok {
		return fmt.Errorf("match %s already exists", match.ID)
	}
	a.put(*match)
	return nil
}

func (a *Arena) InsertMatches(_ context.Context, matches []bracket.Match) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	for _, m := range matches {
		if _, ok := a.matches[m.ID]; ok {
			return fmt.Errorf("match %s already exists", m.ID)
		}
	}
	for _, m := range matches {
		a.put(m)
	}
	return nil
}

func (a *Arena) AdvanceParticipant(_ context.Context, targetMatchID, participantID uuid.UUID) (*bracket.Match, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	m, ok := a.matches[targetMatchID]
	if !ok {
		return nil, fmt.Errorf("match %s: %w", targetMatchID, bracket.ErrNotFound)
	}

	id := participantID
	switch m.OpenSlot() {
	case 1:
		m.Player1ID = &id
	case 2:
		m.Player2ID = &id
	default:
		return nil, fmt.Errorf("match %s: %w", targetMatchID, bracket.ErrAlreadyAssigned)
	}
	if m.IsFull() && m.Status == bracket.MatchPending {
		m.Status = bracket.MatchScheduled
	}

	copied := *m
	return &copied, nil
}

func (a *Arena) SetTournamentWinner(_ context.Context, _ uuid.UUID, participantID uuid.UUID) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.WinnerID != nil {
		return fmt.Errorf("tournament winner already set: %w", bracket.ErrInvalidStatus)
	}
	id := participantID
	a.WinnerID = &id
	a.Status = bracket.TournamentCompleted
	return nil
}

func (a *Arena) SetTournamentStatus(_ context.Context, _ uuid.UUID, status bracket.TournamentStatus) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.Status = status
	return nil
}
