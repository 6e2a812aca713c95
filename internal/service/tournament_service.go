// Package service is the entry point callers use to create, start and
// progress tournaments and to read their derived state.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/AdamBeresnev/op-tournament-engine/internal/bracket"
	"github.com/AdamBeresnev/op-tournament-engine/internal/format"
	"github.com/AdamBeresnev/op-tournament-engine/internal/notify"
	"github.com/AdamBeresnev/op-tournament-engine/internal/store"
	"github.com/google/uuid"
)

const DefaultCacheTTL = 30 * time.Second

type Notifier interface {
	Notify(ctx context.Context, event notify.Event)
}

type TournamentService struct {
	store    *store.TournamentStore
	cache    *Cache
	notifier Notifier

	locks [lockStripes]sync.Mutex
}

// lockStripes bounds the writer locks. Tournaments sharing a stripe only
// serialise with each other, never deadlock.
const lockStripes = 256

// NewTournamentService wires the service. notifier may be nil.
func NewTournamentService(store *store.TournamentStore, notifier Notifier, cacheTTL time.Duration) *TournamentService {
	s := &TournamentService{
		store:    store,
		notifier: notifier,
	}
	s.cache = NewCache(cacheTTL, s.loadSnapshot)
	return s
}

func (s *TournamentService) loadSnapshot(ctx context.Context, id uuid.UUID) (*Snapshot, error) {
	tournament, matches, err := s.store.Snapshot(ctx, id)
	if err != nil {
		return nil, err
	}
	return &Snapshot{Tournament: *tournament, Matches: matches}, nil
}

// lockFor returns the mutex serialising writers of one tournament inside this
// process. The row lock taken by the store covers other processes.
func (s *TournamentService) lockFor(id uuid.UUID) *sync.Mutex {
	return &s.locks[id[len(id)-1]]
}

// write runs fn in a transaction holding the tournament's writer lock and
// drops the cached snapshot once it commits. The lock is released on return,
// before any event goes out.
func (s *TournamentService) write(ctx context.Context, id uuid.UUID, fn func(tx *store.Tx) error) error {
	mu := s.lockFor(id)
	mu.Lock()
	defer mu.Unlock()

	if err := s.store.WithTx(ctx, id, fn); err != nil {
		return err
	}
	s.cache.Invalidate(id)
	return nil
}

func (s *TournamentService) emit(ctx context.Context, event notify.Event) {
	if s.notifier == nil {
		return
	}
	s.notifier.Notify(context.WithoutCancel(ctx), event)
}

// CreateTournament validates the format and roster and stores a pending tournament.
func (s *TournamentService) CreateTournament(ctx context.Context, name string, date time.Time, f bracket.Format, participants []uuid.UUID) (uuid.UUID, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return uuid.Nil, fmt.Errorf("%w: tournament name is required", bracket.ErrValidation)
	}
	if err := format.ValidateRoster(f, participants); err != nil {
		return uuid.Nil, err
	}

	tournament := &bracket.Tournament{
		ID:           uuid.New(),
		Name:         name,
		Date:         date.UTC(),
		Format:       f,
		Status:       bracket.TournamentPending,
		Participants: slices.Clone(participants),
	}
	if err := s.store.CreateTournament(ctx, tournament); err != nil {
		return uuid.Nil, fmt.Errorf("failed to create tournament: %w", err)
	}

	slog.Info("tournament created", "tournament_id", tournament.ID, "format", f, "participants", len(participants))
	s.emit(ctx, notify.Event{Type: notify.TournamentCreated, TournamentID: tournament.ID})
	return tournament.ID, nil
}

// StartTournament generates the initial match graph and activates the tournament.
func (s *TournamentService) StartTournament(ctx context.Context, id uuid.UUID) error {
	var created int
	err := s.write(ctx, id, func(tx *store.Tx) error {
		tournament, err := tx.GetTournament(ctx, id)
		if err != nil {
			return err
		}
		if tournament.Status != bracket.TournamentPending {
			return fmt.Errorf("tournament %s is %s: %w", id, tournament.Status, bracket.ErrInvalidStatus)
		}

		strategy, err := format.ForFormat(tournament.Format)
		if err != nil {
			return err
		}
		matches, err := strategy.GenerateMatches(tournament.ID, tournament.Participants)
		if err != nil {
			return err
		}
		if err := tx.InsertMatches(ctx, matches); err != nil {
			return err
		}
		created = len(matches)
		return tx.SetTournamentStatus(ctx, id, bracket.TournamentActive)
	})
	if err != nil {
		return err
	}

	slog.Info("tournament started", "tournament_id", id, "matches", created)
	s.emit(ctx, notify.Event{Type: notify.TournamentStarted, TournamentID: id})
	return nil
}

// ReportMatchResult completes a scheduled match and lets the format propagate
// it. Every write of one report happens in a single transaction; the winner is
// declared at most once. It returns the completed match.
func (s *TournamentService) ReportMatchResult(ctx context.Context, tournamentID, matchID uuid.UUID, result bracket.Result) (*bracket.Match, error) {
	if err := result.Validate(); err != nil {
		return nil, err
	}

	var (
		completed *bracket.Match
		champion  *uuid.UUID
	)
	err := s.write(ctx, tournamentID, func(tx *store.Tx) error {
		tournament, err := tx.GetTournament(ctx, tournamentID)
		if err != nil {
			return err
		}
		if tournament.Status != bracket.TournamentActive {
			return fmt.Errorf("tournament %s is %s: %w", tournamentID, tournament.Status, bracket.ErrInvalidStatus)
		}

		match, err := tx.GetMatch(ctx, matchID)
		if err != nil {
			return err
		}
		if match.TournamentID != tournamentID {
			return fmt.Errorf("match %s in tournament %s: %w", matchID, tournamentID, bracket.ErrNotFound)
		}

		strategy, err := format.ForFormat(tournament.Format)
		if err != nil {
			return err
		}
		if err := strategy.UpdateMatchResult(ctx, tx, tournament, match, result); err != nil {
			return err
		}

		winner, err := strategy.DetermineWinner(ctx, tx, tournament)
		if err != nil {
			return err
		}
		if winner != nil && tournament.WinnerID == nil {
			if err := tx.SetTournamentWinner(ctx, tournamentID, *winner); err != nil {
				return err
			}
			champion = winner
		}

		completed, err = tx.GetMatch(ctx, matchID)
		return err
	})
	if err != nil {
		return nil, err
	}

	slog.Info("match completed", "tournament_id", tournamentID, "match_id", matchID, "winner_id", completed.WinnerID)
	if completed.IsStage(bracket.GrandFinal) && champion == nil {
		slog.Info("true final created", "tournament_id", tournamentID)
	}
	s.emit(ctx, notify.Event{Type: notify.MatchCompleted, TournamentID: tournamentID, MatchID: &completed.ID, WinnerID: completed.WinnerID})

	if champion != nil {
		slog.Info("tournament winner declared", "tournament_id", tournamentID, "winner_id", *champion)
		standings, err := s.GetStandings(ctx, tournamentID)
		if err != nil {
			slog.Warn("failed to load final standings", "tournament_id", tournamentID, "error", err)
		}
		s.emit(ctx, notify.Event{Type: notify.TournamentCompleted, TournamentID: tournamentID, WinnerID: champion, Standings: standings})
	}

	return completed, nil
}

func (s *TournamentService) GetTournament(ctx context.Context, id uuid.UUID) (*bracket.Tournament, error) {
	snapshot, err := s.cache.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	tournament := snapshot.Tournament
	tournament.Participants = slices.Clone(tournament.Participants)
	return &tournament, nil
}

func (s *TournamentService) ListTournaments(ctx context.Context) ([]bracket.Tournament, error) {
	return s.store.ListTournaments(ctx)
}

// GetMatches returns the tournament's matches ordered by round and match number.
func (s *TournamentService) GetMatches(ctx context.Context, id uuid.UUID) ([]bracket.Match, error) {
	snapshot, err := s.cache.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return slices.Clone(snapshot.Matches), nil
}

// GetStandings ranks the roster the way the tournament's format does.
func (s *TournamentService) GetStandings(ctx context.Context, id uuid.UUID) ([]bracket.Standing, error) {
	snapshot, err := s.cache.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	strategy, err := format.ForFormat(snapshot.Tournament.Format)
	if err != nil {
		return nil, err
	}
	return strategy.Standings(&snapshot.Tournament, snapshot.Matches), nil
}

// GetNextMatches returns up to limit matches awaiting a result, in play order.
// A limit of zero or less returns all of them.
func (s *TournamentService) GetNextMatches(ctx context.Context, id uuid.UUID, limit int) ([]bracket.Match, error) {
	snapshot, err := s.cache.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	next := []bracket.Match{}
	for _, m := range snapshot.Matches {
		if m.Status != bracket.MatchScheduled {
			continue
		}
		next = append(next, m)
		if limit > 0 && len(next) == limit {
			break
		}
	}
	return next, nil
}

// GetProgressPercent is the share of planned matches already completed. Only a
// completed tournament reports 100.
func (s *TournamentService) GetProgressPercent(ctx context.Context, id uuid.UUID) (int, error) {
	snapshot, err := s.cache.Get(ctx, id)
	if err != nil {
		return 0, err
	}

	switch snapshot.Tournament.Status {
	case bracket.TournamentPending:
		return 0, nil
	case bracket.TournamentCompleted:
		return 100, nil
	}

	strategy, err := format.ForFormat(snapshot.Tournament.Format)
	if err != nil {
		return 0, err
	}
	planned := strategy.PlannedMatches(&snapshot.Tournament, snapshot.Matches)
	if planned <= 0 {
		return 0, nil
	}

	done := 0
	for _, m := range snapshot.Matches {
		if m.Status == bracket.MatchCompleted {
			done++
		}
	}
	return min(99, done*100/planned), nil
}
