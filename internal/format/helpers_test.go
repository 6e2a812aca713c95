package format

import (
	"context"
	"testing"

	"github.com/AdamBeresnev/op-tournament-engine/internal/bracket"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func players(n int) []uuid.UUID {
	ids := make([]uuid.UUID, n)
	for i := range ids {
		ids[i] = uuid.New()
	}
	return ids
}

// fixedOrder disables shuffling for the rest of the test.
func fixedOrder(t *testing.T) {
	t.Helper()
	prev := shuffle
	shuffle = func(ids []uuid.UUID) []uuid.UUID {
		out := make([]uuid.UUID, len(ids))
		copy(out, ids)
		return out
	}
	t.Cleanup(func() { shuffle = prev })
}

func newTournament(f bracket.Format, participants []uuid.UUID) *bracket.Tournament {
	return &bracket.Tournament{
		ID:           uuid.New(),
		Name:         "Test Tournament",
		Format:       f,
		Status:       bracket.TournamentActive,
		Participants: participants,
	}
}

func start(t *testing.T, s Strategy, tour *bracket.Tournament) *Arena {
	t.Helper()
	matches, err := s.GenerateMatches(tour.ID, tour.Participants)
	require.NoError(t, err)
	return NewArena(matches...)
}

// report runs one result through the strategy the way the service does.
func report(t *testing.T, s Strategy, arena *Arena, tour *bracket.Tournament, matchID uuid.UUID, result bracket.Result) error {
	t.Helper()
	ctx := context.Background()

	m, err := arena.GetMatch(ctx, matchID)
	if err != nil {
		return err
	}
	if err := s.UpdateMatchResult(ctx, arena, tour, m, result); err != nil {
		return err
	}

	winner, err := s.DetermineWinner(ctx, arena, tour)
	if err != nil {
		return err
	}
	if winner != nil && arena.WinnerID == nil {
		return arena.SetTournamentWinner(ctx, tour.ID, *winner)
	}
	return nil
}

// resultFor builds a result where winner takes the match. Sets are written
// from the winner's side and flipped when the winner sits in slot 2.
func resultFor(m *bracket.Match, winner uuid.UUID, sets ...bracket.SetScore) bracket.Result {
	if len(sets) == 0 {
		sets = []bracket.SetScore{{11, 7}, {11, 8}, {11, 9}}
	}
	oriented := make(bracket.Sets, len(sets))
	for i, s := range sets {
		if m.Player1ID != nil && *m.Player1ID == winner {
			oriented[i] = s
		} else {
			oriented[i] = bracket.SetScore{Player1: s.Player2, Player2: s.Player1}
		}
	}
	p1, p2 := oriented.Won()
	return bracket.Result{Player1Score: p1, Player2Score: p2, Sets: oriented}
}

func win(t *testing.T, s Strategy, arena *Arena, tour *bracket.Tournament, m *bracket.Match, winner uuid.UUID) {
	t.Helper()
	require.NoError(t, report(t, s, arena, tour, m.ID, resultFor(m, winner)))
}

func findMatch(t *testing.T, arena *Arena, a, b uuid.UUID) *bracket.Match {
	t.Helper()
	for _, m := range arena.Matches() {
		if m.HasPlayer(a) && m.HasPlayer(b) {
			return &m
		}
	}
	t.Fatalf("no match between %s and %s", a, b)
	return nil
}

func filterMatches(matches []bracket.Match, keep func(*bracket.Match) bool) []bracket.Match {
	var out []bracket.Match
	for i := range matches {
		if keep(&matches[i]) {
			out = append(out, matches[i])
		}
	}
	return out
}

func inRound(round int) func(*bracket.Match) bool {
	return func(m *bracket.Match) bool { return m.Round == round }
}

func inSide(side bracket.BracketSide) func(*bracket.Match) bool {
	return func(m *bracket.Match) bool { return m.InBracket(side) }
}

func isScheduled(m *bracket.Match) bool { return m.Status == bracket.MatchScheduled }

// playOut reports every scheduled match until none is left. pick chooses the winner.
func playOut(t *testing.T, s Strategy, arena *Arena, tour *bracket.Tournament, pick func(m *bracket.Match) uuid.UUID) {
	t.Helper()
	for guard := 0; guard < 1000; guard++ {
		pending := filterMatches(arena.Matches(), isScheduled)
		if len(pending) == 0 {
			return
		}
		m := pending[0]
		win(t, s, arena, tour, &m, pick(&m))
	}
	t.Fatal("tournament did not finish")
}

func player1Wins(m *bracket.Match) uuid.UUID { return *m.Player1ID }

func completedMatch(p1, p2 uuid.UUID, sets ...bracket.SetScore) bracket.Match {
	s := bracket.Sets(sets)
	won1, won2 := s.Won()
	winner := p1
	if won2 > won1 {
		winner = p2
	}
	return bracket.Match{
		ID:           uuid.New(),
		Round:        1,
		Player1ID:    &p1,
		Player2ID:    &p2,
		Player1Score: &won1,
		Player2Score: &won2,
		Sets:         s,
		WinnerID:     &winner,
		Status:       bracket.MatchCompleted,
	}
}
