package format

import (
	"context"
	"testing"

	"github.com/AdamBeresnev/op-tournament-engine/internal/bracket"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func countByes(matches []bracket.Match) int {
	n := 0
	for _, m := range matches {
		if m.IsBye {
			n++
		}
	}
	return n
}

func countAwaitingByes(matches []bracket.Match) int {
	n := 0
	for _, m := range matches {
		if m.AwaitingBye {
			n++
		}
	}
	return n
}

func TestDoubleEliminationStructure(t *testing.T) {
	s := DoubleEliminationStrategy{}
	for _, n := range []int{4, 8, 16, 32} {
		matches, err := s.GenerateMatches(uuid.New(), players(n))
		require.NoError(t, err)

		assert.Len(t, matches, 2*n-2, "total for %d", n)
		assert.Len(t, filterMatches(matches, inSide(bracket.WinnersSide)), n-1, "winners for %d", n)
		assert.Len(t, filterMatches(matches, inSide(bracket.LosersSide)), n-2, "losers for %d", n)
		finals := filterMatches(matches, inSide(bracket.FinalsSide))
		require.Len(t, finals, 1)
		assert.True(t, finals[0].IsStage(bracket.GrandFinal))
		assert.Equal(t, RoundCount(n)+1, finals[0].Round)
		assert.Zero(t, countByes(matches))
		assert.Zero(t, countAwaitingByes(matches))
	}
}

func TestDoubleEliminationWithByes(t *testing.T) {
	s := DoubleEliminationStrategy{}
	cases := []struct {
		players     int
		total       int
		winnersByes int
		losersByes  int
	}{
		{players: 12, total: 30, winnersByes: 4, losersByes: 4},
		{players: 20, total: 58, winnersByes: 12, losersByes: 8},
	}

	for _, tc := range cases {
		matches, err := s.GenerateMatches(uuid.New(), players(tc.players))
		require.NoError(t, err)

		assert.Len(t, matches, tc.total, "total for %d", tc.players)
		assert.Equal(t, BracketSize(tc.players)-tc.players, countByes(matches), "byes for %d", tc.players)
		winners := filterMatches(matches, inSide(bracket.WinnersSide))
		losers := filterMatches(matches, inSide(bracket.LosersSide))
		assert.Equal(t, tc.winnersByes, countByes(winners), "winners byes for %d", tc.players)
		assert.Zero(t, countByes(losers), "losers matches are never generated as byes")
		assert.Equal(t, tc.losersByes, countAwaitingByes(losers), "losers awaiting byes for %d", tc.players)

		for _, m := range winners {
			if m.IsBye {
				assert.Equal(t, bracket.MatchCompleted, m.Status)
				assert.NotNil(t, m.WinnerID)
			}
		}
		for _, m := range losers {
			if m.AwaitingBye {
				assert.NotEqual(t, bracket.MatchCompleted, m.Status, "losers byes wait for their participant")
			}
		}
	}
}

func TestDoubleEliminationLoserDropsDown(t *testing.T) {
	tour := newTournament(bracket.DoubleElimination, players(8))
	s := DoubleEliminationStrategy{}
	arena := start(t, s, tour)

	first := filterMatches(arena.Matches(), inSide(bracket.WinnersSide))[0]
	require.Equal(t, 1, first.Round)
	require.NotNil(t, first.LoserNextMatchID)
	loser := *first.Player2ID

	win(t, s, arena, tour, &first, *first.Player1ID)

	target, err := arena.GetMatch(context.Background(), *first.LoserNextMatchID)
	require.NoError(t, err)
	assert.True(t, target.InBracket(bracket.LosersSide))
	assert.Equal(t, 1, target.Round)
	assert.True(t, target.HasPlayer(loser))
}

func TestDoubleEliminationGrandFinalReset(t *testing.T) {
	fixedOrder(t)
	tour := newTournament(bracket.DoubleElimination, players(4))
	s := DoubleEliminationStrategy{}
	arena := start(t, s, tour)
	require.Equal(t, 6, arena.Len())

	// Everything up to the grand final goes to player 1.
	for {
		pending := filterMatches(arena.Matches(), isScheduled)
		require.NotEmpty(t, pending)
		m := pending[0]
		if m.IsStage(bracket.GrandFinal) {
			break
		}
		win(t, s, arena, tour, &m, *m.Player1ID)
	}

	grandFinal := filterMatches(arena.Matches(), inSide(bracket.FinalsSide))[0]
	require.Equal(t, 3, grandFinal.Round)
	require.True(t, grandFinal.IsFull())
	winnersChampion, losersChampion := *grandFinal.Player1ID, *grandFinal.Player2ID

	win(t, s, arena, tour, &grandFinal, losersChampion)

	assert.Nil(t, arena.WinnerID)
	finals := filterMatches(arena.Matches(), inSide(bracket.FinalsSide))
	require.Len(t, finals, 2)
	trueFinal := finals[1]
	assert.True(t, trueFinal.IsStage(bracket.TrueFinal))
	assert.Equal(t, 4, trueFinal.Round)
	assert.Equal(t, bracket.MatchScheduled, trueFinal.Status)
	assert.Equal(t, winnersChampion, *trueFinal.Player1ID)
	assert.Equal(t, losersChampion, *trueFinal.Player2ID)

	win(t, s, arena, tour, &trueFinal, losersChampion)

	require.NotNil(t, arena.WinnerID)
	assert.Equal(t, losersChampion, *arena.WinnerID)
	assert.Equal(t, bracket.TournamentCompleted, arena.Status)
	assert.Empty(t, filterMatches(arena.Matches(), isScheduled))
}

func TestDoubleEliminationGrandFinalWonByWinnersChampion(t *testing.T) {
	tour := newTournament(bracket.DoubleElimination, players(4))
	s := DoubleEliminationStrategy{}
	arena := start(t, s, tour)

	playOut(t, s, arena, tour, player1Wins)

	require.NotNil(t, arena.WinnerID)
	assert.Equal(t, 6, arena.Len())
	grandFinal := filterMatches(arena.Matches(), inSide(bracket.FinalsSide))[0]
	assert.Equal(t, *grandFinal.Player1ID, *arena.WinnerID)
}

func TestDoubleEliminationPlaysToCompletion(t *testing.T) {
	s := DoubleEliminationStrategy{}
	// Alternate winners so both brackets see upsets.
	pick := func(m *bracket.Match) uuid.UUID {
		if m.MatchNumber%2 == 0 {
			return *m.Player2ID
		}
		return *m.Player1ID
	}

	for _, n := range []int{4, 8, 12, 16, 20} {
		tour := newTournament(bracket.DoubleElimination, players(n))
		arena := start(t, s, tour)
		playOut(t, s, arena, tour, pick)

		require.NotNil(t, arena.WinnerID, "no champion for %d", n)
		champion := *arena.WinnerID

		losses := make(map[uuid.UUID]int)
		for _, m := range arena.Matches() {
			assert.Equal(t, bracket.MatchCompleted, m.Status)
			if loser := m.Loser(); loser != nil {
				losses[*loser]++
			}
		}
		assert.LessOrEqual(t, losses[champion], 1)
		for _, id := range tour.Participants {
			if id != champion {
				assert.Equal(t, 2, losses[id], "losses for %s in %d", id, n)
			}
		}

		standings := s.Standings(&bracket.Tournament{Participants: tour.Participants, WinnerID: arena.WinnerID}, arena.Matches())
		assert.Equal(t, champion, standings[0].ParticipantID)
	}
}

func TestDoubleEliminationPlannedMatches(t *testing.T) {
	s := DoubleEliminationStrategy{}
	tour := newTournament(bracket.DoubleElimination, players(8))
	assert.Equal(t, 14, s.PlannedMatches(tour, nil))

	tour = newTournament(bracket.DoubleElimination, players(12))
	matches, err := s.GenerateMatches(tour.ID, tour.Participants)
	require.NoError(t, err)
	assert.Equal(t, 30, s.PlannedMatches(tour, matches))
}
