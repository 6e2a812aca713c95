package format

import (
	"context"
	"fmt"

	"github.com/AdamBeresnev/op-tournament-engine/internal/bracket"
	"github.com/AdamBeresnev/op-tournament-engine/internal/utils"
	"github.com/google/uuid"
)

type KnockoutStrategy struct{}

func (KnockoutStrategy) Format() bracket.Format { return bracket.Knockout }

func (KnockoutStrategy) Validate(participantCount int) error {
	if participantCount < 4 || participantCount%4 != 0 {
		return fmt.Errorf("%w: knockout needs a multiple of 4 participants, got %d", bracket.ErrValidation, participantCount)
	}
	return nil
}

func (s KnockoutStrategy) GenerateMatches(tournamentID uuid.UUID, participants []uuid.UUID) ([]bracket.Match, error) {
	if err := s.Validate(len(participants)); err != nil {
		return nil, err
	}
	tree := buildEliminationTree(tournamentID, participants, "", 1)
	return tree.resolve(context.Background())
}

func (KnockoutStrategy) UpdateMatchResult(ctx context.Context, repo Repository, t *bracket.Tournament, match *bracket.Match, result bracket.Result) error {
	done, err := recordResult(ctx, repo, match, result)
	if err != nil {
		return err
	}
	return advance(ctx, repo, done)
}

func (KnockoutStrategy) DetermineWinner(ctx context.Context, repo Repository, t *bracket.Tournament) (*uuid.UUID, error) {
	matches, err := repo.GetTournamentMatches(ctx, t.ID)
	if err != nil {
		return nil, err
	}
	return terminalWinner(matches, everyMatch), nil
}

func (KnockoutStrategy) Standings(t *bracket.Tournament, matches []bracket.Match) []bracket.Standing {
	return EliminationStandings(t, matches)
}

func (KnockoutStrategy) PlannedMatches(t *bracket.Tournament, _ []bracket.Match) int {
	return BracketSize(len(t.Participants)) - 1
}

// eliminationTree is a single elimination bracket before it is resolved into
// an arena. rounds[0] is the first round.
type eliminationTree struct {
	rounds [][]*bracket.Match
	byes   []uuid.UUID
}

// buildEliminationTree creates every round of a single elimination bracket for
// the shuffled, bye-padded roster, wiring NextMatchID eagerly. Rounds are
// numbered from firstRound.
func buildEliminationTree(tournamentID uuid.UUID, participants []uuid.UUID, side bracket.BracketSide, firstRound int) *eliminationTree {
	slots := PadToPowerOfTwo(shuffle(participants))
	bracketSize := len(slots)
	totalRounds := RoundCount(bracketSize)

	tree := &eliminationTree{rounds: make([][]*bracket.Match, totalRounds)}

	// Significantly easier to start from the last round and work backwards
	var parents []*bracket.Match
	for r := totalRounds; r >= 1; r-- {
		matchesInCurrentRound := bracketSize >> r
		current := make([]*bracket.Match, matchesInCurrentRound)

		for i := range current {
			m := &bracket.Match{
				ID:           uuid.New(),
				TournamentID: tournamentID,
				Round:        firstRound + r - 1,
				MatchNumber:  i + 1,
				Status:       bracket.MatchPending,
			}
			if side != "" {
				m.Bracket = utils.Ptr(side)
			}
			if parents != nil {
				m.NextMatchID = utils.Ptr(parents[i/2].ID)
			}
			current[i] = m
		}

		tree.rounds[r-1] = current
		parents = current
	}

	if totalRounds == 0 {
		return tree
	}

	for i, pair := range SeedPairs(bracketSize) {
		m := tree.rounds[0][i]
		m.Player1ID = slots[pair[0]]
		m.Player2ID = slots[pair[1]]

		if m.IsFull() {
			m.Status = bracket.MatchScheduled
		} else {
			m.IsBye = true
			tree.byes = append(tree.byes, m.ID)
		}
	}

	return tree
}

func (t *eliminationTree) matches() []bracket.Match {
	var out []bracket.Match
	for _, round := range t.rounds {
		for _, m := range round {
			out = append(out, *m)
		}
	}
	return out
}

func (t *eliminationTree) final() *bracket.Match {
	if len(t.rounds) == 0 {
		return nil
	}
	return t.rounds[len(t.rounds)-1][0]
}

// resolve plays out the byes and returns the finished graph.
func (t *eliminationTree) resolve(ctx context.Context) ([]bracket.Match, error) {
	arena := NewArena(t.matches()...)
	if err := resolveByes(ctx, arena, t.byes); err != nil {
		return nil, err
	}
	return arena.Matches(), nil
}
