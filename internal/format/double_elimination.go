package format

import (
	"context"
	"fmt"

	"github.com/AdamBeresnev/op-tournament-engine/internal/bracket"
	"github.com/AdamBeresnev/op-tournament-engine/internal/utils"
	"github.com/google/uuid"
)

// DoubleEliminationStrategy runs a winners bracket, a losers bracket fed by
// the winners bracket's losers, a grand final and, when the losers bracket
// champion wins the grand final, a true final.
type DoubleEliminationStrategy struct{}

func (DoubleEliminationStrategy) Format() bracket.Format { return bracket.DoubleElimination }

func (DoubleEliminationStrategy) Validate(participantCount int) error {
	if participantCount < 4 || participantCount%4 != 0 {
		return fmt.Errorf("%w: double elimination needs a multiple of 4 participants, got %d", bracket.ErrValidation, participantCount)
	}
	return nil
}

// GenerateMatches builds the winners bracket, the losers bracket and the
// pending grand final. For a power-of-two roster of N that is 2N-2 matches.
func (s DoubleEliminationStrategy) GenerateMatches(tournamentID uuid.UUID, participants []uuid.UUID) ([]bracket.Match, error) {
	if err := s.Validate(len(participants)); err != nil {
		return nil, err
	}

	winners := buildEliminationTree(tournamentID, participants, bracket.WinnersSide, 1)
	losers := buildLosersBracket(tournamentID, winners)

	grandFinal := &bracket.Match{
		ID:           uuid.New(),
		TournamentID: tournamentID,
		Round:        len(winners.rounds) + 1,
		MatchNumber:  1,
		Bracket:      utils.Ptr(bracket.FinalsSide),
		Stage:        utils.Ptr(bracket.GrandFinal),
		Status:       bracket.MatchPending,
	}
	winners.final().NextMatchID = utils.Ptr(grandFinal.ID)
	losers.final().NextMatchID = utils.Ptr(grandFinal.ID)

	all := winners.matches()
	for _, m := range losers.matches {
		all = append(all, *m)
	}
	all = append(all, *grandFinal)

	arena := NewArena(all...)
	if err := resolveByes(context.Background(), arena, winners.byes); err != nil {
		return nil, err
	}
	return arena.Matches(), nil
}

// UpdateMatchResult advances the winner and, for tagged matches, the loser. A
// grand final won from the losers bracket slot creates the true final.
func (DoubleEliminationStrategy) UpdateMatchResult(ctx context.Context, repo Repository, t *bracket.Tournament, match *bracket.Match, result bracket.Result) error {
	done, err := recordResult(ctx, repo, match, result)
	if err != nil {
		return err
	}
	if err := advance(ctx, repo, done); err != nil {
		return err
	}

	if done.IsStage(bracket.GrandFinal) && utils.SameID(done.WinnerID, done.Player2ID) {
		trueFinal := &bracket.Match{
			ID:           uuid.New(),
			TournamentID: done.TournamentID,
			Round:        done.Round + 1,
			MatchNumber:  1,
			Bracket:      utils.Ptr(bracket.FinalsSide),
			Stage:        utils.Ptr(bracket.TrueFinal),
			Player1ID:    done.Player1ID,
			Player2ID:    done.Player2ID,
			Status:       bracket.MatchScheduled,
		}
		if err := repo.CreateMatch(ctx, trueFinal); err != nil {
			return fmt.Errorf("failed to create true final: %w", err)
		}
	}
	return nil
}

// DetermineWinner: the true final's winner, or the grand final's winner when
// the winners bracket champion took it.
func (DoubleEliminationStrategy) DetermineWinner(ctx context.Context, repo Repository, t *bracket.Tournament) (*uuid.UUID, error) {
	matches, err := repo.GetTournamentMatches(ctx, t.ID)
	if err != nil {
		return nil, err
	}

	var grandFinal *bracket.Match
	for i := range matches {
		m := &matches[i]
		switch {
		case m.IsStage(bracket.TrueFinal):
			if m.Status == bracket.MatchCompleted {
				return m.WinnerID, nil
			}
			return nil, nil
		case m.IsStage(bracket.GrandFinal):
			grandFinal = m
		}
	}

	if grandFinal == nil || grandFinal.Status != bracket.MatchCompleted {
		return nil, nil
	}
	if utils.SameID(grandFinal.WinnerID, grandFinal.Player1ID) {
		return grandFinal.WinnerID, nil
	}
	return nil, nil
}

func (DoubleEliminationStrategy) Standings(t *bracket.Tournament, matches []bracket.Match) []bracket.Standing {
	return EliminationStandings(t, matches)
}

func (DoubleEliminationStrategy) PlannedMatches(t *bracket.Tournament, matches []bracket.Match) int {
	if len(matches) > 0 {
		return len(matches)
	}
	return 2*BracketSize(len(t.Participants)) - 2
}

type feed struct {
	from  *bracket.Match
	loser bool
}

type losersBracket struct {
	tournamentID uuid.UUID
	round        int
	matches      []*bracket.Match
	feeds        map[uuid.UUID][]feed
}

// buildLosersBracket wires the losers bracket under a winners bracket. Round 1
// pairs the losers of winners round 1. Every later winners round k gets a
// drop-in round where the losers bracket survivors meet the fresh losers of
// round k, followed by a halving round while more than one survivor remains.
//
// Losers matches that can only ever receive one participant, because winners
// round 1 byes produce no loser, are marked as byes and complete when that
// participant arrives. Matches that can receive nobody are dropped.
func buildLosersBracket(tournamentID uuid.UUID, winners *eliminationTree) *losersBracket {
	lb := &losersBracket{tournamentID: tournamentID, feeds: make(map[uuid.UUID][]feed)}
	wr := winners.rounds

	survivors := lb.newRound(len(wr[0]) / 2)
	for j, m := range survivors {
		lb.feedLoser(wr[0][2*j], m)
		lb.feedLoser(wr[0][2*j+1], m)
	}

	for k := 1; k < len(wr); k++ {
		dropped := wr[k]
		drop := lb.newRound(len(dropped))
		for j, m := range drop {
			lb.feedWinner(survivors[j], m)
			// Reversed so players meet the other half of the bracket first.
			lb.feedLoser(dropped[len(dropped)-1-j], m)
		}
		survivors = drop

		if len(survivors) > 1 {
			half := lb.newRound(len(survivors) / 2)
			for j, m := range half {
				lb.feedWinner(survivors[2*j], m)
				lb.feedWinner(survivors[2*j+1], m)
			}
			survivors = half
		}
	}

	lb.prune()
	return lb
}

func (lb *losersBracket) newRound(count int) []*bracket.Match {
	lb.round++
	round := make([]*bracket.Match, count)
	for i := range round {
		m := &bracket.Match{
			ID:           uuid.New(),
			TournamentID: lb.tournamentID,
			Round:        lb.round,
			MatchNumber:  i + 1,
			Bracket:      utils.Ptr(bracket.LosersSide),
			Status:       bracket.MatchPending,
		}
		round[i] = m
		lb.matches = append(lb.matches, m)
	}
	return round
}

func (lb *losersBracket) feedWinner(from, to *bracket.Match) {
	from.NextMatchID = utils.Ptr(to.ID)
	lb.feeds[to.ID] = append(lb.feeds[to.ID], feed{from: from})
}

func (lb *losersBracket) feedLoser(from, to *bracket.Match) {
	from.LoserNextMatchID = utils.Ptr(to.ID)
	lb.feeds[to.ID] = append(lb.feeds[to.ID], feed{from: from, loser: true})
}

// prune walks the losers bracket in creation order, which is feed order.
func (lb *losersBracket) prune() {
	dead := make(map[uuid.UUID]bool)
	for _, m := range lb.matches {
		live := 0
		for _, f := range lb.feeds[m.ID] {
			if dead[f.from.ID] || (f.loser && f.from.IsBye) {
				continue
			}
			live++
		}
		switch live {
		case 0:
			dead[m.ID] = true
		case 1:
			m.AwaitingBye = true
		}
	}
	if len(dead) == 0 {
		return
	}

	kept := lb.matches[:0]
	for _, m := range lb.matches {
		if dead[m.ID] {
			for _, f := range lb.feeds[m.ID] {
				if f.loser {
					f.from.LoserNextMatchID = nil
				}
			}
			continue
		}
		kept = append(kept, m)
	}
	lb.matches = kept

	numbers := make(map[int]int)
	for _, m := range lb.matches {
		numbers[m.Round]++
		m.MatchNumber = numbers[m.Round]
	}
}

func (lb *losersBracket) final() *bracket.Match {
	return lb.matches[len(lb.matches)-1]
}
