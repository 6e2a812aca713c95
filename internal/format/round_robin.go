package format

import (
	"context"
	"fmt"

	"github.com/AdamBeresnev/op-tournament-engine/internal/bracket"
	"github.com/google/uuid"
)

type RoundRobinStrategy struct{}

func (RoundRobinStrategy) Format() bracket.Format { return bracket.RoundRobin }

func (RoundRobinStrategy) Validate(participantCount int) error {
	if participantCount < 2 {
		return fmt.Errorf("%w: round robin needs at least 2 participants, got %d", bracket.ErrValidation, participantCount)
	}
	return nil
}

// GenerateMatches pairs everybody with everybody once, all in round 1.
func (s RoundRobinStrategy) GenerateMatches(tournamentID uuid.UUID, participants []uuid.UUID) ([]bracket.Match, error) {
	if err := s.Validate(len(participants)); err != nil {
		return nil, err
	}

	pairs := RoundRobinPairs(shuffle(participants))
	matches := make([]bracket.Match, 0, len(pairs))
	for i, pair := range pairs {
		p1, p2 := pair[0], pair[1]
		matches = append(matches, bracket.Match{
			ID:           uuid.New(),
			TournamentID: tournamentID,
			Round:        1,
			MatchNumber:  i + 1,
			Player1ID:    &p1,
			Player2ID:    &p2,
			Status:       bracket.MatchScheduled,
		})
	}
	return matches, nil
}

func (RoundRobinStrategy) UpdateMatchResult(ctx context.Context, repo Repository, t *bracket.Tournament, match *bracket.Match, result bracket.Result) error {
	_, err := recordResult(ctx, repo, match, result)
	return err
}

// DetermineWinner returns the top of the table once every match is completed.
func (RoundRobinStrategy) DetermineWinner(ctx context.Context, repo Repository, t *bracket.Tournament) (*uuid.UUID, error) {
	matches, err := repo.GetTournamentMatches(ctx, t.ID)
	if err != nil {
		return nil, err
	}
	if !allCompleted(matches, everyMatch) {
		return nil, nil
	}

	standings := Rank(t.Participants, matches)
	if len(standings) == 0 {
		return nil, nil
	}
	winner := standings[0].ParticipantID
	return &winner, nil
}

func (RoundRobinStrategy) Standings(t *bracket.Tournament, matches []bracket.Match) []bracket.Standing {
	return Rank(t.Participants, matches)
}

func (RoundRobinStrategy) PlannedMatches(t *bracket.Tournament, _ []bracket.Match) int {
	n := len(t.Participants)
	return n * (n - 1) / 2
}
