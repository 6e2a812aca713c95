// Package format holds the bracket generation and result progression rules
// for every supported tournament format.
package format

import (
	"context"

	"github.com/AdamBeresnev/op-tournament-engine/internal/bracket"
	"github.com/google/uuid"
)

// Repository is the storage capability strategies read and write through.
// Implementations must make AdvanceParticipant a single read-modify-write so a
// full slot is never overwritten.
type Repository interface {
	GetMatch(ctx context.Context, id uuid.UUID) (*bracket.Match, error)
	// Ordered by round, then match number.
	GetTournamentMatches(ctx context.Context, tournamentID uuid.UUID) ([]bracket.Match, error)
	UpdateMatch(ctx context.Context, id uuid.UUID, update bracket.MatchUpdate) error
	CreateMatch(ctx context.Context, match *bracket.Match) error
	InsertMatches(ctx context.Context, matches []bracket.Match) error
	// Fills player1, else player2, else fails with bracket.ErrAlreadyAssigned.
	// Returns the target as stored after the assignment.
	AdvanceParticipant(ctx context.Context, targetMatchID, participantID uuid.UUID) (*bracket.Match, error)
	SetTournamentWinner(ctx context.Context, tournamentID, participantID uuid.UUID) error
	SetTournamentStatus(ctx context.Context, tournamentID uuid.UUID, status bracket.TournamentStatus) error
}

type Strategy interface {
	Format() bracket.Format

	// Validate checks the roster size against the format's rule.
	Validate(participantCount int) error

	// GenerateMatches builds the initial match graph. Byes are already resolved
	// in the returned matches.
	GenerateMatches(tournamentID uuid.UUID, participants []uuid.UUID) ([]bracket.Match, error)

	// UpdateMatchResult completes a scheduled match and propagates its outcome.
	UpdateMatchResult(ctx context.Context, repo Repository, t *bracket.Tournament, match *bracket.Match, result bracket.Result) error

	// DetermineWinner reports the tournament winner once the terminal condition holds.
	DetermineWinner(ctx context.Context, repo Repository, t *bracket.Tournament) (*uuid.UUID, error)

	// Standings ranks the roster from the current match collection.
	Standings(t *bracket.Tournament, matches []bracket.Match) []bracket.Standing

	// PlannedMatches is the number of matches the tournament is expected to
	// have given what is known so far. Used for progress reporting.
	PlannedMatches(t *bracket.Tournament, matches []bracket.Match) int
}
