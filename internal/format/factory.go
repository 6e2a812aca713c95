package format

import (
	"fmt"

	"github.com/AdamBeresnev/op-tournament-engine/internal/bracket"
	"github.com/google/uuid"
)

var strategies = map[bracket.Format]Strategy{
	bracket.Knockout:          KnockoutStrategy{},
	bracket.RoundRobin:        RoundRobinStrategy{},
	bracket.Group:             GroupStrategy{},
	bracket.DoubleElimination: DoubleEliminationStrategy{},
}

// ForFormat returns the strategy registered for f.
func ForFormat(f bracket.Format) (Strategy, error) {
	s, ok := strategies[f]
	if !ok {
		return nil, fmt.Errorf("%w: unknown format %q", bracket.ErrValidation, f)
	}
	return s, nil
}

// ValidateRoster checks a format/roster pair before anything is written.
func ValidateRoster(f bracket.Format, participants []uuid.UUID) error {
	s, err := ForFormat(f)
	if err != nil {
		return err
	}

	seen := make(map[uuid.UUID]bool, len(participants))
	for _, id := range participants {
		if id == uuid.Nil {
			return fmt.Errorf("%w: empty participant id", bracket.ErrValidation)
		}
		if seen[id] {
			return fmt.Errorf("%w: participant %s registered twice", bracket.ErrValidation, id)
		}
		seen[id] = true
	}

	return s.Validate(len(participants))
}
