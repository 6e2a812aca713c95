package bracket

import (
	"fmt"

	"github.com/google/uuid"
)

type Result struct {
	Player1Score int  `json:"player1Score"`
	Player2Score int  `json:"player2Score"`
	Sets         Sets `json:"sets,omitempty"`
}

func (r Result) Validate() error {
	if r.Player1Score < 0 || r.Player2Score < 0 {
		return fmt.Errorf("%w: scores must not be negative", ErrValidation)
	}
	if r.Player1Score == r.Player2Score {
		return ErrEqualScores
	}
	if len(r.Sets) > 0 {
		for _, s := range r.Sets {
			if s.Player1 < 0 || s.Player2 < 0 {
				return fmt.Errorf("%w: set scores must not be negative", ErrValidation)
			}
		}
		p1, p2 := r.Sets.Won()
		if p1 != r.Player1Score || p2 != r.Player2Score {
			return fmt.Errorf("%w: sets give %d-%d, reported %d-%d", ErrInconsistentSetScore, p1, p2, r.Player1Score, r.Player2Score)
		}
	}
	return nil
}

// Winner picks the player with the higher score. The match must be full.
func (r Result) Winner(m *Match) uuid.UUID {
	if r.Player1Score > r.Player2Score {
		return *m.Player1ID
	}
	return *m.Player2ID
}

// Standing is one row of a ranked table.
type Standing struct {
	Rank          int       `json:"rank"`
	ParticipantID uuid.UUID `json:"participantId"`
	Group         *int      `json:"group,omitempty"`
	MatchPoints   int       `json:"matchPoints"`
	Played        int       `json:"played"`
	Wins          int       `json:"wins"`
	Losses        int       `json:"losses"`
	SetsWon       int       `json:"setsWon"`
	SetsLost      int       `json:"setsLost"`
	PointsWon     int       `json:"pointsWon"`
	PointsLost    int       `json:"pointsLost"`
}
