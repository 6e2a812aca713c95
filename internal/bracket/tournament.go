package bracket

import (
	"time"

	"github.com/google/uuid"
)

type TournamentStatus string

const (
	TournamentPending   TournamentStatus = "pending"
	TournamentActive    TournamentStatus = "active"
	TournamentCompleted TournamentStatus = "completed"
)

type Format string

const (
	Knockout          Format = "knockout"
	RoundRobin        Format = "round_robin"
	Group             Format = "group"
	DoubleElimination Format = "double_elimination"
)

func (f Format) Valid() bool {
	switch f {
	case Knockout, RoundRobin, Group, DoubleElimination:
		return true
	}
	return false
}

type Tournament struct {
	ID        uuid.UUID        `db:"id" json:"id"`
	Name      string           `db:"name" json:"name"`
	Date      time.Time        `db:"date" json:"date"`
	Format    Format           `db:"format" json:"format"`
	Status    TournamentStatus `db:"status" json:"status"`
	WinnerID  *uuid.UUID       `db:"winner_id" json:"winnerId"`
	CreatedAt time.Time        `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time        `db:"updated_at" json:"updatedAt"`

	// Registration order. Loaded from tournament_participants.
	Participants []uuid.UUID `db:"-" json:"participants"`
}

// Position returns the registration index of a participant, or -1.
func (t *Tournament) Position(id uuid.UUID) int {
	for i, p := range t.Participants {
		if p == id {
			return i
		}
	}
	return -1
}
