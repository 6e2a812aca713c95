package bracket

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type MatchStatus string

const (
	MatchPending   MatchStatus = "pending"
	MatchScheduled MatchStatus = "scheduled"
	MatchCompleted MatchStatus = "completed"
)

type BracketSide string

const (
	WinnersSide  BracketSide = "winners"
	LosersSide   BracketSide = "losers"
	FinalsSide   BracketSide = "final"
	GroupSide    BracketSide = "group"
	KnockoutSide BracketSide = "knockout"
)

type Stage string

const (
	GrandFinal Stage = "grand_final"
	TrueFinal  Stage = "true_final"
)

type SetScore struct {
	Player1 int `json:"p1"`
	Player2 int `json:"p2"`
}

// Sets is stored as a JSON array in a TEXT column.
type Sets []SetScore

func (s Sets) Value() (driver.Value, error) {
	if s == nil {
		return "[]", nil
	}
	b, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (s *Sets) Scan(src any) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*s = nil
		return nil
	case string:
		raw = []byte(v)
	case []byte:
		raw = v
	default:
		return fmt.Errorf("cannot scan %T into Sets", src)
	}
	if len(raw) == 0 {
		*s = nil
		return nil
	}
	return json.Unmarshal(raw, s)
}

// Won returns how many sets each side took. Drawn sets count for nobody.
func (s Sets) Won() (p1, p2 int) {
	for _, set := range s {
		switch {
		case set.Player1 > set.Player2:
			p1++
		case set.Player2 > set.Player1:
			p2++
		}
	}
	return p1, p2
}

type Match struct {
	ID           uuid.UUID `db:"id" json:"id"`
	TournamentID uuid.UUID `db:"tournament_id" json:"tournamentId"`

	// Position in the tournament for reconstructing the view
	Round       int          `db:"round" json:"round"`
	MatchNumber int          `db:"match_number" json:"matchNumber"`
	Bracket     *BracketSide `db:"bracket" json:"bracket,omitempty"`
	Group       *int         `db:"group_index" json:"group,omitempty"`
	Stage       *Stage       `db:"stage" json:"stage,omitempty"`

	Player1ID *uuid.UUID `db:"player1_id" json:"player1Id"`
	Player2ID *uuid.UUID `db:"player2_id" json:"player2Id"`

	Player1Score *int        `db:"player1_score" json:"player1Score"`
	Player2Score *int        `db:"player2_score" json:"player2Score"`
	Sets         Sets        `db:"sets" json:"sets,omitempty"`
	WinnerID     *uuid.UUID  `db:"winner_id" json:"winnerId"`
	Status       MatchStatus `db:"status" json:"status"`

	NextMatchID      *uuid.UUID `db:"next_match_id" json:"nextMatchId,omitempty"`
	LoserNextMatchID *uuid.UUID `db:"loser_next_match_id" json:"loserNextMatchId,omitempty"`

	// IsBye marks a generated bye, completed at creation with its only player as winner.
	IsBye       bool      `db:"is_bye" json:"isBye"`
	// AwaitingBye marks a losers bracket match with a single feeder. It is not a
	// bye yet: it completes when that participant arrives.
	AwaitingBye bool      `db:"awaiting_bye" json:"awaitingBye"`
	CreatedAt   time.Time `db:"created_at" json:"createdAt"`
}

func (m *Match) HasPlayer(id uuid.UUID) bool {
	return (m.Player1ID != nil && *m.Player1ID == id) || (m.Player2ID != nil && *m.Player2ID == id)
}

func (m *Match) IsFull() bool {
	return m.Player1ID != nil && m.Player2ID != nil
}

// OpenSlot returns 1 or 2 for the first empty player slot, 0 when both are taken.
func (m *Match) OpenSlot() int {
	switch {
	case m.Player1ID == nil:
		return 1
	case m.Player2ID == nil:
		return 2
	default:
		return 0
	}
}

// Loser is the other player of a completed match. Byes have no loser.
func (m *Match) Loser() *uuid.UUID {
	if m.Status != MatchCompleted || m.WinnerID == nil || !m.IsFull() {
		return nil
	}
	if *m.Player1ID == *m.WinnerID {
		return m.Player2ID
	}
	return m.Player1ID
}

func (m *Match) InBracket(side BracketSide) bool {
	return m.Bracket != nil && *m.Bracket == side
}

func (m *Match) IsStage(stage Stage) bool {
	return m.Stage != nil && *m.Stage == stage
}

// MatchUpdate carries the fields of a partial match write. Nil fields are left alone.
type MatchUpdate struct {
	Player1Score *int
	Player2Score *int
	Sets         Sets
	WinnerID     *uuid.UUID
	Status       *MatchStatus

	// When set, the update only applies if the stored status still matches.
	ExpectStatus *MatchStatus
}

// Apply copies the non-nil fields of u onto m.
func (u MatchUpdate) Apply(m *Match) {
	if u.Player1Score != nil {
		m.Player1Score = u.Player1Score
	}
	if u.Player2Score != nil {
		m.Player2Score = u.Player2Score
	}
	if u.Sets != nil {
		m.Sets = u.Sets
	}
	if u.WinnerID != nil {
		m.WinnerID = u.WinnerID
	}
	if u.Status != nil {
		m.Status = *u.Status
	}
}
