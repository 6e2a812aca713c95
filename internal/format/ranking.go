package format

import (
	"sort"

	"github.com/AdamBeresnev/op-tournament-engine/internal/bracket"
	"github.com/AdamBeresnev/op-tournament-engine/internal/utils"
	"github.com/google/uuid"
)

const (
	winPoints  = 2
	lossPoints = 1
)

type record struct {
	id       uuid.UUID
	position int

	points     int
	played     int
	wins       int
	losses     int
	setsWon    int
	setsLost   int
	pointsWon  int
	pointsLost int
}

// compareRatio compares a/b with c/d exactly. A zero denominator counts as 1.
func compareRatio(a, b, c, d int) int {
	if b == 0 {
		b = 1
	}
	if d == 0 {
		d = 1
	}
	left, right := a*d, c*b
	switch {
	case left > right:
		return 1
	case left < right:
		return -1
	}
	return 0
}

// compareRecords returns a negative value when a ranks ahead of b and zero when
// the ranking criteria cannot separate them.
func compareRecords(a, b *record) int {
	if a.points != b.points {
		return b.points - a.points
	}
	if c := compareRatio(a.wins, a.played, b.wins, b.played); c != 0 {
		return -c
	}
	if c := compareRatio(a.setsWon, a.setsWon+a.setsLost, b.setsWon, b.setsWon+b.setsLost); c != 0 {
		return -c
	}
	if c := compareRatio(a.pointsWon, a.pointsWon+a.pointsLost, b.pointsWon, b.pointsWon+b.pointsLost); c != 0 {
		return -c
	}
	return 0
}

// tally accumulates completed, played matches between listed participants.
func tally(participants []uuid.UUID, matches []bracket.Match) []*record {
	byID := make(map[uuid.UUID]*record, len(participants))
	records := make([]*record, 0, len(participants))
	for i, id := range participants {
		r := &record{id: id, position: i}
		byID[id] = r
		records = append(records, r)
	}

	for i := range matches {
		m := &matches[i]
		if m.Status != bracket.MatchCompleted || m.IsBye || !m.IsFull() || m.WinnerID == nil {
			continue
		}
		p1, ok1 := byID[*m.Player1ID]
		p2, ok2 := byID[*m.Player2ID]
		if !ok1 || !ok2 {
			continue
		}

		p1.played++
		p2.played++
		if *m.WinnerID == p1.id {
			p1.wins, p1.points = p1.wins+1, p1.points+winPoints
			p2.losses, p2.points = p2.losses+1, p2.points+lossPoints
		} else {
			p2.wins, p2.points = p2.wins+1, p2.points+winPoints
			p1.losses, p1.points = p1.losses+1, p1.points+lossPoints
		}

		if len(m.Sets) > 0 {
			won1, won2 := m.Sets.Won()
			p1.setsWon, p1.setsLost = p1.setsWon+won1, p1.setsLost+won2
			p2.setsWon, p2.setsLost = p2.setsWon+won2, p2.setsLost+won1
			for _, set := range m.Sets {
				p1.pointsWon, p1.pointsLost = p1.pointsWon+set.Player1, p1.pointsLost+set.Player2
				p2.pointsWon, p2.pointsLost = p2.pointsWon+set.Player2, p2.pointsLost+set.Player1
			}
		} else {
			// Without set detail the scores are the set counts.
			s1, s2 := utils.OrZero(m.Player1Score), utils.OrZero(m.Player2Score)
			p1.setsWon, p1.setsLost = p1.setsWon+s1, p1.setsLost+s2
			p2.setsWon, p2.setsLost = p2.setsWon+s2, p2.setsLost+s1
		}
	}

	return records
}

// Rank orders participants by match points, then win ratio, set ratio and
// point ratio. Two players still level are split by their head-to-head match;
// larger level groups and unplayed pairs fall back to registration order.
func Rank(participants []uuid.UUID, matches []bracket.Match) []bracket.Standing {
	records := tally(participants, matches)

	sort.SliceStable(records, func(i, j int) bool {
		if c := compareRecords(records[i], records[j]); c != 0 {
			return c < 0
		}
		return records[i].position < records[j].position
	})

	for start := 0; start < len(records); {
		end := start + 1
		for end < len(records) && compareRecords(records[start], records[end]) == 0 {
			end++
		}
		if end-start == 2 {
			if winner := headToHead(matches, records[start].id, records[start+1].id); winner != nil && *winner == records[start+1].id {
				records[start], records[start+1] = records[start+1], records[start]
			}
		}
		start = end
	}

	return toStandings(records)
}

func headToHead(matches []bracket.Match, a, b uuid.UUID) *uuid.UUID {
	for i := range matches {
		m := &matches[i]
		if m.Status == bracket.MatchCompleted && !m.IsBye && m.HasPlayer(a) && m.HasPlayer(b) {
			return m.WinnerID
		}
	}
	return nil
}

// EliminationStandings ranks a bracket: the champion first, then by wins,
// fewer losses and registration order.
func EliminationStandings(t *bracket.Tournament, matches []bracket.Match) []bracket.Standing {
	records := tally(t.Participants, matches)

	sort.SliceStable(records, func(i, j int) bool {
		a, b := records[i], records[j]
		if t.WinnerID != nil && (a.id == *t.WinnerID) != (b.id == *t.WinnerID) {
			return a.id == *t.WinnerID
		}
		if a.wins != b.wins {
			return a.wins > b.wins
		}
		if a.losses != b.losses {
			return a.losses < b.losses
		}
		return a.position < b.position
	})

	return toStandings(records)
}

func toStandings(records []*record) []bracket.Standing {
	out := make([]bracket.Standing, 0, len(records))
	for i, r := range records {
		out = append(out, bracket.Standing{
			Rank:          i + 1,
			ParticipantID: r.id,
			MatchPoints:   r.points,
			Played:        r.played,
			Wins:          r.wins,
			Losses:        r.losses,
			SetsWon:       r.setsWon,
			SetsLost:      r.setsLost,
			PointsWon:     r.pointsWon,
			PointsLost:    r.pointsLost,
		})
	}
	return out
}
