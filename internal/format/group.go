package format

import (
	"context"
	"fmt"
	"sort"

	"github.com/AdamBeresnev/op-tournament-engine/internal/bracket"
	"github.com/AdamBeresnev/op-tournament-engine/internal/utils"
	"github.com/google/uuid"
)

const (
	maxGroups       = 4
	targetGroupSize = 3
	// The knockout phase starts at this round; the whole group phase is round 1.
	knockoutFirstRound = 2
)

// GroupStrategy plays round robin groups, then a knockout between the group winners.
type GroupStrategy struct{}

// GroupCount is min(4, ceil(n/3)).
func GroupCount(participantCount int) int {
	return min(maxGroups, (participantCount+targetGroupSize-1)/targetGroupSize)
}

func (GroupStrategy) Format() bracket.Format { return bracket.Group }

func (GroupStrategy) Validate(participantCount int) error {
	if participantCount < 6 {
		return fmt.Errorf("%w: group format needs at least 6 participants, got %d", bracket.ErrValidation, participantCount)
	}
	return nil
}

// GenerateMatches deals the shuffled roster into groups by index modulo the
// group count and creates every intra-group pairing. Groups are numbered from 1.
func (s GroupStrategy) GenerateMatches(tournamentID uuid.UUID, participants []uuid.UUID) ([]bracket.Match, error) {
	if err := s.Validate(len(participants)); err != nil {
		return nil, err
	}

	groupCount := GroupCount(len(participants))
	groups := make([][]uuid.UUID, groupCount)
	for i, id := range shuffle(participants) {
		groups[i%groupCount] = append(groups[i%groupCount], id)
	}

	var matches []bracket.Match
	for g, members := range groups {
		for _, pair := range RoundRobinPairs(members) {
			p1, p2 := pair[0], pair[1]
			matches = append(matches, bracket.Match{
				ID:           uuid.New(),
				TournamentID: tournamentID,
				Round:        1,
				MatchNumber:  len(matches) + 1,
				Bracket:      utils.Ptr(bracket.GroupSide),
				Group:        utils.Ptr(g + 1),
				Player1ID:    &p1,
				Player2ID:    &p2,
				Status:       bracket.MatchScheduled,
			})
		}
	}
	return matches, nil
}

// UpdateMatchResult records the result. Knockout matches propagate as usual;
// the last group match to complete generates the knockout phase.
func (s GroupStrategy) UpdateMatchResult(ctx context.Context, repo Repository, t *bracket.Tournament, match *bracket.Match, result bracket.Result) error {
	done, err := recordResult(ctx, repo, match, result)
	if err != nil {
		return err
	}
	if done.InBracket(bracket.KnockoutSide) {
		return advance(ctx, repo, done)
	}

	matches, err := repo.GetTournamentMatches(ctx, t.ID)
	if err != nil {
		return err
	}
	for i := range matches {
		if isKnockoutPhase(&matches[i]) {
			return nil
		}
	}
	if !allCompleted(matches, isGroupPhase) {
		return nil
	}

	qualifiers := s.Qualifiers(t, matches)
	tree := buildEliminationTree(t.ID, qualifiers, bracket.KnockoutSide, knockoutFirstRound)
	knockout, err := tree.resolve(ctx)
	if err != nil {
		return fmt.Errorf("failed to build knockout phase: %w", err)
	}
	if err := repo.InsertMatches(ctx, knockout); err != nil {
		return fmt.Errorf("failed to insert knockout phase: %w", err)
	}
	return nil
}

// Qualifiers returns the winner of each group, in group order.
func (GroupStrategy) Qualifiers(t *bracket.Tournament, matches []bracket.Match) []uuid.UUID {
	groups := groupTables(t, matches)
	qualifiers := make([]uuid.UUID, 0, len(groups))
	for _, g := range groups {
		if len(g.standings) > 0 {
			qualifiers = append(qualifiers, g.standings[0].ParticipantID)
		}
	}
	return qualifiers
}

func (GroupStrategy) DetermineWinner(ctx context.Context, repo Repository, t *bracket.Tournament) (*uuid.UUID, error) {
	matches, err := repo.GetTournamentMatches(ctx, t.ID)
	if err != nil {
		return nil, err
	}
	return terminalWinner(matches, isKnockoutPhase), nil
}

// Standings lists each group's table in group order, ranks restarting per group.
func (GroupStrategy) Standings(t *bracket.Tournament, matches []bracket.Match) []bracket.Standing {
	var out []bracket.Standing
	for _, g := range groupTables(t, matches) {
		for _, st := range g.standings {
			st.Group = utils.Ptr(g.index)
			out = append(out, st)
		}
	}
	return out
}

func (GroupStrategy) PlannedMatches(t *bracket.Tournament, _ []bracket.Match) int {
	n := len(t.Participants)
	groupCount := GroupCount(n)
	total := 0
	for g := 0; g < groupCount; g++ {
		size := n / groupCount
		if g < n%groupCount {
			size++
		}
		total += size * (size - 1) / 2
	}
	return total + BracketSize(groupCount) - 1
}

type groupTable struct {
	index     int
	standings []bracket.Standing
}

// groupTables ranks every group on its own matches. Members are listed in
// registration order so the final tie-break is stable.
func groupTables(t *bracket.Tournament, matches []bracket.Match) []groupTable {
	members := make(map[int]map[uuid.UUID]bool)
	groupMatches := make(map[int][]bracket.Match)
	for _, m := range matches {
		if !isGroupPhase(&m) || m.Group == nil {
			continue
		}
		g := *m.Group
		if members[g] == nil {
			members[g] = make(map[uuid.UUID]bool)
		}
		for _, p := range []*uuid.UUID{m.Player1ID, m.Player2ID} {
			if p != nil {
				members[g][*p] = true
			}
		}
		groupMatches[g] = append(groupMatches[g], m)
	}

	indexes := make([]int, 0, len(members))
	for g := range members {
		indexes = append(indexes, g)
	}
	sort.Ints(indexes)

	tables := make([]groupTable, 0, len(indexes))
	for _, g := range indexes {
		var roster []uuid.UUID
		for _, p := range t.Participants {
			if members[g][p] {
				roster = append(roster, p)
			}
		}
		tables = append(tables, groupTable{index: g, standings: Rank(roster, groupMatches[g])})
	}
	return tables
}

func isGroupPhase(m *bracket.Match) bool { return m.InBracket(bracket.GroupSide) }

func isKnockoutPhase(m *bracket.Match) bool { return m.InBracket(bracket.KnockoutSide) }
