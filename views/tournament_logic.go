package views

import (
	"sort"

	"github.com/AdamBeresnev/op-tournament-engine/internal/bracket"
)

// Column is one round of one bracket, in display order.
type Column struct {
	Round   int
	Matches []bracket.Match
}

type BracketData struct {
	Main   []Column
	Losers []Column
	Finals []Column

	Groups    map[int][]Column
	GroupNums []int
}

// PrepareBracketData splits matches into the columns a bracket view draws.
// Knockout and round-robin matches have no bracket side and land in Main,
// next to the winners bracket and the knockout stage of a group tournament.
func PrepareBracketData(matches []bracket.Match) BracketData {
	main := make(map[int][]bracket.Match)
	losers := make(map[int][]bracket.Match)
	finals := make(map[int][]bracket.Match)
	groups := make(map[int]map[int][]bracket.Match)

	for _, m := range matches {
		switch {
		case m.InBracket(bracket.LosersSide):
			losers[m.Round] = append(losers[m.Round], m)
		case m.InBracket(bracket.FinalsSide):
			finals[m.Round] = append(finals[m.Round], m)
		case m.InBracket(bracket.GroupSide) && m.Group != nil:
			g := *m.Group
			if groups[g] == nil {
				groups[g] = make(map[int][]bracket.Match)
			}
			groups[g][m.Round] = append(groups[g][m.Round], m)
		default:
			main[m.Round] = append(main[m.Round], m)
		}
	}

	data := BracketData{
		Main:   columns(main),
		Losers: columns(losers),
		Finals: columns(finals),
		Groups: make(map[int][]Column, len(groups)),
	}
	for g, rounds := range groups {
		data.Groups[g] = columns(rounds)
		data.GroupNums = append(data.GroupNums, g)
	}
	sort.Ints(data.GroupNums)
	return data
}

func columns(rounds map[int][]bracket.Match) []Column {
	roundNums := make([]int, 0, len(rounds))
	for r := range rounds {
		roundNums = append(roundNums, r)
	}
	sort.Ints(roundNums)

	out := make([]Column, 0, len(roundNums))
	for _, r := range roundNums {
		ms := rounds[r]
		sort.Slice(ms, func(i, j int) bool {
			return ms[i].MatchNumber < ms[j].MatchNumber
		})
		out = append(out, Column{Round: r, Matches: ms})
	}
	return out
}
