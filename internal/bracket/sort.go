package bracket

import "sort"

// SortMatches orders by round, then match number, then bracket side.
func SortMatches(matches []Match) {
	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].Round != matches[j].Round {
			return matches[i].Round < matches[j].Round
		}
		if matches[i].MatchNumber != matches[j].MatchNumber {
			return matches[i].MatchNumber < matches[j].MatchNumber
		}
		return sideKey(matches[i].Bracket) < sideKey(matches[j].Bracket)
	})
}

func sideKey(side *BracketSide) string {
	if side == nil {
		return ""
	}
	return string(*side)
}
