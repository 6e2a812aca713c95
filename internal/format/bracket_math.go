package format

import (
	"math/bits"
	"math/rand/v2"

	"github.com/google/uuid"
)

// shuffle is swapped out by tests that need a fixed layout.
var shuffle = Shuffle

// Shuffle returns a uniformly permuted copy of ids (Fisher-Yates).
func Shuffle(ids []uuid.UUID) []uuid.UUID {
	out := make([]uuid.UUID, len(ids))
	copy(out, ids)
	for i := len(out) - 1; i > 0; i-- {
		j := rand.IntN(i + 1)
		out[i], out[j] = out[j], out[i]
	}
	return out
}

// Gets the nearest power of 2 while rounding up, so with input 5 it returns 8 and so on
func BracketSize(count int) int {
	if count <= 1 {
		return count
	}
	return 1 << bits.Len(uint(count-1))
}

// RoundCount is ceil(log2(count)).
func RoundCount(count int) int {
	if count <= 1 {
		return 0
	}
	return bits.Len(uint(count - 1))
}

// PadToPowerOfTwo appends nil bye slots until the length is a power of two.
func PadToPowerOfTwo(ids []uuid.UUID) []*uuid.UUID {
	size := BracketSize(len(ids))
	slots := make([]*uuid.UUID, size)
	for i := range ids {
		id := ids[i]
		slots[i] = &id
	}
	return slots
}

// SeedPairs returns round 1 slot pairs in standard seed order: for 8 slots
// {0,7},{3,4},{1,6},{2,5}. Each pair sums to size-1, so when byes are padded at
// the tail every bye meets a real participant.
func SeedPairs(bracketSize int) [][2]int {
	if bracketSize < 2 {
		return [][2]int{}
	}

	rounds := []int{0}
	for len(rounds) < bracketSize {
		var nextRound []int
		currentCount := len(rounds) * 2

		for _, seed := range rounds {
			nextRound = append(nextRound, seed)
			nextRound = append(nextRound, (currentCount-1)-seed)
		}
		rounds = nextRound
	}

	pairs := make([][2]int, 0, bracketSize/2)
	for i := 0; i < len(rounds); i += 2 {
		pairs = append(pairs, [2]int{rounds[i], rounds[i+1]})
	}

	return pairs
}

// RoundRobinPairs lists every unordered pair exactly once.
func RoundRobinPairs(ids []uuid.UUID) [][2]uuid.UUID {
	pairs := make([][2]uuid.UUID, 0, len(ids)*(len(ids)-1)/2)
	for i := 0; i < len(ids); i++ {
		for j := i + 1; j < len(ids); j++ {
			pairs = append(pairs, [2]uuid.UUID{ids[i], ids[j]})
		}
	}
	return pairs
}
