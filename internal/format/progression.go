package format

import (
	"context"
	"fmt"

	"github.com/AdamBeresnev/op-tournament-engine/internal/bracket"
	"github.com/google/uuid"
)

// recordResult stores the result of a scheduled match and returns the completed copy.
// The write is guarded on the scheduled status so a match completes at most once.
func recordResult(ctx context.Context, repo Repository, match *bracket.Match, result bracket.Result) (*bracket.Match, error) {
	if err := result.Validate(); err != nil {
		return nil, err
	}
	if match.Status != bracket.MatchScheduled || !match.IsFull() {
		return nil, fmt.Errorf("match %s is %s: %w", match.ID, match.Status, bracket.ErrMatchNotPlayable)
	}

	winner := result.Winner(match)
	completed := bracket.MatchCompleted
	scheduled := bracket.MatchScheduled
	p1, p2 := result.Player1Score, result.Player2Score

	update := bracket.MatchUpdate{
		Player1Score: &p1,
		Player2Score: &p2,
		Sets:         result.Sets,
		WinnerID:     &winner,
		Status:       &completed,
		ExpectStatus: &scheduled,
	}
	if err := repo.UpdateMatch(ctx, match.ID, update); err != nil {
		return nil, fmt.Errorf("failed to update match: %w", err)
	}

	done := *match
	update.Apply(&done)
	return &done, nil
}

// advance moves the winner of a completed match along NextMatchID and, when the
// match carries a loser tag, the loser along LoserNextMatchID.
func advance(ctx context.Context, repo Repository, match *bracket.Match) error {
	if match.NextMatchID != nil && match.WinnerID != nil {
		if err := place(ctx, repo, *match.NextMatchID, *match.WinnerID); err != nil {
			return fmt.Errorf("failed to advance winner of match %s: %w", match.ID, err)
		}
	}

	if match.LoserNextMatchID != nil {
		if loser := match.Loser(); loser != nil {
			if err := place(ctx, repo, *match.LoserNextMatchID, *loser); err != nil {
				return fmt.Errorf("failed to advance loser of match %s: %w", match.ID, err)
			}
		}
	}

	return nil
}

// place assigns a participant to the target match. Byes, including losers
// matches awaiting a bye, complete as soon as their single participant arrives.
func place(ctx context.Context, repo Repository, targetID, participantID uuid.UUID) error {
	target, err := repo.AdvanceParticipant(ctx, targetID, participantID)
	if err != nil {
		return err
	}
	if (target.IsBye || target.AwaitingBye) && target.Status != bracket.MatchCompleted {
		return completeBye(ctx, repo, target, participantID)
	}
	return nil
}

func completeBye(ctx context.Context, repo Repository, match *bracket.Match, winner uuid.UUID) error {
	completed := bracket.MatchCompleted
	if err := repo.UpdateMatch(ctx, match.ID, bracket.MatchUpdate{WinnerID: &winner, Status: &completed}); err != nil {
		return fmt.Errorf("failed to complete bye %s: %w", match.ID, err)
	}

	done := *match
	done.WinnerID = &winner
	done.Status = completed
	return advance(ctx, repo, &done)
}

// resolveByes completes every round 1 bye in the arena, in match order.
func resolveByes(ctx context.Context, arena *Arena, byes []uuid.UUID) error {
	for _, id := range byes {
		m, err := arena.GetMatch(ctx, id)
		if err != nil {
			return err
		}
		var present uuid.UUID
		switch {
		case m.Player1ID != nil:
			present = *m.Player1ID
		case m.Player2ID != nil:
			present = *m.Player2ID
		default:
			return fmt.Errorf("bye match %s has no participant", id)
		}
		if err := completeBye(ctx, arena, m, present); err != nil {
			return err
		}
	}
	return nil
}

// terminalWinner returns the winner of the completed match with no NextMatchID,
// considering only matches accepted by keep.
func terminalWinner(matches []bracket.Match, keep func(*bracket.Match) bool) *uuid.UUID {
	for i := range matches {
		m := &matches[i]
		if !keep(m) {
			continue
		}
		if m.NextMatchID == nil && m.Status == bracket.MatchCompleted && m.WinnerID != nil {
			id := *m.WinnerID
			return &id
		}
	}
	return nil
}

func allCompleted(matches []bracket.Match, keep func(*bracket.Match) bool) bool {
	seen := false
	for i := range matches {
		if !keep(&matches[i]) {
			continue
		}
		seen = true
		if matches[i].Status != bracket.MatchCompleted {
			return false
		}
	}
	return seen
}

func everyMatch(*bracket.Match) bool { return true }
