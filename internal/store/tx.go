package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/AdamBeresnev/op-tournament-engine/internal/bracket"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// insertBatchSize keeps one multi-row insert well below the bind parameter
// limits of SQLite and PostgreSQL.
const insertBatchSize = 500

// Tx is the transactional view handed out by WithTx. It satisfies the
// repository interface the format strategies progress brackets through.
type Tx struct {
	tx *sqlx.Tx
}

func (t *Tx) GetTournament(ctx context.Context, id uuid.UUID) (*bracket.Tournament, error) {
	return getTournament(ctx, t.tx, id)
}

func (t *Tx) GetMatch(ctx context.Context, id uuid.UUID) (*bracket.Match, error) {
	return getMatch(ctx, t.tx, id)
}

func (t *Tx) GetTournamentMatches(ctx context.Context, tournamentID uuid.UUID) ([]bracket.Match, error) {
	return getMatches(ctx, t.tx, tournamentID)
}

// UpdateMatch writes the non-nil fields of update. With ExpectStatus set the
// write is conditional on the stored status and fails with
// bracket.ErrMatchNotPlayable when another writer got there first.
func (t *Tx) UpdateMatch(ctx context.Context, id uuid.UUID, update bracket.MatchUpdate) error {
	var (
		columns []string
		args    []any
	)
	if update.Player1Score != nil {
		columns = append(columns, "player1_score = ?")
		args = append(args, *update.Player1Score)
	}
	if update.Player2Score != nil {
		columns = append(columns, "player2_score = ?")
		args = append(args, *update.Player2Score)
	}
	if update.Sets != nil {
		columns = append(columns, "sets = ?")
		args = append(args, update.Sets)
	}
	if update.WinnerID != nil {
		columns = append(columns, "winner_id = ?")
		args = append(args, *update.WinnerID)
	}
	if update.Status != nil {
		columns = append(columns, "status = ?")
		args = append(args, *update.Status)
	}
	if len(columns) == 0 {
		return nil
	}

	query := "UPDATE matches SET " + strings.Join(columns, ", ") + " WHERE id = ?"
	args = append(args, id)
	if update.ExpectStatus != nil {
		query += " AND status = ?"
		args = append(args, *update.ExpectStatus)
	}

	n, err := t.exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update match %s: %w", id, err)
	}
	if n > 0 {
		return nil
	}

	current, err := t.GetMatch(ctx, id)
	if err != nil {
		return err
	}
	return fmt.Errorf("match %s is %s: %w", id, current.Status, bracket.ErrMatchNotPlayable)
}

func (t *Tx) CreateMatch(ctx context.Context, match *bracket.Match) error {
	return t.InsertMatches(ctx, []bracket.Match{*match})
}

func (t *Tx) InsertMatches(ctx context.Context, matches []bracket.Match) error {
	if len(matches) == 0 {
		return nil
	}

	now := time.Now().UTC()
	rows := make([]bracket.Match, len(matches))
	for i, m := range matches {
		if m.CreatedAt.IsZero() {
			m.CreatedAt = now
		}
		if m.Sets == nil {
			m.Sets = bracket.Sets{}
		}
		rows[i] = m
	}

	for start := 0; start < len(rows); start += insertBatchSize {
		end := min(start+insertBatchSize, len(rows))
		_, err := t.tx.NamedExecContext(ctx, `INSERT INTO matches (`+matchColumns+`)
			VALUES (:id, :tournament_id, :round, :match_number, :bracket, :group_index, :stage,
				:player1_id, :player2_id, :player1_score, :player2_score, :sets, :winner_id, :status,
				:next_match_id, :loser_next_match_id, :is_bye, :awaiting_bye, :created_at)`, rows[start:end])
		if err != nil {
			return fmt.Errorf("failed to insert matches: %w", err)
		}
	}
	return nil
}

// AdvanceParticipant fills the first empty player slot of the target with
// conditional updates, so an occupied slot is never overwritten, then flips a
// now full pending match to scheduled.
func (t *Tx) AdvanceParticipant(ctx context.Context, targetMatchID, participantID uuid.UUID) (*bracket.Match, error) {
	n, err := t.exec(ctx, "UPDATE matches SET player1_id = ? WHERE id = ? AND player1_id IS NULL", participantID, targetMatchID)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		n, err = t.exec(ctx, "UPDATE matches SET player2_id = ? WHERE id = ? AND player1_id IS NOT NULL AND player2_id IS NULL", participantID, targetMatchID)
		if err != nil {
			return nil, err
		}
	}
	if n == 0 {
		if _, err := t.GetMatch(ctx, targetMatchID); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("match %s: %w", targetMatchID, bracket.ErrAlreadyAssigned)
	}

	_, err = t.exec(ctx, "UPDATE matches SET status = ? WHERE id = ? AND status = ? AND player1_id IS NOT NULL AND player2_id IS NOT NULL",
		bracket.MatchScheduled, targetMatchID, bracket.MatchPending)
	if err != nil {
		return nil, err
	}

	return t.GetMatch(ctx, targetMatchID)
}

// SetTournamentWinner declares the winner and completes the tournament. It
// fails with bracket.ErrInvalidStatus when a winner is already recorded.
func (t *Tx) SetTournamentWinner(ctx context.Context, tournamentID, participantID uuid.UUID) error {
	n, err := t.exec(ctx, "UPDATE tournaments SET winner_id = ?, status = ?, updated_at = ? WHERE id = ? AND winner_id IS NULL",
		participantID, bracket.TournamentCompleted, time.Now().UTC(), tournamentID)
	if err != nil {
		return err
	}
	if n == 0 {
		if _, err := t.GetTournament(ctx, tournamentID); err != nil {
			return err
		}
		return fmt.Errorf("tournament %s already has a winner: %w", tournamentID, bracket.ErrInvalidStatus)
	}
	return nil
}

func (t *Tx) SetTournamentStatus(ctx context.Context, tournamentID uuid.UUID, status bracket.TournamentStatus) error {
	n, err := t.exec(ctx, "UPDATE tournaments SET status = ?, updated_at = ? WHERE id = ?", status, time.Now().UTC(), tournamentID)
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("tournament %s: %w", tournamentID, bracket.ErrNotFound)
	}
	return nil
}

func (t *Tx) exec(ctx context.Context, query string, args ...any) (int64, error) {
	res, err := t.tx.ExecContext(ctx, t.tx.Rebind(query), args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
