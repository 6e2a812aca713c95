package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/AdamBeresnev/op-tournament-engine/internal/bracket"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

const matchColumns = `id, tournament_id, round, match_number, bracket, group_index, stage,
	player1_id, player2_id, player1_score, player2_score, sets, winner_id, status,
	next_match_id, loser_next_match_id, is_bye, awaiting_bye, created_at`

const matchOrder = `ORDER BY round ASC, match_number ASC, COALESCE(bracket, '') ASC`

type TournamentStore struct {
	db *sqlx.DB
}

func NewTournamentStore(db *sqlx.DB) *TournamentStore {
	return &TournamentStore{db: db}
}

// CreateTournament inserts the tournament row and its ordered roster in one transaction.
func (s *TournamentStore) CreateTournament(ctx context.Context, tournament *bracket.Tournament) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	if tournament.CreatedAt.IsZero() {
		tournament.CreatedAt = now
	}
	tournament.UpdatedAt = now

	_, err = tx.NamedExecContext(ctx, `INSERT INTO tournaments (id, name, date, format, status, winner_id, created_at, updated_at)
		VALUES (:id, :name, :date, :format, :status, :winner_id, :created_at, :updated_at)`, tournament)
	if err != nil {
		return fmt.Errorf("failed to insert tournament: %w", err)
	}

	for i, participantID := range tournament.Participants {
		_, err := tx.ExecContext(ctx, tx.Rebind(`INSERT INTO tournament_participants (tournament_id, participant_id, position) VALUES (?, ?, ?)`),
			tournament.ID, participantID, i)
		if err != nil {
			return fmt.Errorf("failed to insert participant %s: %w", participantID, err)
		}
	}

	return tx.Commit()
}

func (s *TournamentStore) GetTournament(ctx context.Context, id uuid.UUID) (*bracket.Tournament, error) {
	return getTournament(ctx, s.db, id)
}

// ListTournaments returns every tournament, newest first, with rosters.
func (s *TournamentStore) ListTournaments(ctx context.Context) ([]bracket.Tournament, error) {
	var tournaments []bracket.Tournament
	if err := s.db.SelectContext(ctx, &tournaments, "SELECT * FROM tournaments ORDER BY created_at DESC, id ASC"); err != nil {
		return nil, err
	}

	for i := range tournaments {
		participants, err := getParticipants(ctx, s.db, tournaments[i].ID)
		if err != nil {
			return nil, err
		}
		tournaments[i].Participants = participants
	}
	return tournaments, nil
}

func (s *TournamentStore) GetMatches(ctx context.Context, tournamentID uuid.UUID) ([]bracket.Match, error) {
	return getMatches(ctx, s.db, tournamentID)
}

func (s *TournamentStore) GetMatch(ctx context.Context, id uuid.UUID) (*bracket.Match, error) {
	return getMatch(ctx, s.db, id)
}

// WithTx runs fn inside one transaction holding the tournament's row lock.
// The lock is taken by touching updated_at, which serialises writers on both
// SQLite and PostgreSQL. Any error from fn rolls everything back.
func (s *TournamentStore) WithTx(ctx context.Context, tournamentID uuid.UUID, fn func(tx *Tx) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, tx.Rebind("UPDATE tournaments SET updated_at = ? WHERE id = ?"), time.Now().UTC(), tournamentID)
	if err != nil {
		return fmt.Errorf("failed to lock tournament: %w", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return err
	} else if n == 0 {
		return fmt.Errorf("tournament %s: %w", tournamentID, bracket.ErrNotFound)
	}

	if err := fn(&Tx{tx: tx}); err != nil {
		return err
	}
	return tx.Commit()
}

func getTournament(ctx context.Context, q sqlx.ExtContext, id uuid.UUID) (*bracket.Tournament, error) {
	var tournament bracket.Tournament
	err := sqlx.GetContext(ctx, q, &tournament, q.Rebind("SELECT * FROM tournaments WHERE id = ?"), id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("tournament %s: %w", id, bracket.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}

	tournament.Participants, err = getParticipants(ctx, q, id)
	if err != nil {
		return nil, err
	}
	return &tournament, nil
}

func getParticipants(ctx context.Context, q sqlx.ExtContext, tournamentID uuid.UUID) ([]uuid.UUID, error) {
	var participants []uuid.UUID
	err := sqlx.SelectContext(ctx, q, &participants,
		q.Rebind("SELECT participant_id FROM tournament_participants WHERE tournament_id = ? ORDER BY position ASC"), tournamentID)
	return participants, err
}

func getMatches(ctx context.Context, q sqlx.ExtContext, tournamentID uuid.UUID) ([]bracket.Match, error) {
	var matches []bracket.Match
	err := sqlx.SelectContext(ctx, q, &matches,
		q.Rebind("SELECT "+matchColumns+" FROM matches WHERE tournament_id = ? "+matchOrder), tournamentID)
	return matches, err
}

func getMatch(ctx context.Context, q sqlx.ExtContext, id uuid.UUID) (*bracket.Match, error) {
	var match bracket.Match
	err := sqlx.GetContext(ctx, q, &match, q.Rebind("SELECT "+matchColumns+" FROM matches WHERE id = ?"), id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("match %s: %w", id, bracket.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &match, nil
}

// Snapshot reads a tournament and its matches inside one transaction so the
// two are consistent with each other.
func (s *TournamentStore) Snapshot(ctx context.Context, id uuid.UUID) (*bracket.Tournament, []bracket.Match, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, nil, err
	}
	defer tx.Rollback()

	tournament, err := getTournament(ctx, tx, id)
	if err != nil {
		return nil, nil, err
	}
	matches, err := getMatches(ctx, tx, id)
	if err != nil {
		return nil, nil, err
	}
	return tournament, matches, tx.Commit()
}
