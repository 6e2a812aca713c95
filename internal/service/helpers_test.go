package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/AdamBeresnev/op-tournament-engine/internal/bracket"
	"github.com/AdamBeresnev/op-tournament-engine/internal/notify"
	"github.com/AdamBeresnev/op-tournament-engine/internal/store"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
)

// setupTestDB creates an in-memory SQLite database and applies migrations
func setupTestDB(t *testing.T) *sqlx.DB {
	t.Helper()

	database, err := sqlx.Connect("sqlite3", "file::memory:?_foreign_keys=on")
	require.NoError(t, err, "Failed to connect to in-memory DB")
	database.SetMaxOpenConns(1)

	driver, err := sqlite3.WithInstance(database.DB, &sqlite3.Config{})
	require.NoError(t, err, "Failed to create migrate driver instance")

	m, err := migrate.NewWithDatabaseInstance(
		"file://../../migrations",
		"sqlite3",
		driver,
	)
	require.NoError(t, err, "Failed to create migrate instance")

	err = m.Up()
	if err != nil && err != migrate.ErrNoChange {
		require.NoError(t, err, "Failed to apply migrations")
	}

	t.Cleanup(func() { database.Close() })
	return database
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []notify.Event
}

func (r *recordingNotifier) Notify(_ context.Context, e notify.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recordingNotifier) types() []notify.EventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]notify.EventType, len(r.events))
	for i, e := range r.events {
		out[i] = e.Type
	}
	return out
}

func (r *recordingNotifier) last() notify.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.events[len(r.events)-1]
}

func newTestService(t *testing.T) (*TournamentService, *recordingNotifier) {
	t.Helper()
	events := &recordingNotifier{}
	return NewTournamentService(store.NewTournamentStore(setupTestDB(t)), events, time.Minute), events
}

func roster(n int) []uuid.UUID {
	ids := make([]uuid.UUID, n)
	for i := range ids {
		ids[i] = uuid.New()
	}
	return ids
}

func startTournament(t *testing.T, s *TournamentService, f bracket.Format, n int) uuid.UUID {
	t.Helper()
	ctx := context.Background()
	id, err := s.CreateTournament(ctx, "Spring Open", time.Date(2026, 4, 12, 9, 0, 0, 0, time.UTC), f, roster(n))
	require.NoError(t, err)
	require.NoError(t, s.StartTournament(ctx, id))
	return id
}

func nextMatch(t *testing.T, s *TournamentService, id uuid.UUID) *bracket.Match {
	t.Helper()
	next, err := s.GetNextMatches(context.Background(), id, 1)
	require.NoError(t, err)
	if len(next) == 0 {
		return nil
	}
	return &next[0]
}

// player1Result makes player 1 win 3-1.
var player1Result = bracket.Result{Player1Score: 3, Player2Score: 1}

// player2Result makes player 2 win 2-0 with set detail.
var player2Result = bracket.Result{
	Player1Score: 0,
	Player2Score: 2,
	Sets:         bracket.Sets{{Player1: 8, Player2: 11}, {Player1: 9, Player2: 11}},
}

// playOut reports player 1 wins until nothing is left to play.
func playOut(t *testing.T, s *TournamentService, id uuid.UUID) {
	t.Helper()
	for guard := 0; guard < 500; guard++ {
		m := nextMatch(t, s, id)
		if m == nil {
			return
		}
		_, err := s.ReportMatchResult(context.Background(), id, m.ID, player1Result)
		require.NoError(t, err)
	}
	t.Fatal("tournament did not finish")
}
