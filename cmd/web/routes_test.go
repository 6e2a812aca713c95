package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/AdamBeresnev/op-tournament-engine/internal/bracket"
	"github.com/AdamBeresnev/op-tournament-engine/internal/db"
	"github.com/AdamBeresnev/op-tournament-engine/internal/notify"
	"github.com/AdamBeresnev/op-tournament-engine/internal/service"
	"github.com/AdamBeresnev/op-tournament-engine/internal/store"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testServer struct {
	handler http.Handler
	hub     *notify.Hub
}

func setupServer(t *testing.T) *testServer {
	t.Helper()

	database, err := db.Open(db.DriverSQLite, "file::memory:")
	require.NoError(t, err)
	database.SetMaxOpenConns(1)
	t.Cleanup(func() { database.Close() })
	require.NoError(t, db.RunMigrations(database.DB, db.DriverSQLite))

	hub := notify.NewHub(nil)
	svc := service.NewTournamentService(store.NewTournamentStore(database), notify.New(time.Second, hub), 0)
	return &testServer{handler: newRouter(svc, hub, []string{"https://brackets.example"}), hub: hub}
}

func (s *testServer) do(t *testing.T, method, path string, body any, headers ...string) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func (s *testServer) createTournament(t *testing.T, f bracket.Format, n int) bracket.Tournament {
	t.Helper()

	participants := make([]uuid.UUID, n)
	for i := range participants {
		participants[i] = uuid.New()
	}
	rec := s.do(t, http.MethodPost, "/tournaments", createTournamentRequest{
		Name:         "Friday Cup",
		Date:         time.Date(2026, 11, 6, 18, 0, 0, 0, time.UTC),
		Format:       f,
		Participants: participants,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[bracket.Tournament](t, rec)
}

func TestKnockoutOverHTTP(t *testing.T) {
	s := setupServer(t)
	tournament := s.createTournament(t, bracket.Knockout, 4)
	base := "/tournaments/" + tournament.ID.String()
	assert.Equal(t, bracket.TournamentPending, tournament.Status)
	assert.Len(t, tournament.Participants, 4)

	rec := s.do(t, http.MethodPost, base+"/start", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, bracket.TournamentActive, decode[bracket.Tournament](t, rec).Status)

	rec = s.do(t, http.MethodGet, base+"/matches", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]bracket.Match](t, rec), 3)

	for range 3 {
		rec = s.do(t, http.MethodGet, base+"/next-matches?limit=1", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		next := decode[[]bracket.Match](t, rec)
		require.Len(t, next, 1)

		rec = s.do(t, http.MethodPost, fmt.Sprintf("%s/matches/%s/result", base, next[0].ID),
			bracket.Result{Player1Score: 2, Player2Score: 1})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.Equal(t, bracket.MatchCompleted, decode[bracket.Match](t, rec).Status)
	}

	rec = s.do(t, http.MethodGet, base+"/next-matches", nil)
	assert.Empty(t, decode[[]bracket.Match](t, rec))

	rec = s.do(t, http.MethodGet, base+"/progress", nil)
	assert.Equal(t, 100, decode[progressResponse](t, rec).Percent)

	rec = s.do(t, http.MethodGet, base, nil)
	final := decode[bracket.Tournament](t, rec)
	assert.Equal(t, bracket.TournamentCompleted, final.Status)
	require.NotNil(t, final.WinnerID)

	rec = s.do(t, http.MethodGet, base+"/standings", nil)
	standings := decode[[]bracket.Standing](t, rec)
	require.Len(t, standings, 4)
	assert.Equal(t, *final.WinnerID, standings[0].ParticipantID)

	rec = s.do(t, http.MethodGet, base+"/standings", nil, "Accept", "text/html")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	assert.True(t, strings.HasPrefix(rec.Body.String(), "<table"))

	rec = s.do(t, http.MethodGet, base+"/bracket", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var data struct{ Main []struct{ Round int } }
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &data))
	assert.Len(t, data.Main, 2)

	rec = s.do(t, http.MethodGet, "/tournaments", nil)
	assert.Len(t, decode[[]bracket.Tournament](t, rec), 1)
}

func TestErrorResponses(t *testing.T) {
	s := setupServer(t)
	tournament := s.createTournament(t, bracket.RoundRobin, 3)
	base := "/tournaments/" + tournament.ID.String()

	rec := s.do(t, http.MethodPost, base+"/matches/"+uuid.NewString()+"/result", bracket.Result{Player1Score: 1})
	assert.Equal(t, http.StatusConflict, rec.Code, "results are rejected before the start")

	require.Equal(t, http.StatusOK, s.do(t, http.MethodPost, base+"/start", nil).Code)
	assert.Equal(t, http.StatusConflict, s.do(t, http.MethodPost, base+"/start", nil).Code)

	next := decode[[]bracket.Match](t, s.do(t, http.MethodGet, base+"/next-matches?limit=1", nil))
	require.Len(t, next, 1)
	resultPath := fmt.Sprintf("%s/matches/%s/result", base, next[0].ID)

	rec = s.do(t, http.MethodPost, resultPath, bracket.Result{Player1Score: 1, Player2Score: 1})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, bracket.ErrEqualScores.Error(), decode[map[string]string](t, rec)["error"])

	rec = s.do(t, http.MethodPost, resultPath, bracket.Result{Player1Score: 2, Player2Score: 0, Sets: bracket.Sets{{Player1: 11, Player2: 3}}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	require.Equal(t, http.StatusOK, s.do(t, http.MethodPost, resultPath, bracket.Result{Player1Score: 1, Player2Score: 0}).Code)
	assert.Equal(t, http.StatusConflict, s.do(t, http.MethodPost, resultPath, bracket.Result{Player1Score: 0, Player2Score: 1}).Code)

	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodPost, fmt.Sprintf("%s/matches/%s/result", base, uuid.New()), bracket.Result{Player1Score: 1}).Code)
	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodGet, "/tournaments/"+uuid.NewString(), nil).Code)
	assert.Equal(t, http.StatusBadRequest, s.do(t, http.MethodGet, "/tournaments/not-a-uuid", nil).Code)
	assert.Equal(t, http.StatusBadRequest, s.do(t, http.MethodGet, base+"/next-matches?limit=-1", nil).Code)

	rec = s.do(t, http.MethodPost, "/tournaments", createTournamentRequest{Name: "Too small", Format: bracket.Knockout, Participants: []uuid.UUID{uuid.New(), uuid.New()}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	req := httptest.NewRequest(http.MethodPost, "/tournaments", strings.NewReader(`{"name":`))
	rec = httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCORSPreflight(t *testing.T) {
	s := setupServer(t)

	req := httptest.NewRequest(http.MethodOptions, "/tournaments", nil)
	req.Header.Set("Origin", "https://brackets.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)

	assert.Equal(t, "https://brackets.example", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestWebSocketReceivesEvents(t *testing.T) {
	s := setupServer(t)
	tournament := s.createTournament(t, bracket.Knockout, 4)

	server := httptest.NewServer(s.handler)
	defer server.Close()

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws/tournaments/" + tournament.ID.String()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return s.hub.Clients(tournament.ID) == 1 }, time.Second, 10*time.Millisecond)

	require.Equal(t, http.StatusOK, s.do(t, http.MethodPost, "/tournaments/"+tournament.ID.String()+"/start", nil).Code)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var event notify.Event
	require.NoError(t, conn.ReadJSON(&event))
	assert.Equal(t, notify.TournamentStarted, event.Type)
	assert.Equal(t, tournament.ID, event.TournamentID)
}

func TestWebSocketUnknownTournament(t *testing.T) {
	s := setupServer(t)
	rec := s.do(t, http.MethodGet, "/ws/tournaments/"+uuid.NewString(), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
