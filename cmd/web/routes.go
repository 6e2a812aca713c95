package main

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/AdamBeresnev/op-tournament-engine/internal/bracket"
	"github.com/AdamBeresnev/op-tournament-engine/internal/httputil"
	"github.com/AdamBeresnev/op-tournament-engine/internal/notify"
	"github.com/AdamBeresnev/op-tournament-engine/internal/service"
	"github.com/AdamBeresnev/op-tournament-engine/views"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
)

type createTournamentRequest struct {
	Name         string         `json:"name"`
	Date         time.Time      `json:"date"`
	Format       bracket.Format `json:"format"`
	Participants []uuid.UUID    `json:"participants"`
}

type progressResponse struct {
	Percent int `json:"percent"`
}

func newRouter(svc *service.TournamentService, hub *notify.Hub, allowedOrigins []string) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	if len(allowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: allowedOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders: []string{"Accept", "Content-Type"},
			MaxAge:         300,
		}))
	}

	r.Post("/tournaments", func(w http.ResponseWriter, r *http.Request) {
		var req createTournamentRequest
		if err := httputil.DecodeJSON(r, &req); err != nil {
			httputil.BadRequest(w, "Invalid request body", err)
			return
		}
		id, err := svc.CreateTournament(r.Context(), req.Name, req.Date, req.Format, req.Participants)
		if err != nil {
			httputil.Error(w, "Failed to create tournament", err)
			return
		}
		tournament, err := svc.GetTournament(r.Context(), id)
		if err != nil {
			httputil.Error(w, "Failed to get tournament", err)
			return
		}
		w.Header().Set("Location", "/tournaments/"+id.String())
		httputil.JSON(w, http.StatusCreated, tournament)
	})

	r.Get("/tournaments", func(w http.ResponseWriter, r *http.Request) {
		tournaments, err := svc.ListTournaments(r.Context())
		if err != nil {
			httputil.Error(w, "Failed to list tournaments", err)
			return
		}
		httputil.JSON(w, http.StatusOK, tournaments)
	})

	r.Route("/tournaments/{id}", func(r chi.Router) {
		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			id, ok := parseID(w, r, "id")
			if !ok {
				return
			}
			tournament, err := svc.GetTournament(r.Context(), id)
			if err != nil {
				httputil.Error(w, "Failed to get tournament", err)
				return
			}
			httputil.JSON(w, http.StatusOK, tournament)
		})

		r.Post("/start", func(w http.ResponseWriter, r *http.Request) {
			id, ok := parseID(w, r, "id")
			if !ok {
				return
			}
			if err := svc.StartTournament(r.Context(), id); err != nil {
				httputil.Error(w, "Failed to start tournament", err)
				return
			}
			tournament, err := svc.GetTournament(r.Context(), id)
			if err != nil {
				httputil.Error(w, "Failed to get tournament", err)
				return
			}
			httputil.JSON(w, http.StatusOK, tournament)
		})

		r.Get("/matches", func(w http.ResponseWriter, r *http.Request) {
			id, ok := parseID(w, r, "id")
			if !ok {
				return
			}
			matches, err := svc.GetMatches(r.Context(), id)
			if err != nil {
				httputil.Error(w, "Failed to get matches", err)
				return
			}
			httputil.JSON(w, http.StatusOK, matches)
		})

		r.Get("/bracket", func(w http.ResponseWriter, r *http.Request) {
			id, ok := parseID(w, r, "id")
			if !ok {
				return
			}
			matches, err := svc.GetMatches(r.Context(), id)
			if err != nil {
				httputil.Error(w, "Failed to get matches", err)
				return
			}
			httputil.JSON(w, http.StatusOK, views.PrepareBracketData(matches))
		})

		r.Post("/matches/{matchID}/result", func(w http.ResponseWriter, r *http.Request) {
			id, ok := parseID(w, r, "id")
			if !ok {
				return
			}
			matchID, ok := parseID(w, r, "matchID")
			if !ok {
				return
			}
			var result bracket.Result
			if err := httputil.DecodeJSON(r, &result); err != nil {
				httputil.BadRequest(w, "Invalid request body", err)
				return
			}
			match, err := svc.ReportMatchResult(r.Context(), id, matchID, result)
			if err != nil {
				httputil.Error(w, "Failed to report match result", err)
				return
			}
			httputil.JSON(w, http.StatusOK, match)
		})

		r.Get("/standings", func(w http.ResponseWriter, r *http.Request) {
			id, ok := parseID(w, r, "id")
			if !ok {
				return
			}
			standings, err := svc.GetStandings(r.Context(), id)
			if err != nil {
				httputil.Error(w, "Failed to get standings", err)
				return
			}
			if strings.Contains(r.Header.Get("Accept"), "text/html") {
				if err := views.Render(w, r, views.StandingsTable(standings)); err != nil {
					httputil.InternalServerError(w, "Failed to render standings", err)
				}
				return
			}
			httputil.JSON(w, http.StatusOK, standings)
		})

		r.Get("/next-matches", func(w http.ResponseWriter, r *http.Request) {
			id, ok := parseID(w, r, "id")
			if !ok {
				return
			}
			limit := 0
			if raw := r.URL.Query().Get("limit"); raw != "" {
				n, err := strconv.Atoi(raw)
				if err != nil || n < 0 {
					httputil.BadRequest(w, "Invalid limit", err)
					return
				}
				limit = n
			}
			matches, err := svc.GetNextMatches(r.Context(), id, limit)
			if err != nil {
				httputil.Error(w, "Failed to get next matches", err)
				return
			}
			httputil.JSON(w, http.StatusOK, matches)
		})

		r.Get("/progress", func(w http.ResponseWriter, r *http.Request) {
			id, ok := parseID(w, r, "id")
			if !ok {
				return
			}
			percent, err := svc.GetProgressPercent(r.Context(), id)
			if err != nil {
				httputil.Error(w, "Failed to get progress", err)
				return
			}
			httputil.JSON(w, http.StatusOK, progressResponse{Percent: percent})
		})
	})

	r.Get("/ws/tournaments/{id}", func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseID(w, r, "id")
		if !ok {
			return
		}
		if _, err := svc.GetTournament(r.Context(), id); err != nil {
			httputil.Error(w, "Failed to get tournament", err)
			return
		}
		hub.ServeWS(w, r, id)
	})

	return r
}

func parseID(w http.ResponseWriter, r *http.Request, param string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, param))
	if err != nil {
		httputil.BadRequest(w, "Invalid "+param, err)
		return uuid.Nil, false
	}
	return id, true
}
