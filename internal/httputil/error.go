package httputil

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/AdamBeresnev/op-tournament-engine/internal/bracket"
)

type errorBody struct {
	Error string `json:"error"`
}

func InternalServerError(w http.ResponseWriter, msg string, err error) {
	slog.Error(msg, "error", err)
	JSON(w, http.StatusInternalServerError, errorBody{Error: "Internal Server Error"})
}

func BadRequest(w http.ResponseWriter, msg string, err error) {
	if err != nil {
		slog.Warn("bad request", "message", msg, "error", err)
	} else {
		slog.Warn("bad request", "message", msg)
	}
	JSON(w, http.StatusBadRequest, errorBody{Error: msg})
}

func NotFound(w http.ResponseWriter, msg string, err error) {
	if err != nil {
		slog.Warn("not found", "message", msg, "error", err)
	} else {
		slog.Warn("not found", "message", msg)
	}
	JSON(w, http.StatusNotFound, errorBody{Error: msg})
}

func Conflict(w http.ResponseWriter, msg string, err error) {
	slog.Warn("conflict", "message", msg, "error", err)
	JSON(w, http.StatusConflict, errorBody{Error: msg})
}

// Error writes err with the status code of its kind. Unknown errors are
// logged and hidden behind a 500.
func Error(w http.ResponseWriter, msg string, err error) {
	switch {
	case errors.Is(err, bracket.ErrValidation),
		errors.Is(err, bracket.ErrEqualScores),
		errors.Is(err, bracket.ErrInconsistentSetScore):
		BadRequest(w, err.Error(), err)
	case errors.Is(err, bracket.ErrNotFound):
		NotFound(w, err.Error(), err)
	case errors.Is(err, bracket.ErrAlreadyAssigned),
		errors.Is(err, bracket.ErrInvalidStatus),
		errors.Is(err, bracket.ErrMatchNotPlayable):
		Conflict(w, err.Error(), err)
	default:
		InternalServerError(w, msg, err)
	}
}
