package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	apperrors "practiceplanner/internal/errors"
	"practiceplanner/internal/repository"
	"practiceplanner/internal/scheduler"
	"practiceplanner/internal/service"
)

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError maps err onto a status code and writes {"error": msg}.
// Unexpected errors are logged and reported without detail.
func writeError(w http.ResponseWriter, r *http.Request, log zerolog.Logger, err error) {
	var httpErr *apperrors.HTTPError
	switch {
	case errors.As(err, &httpErr):
	case errors.Is(err, scheduler.ErrInvalidParameters):
		httpErr = apperrors.ErrBadRequest(err.Error())
	case errors.Is(err, service.ErrInvalidCredentials):
		httpErr = apperrors.ErrUnauthorized("invalid credentials")
	case errors.Is(err, repository.ErrNotFound):
		httpErr = apperrors.ErrNotFound(err.Error())
	case errors.Is(err, repository.ErrConflict):
		httpErr = apperrors.ErrConflict(err.Error())
	default:
		log.Error().Err(err).Str("method", r.Method).Str("path", r.URL.Path).Msg("request failed")
		httpErr = apperrors.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	writeJSON(w, httpErr.Code, map[string]string{"error": httpErr.Message})
}

func decode(r *http.Request, v interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return apperrors.ErrBadRequest("invalid request body: " + err.Error())
	}
	return nil
}

func pathID(r *http.Request) (int, error) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil || id <= 0 {
		return 0, apperrors.ErrBadRequest("invalid id")
	}
	return id, nil
}

func queryInt(r *http.Request, key string, def int) (int, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperrors.ErrBadRequest(key + " must be an integer")
	}
	return v, nil
}
