package api

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"practiceplanner/internal/db"
	"practiceplanner/internal/entities"
	apperrors "practiceplanner/internal/errors"
	"practiceplanner/internal/service"
)

type ProposalHandler struct {
	schedule *service.ScheduleService
	log      zerolog.Logger
}

func NewProposalHandler(schedule *service.ScheduleService, log zerolog.Logger) *ProposalHandler {
	return &ProposalHandler{schedule: schedule, log: log}
}

func (h *ProposalHandler) Generate(w http.ResponseWriter, r *http.Request) {
	batch, err := h.schedule.ProposeSessions(r.Context())
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, batch)
}

// List returns proposals between the optional RFC 3339 from and to query
// parameters, defaulting to the proposal horizon.
func (h *ProposalHandler) List(w http.ResponseWriter, r *http.Request) {
	from, to := h.schedule.Horizon()
	q := r.URL.Query()
	for key, dst := range map[string]*time.Time{"from": &from, "to": &to} {
		if raw := q.Get(key); raw != "" {
			t, err := time.Parse(time.RFC3339, raw)
			if err != nil {
				writeError(w, r, h.log, apperrors.ErrBadRequest(key+" must be an RFC 3339 timestamp"))
				return
			}
			*dst = t
		}
	}
	if !to.After(from) {
		writeError(w, r, h.log, apperrors.ErrBadRequest("to must be after from"))
		return
	}

	proposals, err := h.schedule.ListProposals(r.Context(), from, to, q.Get("confirmed") == "true")
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	if proposals == nil {
		proposals = []db.ProposedSession{}
	}
	writeJSON(w, http.StatusOK, entities.ProposalsList{Total: len(proposals), From: from, To: to, Proposals: proposals})
}

func (h *ProposalHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, r, h.log, apperrors.ErrBadRequest("invalid proposal id"))
		return
	}
	p, err := h.schedule.ConfirmProposal(r.Context(), id)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}
