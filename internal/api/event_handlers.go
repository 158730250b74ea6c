package api

import (
	"net/http"

	"github.com/rs/zerolog"

	"practiceplanner/internal/db"
	"practiceplanner/internal/entities"
	"practiceplanner/internal/service"
)

type EventHandler struct {
	events   *service.EventService
	classify *service.ClassificationService
	batch    int
	log      zerolog.Logger
}

func NewEventHandler(events *service.EventService, classify *service.ClassificationService, batchSize int, log zerolog.Logger) *EventHandler {
	return &EventHandler{events: events, classify: classify, batch: batchSize, log: log}
}

func (h *EventHandler) Import(w http.ResponseWriter, r *http.Request) {
	var req entities.ImportRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, h.log, err)
		return
	}
	res, err := h.events.Import(r.Context(), req.Items)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *EventHandler) ListUnclassified(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", 0)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	includePast := r.URL.Query().Get("include_past") == "true"
	events, err := h.events.ListUnclassified(r.Context(), limit, includePast)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeEvents(w, events)
}

func (h *EventHandler) ListClassified(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", 0)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	events, err := h.events.ListClassified(r.Context(), limit)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeEvents(w, events)
}

func (h *EventHandler) SetProject(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	var req entities.EventProjectRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, h.log, err)
		return
	}
	e, err := h.events.SetProject(r.Context(), id, req.ProjectID)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

// Classify runs automatic classification over unclassified events. The body
// is optional.
func (h *EventHandler) Classify(w http.ResponseWriter, r *http.Request) {
	req := entities.ClassifyRequest{Limit: h.batch}
	if r.ContentLength > 0 {
		if err := decode(r, &req); err != nil {
			writeError(w, r, h.log, err)
			return
		}
	}
	if req.Limit <= 0 {
		req.Limit = h.batch
	}
	results, err := h.classify.AutoClassify(r.Context(), req.Limit)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, results)
}

func writeEvents(w http.ResponseWriter, events []db.Event) {
	if events == nil {
		events = []db.Event{}
	}
	writeJSON(w, http.StatusOK, events)
}
