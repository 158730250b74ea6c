package api

import (
	"net/http"

	"github.com/rs/zerolog"

	"practiceplanner/internal/db"
	"practiceplanner/internal/entities"
	"practiceplanner/internal/service"
)

type ProjectHandler struct {
	service *service.ProjectService
	log     zerolog.Logger
}

func NewProjectHandler(svc *service.ProjectService, log zerolog.Logger) *ProjectHandler {
	return &ProjectHandler{service: svc, log: log}
}

func (h *ProjectHandler) List(w http.ResponseWriter, r *http.Request) {
	projects, err := h.service.List(r.Context())
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	if projects == nil {
		projects = []db.Project{}
	}
	writeJSON(w, http.StatusOK, projects)
}

func (h *ProjectHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	p, err := h.service.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *ProjectHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req entities.ProjectRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, h.log, err)
		return
	}
	p := projectFromRequest(req)
	if err := h.service.Create(r.Context(), p); err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (h *ProjectHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	var req entities.ProjectRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, h.log, err)
		return
	}
	p := projectFromRequest(req)
	p.ID = id
	if err := h.service.Update(r.Context(), p); err != nil {
		writeError(w, r, h.log, err)
		return
	}
	updated, err := h.service.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (h *ProjectHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		writeError(w, r, h.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func projectFromRequest(req entities.ProjectRequest) *db.Project {
	return &db.Project{
		Name:           req.Name,
		EstimatedHours: req.EstimatedHours,
		Priority:       req.Priority,
		Description:    req.Description,
	}
}
