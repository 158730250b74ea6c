package api

import (
	"net/http"

	"github.com/rs/zerolog"

	"practiceplanner/internal/entities"
	"practiceplanner/internal/service"
)

type AuthHandler struct {
	service service.AuthService
	log     zerolog.Logger
}

func NewAuthHandler(svc service.AuthService, log zerolog.Logger) *AuthHandler {
	return &AuthHandler{service: svc, log: log}
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req entities.LoginRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, h.log, err)
		return
	}

	token, err := h.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, entities.LoginResponse{Token: token, ExpiresIn: int64(h.service.TokenTTL().Seconds())})
}

func (h *AuthHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req entities.CreateUserRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, h.log, err)
		return
	}
	if err := h.service.CreateUser(r.Context(), req.Email, req.Password); err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"message": "user created"})
}
