package service

import (
	"context"
	"errors"
	"net/mail"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	apperrors "practiceplanner/internal/errors"
	"practiceplanner/internal/repository"
)

var ErrInvalidCredentials = errors.New("invalid credentials")

const minPasswordLength = 8

type AuthService interface {
	Login(ctx context.Context, email, password string) (string, error)
	CreateUser(ctx context.Context, email, password string) error
	TokenTTL() time.Duration
}

type authService struct {
	repo   repository.UserRepository
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewAuthService(repo repository.UserRepository, secret string, ttl time.Duration) AuthService {
	return &authService{repo: repo, secret: []byte(secret), ttl: ttl, now: time.Now}
}

func (s *authService) Login(ctx context.Context, email, password string) (string, error) {
	user, err := s.repo.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return "", err
	}
	if user == nil {
		return "", ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", ErrInvalidCredentials
	}

	claims := jwt.MapClaims{
		"user_id": user.ID,
		"email":   user.Email,
		"exp":     s.now().Add(s.ttl).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

func (s *authService) CreateUser(ctx context.Context, email, password string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if _, err := mail.ParseAddress(email); err != nil {
		return apperrors.ErrBadRequest("a valid email is required")
	}
	if len(password) < minPasswordLength {
		return apperrors.ErrBadRequest("password must be at least 8 characters")
	}
	_, err := s.repo.Create(ctx, email, password)
	return err
}

func (s *authService) TokenTTL() time.Duration {
	return s.ttl
}
