// Package auth registers and logs in users and issues their JWTs.
package auth

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"findash/internal/models"
	"findash/internal/store"

	"go.uber.org/zap"
)

var (
	ErrUserExists         = errors.New("user already exists")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidInput       = errors.New("invalid input")
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

const (
	minPasswordLen = 6
	minNameLen     = 2
)

// UserStore is the persistence the service needs.
type UserStore interface {
	CreateUser(ctx context.Context, u *models.User) error
	FindUserByEmail(ctx context.Context, email string) (*models.User, error)
	FindUserByID(ctx context.Context, id string) (*models.User, error)
}

// UserInfo is the public part of a user returned with tokens.
type UserInfo struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

// Session is the response body of register, login and refresh.
type Session struct {
	User UserInfo `json:"user"`
	TokenPair
}

// Service implements register, login and refresh.
type Service struct {
	logger *zap.Logger
	users  UserStore
	tokens *TokenIssuer
}

// NewService creates an auth service.
func NewService(logger *zap.Logger, users UserStore, tokens *TokenIssuer) *Service {
	return &Service{logger: logger.Named("auth"), users: users, tokens: tokens}
}

// Tokens exposes the issuer for the HTTP middleware.
func (s *Service) Tokens() *TokenIssuer { return s.tokens }

// NormalizeEmail trims and lower-cases an address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register validates the input, creates the user and logs them in.
func (s *Service) Register(ctx context.Context, email, password, name string) (Session, error) {
	email = NormalizeEmail(email)
	name = strings.TrimSpace(name)
	switch {
	case !emailPattern.MatchString(email):
		return Session{}, fmt.Errorf("%w: invalid email address", ErrInvalidInput)
	case utf8.RuneCountInString(password) < minPasswordLen:
		return Session{}, fmt.Errorf("%w: password must be at least %d characters", ErrInvalidInput, minPasswordLen)
	case utf8.RuneCountInString(name) < minNameLen:
		return Session{}, fmt.Errorf("%w: name must be at least %d characters", ErrInvalidInput, minNameLen)
	}

	_, err := s.users.FindUserByEmail(ctx, email)
	if err == nil {
		return Session{}, ErrUserExists
	}
	if !errors.Is(err, store.ErrNotFound) {
		return Session{}, err
	}

	hash, err := HashPassword(password)
	if err != nil {
		return Session{}, fmt.Errorf("hash password: %w", err)
	}
	u := models.User{Email: email, Name: name, PasswordHash: hash}
	if err := s.users.CreateUser(ctx, &u); err != nil {
		return Session{}, err
	}
	s.logger.Info("User registered", zap.String("user_id", u.ID))
	return s.session(&u)
}

// Login checks the credentials. Unknown email and wrong password give the same error.
func (s *Service) Login(ctx context.Context, email, password string) (Session, error) {
	u, err := s.users.FindUserByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return Session{}, ErrInvalidCredentials
		}
		return Session{}, err
	}
	if !CheckPassword(u.PasswordHash, password) {
		return Session{}, ErrInvalidCredentials
	}
	return s.session(u)
}

// Refresh trades a valid refresh token for a new pair.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (Session, error) {
	claims, err := s.tokens.ParseRefreshToken(refreshToken)
	if err != nil {
		return Session{}, err
	}
	u, err := s.users.FindUserByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return Session{}, ErrInvalidToken
		}
		return Session{}, err
	}
	return s.session(u)
}

func (s *Service) session(u *models.User) (Session, error) {
	pair, err := s.tokens.Issue(u.ID, u.Email)
	if err != nil {
		return Session{}, err
	}
	return Session{User: UserInfo{ID: u.ID, Email: u.Email, Name: u.Name}, TokenPair: pair}, nil
}
