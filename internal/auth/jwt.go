package auth

import (
	"errors"
	"fmt"
	"time"

	"findash/internal/config"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken is returned for malformed, expired or wrongly signed tokens.
var ErrInvalidToken = errors.New("invalid or expired token")

// Claims is the payload of both access and refresh tokens.
type Claims struct {
	UserID string `json:"userId"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

// TokenPair is what register, login and refresh hand back.
type TokenPair struct {
	Token        string `json:"token"`
	RefreshToken string `json:"refreshToken"`
}

// TokenIssuer signs and verifies HS256 tokens. Access and refresh tokens use different
// secrets, so one can never stand in for the other.
type TokenIssuer struct {
	secret        []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
	now           func() time.Time
}

// NewTokenIssuer creates an issuer from the auth config.
func NewTokenIssuer(cfg config.Auth) *TokenIssuer {
	return &TokenIssuer{
		secret:        []byte(cfg.Secret),
		refreshSecret: []byte(cfg.RefreshSecret),
		accessTTL:     cfg.AccessTTL,
		refreshTTL:    cfg.RefreshTTL,
		now:           time.Now,
	}
}

// Issue creates a fresh access/refresh pair for the user.
func (j *TokenIssuer) Issue(userID, email string) (TokenPair, error) {
	access, err := j.sign(userID, email, j.accessTTL, j.secret)
	if err != nil {
		return TokenPair{}, fmt.Errorf("sign access token: %w", err)
	}
	refresh, err := j.sign(userID, email, j.refreshTTL, j.refreshSecret)
	if err != nil {
		return TokenPair{}, fmt.Errorf("sign refresh token: %w", err)
	}
	return TokenPair{Token: access, RefreshToken: refresh}, nil
}

// ParseAccessToken verifies an access token.
func (j *TokenIssuer) ParseAccessToken(token string) (Claims, error) {
	return j.parse(token, j.secret)
}

// ParseRefreshToken verifies a refresh token.
func (j *TokenIssuer) ParseRefreshToken(token string) (Claims, error) {
	return j.parse(token, j.refreshSecret)
}

func (j *TokenIssuer) sign(userID, email string, ttl time.Duration, secret []byte) (string, error) {
	now := j.now()
	claims := Claims{
		UserID: userID,
		Email:  email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

func (j *TokenIssuer) parse(token string, secret []byte) (Claims, error) {
	var claims Claims
	tkn, err := jwt.ParseWithClaims(token, &claims, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return secret, nil
	}, jwt.WithTimeFunc(j.now))
	if err != nil {
		return Claims{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !tkn.Valid || claims.UserID == "" {
		return Claims{}, ErrInvalidToken
	}
	return claims, nil
}
