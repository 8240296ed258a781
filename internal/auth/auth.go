package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidToken = errors.New("invalid_token")
	ErrMissingToken = errors.New("missing_token")
)

const issuer = "wager-engine"

type Player struct {
	Handle  string `json:"player_handle"`
	Contact string `json:"contact_handle"`
}

type playerClaims struct {
	jwt.RegisteredClaims
	Contact string `json:"contact_handle"`
}

type Tokens struct {
	secret []byte
	ttl    time.Duration
	Now    func() time.Time
}

func NewTokens(secret string, ttl time.Duration) (*Tokens, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, fmt.Errorf("jwt secret is required")
	}
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &Tokens{secret: []byte(secret), ttl: ttl, Now: time.Now}, nil
}

func (t *Tokens) Issue(p Player) (string, time.Time, error) {
	handle := strings.TrimSpace(p.Handle)
	if handle == "" {
		return "", time.Time{}, fmt.Errorf("player handle is required")
	}
	now := t.Now()
	exp := now.Add(t.ttl)
	claims := playerClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   handle,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
		Contact: strings.TrimSpace(p.Contact),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp, nil
}

func (t *Tokens) Verify(token string) (Player, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return Player{}, ErrMissingToken
	}
	var claims playerClaims
	_, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return t.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(t.Now),
	)
	if err != nil {
		return Player{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.Subject == "" {
		return Player{}, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}
	return Player{Handle: claims.Subject, Contact: claims.Contact}, nil
}
