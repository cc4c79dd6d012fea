// Package auth issues and checks board edit tokens.
//
// A board token is an HMAC-signed JWT whose subject is the board id.
// Anyone holding it may change the board; anyone else may only watch.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrWrongBoard   = errors.New("token is for another board")
)

const scopeEdit = "board:edit"

type Service struct {
	jwtSecret []byte
	ttl       time.Duration
	now       func() time.Time
}

func NewService(jwtSecret string, ttl time.Duration) *Service {
	if ttl <= 0 {
		ttl = 30 * 24 * time.Hour
	}
	return &Service{
		jwtSecret: []byte(jwtSecret),
		ttl:       ttl,
		now:       time.Now,
	}
}

// IssueBoardToken returns a signed edit token for boardID.
func (s *Service) IssueBoardToken(boardID string) (string, error) {
	now := s.now()
	claims := jwt.MapClaims{
		"sub":   boardID,
		"scope": scopeEdit,
		"iat":   now.Unix(),
		"exp":   now.Add(s.ttl).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}

	return signed, nil
}

// ValidateToken checks the signature, expiry and scope of tokenString and
// returns the board id it grants.
func (s *Service) ValidateToken(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.jwtSecret, nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return "", ErrInvalidToken
	}

	if scope, _ := claims["scope"].(string); scope != scopeEdit {
		return "", fmt.Errorf("%w: missing edit scope", ErrInvalidToken)
	}

	boardID, ok := claims["sub"].(string)
	if !ok || boardID == "" {
		return "", fmt.Errorf("%w: no subject", ErrInvalidToken)
	}

	return boardID, nil
}

// CanEdit reports whether tokenString grants edit access to boardID.
func (s *Service) CanEdit(tokenString, boardID string) error {
	sub, err := s.ValidateToken(tokenString)
	if err != nil {
		return err
	}
	if sub != boardID {
		return ErrWrongBoard
	}
	return nil
}
