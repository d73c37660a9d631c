package jwtutil

import (
	"errors"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
)

// Claims carries only the session id (jti). Who the session belongs to is
// looked up server-side, so a token dies with its session record.
type Claims struct {
	jwt.RegisteredClaims
}

func (c *Claims) SessionID() string { return c.ID }

type Signer struct {
	Secret []byte
	Issuer string
	TTL    time.Duration
}

func (s *Signer) Sign(sessionID string) (string, time.Time, error) {
	now := time.Now()
	exp := now.Add(s.TTL)
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        sessionID,
			Issuer:    s.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.Secret)
	return signed, exp, err
}

func (s *Signer) Parse(tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) { return s.Secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.Issuer),
	)
	if err != nil {
		return nil, err
	}
	if claims, ok := token.Claims.(*Claims); ok && token.Valid {
		if claims.ID == "" {
			return nil, errors.New("token without session id")
		}
		return claims, nil
	}
	return nil, jwt.ErrTokenInvalidClaims
}
