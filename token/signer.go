package token

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"
)

// Signer signs access token claims and hands the parser its key.
type Signer interface {
	Sign(claims jwt.MapClaims) (string, error)
	Keyfunc(t *jwt.Token) (any, error)
	Algorithm() string
}

// HMACSigner signs with HS256 over a shared secret.
type HMACSigner struct {
	secret []byte
}

func NewHMACSigner(secret string) *HMACSigner {
	return &HMACSigner{secret: []byte(secret)}
}

func (h *HMACSigner) Sign(claims jwt.MapClaims) (string, error) {
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(h.secret)
	if err != nil {
		return "", errors.Wrap(err, "hs256 sign")
	}
	return signed, nil
}

func (h *HMACSigner) Keyfunc(t *jwt.Token) (any, error) {
	if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
		return nil, errors.Errorf("unexpected signing method %v", t.Header["alg"])
	}
	return h.secret, nil
}

func (h *HMACSigner) Algorithm() string {
	return jwt.SigningMethodHS256.Alg()
}
