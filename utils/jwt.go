package utils

import (
	"errors"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/google/uuid"
)

// IdentityClaim carries the anonymous visitor identity stored in the
// identity cookie.
type IdentityClaim struct {
	UID string `json:"uid"`
	jwt.StandardClaims
}

// IdentityTokens signs and verifies anonymous identity tokens.
type IdentityTokens struct {
	key []byte
	ttl time.Duration
	now func() time.Time
}

func NewIdentityTokens(secret string, ttl time.Duration) *IdentityTokens {
	return &IdentityTokens{key: []byte(secret), ttl: ttl, now: time.Now}
}

// Issue mints a fresh identity and its signed token.
func (t *IdentityTokens) Issue() (uid, token string, err error) {
	uid = uuid.NewString()
	now := t.now()
	claims := &IdentityClaim{
		UID: uid,
		StandardClaims: jwt.StandardClaims{
			IssuedAt:  now.Unix(),
			ExpiresAt: now.Add(t.ttl).Unix(),
		},
	}
	token, err = jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.key)
	if err != nil {
		return "", "", err
	}
	return uid, token, nil
}

func (t *IdentityTokens) Validate(signedToken string) (string, error) {
	token, err := jwt.ParseWithClaims(
		signedToken,
		&IdentityClaim{},
		func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, errors.New("unexpected signing method")
			}
			return t.key, nil
		},
	)
	if err != nil {
		return "", err
	}

	claims, ok := token.Claims.(*IdentityClaim)
	if !ok || !token.Valid || claims.UID == "" {
		return "", errors.New("invalid token")
	}

	return claims.UID, nil
}
