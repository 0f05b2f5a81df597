package middleware

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenSettings carries the HMAC secret and the expected issuer and audience.
type TokenSettings struct {
	Secret   string
	Issuer   string
	Audience string
}

// IssueToken signs an HS256 access token whose subject is userID.
func IssueToken(s TokenSettings, userID uint, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   strconv.FormatUint(uint64(userID), 10),
		Issuer:    s.Issuer,
		Audience:  jwt.ClaimStrings{s.Audience},
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.Secret))
}

// ParseToken validates tokenString and returns the user id in its subject.
func ParseToken(s TokenSettings, tokenString string) (uint, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(s.Secret), nil
	},
		jwt.WithIssuer(s.Issuer),
		jwt.WithAudience(s.Audience),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return 0, err
	}
	if !token.Valid {
		return 0, errors.New("invalid token")
	}

	sub, err := token.Claims.GetSubject()
	if err != nil || sub == "" {
		return 0, errors.New("token has no subject")
	}
	userID, err := strconv.ParseUint(sub, 10, 32)
	if err != nil || userID == 0 {
		return 0, errors.New("invalid user id in token")
	}
	return uint(userID), nil
}
