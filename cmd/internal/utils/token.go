package utils

import (
	"errors"
	"fmt"
	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"time"
)

const tokenDataKey = "token_data"

var ErrMissingTokenData = errors.New("no token data in context")

// TokenData is what the auth middleware extracts from a verified session token.
type TokenData struct {
	Sub string
}

type SessionClaims struct {
	jwt.RegisteredClaims
}

func IssueSessionToken(secret []byte, sub string, now time.Time, ttl time.Duration) (string, error) {
	claims := SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   sub,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			Issuer:    "appointease",
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

func ParseSessionToken(secret []byte, raw string) (*TokenData, error) {
	var claims SessionClaims
	_, err := jwt.ParseWithClaims(raw, &claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return secret, nil
	}, jwt.WithLeeway(5*time.Second), jwt.WithIssuer("appointease"))
	if err != nil {
		return nil, err
	}
	if claims.Subject == "" {
		return nil, jwt.ErrTokenInvalidSubject
	}
	return &TokenData{Sub: claims.Subject}, nil
}

func SetTokenDataCtx(c echo.Context, data *TokenData) {
	c.Set(tokenDataKey, data)
}

func ParseTokenDataCtx(c echo.Context) (*TokenData, error) {
	data, ok := c.Get(tokenDataKey).(*TokenData)
	if !ok || data == nil {
		return nil, ErrMissingTokenData
	}
	return data, nil
}
