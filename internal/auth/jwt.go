package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/psimmons86/playdates-server/internal/model"
)

// JWTAuthorizer validates HS256 bearer tokens whose subject is the user ID.
type JWTAuthorizer struct {
	secret []byte
	issuer string
}

// NewJWTAuthorizer builds an authorizer over a shared HMAC secret.
func NewJWTAuthorizer(secret, issuer string) *JWTAuthorizer {
	return &JWTAuthorizer{secret: []byte(secret), issuer: issuer}
}

func (a *JWTAuthorizer) Authorize(_ context.Context, token string) (*ActorInfo, error) {
	if token == "" {
		return nil, model.ErrUnauthenticated
	}
	parsed, err := jwt.Parse(token, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return a.secret, nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil || !parsed.Valid {
		return nil, model.ErrUnauthenticated
	}
	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return nil, model.ErrUnauthenticated
	}
	if a.issuer != "" {
		if iss, _ := claims.GetIssuer(); iss != a.issuer {
			return nil, model.ErrUnauthenticated
		}
	}
	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return nil, model.ErrUnauthenticated
	}
	return &ActorInfo{UserID: sub}, nil
}

// IssueToken mints a token for a user, mainly for the CLI and tests.
func (a *JWTAuthorizer) IssueToken(userID string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub": userID,
		"iat": now.Unix(),
		"exp": now.Add(ttl).Unix(),
	}
	if a.issuer != "" {
		claims["iss"] = a.issuer
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
}
