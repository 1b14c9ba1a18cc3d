package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/psimmons86/playdates-server/internal/model"
)

func TestJWTAuthorizerRoundTrip(t *testing.T) {
	a := NewJWTAuthorizer("test-secret", "playdates")
	token, err := a.IssueToken("u-123", time.Hour)
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}

	actor, err := a.Authorize(context.Background(), token)
	if err != nil {
		t.Fatalf("Authorize: %v", err)
	}
	if actor.UserID != "u-123" {
		t.Fatalf("UserID = %q", actor.UserID)
	}
}

func TestJWTAuthorizerRejectsBadTokens(t *testing.T) {
	a := NewJWTAuthorizer("test-secret", "playdates")

	expired, err := a.IssueToken("u-123", -time.Minute)
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}
	otherIssuer := NewJWTAuthorizer("test-secret", "someone-else")
	wrongIss, err := otherIssuer.IssueToken("u-123", time.Hour)
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}
	wrongSecret, err := NewJWTAuthorizer("other-secret", "playdates").IssueToken("u-123", time.Hour)
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}

	for name, token := range map[string]string{
		"empty":        "",
		"garbage":      "not-a-jwt",
		"expired":      expired,
		"wrong issuer": wrongIss,
		"wrong secret": wrongSecret,
	} {
		if _, err := a.Authorize(context.Background(), token); !errors.Is(err, model.ErrUnauthenticated) {
			t.Errorf("%s: err=%v, want ErrUnauthenticated", name, err)
		}
	}
}

func TestDevAuthorizer(t *testing.T) {
	a := NewDevAuthorizer()

	actor, err := a.Authorize(context.Background(), "uid:alice")
	if err != nil || actor.UserID != "alice" {
		t.Fatalf("Authorize: actor=%v err=%v", actor, err)
	}

	for _, token := range []string{"", "uid:", "alice"} {
		if _, err := a.Authorize(context.Background(), token); !errors.Is(err, model.ErrUnauthenticated) {
			t.Errorf("token %q: err=%v, want ErrUnauthenticated", token, err)
		}
	}
}
