package auth

import (
	"context"
	"strings"

	"github.com/psimmons86/playdates-server/internal/model"
)

// DevAuthorizer accepts "uid:<userID>" tokens. It exists for local
// development and tests; config refuses to select it in production.
type DevAuthorizer struct{}

func NewDevAuthorizer() *DevAuthorizer { return &DevAuthorizer{} }

func (DevAuthorizer) Authorize(_ context.Context, token string) (*ActorInfo, error) {
	userID, ok := strings.CutPrefix(token, "uid:")
	if !ok || userID == "" {
		return nil, model.ErrUnauthenticated
	}
	return &ActorInfo{UserID: userID}, nil
}
