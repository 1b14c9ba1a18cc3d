package services

import (
	"context"
	"fmt"

	"github.com/psimmons86/playdates-server/internal/model"
	"github.com/psimmons86/playdates-server/internal/store"
)

type PlaydateService struct {
	store store.Store
}

func NewPlaydateService(s store.Store) *PlaydateService {
	return &PlaydateService{store: s}
}

func (s *PlaydateService) CreatePlaydate(ctx context.Context, actorID string, p *model.Playdate) (*model.Playdate, error) {
	if actorID == "" {
		return nil, model.ErrUnauthenticated
	}
	if p.Title == "" {
		return nil, fmt.Errorf("%w: title is required", model.ErrValidation)
	}
	if p.StartTime.IsZero() || p.EndTime.IsZero() {
		return nil, fmt.Errorf("%w: startTime and endTime are required", model.ErrValidation)
	}
	if !p.EndTime.After(p.StartTime) {
		return nil, fmt.Errorf("%w: endTime must be after startTime", model.ErrValidation)
	}
	p.HostID = actorID
	// The host always attends their own playdate.
	if !p.HasAttendee(actorID) {
		p.AttendeeIDs = append(p.AttendeeIDs, actorID)
	}
	return s.store.Playdates().Create(ctx, p)
}

func (s *PlaydateService) GetPlaydate(ctx context.Context, playdateID string) (*model.Playdate, error) {
	return s.store.Playdates().Get(ctx, playdateID)
}

func (s *PlaydateService) ListPlaydates(ctx context.Context, limit int) ([]*model.Playdate, error) {
	const maxLimit = 200
	if limit <= 0 || limit > maxLimit {
		limit = maxLimit
	}
	return s.store.Playdates().List(ctx, limit)
}
