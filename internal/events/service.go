package events

import (
	"context"
	"fmt"

	"ticketly/internal/seats"
	"ticketly/internal/shared/constants"
	"ticketly/pkg/cache"
	"ticketly/pkg/logger"

	"github.com/google/uuid"
)

type Service interface {
	GetEvent(ctx context.Context, id string) (*EventResponse, error)
	ListEvents(ctx context.Context, query EventListQuery) ([]EventResponse, int64, error)
	GetSeatMap(ctx context.Context, eventID string) ([]seats.SeatResponse, error)
}

type service struct {
	repo         Repository
	seatStore    seats.Store
	cacheService cache.Service
}

// NewService creates the event browsing service. cacheService may be nil; the
// service then reads straight through to the store.
func NewService(repo Repository, seatStore seats.Store, cacheService cache.Service) Service {
	return &service{
		repo:         repo,
		seatStore:    seatStore,
		cacheService: cacheService,
	}
}

func (s *service) GetEvent(ctx context.Context, id string) (*EventResponse, error) {
	eventID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("invalid event ID: %w", err)
	}

	cacheKey := constants.BuildEventDetailKey(id)
	if s.cacheService != nil {
		var cached EventResponse
		if err := s.cacheService.Get(ctx, cacheKey, &cached); err == nil {
			return &cached, nil
		}
	}

	event, err := s.repo.GetEventByID(ctx, eventID)
	if err != nil {
		return nil, err
	}

	resp := event.ToResponse()
	if s.cacheService != nil {
		if err := s.cacheService.Set(ctx, cacheKey, resp, constants.TTL_EVENT_DETAIL); err != nil {
			logger.GetDefault().DebugWithContext(ctx, "failed to cache event detail", map[string]interface{}{"key": cacheKey})
		}
	}

	return &resp, nil
}

func (s *service) ListEvents(ctx context.Context, query EventListQuery) ([]EventResponse, int64, error) {
	events, total, err := s.repo.ListEvents(ctx, query)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list events: %w", err)
	}

	responses := make([]EventResponse, 0, len(events))
	for _, event := range events {
		responses = append(responses, event.ToResponse())
	}
	return responses, total, nil
}

// GetSeatMap returns every seat of the event with its current status. Cached
// with a short TTL; reserve/cancel/confirm invalidate the key.
func (s *service) GetSeatMap(ctx context.Context, eventID string) ([]seats.SeatResponse, error) {
	eventUUID, err := uuid.Parse(eventID)
	if err != nil {
		return nil, fmt.Errorf("invalid event ID: %w", err)
	}

	exists, err := s.repo.EventExists(ctx, eventUUID)
	if err != nil {
		return nil, fmt.Errorf("failed to check event: %w", err)
	}
	if !exists {
		return nil, ErrEventNotFound
	}

	cacheKey := constants.BuildSeatMapKey(eventID)
	if s.cacheService != nil {
		var cached []seats.SeatResponse
		if err := s.cacheService.Get(ctx, cacheKey, &cached); err == nil {
			return cached, nil
		}
	}

	seatRows, err := s.seatStore.GetSeatsByEventID(ctx, eventUUID)
	if err != nil {
		return nil, fmt.Errorf("failed to get seats: %w", err)
	}

	responses := make([]seats.SeatResponse, 0, len(seatRows))
	for _, seat := range seatRows {
		responses = append(responses, seat.ToResponse())
	}

	if s.cacheService != nil {
		if err := s.cacheService.Set(ctx, cacheKey, responses, constants.TTL_SEAT_MAP); err != nil {
			logger.GetDefault().DebugWithContext(ctx, "failed to cache seat map", map[string]interface{}{"key": cacheKey})
		}
	}

	return responses, nil
}
