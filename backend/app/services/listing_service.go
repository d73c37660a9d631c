package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"apnaghar/backend/app/events"
	"apnaghar/backend/app/media"
	"apnaghar/backend/app/models"
	"apnaghar/backend/app/repo"
	"apnaghar/backend/app/session"
	"apnaghar/backend/global"
)

const publishTimeout = 2 * time.Second

type ListingService struct {
	rooms  *repo.RoomRepository
	media  media.Store
	events events.Publisher

	inflight sync.WaitGroup
}

func NewListingService(rooms *repo.RoomRepository, store media.Store, pub events.Publisher) *ListingService {
	if pub == nil {
		pub = events.Discard{}
	}
	return &ListingService{rooms: rooms, media: store, events: pub}
}

// ListAvailable returns the rooms open for rent. Callers must not rely on
// the order.
func (s *ListingService) ListAvailable(ctx context.Context) ([]models.Room, error) {
	return s.rooms.ListAvailable(ctx)
}

// Search matches city and area as case-insensitive substrings; empty
// filters match everything. Only available rooms are returned.
func (s *ListingService) Search(ctx context.Context, city, area string) ([]models.Room, error) {
	return s.rooms.Search(ctx, strings.TrimSpace(city), strings.TrimSpace(area))
}

// ListByOwner returns every room of the calling owner, unavailable ones
// included.
func (s *ListingService) ListByOwner(ctx context.Context, ident *session.Identity) ([]models.Room, error) {
	if _, err := RequireRole(ident, models.RoleOwner); err != nil {
		return nil, err
	}
	return s.rooms.ListByOwner(ctx, ident.UserID)
}

// AddRoom stores both photos and then the room. If either upload or the
// insert fails, nothing is kept: photos already stored are removed again.
func (s *ListingService) AddRoom(ctx context.Context, ident *session.Identity, in RoomInput, roomImage, washroomImage ImageUpload) (*models.Room, error) {
	if _, err := RequireRole(ident, models.RoleOwner); err != nil {
		return nil, err
	}
	in.normalize()
	if err := validateStruct(in); err != nil {
		return nil, err
	}
	if roomImage.empty() {
		return nil, fmt.Errorf("%w: room_image is required", ErrValidation)
	}
	if washroomImage.empty() {
		return nil, fmt.Errorf("%w: washroom_image is required", ErrValidation)
	}

	roomObj, err := s.media.Store(ctx, roomImage.Body, roomImage.Filename)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpload, err)
	}
	washObj, err := s.media.Store(ctx, washroomImage.Body, washroomImage.Filename)
	if err != nil {
		s.discard(roomObj)
		return nil, fmt.Errorf("%w: %v", ErrUpload, err)
	}

	room := &models.Room{
		OwnerID:       ident.UserID,
		City:          in.City,
		Area:          in.Area,
		Rent:          in.Rent,
		Available:     in.Available,
		RoomImage:     roomObj.Ref,
		WashroomImage: washObj.Ref,
	}
	if err := s.rooms.Create(ctx, room); err != nil {
		s.discard(roomObj, washObj)
		return nil, fmt.Errorf("create room: %w", err)
	}

	s.publish(events.New(events.RoomUpdate, map[string]any{
		"msg":       "New room added!",
		"room_id":   room.ID,
		"city":      room.City,
		"area":      room.Area,
		"rent":      room.Rent,
		"available": room.Available,
	}))
	return room, nil
}

// GetOwnedRoom loads a room for its owner, e.g. to pre-fill the edit form.
func (s *ListingService) GetOwnedRoom(ctx context.Context, ident *session.Identity, id uint) (*models.Room, error) {
	room, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, err := RequireOwner(ident, room); err != nil {
		return nil, err
	}
	return room, nil
}

// EditRoom overwrites city, area, rent and availability. There is no
// partial update and no conflict detection: the last write wins.
func (s *ListingService) EditRoom(ctx context.Context, ident *session.Identity, id uint, in RoomInput) (*models.Room, error) {
	room, err := s.GetOwnedRoom(ctx, ident, id)
	if err != nil {
		return nil, err
	}
	in.normalize()
	if err := validateStruct(in); err != nil {
		return nil, err
	}
	room.City = in.City
	room.Area = in.Area
	room.Rent = in.Rent
	room.Available = in.Available
	if err := s.rooms.UpdateListing(ctx, room); err != nil {
		return nil, mapRoomErr(err)
	}
	return room, nil
}

func (s *ListingService) DeleteRoom(ctx context.Context, ident *session.Identity, id uint) error {
	if _, err := s.GetOwnedRoom(ctx, ident, id); err != nil {
		return err
	}
	return mapRoomErr(s.rooms.Delete(ctx, id))
}

func (s *ListingService) find(ctx context.Context, id uint) (*models.Room, error) {
	room, err := s.rooms.FindByID(ctx, id)
	if err != nil {
		return nil, mapRoomErr(err)
	}
	return room, nil
}

func (s *ListingService) discard(objs ...media.Object) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	for _, o := range objs {
		if err := s.media.Remove(ctx, o.Key); err != nil {
			global.Logger.Warn().Err(err).Str("key", o.Key).Msg("orphaned media left behind")
		}
	}
}

// publish delivers e in the background; a slow subscriber never holds up
// the request that caused the event.
func (s *ListingService) publish(e events.Event) {
	s.inflight.Add(1)
	go func() {
		defer s.inflight.Done()
		ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
		defer cancel()
		if err := s.events.Publish(ctx, e); err != nil {
			global.Logger.Warn().Err(err).Str("event", e.Name).Str("event_id", e.ID).Msg("event not delivered")
		}
	}()
}

// Wait blocks until every event handed to the publishers has been
// delivered or dropped.
func (s *ListingService) Wait() {
	s.inflight.Wait()
}

func mapRoomErr(err error) error {
	if errors.Is(err, repo.ErrNotFound) {
		return ErrNotFound
	}
	return err
}
