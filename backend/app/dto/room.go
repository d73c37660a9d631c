package dto

import (
	"time"

	"apnaghar/backend/app/models"
)

type RoomResponse struct {
	ID            uint      `json:"id"`
	OwnerID       uint      `json:"owner_id"`
	City          string    `json:"city"`
	Area          string    `json:"area"`
	Rent          float64   `json:"rent"`
	Available     bool      `json:"available"`
	RoomImage     string    `json:"room_image"`
	WashroomImage string    `json:"washroom_image"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

type RoomListResponse struct {
	Rooms []RoomResponse `json:"rooms"`
	Count int            `json:"count"`
	City  string         `json:"city,omitempty"`
	Area  string         `json:"area,omitempty"`
}

type RoomMutationResponse struct {
	Message string        `json:"message"`
	Room    *RoomResponse `json:"room,omitempty"`
}

func RoomFrom(m models.Room) RoomResponse {
	return RoomResponse{
		ID:            m.ID,
		OwnerID:       m.OwnerID,
		City:          m.City,
		Area:          m.Area,
		Rent:          m.Rent,
		Available:     m.Available,
		RoomImage:     m.RoomImage,
		WashroomImage: m.WashroomImage,
		CreatedAt:     m.CreatedAt,
		UpdatedAt:     m.UpdatedAt,
	}
}

// RoomList never encodes rooms as null.
func RoomList(rooms []models.Room) RoomListResponse {
	out := make([]RoomResponse, 0, len(rooms))
	for _, r := range rooms {
		out = append(out, RoomFrom(r))
	}
	return RoomListResponse{Rooms: out, Count: len(out)}
}
