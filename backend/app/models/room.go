package models

import (
	"strings"
	"time"
)

// Room is a rentable listing. RoomImage and WashroomImage hold whatever
// reference the media store returned (a hosted URL or a stored filename).
//
// CityKey and AreaKey are the lower-cased City and Area that search matches
// against. SQL LOWER only folds ASCII in SQLite, so the folding happens here.
//
// Available carries no gorm default: gorm skips zero values of fields that
// have one, which would turn an explicit false into true on insert.
type Room struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	OwnerID       uint      `gorm:"index;not null" json:"owner_id"`
	Owner         *User     `gorm:"foreignKey:OwnerID;constraint:OnDelete:CASCADE" json:"-"`
	City          string    `gorm:"size:100;not null" json:"city"`
	Area          string    `gorm:"size:100;not null" json:"area"`
	CityKey       string    `gorm:"size:100;index" json:"-"`
	AreaKey       string    `gorm:"size:100;index" json:"-"`
	Rent          float64   `gorm:"not null" json:"rent"`
	Available     bool      `gorm:"not null;index" json:"available"`
	RoomImage     string    `gorm:"size:500;not null" json:"room_image"`
	WashroomImage string    `gorm:"size:500;not null" json:"washroom_image"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// FoldKey is the case folding shared by stored search keys and filters.
func FoldKey(s string) string { return strings.ToLower(s) }

// SetSearchKeys refreshes CityKey and AreaKey from City and Area.
func (r *Room) SetSearchKeys() {
	r.CityKey = FoldKey(r.City)
	r.AreaKey = FoldKey(r.Area)
}
