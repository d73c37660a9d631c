package repo

import (
	"context"
	"strings"

	"apnaghar/backend/app/models"

	"gorm.io/gorm"
)

type RoomRepository struct{ db *gorm.DB }

func NewRoomRepository(db *gorm.DB) *RoomRepository { return &RoomRepository{db: db} }

func (r *RoomRepository) Create(ctx context.Context, room *models.Room) error {
	room.SetSearchKeys()
	return translate(r.db.WithContext(ctx).Create(room).Error)
}

func (r *RoomRepository) FindByID(ctx context.Context, id uint) (*models.Room, error) {
	var room models.Room
	if err := r.db.WithContext(ctx).First(&room, id).Error; err != nil {
		return nil, translate(err)
	}
	return &room, nil
}

// ListAvailable returns every room open for rent.
func (r *RoomRepository) ListAvailable(ctx context.Context) ([]models.Room, error) {
	return r.Search(ctx, "", "")
}

// Search filters available rooms by case-insensitive substring on city and
// area. Empty filters are ignored.
func (r *RoomRepository) Search(ctx context.Context, city, area string) ([]models.Room, error) {
	q := r.db.WithContext(ctx).Model(&models.Room{}).Where("available = ?", true)
	if city != "" {
		q = q.Where("city_key LIKE ? ESCAPE '!'", containsPattern(city))
	}
	if area != "" {
		q = q.Where("area_key LIKE ? ESCAPE '!'", containsPattern(area))
	}
	var rooms []models.Room
	if err := q.Order("id DESC").Find(&rooms).Error; err != nil {
		return nil, err
	}
	return rooms, nil
}

func (r *RoomRepository) ListByOwner(ctx context.Context, ownerID uint) ([]models.Room, error) {
	var rooms []models.Room
	err := r.db.WithContext(ctx).Where("owner_id = ?", ownerID).Order("id DESC").Find(&rooms).Error
	return rooms, err
}

// UpdateListing overwrites the owner-editable fields, zero values included.
// room.ID must be set; a room deleted in the meantime yields ErrNotFound.
func (r *RoomRepository) UpdateListing(ctx context.Context, room *models.Room) error {
	room.SetSearchKeys()
	res := r.db.WithContext(ctx).Model(room).
		Select("city", "area", "city_key", "area_key", "rent", "available", "updated_at").
		Updates(room)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected > 0 {
		return nil
	}
	// MySQL counts changed rows only, so zero may still mean the row exists
	var n int64
	if err := r.db.WithContext(ctx).Model(&models.Room{}).Where("id = ?", room.ID).Count(&n).Error; err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *RoomRepository) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&models.Room{}, id)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

var likeEscaper = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")

func containsPattern(s string) string {
	return "%" + likeEscaper.Replace(models.FoldKey(s)) + "%"
}
