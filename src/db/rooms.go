package db

import (
	"context"
	"cowork/src/models"

	"gorm.io/gorm"
)

type RoomRepo struct {
	db *gorm.DB
}

func NewRoomRepo(db *gorm.DB) *RoomRepo {
	return &RoomRepo{db: db}
}

func (r *RoomRepo) ActiveByID(ctx context.Context, id uint) (*models.Room, error) {
	var room models.Room
	if err := r.db.WithContext(ctx).
		Where("id = ? AND active = ?", id, true).
		First(&room).
		Error; err != nil {
		return nil, err
	}
	return &room, nil
}

func (r *RoomRepo) ListActive(ctx context.Context) ([]models.Room, error) {
	var rooms []models.Room
	err := r.db.WithContext(ctx).
		Where("active = ?", true).
		Order("name asc").
		Find(&rooms).
		Error
	return rooms, err
}
