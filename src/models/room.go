package models

import (
	"cowork/src/types"

	"github.com/gosimple/slug"
	"gorm.io/gorm"
)

type Room struct {
	ID         uint    `gorm:"primarykey" json:"id"`
	Name       string  `json:"name"`
	Slug       string  `gorm:"uniqueIndex" json:"slug"`
	Capacity   int     `json:"capacity"`
	HourlyRate float64 `json:"hourly_rate"`
	Active     bool    `gorm:"default:true" json:"active"`

	Bookings []Booking `gorm:"foreignKey:room_id" json:"-"`

	types.Timestamps
}

func (r *Room) BeforeSave(tx *gorm.DB) error {
	if r.Slug == "" {
		r.Slug = slug.Make(r.Name)
	}
	return nil
}

func (r *Room) View() types.APIResponseRoom {
	return types.APIResponseRoom{
		ID:         r.ID,
		Slug:       r.Slug,
		Name:       r.Name,
		Capacity:   r.Capacity,
		HourlyRate: r.HourlyRate,
	}
}
