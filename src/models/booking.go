package models

import (
	"cowork/src/config"
	"cowork/src/types"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Booking struct {
	ID              uuid.UUID           `gorm:"primarykey;type:uuid" json:"id"`
	CustomerName    string              `json:"customer_name"`
	CustomerEmail   string              `gorm:"index" json:"customer_email"`
	CustomerPhone   string              `json:"customer_phone,omitempty"`
	RoomID          *uint               `gorm:"index" json:"room_id,omitempty"`
	BookingDate     time.Time           `gorm:"type:date;index" json:"booking_date"`
	StartTime       string              `gorm:"type:varchar(5)" json:"start_time"`
	EndTime         string              `gorm:"type:varchar(5)" json:"end_time"`
	DurationHours   float64             `json:"duration_hours"`
	TotalAmount     float64             `json:"total_amount"`
	Attendees       int                 `json:"attendees"`
	Purpose         string              `json:"purpose,omitempty"`
	IsMemberBooking bool                `gorm:"default:false" json:"is_member_booking"`
	Status          types.BookingStatus `gorm:"default:'pending'" json:"status"`
	PaymentStatus   types.PaymentStatus `gorm:"default:'unpaid'" json:"payment_status"`

	CheckoutSessionID *string `gorm:"index" json:"checkout_session_id,omitempty"`
	CalendarEventID   *string `json:"calendar_event_id,omitempty"`

	Room *Room `gorm:"foreignKey:room_id" json:"room,omitempty"`

	types.Timestamps
}

func (b *Booking) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}

func (b *Booking) RoomName() string {
	if b.Room == nil || b.Room.Name == "" {
		return types.DEFAULT_ROOM_NAME
	}
	return b.Room.Name
}

// CountsTowardAllowance reports whether the booking consumes member hours.
func (b *Booking) CountsTowardAllowance() bool {
	return b.IsMemberBooking && b.Status != types.BOOKING_CANCELLED
}

func (b *Booking) View() *types.APIResponseBooking {
	return &types.APIResponseBooking{
		ID:              b.ID.String(),
		CustomerName:    b.CustomerName,
		CustomerEmail:   b.CustomerEmail,
		CustomerPhone:   b.CustomerPhone,
		BookingDate:     b.BookingDate.Format(config.DATE_FORMAT),
		StartTime:       b.StartTime,
		EndTime:         b.EndTime,
		DurationHours:   b.DurationHours,
		TotalAmount:     b.TotalAmount,
		Attendees:       b.Attendees,
		Purpose:         b.Purpose,
		RoomName:        b.RoomName(),
		IsMemberBooking: b.IsMemberBooking,
		Status:          string(b.Status),
		PaymentStatus:   string(b.PaymentStatus),
	}
}
