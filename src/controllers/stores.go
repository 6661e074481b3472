package controllers

import (
	"context"
	"cowork/src/models"
	"time"

	"github.com/google/uuid"
)

// Implemented by db.BookingRepo.
type BookingStore interface {
	ByID(ctx context.Context, id uuid.UUID) (*models.Booking, error)
	MemberBookingsInWindow(ctx context.Context, email string, start time.Time, end time.Time) ([]models.Booking, error)
	CreateWithNoOverlap(ctx context.Context, b *models.Booking) error
	SetCheckoutSession(ctx context.Context, id uuid.UUID, sessionID string) error
	SetCalendarEvent(ctx context.Context, id uuid.UUID, eventID string) error
	ConfirmPaid(ctx context.Context, id uuid.UUID, sessionID string) (bool, error)
	MarkProcessing(ctx context.Context, id uuid.UUID, sessionID string) (bool, error)
	CancelPending(ctx context.Context, id uuid.UUID) (bool, error)
	ExpireStalePending(ctx context.Context, before time.Time) (int64, error)
}

// Implemented by db.MemberRepo.
type MemberStore interface {
	ActiveByEmail(ctx context.Context, email string) ([]models.Member, error)
}

// Implemented by db.RoomRepo.
type RoomStore interface {
	ActiveByID(ctx context.Context, id uint) (*models.Room, error)
	ListActive(ctx context.Context) ([]models.Room, error)
}
