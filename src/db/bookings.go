package db

import (
	"context"
	"cowork/src/config"
	"cowork/src/models"
	"cowork/src/types"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var ErrOverlap = errors.New("slot_overlapped")

type BookingRepo struct {
	db *gorm.DB
}

func NewBookingRepo(db *gorm.DB) *BookingRepo {
	return &BookingRepo{db: db}
}

// ByID loads a booking with its room. A deleted room leaves Room nil.
func (r *BookingRepo) ByID(ctx context.Context, id uuid.UUID) (*models.Booking, error) {
	var b models.Booking
	if err := r.db.WithContext(ctx).
		Model(&models.Booking{}).
		Preload("Room").
		Where("id = ?", id).
		First(&b).
		Error; err != nil {
		return nil, err
	}
	return &b, nil
}

// MemberBookingsInWindow returns the bookings that count toward a member's
// allowance with booking_date in [start, end).
func (r *BookingRepo) MemberBookingsInWindow(ctx context.Context, email string, start time.Time, end time.Time) ([]models.Booking, error) {
	var bookings []models.Booking
	err := r.db.WithContext(ctx).
		Model(&models.Booking{}).
		Where("LOWER(customer_email) = ?", email).
		Where("is_member_booking = ?", true).
		Where("status <> ?", types.BOOKING_CANCELLED).
		Where("booking_date >= ? AND booking_date < ?", start.Format(config.DATE_FORMAT), end.Format(config.DATE_FORMAT)).
		Find(&bookings).
		Error
	return bookings, err
}

// CreateWithNoOverlap locks any live booking of the same room that overlaps
// the requested slot and inserts only when there is none.
func (r *BookingRepo) CreateWithNoOverlap(ctx context.Context, b *models.Booking) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing models.Booking
		err := tx.
			Model(&models.Booking{}).
			Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("room_id = ? AND booking_date = ?", b.RoomID, b.BookingDate.Format(config.DATE_FORMAT)).
			Where("status IN ?", []types.BookingStatus{types.BOOKING_PENDING, types.BOOKING_CONFIRMED}).
			Where("start_time < ? AND end_time > ?", b.EndTime, b.StartTime).
			Take(&existing).
			Error
		if err == nil {
			return ErrOverlap
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		return tx.Create(b).Error
	})
}

func (r *BookingRepo) SetCheckoutSession(ctx context.Context, id uuid.UUID, sessionID string) error {
	return r.db.WithContext(ctx).
		Model(&models.Booking{}).
		Where("id = ?", id).
		Update("checkout_session_id", sessionID).
		Error
}

func (r *BookingRepo) SetCalendarEvent(ctx context.Context, id uuid.UUID, eventID string) error {
	return r.db.WithContext(ctx).
		Model(&models.Booking{}).
		Where("id = ?", id).
		Update("calendar_event_id", eventID).
		Error
}

// ConfirmPaid moves a pending booking to confirmed/paid. It reports false when
// the booking was not pending, so a replayed webhook changes nothing.
func (r *BookingRepo) ConfirmPaid(ctx context.Context, id uuid.UUID, sessionID string) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Booking{}).
		Where("id = ? AND status = ?", id, types.BOOKING_PENDING).
		Updates(map[string]any{
			"status":              types.BOOKING_CONFIRMED,
			"payment_status":      types.PAYMENT_PAID,
			"checkout_session_id": sessionID,
		})
	return res.RowsAffected > 0, res.Error
}

// MarkProcessing flags a pending booking whose checkout completed with a
// delayed payment method. The sweeper leaves processing bookings alone.
func (r *BookingRepo) MarkProcessing(ctx context.Context, id uuid.UUID, sessionID string) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Booking{}).
		Where("id = ? AND status = ? AND payment_status = ?", id, types.BOOKING_PENDING, types.PAYMENT_UNPAID).
		Updates(map[string]any{
			"payment_status":      types.PAYMENT_PROCESSING,
			"checkout_session_id": sessionID,
		})
	return res.RowsAffected > 0, res.Error
}

func (r *BookingRepo) CancelPending(ctx context.Context, id uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Booking{}).
		Where("id = ? AND status = ?", id, types.BOOKING_PENDING).
		Update("status", types.BOOKING_CANCELLED)
	return res.RowsAffected > 0, res.Error
}

// ExpireStalePending cancels unpaid pending bookings created before the cutoff.
func (r *BookingRepo) ExpireStalePending(ctx context.Context, before time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Booking{}).
		Where("status = ? AND payment_status = ?", types.BOOKING_PENDING, types.PAYMENT_UNPAID).
		Where("created_at < ?", before).
		Update("status", types.BOOKING_CANCELLED)
	return res.RowsAffected, res.Error
}
