package controllers

import (
	"context"
	"cowork/src/config"
	"cowork/src/db"
	"cowork/src/lib"
	"cowork/src/models"
	"cowork/src/types"
	"cowork/src/utils"
	"errors"
	"fmt"
	"log"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v82"
	"gorm.io/gorm"
)

// The sweeper cancels a pending booking only once its session expired at
// least this long ago.
const PENDING_SWEEP_GRACE = 5 * time.Minute

type BookingController struct {
	cfg      *config.Config
	bookings BookingStore
	rooms    RoomStore
	hours    *MemberHoursController
	payments lib.PaymentProvider
	calendar *CalendarBridge
	now      func() time.Time
}

func NewBookingController(
	cfg *config.Config,
	bookings BookingStore,
	rooms RoomStore,
	hours *MemberHoursController,
	payments lib.PaymentProvider,
	calendar *CalendarBridge,
) *BookingController {
	return &BookingController{
		cfg:      cfg,
		bookings: bookings,
		rooms:    rooms,
		hours:    hours,
		payments: payments,
		calendar: calendar,
		now:      time.Now,
	}
}

// ResolveBookingSuccess maps a Checkout session back to its booking through
// the booking_id metadata. It only reads.
func (c *BookingController) ResolveBookingSuccess(ctx context.Context, sessionID string) (*types.APIResponseBooking, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return nil, types.MissingParameter("session_id")
	}

	sctx, cancel := context.WithTimeout(ctx, c.cfg.ExternalCallTimeout)
	defer cancel()
	cs, err := c.payments.GetCheckoutSession(sctx, sessionID)
	if err != nil {
		if lib.IsStripeNotFound(err) {
			return nil, types.NotFound("session_not_found", "Checkout session not found")
		}
		log.Printf("[BookingSuccess] Error retrieving CheckoutSession %s: %s\n", sessionID, err.Error())
		return nil, types.PaymentProviderError(err)
	}
	if cs.Status == stripe.CheckoutSessionStatusExpired {
		return nil, types.NewError(types.ERR_SESSION_EXPIRED, "session_expired", "Checkout session has expired", nil)
	}

	raw := cs.Metadata[types.META_BOOKING_ID]
	if raw == "" {
		return nil, types.NotFound("session_not_found", "Checkout session has no booking")
	}
	bookingID, err := uuid.Parse(raw)
	if err != nil {
		return nil, types.NotFound("session_not_found", "Checkout session has no booking")
	}

	dctx, dcancel := context.WithTimeout(ctx, c.cfg.ExternalCallTimeout)
	defer dcancel()
	booking, err := c.bookings.ByID(dctx, bookingID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		log.Printf("[BookingSuccess] Data integrity warning: session %s references missing booking %s\n", sessionID, raw)
		return nil, types.NotFound("booking_not_found", "Booking not found")
	}
	if err != nil {
		log.Printf("[BookingSuccess] Error retrieving booking %s: %s\n", raw, err.Error())
		return nil, types.DataStoreError(err)
	}
	return booking.View(), nil
}

func (c *BookingController) ListRooms(ctx context.Context) ([]types.APIResponseRoom, error) {
	dctx, cancel := context.WithTimeout(ctx, c.cfg.ExternalCallTimeout)
	defer cancel()
	rooms, err := c.rooms.ListActive(dctx)
	if err != nil {
		log.Printf("[Rooms] Error retrieving rooms: %s\n", err.Error())
		return nil, types.DataStoreError(err)
	}
	views := make([]types.APIResponseRoom, 0, len(rooms))
	for _, r := range rooms {
		views = append(views, r.View())
	}
	return views, nil
}

func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}

func (c *BookingController) newBooking(body *types.CreateRoomBookingRequestBody, room *models.Room) (*models.Booking, error) {
	date, err := utils.ParseDate(body.BookingDate, time.UTC)
	if err != nil {
		return nil, types.ValidationError("booking_date must be YYYY-MM-DD")
	}
	today := c.now().In(c.cfg.Location()).Format(config.DATE_FORMAT)
	if body.BookingDate < today {
		return nil, types.ValidationError("booking_date must not be in the past")
	}
	hours, err := utils.DurationHours(body.StartTime, body.EndTime)
	if err != nil {
		return nil, types.ValidationError(err.Error())
	}
	if body.Attendees < 1 {
		return nil, types.ValidationError("attendees must be at least 1")
	}
	if room.Capacity > 0 && body.Attendees > room.Capacity {
		return nil, types.ValidationError(fmt.Sprintf("%s holds at most %d attendees", room.Name, room.Capacity))
	}
	return &models.Booking{
		CustomerName:    strings.TrimSpace(body.CustomerName),
		CustomerEmail:   models.NormalizeEmail(body.CustomerEmail),
		CustomerPhone:   body.CustomerPhone,
		RoomID:          &room.ID,
		Room:            room,
		BookingDate:     date,
		StartTime:       body.StartTime,
		EndTime:         body.EndTime,
		DurationHours:   hours,
		TotalAmount:     roundCents(hours * room.HourlyRate),
		Attendees:       body.Attendees,
		Purpose:         body.Purpose,
		IsMemberBooking: body.IsMemberBooking,
		Status:          types.BOOKING_PENDING,
		PaymentStatus:   types.PAYMENT_UNPAID,
	}, nil
}

func (c *BookingController) insert(ctx context.Context, b *models.Booking) error {
	dctx, cancel := context.WithTimeout(ctx, c.cfg.ExternalCallTimeout)
	defer cancel()
	// The room is preloaded for the view only; gorm must not upsert it.
	room := b.Room
	b.Room = nil
	err := c.bookings.CreateWithNoOverlap(dctx, b)
	b.Room = room
	if errors.Is(err, db.ErrOverlap) {
		return types.NewError(types.ERR_SLOT_UNAVAILABLE, "slot_unavailable", "The room is already booked for this time", err)
	}
	if err != nil {
		log.Printf("[RoomBooking] Error saving booking: %s\n", err.Error())
		return types.DataStoreError(err)
	}
	return nil
}

// CreateRoomBooking either confirms a member booking against the member's
// remaining hours or opens a Checkout session for it.
func (c *BookingController) CreateRoomBooking(ctx context.Context, body *types.CreateRoomBookingRequestBody) (*types.RoomBookingResponse, error) {
	dctx, cancel := context.WithTimeout(ctx, c.cfg.ExternalCallTimeout)
	room, err := c.rooms.ActiveByID(dctx, body.RoomID)
	cancel()
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, types.NotFound("room_not_found", "Room not found")
	}
	if err != nil {
		log.Printf("[RoomBooking] Error retrieving room %d: %s\n", body.RoomID, err.Error())
		return nil, types.DataStoreError(err)
	}

	booking, err := c.newBooking(body, room)
	if err != nil {
		return nil, err
	}

	if booking.IsMemberBooking {
		return c.confirmMemberBooking(ctx, booking)
	}

	if err := c.insert(ctx, booking); err != nil {
		return nil, err
	}

	params := &stripe.CheckoutSessionCreateParams{
		Mode:   stripe.String(string(stripe.CheckoutSessionModePayment)),
		UIMode: stripe.String("hosted"),
		LineItems: []*stripe.CheckoutSessionCreateLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionCreateLineItemPriceDataParams{
					Currency: stripe.String(c.cfg.Currency),
					ProductData: &stripe.CheckoutSessionCreateLineItemPriceDataProductDataParams{
						Name: stripe.String(fmt.Sprintf("%s %s %s-%s", room.Name, body.BookingDate, booking.StartTime, booking.EndTime)),
					},
					UnitAmount: stripe.Int64(utils.ToMinorUnits(booking.TotalAmount)),
				},
				Quantity: stripe.Int64(1),
			},
		},
		CustomerEmail: stripe.String(booking.CustomerEmail),
		ExpiresAt:     stripe.Int64(c.now().Add(c.cfg.PendingBookingTTL).Unix()),
		SuccessURL:    stripe.String(c.cfg.BaseURL + "/booking/success?session_id={CHECKOUT_SESSION_ID}"),
		CancelURL:     stripe.String(c.cfg.BaseURL + "/booking?cancelled=true"),
		Metadata: map[string]string{
			types.META_BOOKING_ID:     booking.ID.String(),
			types.META_CUSTOMER_NAME:  booking.CustomerName,
			types.META_CUSTOMER_EMAIL: booking.CustomerEmail,
		},
	}
	sctx, scancel := context.WithTimeout(ctx, c.cfg.ExternalCallTimeout)
	defer scancel()
	cs, err := c.payments.CreateCheckoutSession(sctx, params)
	if err != nil {
		log.Printf("[RoomBooking] Error creating CheckoutSession for booking %s: %s\n", booking.ID.String(), err.Error())
		if _, cerr := c.bookings.CancelPending(ctx, booking.ID); cerr != nil {
			log.Printf("[RoomBooking] Error releasing booking %s: %s\n", booking.ID.String(), cerr.Error())
		}
		return nil, types.PaymentProviderError(err)
	}

	uctx, ucancel := context.WithTimeout(ctx, c.cfg.ExternalCallTimeout)
	defer ucancel()
	// The webhook records the session id on confirmation, so the URL is still
	// worth returning.
	if err := c.bookings.SetCheckoutSession(uctx, booking.ID, cs.ID); err != nil {
		log.Printf("[RoomBooking] Error saving session %s on booking %s: %s\n", cs.ID, booking.ID.String(), err.Error())
	}

	return &types.RoomBookingResponse{
		BookingID: booking.ID.String(),
		SessionID: cs.ID,
		URL:       cs.URL,
	}, nil
}

func (c *BookingController) confirmMemberBooking(ctx context.Context, booking *models.Booking) (*types.RoomBookingResponse, error) {
	member, err := c.hours.ActiveMember(ctx, booking.CustomerEmail)
	if err != nil {
		return nil, err
	}
	used, err := c.hours.UsedHours(ctx, member.Email)
	if err != nil {
		return nil, err
	}
	remaining := utils.RemainingHours(member.MonthlyMeetingHours, used)
	if booking.DurationHours > remaining {
		return nil, types.ValidationError(fmt.Sprintf("only %.2f member hours remain this month", remaining))
	}

	booking.Status = types.BOOKING_CONFIRMED
	booking.TotalAmount = 0
	if err := c.insert(ctx, booking); err != nil {
		return nil, err
	}

	result := c.calendar.CreateEvent(ctx, booking)
	if result.Created() {
		if err := c.bookings.SetCalendarEvent(ctx, booking.ID, result.EventID); err != nil {
			log.Printf("[RoomBooking] Error saving calendar event on booking %s: %s\n", booking.ID.String(), err.Error())
		}
	}

	return &types.RoomBookingResponse{
		BookingID: booking.ID.String(),
		Confirmed: true,
	}, nil
}

// SweepPendingBookings cancels unpaid bookings whose Checkout session has
// expired. Bookings waiting on a delayed payment are left alone.
func (c *BookingController) SweepPendingBookings(ctx context.Context) (int64, error) {
	cutoff := c.now().Add(-c.cfg.PendingBookingTTL - PENDING_SWEEP_GRACE)
	dctx, cancel := context.WithTimeout(ctx, c.cfg.ExternalCallTimeout)
	defer cancel()
	n, err := c.bookings.ExpireStalePending(dctx, cutoff)
	if err != nil {
		log.Printf("[Sweeper] Error cancelling stale bookings: %s\n", err.Error())
		return 0, types.DataStoreError(err)
	}
	if n > 0 {
		log.Printf("[Sweeper] Cancelled %d stale pending bookings\n", n)
	}
	return n, nil
}
