package controllers

import (
	"context"
	"cowork/src/config"
	"cowork/src/db"
	"cowork/src/lib"
	"cowork/src/models"
	"cowork/src/types"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stripe/stripe-go/v82"
	"google.golang.org/api/calendar/v3"
	"gorm.io/gorm"
)

func testConfig() *config.Config {
	return &config.Config{
		APIEnv:                    "test",
		BaseURL:                   "https://cowork.example.com",
		Currency:                  "usd",
		StripeSecretKey:           "sk_test",
		StripeWebhookSecret:       "whsec_test",
		GoogleServiceAccountEmail: "svc@example.iam.gserviceaccount.com",
		GooglePrivateKey:          "key",
		GoogleCalendarID:          "cal@example.com",
		SMTPFrom:                  "desk@example.com",
		ExternalCallTimeout:       time.Second,
		PendingBookingTTL:         time.Hour,
	}
}

type mockPayments struct {
	mock.Mock
}

func (m *mockPayments) CreateCheckoutSession(ctx context.Context, params *stripe.CheckoutSessionCreateParams) (*stripe.CheckoutSession, error) {
	args := m.Called(ctx, params)
	cs, _ := args.Get(0).(*stripe.CheckoutSession)
	return cs, args.Error(1)
}

func (m *mockPayments) GetCheckoutSession(ctx context.Context, id string) (*stripe.CheckoutSession, error) {
	args := m.Called(ctx, id)
	cs, _ := args.Get(0).(*stripe.CheckoutSession)
	return cs, args.Error(1)
}

var _ lib.PaymentProvider = (*mockPayments)(nil)

type fakeCalendar struct {
	mu     sync.Mutex
	events []*calendar.Event
	err    error
}

func (f *fakeCalendar) InsertEvent(ctx context.Context, calendarID string, e *calendar.Event) (*calendar.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	f.events = append(f.events, e)
	return &calendar.Event{Id: fmt.Sprintf("evt%d", len(f.events)), Summary: e.Summary}, nil
}

func (f *fakeCalendar) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.events)
}

type fakeMailer struct {
	mu   sync.Mutex
	sent []*lib.SendMailInput
}

func (f *fakeMailer) Send(ctx context.Context, input *lib.SendMailInput) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, input)
	return nil
}

type fakeMembers struct {
	members []models.Member
	err     error
}

func (f *fakeMembers) ActiveByEmail(ctx context.Context, email string) ([]models.Member, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []models.Member
	for _, m := range f.members {
		if models.NormalizeEmail(m.Email) == email && m.Status == types.MEMBER_ACTIVE {
			out = append(out, m)
		}
		if len(out) == 2 {
			break
		}
	}
	return out, nil
}

type fakeRooms struct {
	rooms []models.Room
}

func (f *fakeRooms) ActiveByID(ctx context.Context, id uint) (*models.Room, error) {
	for _, r := range f.rooms {
		if r.ID == id && r.Active {
			room := r
			return &room, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeRooms) ListActive(ctx context.Context) ([]models.Room, error) {
	var out []models.Room
	for _, r := range f.rooms {
		if r.Active {
			out = append(out, r)
		}
	}
	return out, nil
}

// fakeBookings mirrors the repo's conditional updates in memory.
type fakeBookings struct {
	mu       sync.Mutex
	bookings map[uuid.UUID]*models.Booking
	rooms    map[uint]*models.Room
	err      error

	// setSessionErr fails SetCheckoutSession only.
	setSessionErr error
}

func newFakeBookings(rooms ...models.Room) *fakeBookings {
	f := &fakeBookings{bookings: map[uuid.UUID]*models.Booking{}, rooms: map[uint]*models.Room{}}
	for i := range rooms {
		f.rooms[rooms[i].ID] = &rooms[i]
	}
	return f
}

func (f *fakeBookings) add(b models.Booking) *models.Booking {
	f.mu.Lock()
	defer f.mu.Unlock()
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	f.bookings[b.ID] = &b
	return &b
}

func (f *fakeBookings) get(id uuid.UUID) *models.Booking {
	f.mu.Lock()
	defer f.mu.Unlock()
	b := *f.bookings[id]
	return &b
}

func (f *fakeBookings) ByID(ctx context.Context, id uuid.UUID) (*models.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	b, ok := f.bookings[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	out := *b
	out.Room = nil
	if b.RoomID != nil {
		out.Room = f.rooms[*b.RoomID]
	}
	return &out, nil
}

func (f *fakeBookings) MemberBookingsInWindow(ctx context.Context, email string, start time.Time, end time.Time) ([]models.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	var out []models.Booking
	for _, b := range f.bookings {
		d := b.BookingDate.Format(config.DATE_FORMAT)
		if models.NormalizeEmail(b.CustomerEmail) == email && b.IsMemberBooking && b.Status != types.BOOKING_CANCELLED &&
			d >= start.Format(config.DATE_FORMAT) && d < end.Format(config.DATE_FORMAT) {
			out = append(out, *b)
		}
	}
	return out, nil
}

func (f *fakeBookings) CreateWithNoOverlap(ctx context.Context, b *models.Booking) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	for _, e := range f.bookings {
		if e.RoomID == nil || b.RoomID == nil || *e.RoomID != *b.RoomID {
			continue
		}
		if e.Status == types.BOOKING_CANCELLED || !e.BookingDate.Equal(b.BookingDate) {
			continue
		}
		if e.StartTime < b.EndTime && e.EndTime > b.StartTime {
			return db.ErrOverlap
		}
	}
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	stored := *b
	f.bookings[b.ID] = &stored
	return nil
}

func (f *fakeBookings) SetCheckoutSession(ctx context.Context, id uuid.UUID, sessionID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.setSessionErr != nil {
		return f.setSessionErr
	}
	if b, ok := f.bookings[id]; ok {
		b.CheckoutSessionID = &sessionID
	}
	return nil
}

func (f *fakeBookings) SetCalendarEvent(ctx context.Context, id uuid.UUID, eventID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if b, ok := f.bookings[id]; ok {
		b.CalendarEventID = &eventID
	}
	return nil
}

func (f *fakeBookings) ConfirmPaid(ctx context.Context, id uuid.UUID, sessionID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return false, f.err
	}
	b, ok := f.bookings[id]
	if !ok || b.Status != types.BOOKING_PENDING {
		return false, nil
	}
	b.Status = types.BOOKING_CONFIRMED
	b.PaymentStatus = types.PAYMENT_PAID
	b.CheckoutSessionID = &sessionID
	return true, nil
}

func (f *fakeBookings) MarkProcessing(ctx context.Context, id uuid.UUID, sessionID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return false, f.err
	}
	b, ok := f.bookings[id]
	if !ok || b.Status != types.BOOKING_PENDING || b.PaymentStatus != types.PAYMENT_UNPAID {
		return false, nil
	}
	b.PaymentStatus = types.PAYMENT_PROCESSING
	b.CheckoutSessionID = &sessionID
	return true, nil
}

func (f *fakeBookings) CancelPending(ctx context.Context, id uuid.UUID) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return false, f.err
	}
	b, ok := f.bookings[id]
	if !ok || b.Status != types.BOOKING_PENDING {
		return false, nil
	}
	b.Status = types.BOOKING_CANCELLED
	return true, nil
}

func (f *fakeBookings) ExpireStalePending(ctx context.Context, before time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return 0, f.err
	}
	var n int64
	for _, b := range f.bookings {
		if b.Status == types.BOOKING_PENDING && b.PaymentStatus == types.PAYMENT_UNPAID && b.CreatedAt.Before(before) {
			b.Status = types.BOOKING_CANCELLED
			n++
		}
	}
	return n, nil
}

var errStore = errors.New("connection refused")

var _ BookingStore = (*fakeBookings)(nil)
var _ MemberStore = (*fakeMembers)(nil)
var _ RoomStore = (*fakeRooms)(nil)
