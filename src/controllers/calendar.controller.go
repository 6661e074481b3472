package controllers

import (
	"context"
	"cowork/src/config"
	"cowork/src/lib"
	"cowork/src/models"
	"cowork/src/types"
	"cowork/src/utils"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"google.golang.org/api/calendar/v3"
)

const calendarDateTime = "2006-01-02T15:04:05"

// CalendarBridge turns bookings into Google Calendar events. Every call
// inserts a new event; callers decide when a booking deserves one.
type CalendarBridge struct {
	cfg     *config.Config
	service lib.CalendarService
	now     func() time.Time
}

// service may be nil when the calendar is not configured.
func NewCalendarBridge(cfg *config.Config, service lib.CalendarService) *CalendarBridge {
	return &CalendarBridge{cfg: cfg, service: service, now: time.Now}
}

func (c *CalendarBridge) Configured() bool {
	return c.service != nil && c.cfg.CalendarConfigured()
}

func eventSummary(b *models.Booking) string {
	purpose := strings.TrimSpace(b.Purpose)
	if purpose == "" {
		purpose = types.DEFAULT_ROOM_NAME + " Booking"
	}
	return fmt.Sprintf("%s - %s", purpose, b.CustomerName)
}

func eventDescription(b *models.Booking) string {
	lines := []string{
		fmt.Sprintf("Customer: %s", b.CustomerName),
		fmt.Sprintf("Email: %s", b.CustomerEmail),
	}
	if b.CustomerPhone != "" {
		lines = append(lines, fmt.Sprintf("Phone: %s", b.CustomerPhone))
	}
	lines = append(lines,
		fmt.Sprintf("Attendees: %d", b.Attendees),
		fmt.Sprintf("Room: %s", b.RoomName()),
	)
	if b.Purpose != "" {
		lines = append(lines, fmt.Sprintf("Purpose: %s", b.Purpose))
	}
	lines = append(lines, fmt.Sprintf("Booking ID: %s", b.ID.String()))
	return strings.Join(lines, "\n")
}

// BuildEvent spans the booking's date and clock times in the app time zone.
func (c *CalendarBridge) BuildEvent(b *models.Booking) (*calendar.Event, error) {
	loc := c.cfg.Location()
	date := b.BookingDate.Format(config.DATE_FORMAT)
	start, err := time.ParseInLocation(config.DATE_FORMAT+" "+config.CLOCK_FORMAT, date+" "+b.StartTime, loc)
	if err != nil {
		return nil, err
	}
	end, err := time.ParseInLocation(config.DATE_FORMAT+" "+config.CLOCK_FORMAT, date+" "+b.EndTime, loc)
	if err != nil {
		return nil, err
	}
	if !end.After(start) {
		return nil, fmt.Errorf("end time %s is not after start time %s", b.EndTime, b.StartTime)
	}
	return &calendar.Event{
		Id:          strings.ReplaceAll(uuid.NewString(), "-", ""),
		Summary:     eventSummary(b),
		Description: eventDescription(b),
		Location:    b.RoomName(),
		Start: &calendar.EventDateTime{
			DateTime: start.Format(calendarDateTime),
			TimeZone: loc.String(),
		},
		End: &calendar.EventDateTime{
			DateTime: end.Format(calendarDateTime),
			TimeZone: loc.String(),
		},
	}, nil
}

// CreateEvent never fails the caller: provider errors come back as Failed.
func (c *CalendarBridge) CreateEvent(ctx context.Context, b *models.Booking) types.CalendarResult {
	if !c.Configured() {
		return types.CalendarSkipped("calendar is not configured")
	}
	if b.Status == types.BOOKING_CANCELLED {
		return types.CalendarSkipped("booking is cancelled")
	}
	event, err := c.BuildEvent(b)
	if err != nil {
		log.Printf("[Calendar] Invalid booking %s: %s\n", b.ID.String(), err.Error())
		return types.CalendarSkipped(err.Error())
	}

	cctx, cancel := context.WithTimeout(ctx, c.cfg.ExternalCallTimeout)
	defer cancel()
	created, err := c.service.InsertEvent(cctx, c.cfg.GoogleCalendarID, event)
	if err != nil {
		appErr := types.CalendarProviderError(err)
		log.Printf("[Calendar] Failed to add Event for booking %s: %s\n", b.ID.String(), appErr.Error())
		return types.CalendarFailed(err.Error())
	}
	log.Printf("[Calendar] Event %s has been added for booking %s\n", created.Id, b.ID.String())
	return types.CalendarCreated(created.Id)
}

// TestEvent inserts a one hour sample event tomorrow at 10:00.
func (c *CalendarBridge) TestEvent(ctx context.Context) types.CalendarResult {
	tomorrow := c.now().In(c.cfg.Location()).AddDate(0, 0, 1)
	b := &models.Booking{
		ID:            uuid.New(),
		CustomerName:  "Calendar Test",
		CustomerEmail: c.cfg.GoogleServiceAccountEmail,
		BookingDate:   time.Date(tomorrow.Year(), tomorrow.Month(), tomorrow.Day(), 0, 0, 0, 0, time.UTC),
		StartTime:     "10:00",
		EndTime:       "11:00",
		Attendees:     1,
		Purpose:       "Test Event",
		Status:        types.BOOKING_CONFIRMED,
	}
	return c.CreateEvent(ctx, b)
}

func (c *CalendarBridge) ConfigStatus() map[string]bool {
	return map[string]bool{
		"GOOGLE_SERVICE_ACCOUNT_EMAIL": c.cfg.GoogleServiceAccountEmail != "",
		"GOOGLE_PRIVATE_KEY":           c.cfg.GooglePrivateKey != "",
		"GOOGLE_CALENDAR_ID":           c.cfg.GoogleCalendarID != "",
		"configured":                   c.Configured(),
	}
}

// ManualBooking converts the diagnostic request into an unsaved booking.
func (c *CalendarBridge) ManualBooking(body *types.ManualBookingRequestBody) (*models.Booking, error) {
	date, err := utils.ParseDate(body.BookingDate, time.UTC)
	if err != nil {
		return nil, types.ValidationError("booking_date must be YYYY-MM-DD")
	}
	hours, err := utils.DurationHours(body.StartTime, body.EndTime)
	if err != nil {
		return nil, types.ValidationError(err.Error())
	}
	b := &models.Booking{
		ID:            uuid.New(),
		CustomerName:  body.CustomerName,
		CustomerEmail: body.CustomerEmail,
		CustomerPhone: body.CustomerPhone,
		BookingDate:   date,
		StartTime:     body.StartTime,
		EndTime:       body.EndTime,
		DurationHours: hours,
		Attendees:     body.Attendees,
		Purpose:       body.Purpose,
		Status:        types.BOOKING_CONFIRMED,
	}
	if body.RoomName != "" {
		b.Room = &models.Room{Name: body.RoomName}
	}
	return b, nil
}
