package controllers

import (
	"context"
	"cowork/src/models"
	"cowork/src/types"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleBooking() *models.Booking {
	return &models.Booking{
		ID:            uuid.New(),
		CustomerName:  "Ada",
		CustomerEmail: "ada@example.com",
		CustomerPhone: "555-0100",
		BookingDate:   time.Date(2026, time.May, 5, 0, 0, 0, 0, time.UTC),
		StartTime:     "14:00",
		EndTime:       "15:30",
		Attendees:     4,
		Purpose:       "Standup",
		Status:        types.BOOKING_CONFIRMED,
		Room:          &models.Room{Name: "Boardroom"},
	}
}

func TestBuildEventUsesAppTimeZone(t *testing.T) {
	cfg := testConfig()
	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)
	cfg.SetLocation(loc)
	bridge := NewCalendarBridge(cfg, &fakeCalendar{})
	b := sampleBooking()

	event, err := bridge.BuildEvent(b)
	require.NoError(t, err)

	assert.Equal(t, "Standup - Ada", event.Summary)
	assert.Equal(t, "2026-05-05T14:00:00", event.Start.DateTime)
	assert.Equal(t, "2026-05-05T15:30:00", event.End.DateTime)
	assert.Equal(t, "America/New_York", event.Start.TimeZone)
	assert.Contains(t, event.Description, "Phone: 555-0100")
	assert.Contains(t, event.Description, "Attendees: 4")
	assert.Contains(t, event.Description, "Room: Boardroom")
	assert.Contains(t, event.Description, "Booking ID: "+b.ID.String())
}

func TestBuildEventSummaryFallback(t *testing.T) {
	b := sampleBooking()
	b.Purpose = ""

	event, err := NewCalendarBridge(testConfig(), &fakeCalendar{}).BuildEvent(b)
	require.NoError(t, err)
	assert.Equal(t, "Meeting Room Booking - Ada", event.Summary)
}

func TestCreateEventIsNotIdempotent(t *testing.T) {
	cal := &fakeCalendar{}
	bridge := NewCalendarBridge(testConfig(), cal)
	b := sampleBooking()

	first := bridge.CreateEvent(context.Background(), b)
	second := bridge.CreateEvent(context.Background(), b)

	require.True(t, first.Created())
	require.True(t, second.Created())
	assert.NotEqual(t, first.EventID, second.EventID)
	assert.Equal(t, 2, cal.count())
}

func TestCreateEventFailureIsAValue(t *testing.T) {
	bridge := NewCalendarBridge(testConfig(), &fakeCalendar{err: errors.New("googleapi: Error 403: forbidden")})

	result := bridge.CreateEvent(context.Background(), sampleBooking())

	assert.Equal(t, types.CALENDAR_FAILED, result.Outcome)
	assert.Contains(t, result.Reason, "403")
	assert.False(t, result.Created())
}

func TestCreateEventSkipped(t *testing.T) {
	cfg := testConfig()
	cfg.GoogleCalendarID = ""
	cal := &fakeCalendar{}
	result := NewCalendarBridge(cfg, cal).CreateEvent(context.Background(), sampleBooking())
	assert.Equal(t, types.CALENDAR_SKIPPED, result.Outcome)

	result = NewCalendarBridge(testConfig(), nil).CreateEvent(context.Background(), sampleBooking())
	assert.Equal(t, types.CALENDAR_SKIPPED, result.Outcome)

	b := sampleBooking()
	b.Status = types.BOOKING_CANCELLED
	result = NewCalendarBridge(testConfig(), cal).CreateEvent(context.Background(), b)
	assert.Equal(t, types.CALENDAR_SKIPPED, result.Outcome)
	assert.Zero(t, cal.count())
}

func TestTestEventIsTomorrowAtTen(t *testing.T) {
	cal := &fakeCalendar{}
	bridge := NewCalendarBridge(testConfig(), cal)
	bridge.now = func() time.Time { return time.Date(2026, time.December, 31, 18, 0, 0, 0, time.UTC) }

	result := bridge.TestEvent(context.Background())

	require.True(t, result.Created())
	require.Equal(t, 1, cal.count())
	assert.Equal(t, "2027-01-01T10:00:00", cal.events[0].Start.DateTime)
	assert.Equal(t, "2027-01-01T11:00:00", cal.events[0].End.DateTime)
}

func TestManualBooking(t *testing.T) {
	bridge := NewCalendarBridge(testConfig(), &fakeCalendar{})

	b, err := bridge.ManualBooking(&types.ManualBookingRequestBody{
		CustomerName: "Ada",
		RoomName:     "Focus Pod",
		BookingDate:  "2026-05-05",
		StartTime:    "09:00",
		EndTime:      "10:00",
	})
	require.NoError(t, err)
	assert.Equal(t, "Focus Pod", b.RoomName())
	assert.Equal(t, 1.0, b.DurationHours)

	_, err = bridge.ManualBooking(&types.ManualBookingRequestBody{BookingDate: "05/05/2026", StartTime: "09:00", EndTime: "10:00"})
	assert.True(t, types.IsKind(err, types.ERR_VALIDATION))
}

func TestConfigStatus(t *testing.T) {
	cfg := testConfig()
	cfg.GooglePrivateKey = ""

	status := NewCalendarBridge(cfg, &fakeCalendar{}).ConfigStatus()

	assert.True(t, status["GOOGLE_SERVICE_ACCOUNT_EMAIL"])
	assert.False(t, status["GOOGLE_PRIVATE_KEY"])
	assert.False(t, status["configured"])
}
