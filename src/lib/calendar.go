package lib

import (
	"context"
	"strings"

	"golang.org/x/oauth2/google"
	"golang.org/x/oauth2/jwt"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"
)

type CalendarService interface {
	InsertEvent(ctx context.Context, calendarID string, e *calendar.Event) (*calendar.Event, error)
}

type GoogleCalendar struct {
	svc *calendar.Service
}

// NewGoogleCalendar authenticates as a service account. The private key is
// usually stored in env with literal \n sequences.
func NewGoogleCalendar(ctx context.Context, email string, privateKey string) (*GoogleCalendar, error) {
	conf := &jwt.Config{
		Email:      email,
		PrivateKey: []byte(strings.ReplaceAll(privateKey, `\n`, "\n")),
		Scopes:     []string{calendar.CalendarEventsScope},
		TokenURL:   google.JWTTokenURL,
	}
	svc, err := calendar.NewService(ctx, option.WithHTTPClient(conf.Client(ctx)))
	if err != nil {
		return nil, err
	}
	return &GoogleCalendar{svc: svc}, nil
}

func NewGoogleCalendarWithService(svc *calendar.Service) *GoogleCalendar {
	return &GoogleCalendar{svc: svc}
}

func (g *GoogleCalendar) InsertEvent(ctx context.Context, calendarID string, e *calendar.Event) (*calendar.Event, error) {
	return g.svc.Events.Insert(calendarID, e).Context(ctx).Do()
}
