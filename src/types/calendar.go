package types

type CalendarOutcome string

const (
	CALENDAR_CREATED CalendarOutcome = "created"
	CALENDAR_SKIPPED CalendarOutcome = "skipped"
	CALENDAR_FAILED  CalendarOutcome = "failed"
)

// CalendarResult is returned by the calendar bridge instead of an error.
// Failed and Skipped are distinct so "the provider is down" never reads as
// "no event was needed".
type CalendarResult struct {
	Outcome CalendarOutcome `json:"outcome"`
	EventID string          `json:"event_id,omitempty"`
	Reason  string          `json:"reason,omitempty"`
}

func CalendarCreated(eventID string) CalendarResult {
	return CalendarResult{Outcome: CALENDAR_CREATED, EventID: eventID}
}

func CalendarSkipped(reason string) CalendarResult {
	return CalendarResult{Outcome: CALENDAR_SKIPPED, Reason: reason}
}

func CalendarFailed(reason string) CalendarResult {
	return CalendarResult{Outcome: CALENDAR_FAILED, Reason: reason}
}

func (r CalendarResult) Created() bool {
	return r.Outcome == CALENDAR_CREATED
}
