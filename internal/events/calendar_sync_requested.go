package events

const (
	CalendarSyncRequestedTopic = "leave.calendar.sync.requested.v1"
	CalendarSyncRequestedType  = "calendar_sync_requested"
)

// CalendarSyncRequestedEvent asks the consumer to mirror an approved leave
// request into the employee's calendar.
type CalendarSyncRequestedEvent struct {
	RequestID string `json:"requestId"`
	Attempt   int    `json:"attempt"`
}

func NewCalendarSyncRequested(requestID string) CalendarSyncRequestedEvent {
	return CalendarSyncRequestedEvent{RequestID: requestID, Attempt: 1}
}
