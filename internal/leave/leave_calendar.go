package leave

import "context"

// CalendarDispatcher queues an approved request for calendar sync.
//
//go:generate mockgen -source=leave_calendar.go -destination=mock/leave_calendar_mock.go -package=mock
type CalendarDispatcher interface {
	EnqueueCalendarSync(ctx context.Context, requestID string) error
}
