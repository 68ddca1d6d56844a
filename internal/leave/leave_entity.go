package leave

import (
	"time"

	"go-leave/internal/leavebalance"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type LeaveRequest struct {
	ID                      uuid.UUID                 `gorm:"column:id;type:uuid;primaryKey;default:gen_random_uuid()"`
	UserID                  uuid.UUID                 `gorm:"column:user_id;type:uuid;not null;index:idx_leave_requests_user_policy_dates"`
	UserEmail               string                    `gorm:"column:user_email;type:varchar(255);not null"`
	UserName                string                    `gorm:"column:user_name;type:varchar(255)"`
	PolicyID                uuid.UUID                 `gorm:"column:policy_id;type:uuid;not null;index:idx_leave_requests_user_policy_dates"`
	Status                  string                    `gorm:"column:status;type:varchar(20);not null;default:'PENDING'"`
	StartDate               time.Time                 `gorm:"column:start_date;type:date;not null"`
	EndDate                 time.Time                 `gorm:"column:end_date;type:date;not null"`
	HalfDay                 bool                      `gorm:"column:half_day;not null;default:false"`
	Reason                  *string                   `gorm:"column:reason;type:text"`
	DaysRequested           decimal.Decimal           `gorm:"column:days_requested;type:numeric(6,2);not null"`
	ExternalCalendarEventID *string                   `gorm:"column:external_calendar_event_id;type:varchar(255)"`
	CreatedAt               time.Time                 `gorm:"column:created_at"`
	UpdatedAt               time.Time                 `gorm:"column:updated_at"`
	Policy                  *leavebalance.LeavePolicy `gorm:"foreignKey:PolicyID;references:ID"`
}

func (LeaveRequest) TableName() string {
	return "leave_requests"
}

// LeaveAudit is append only. One row per accepted transition.
type LeaveAudit struct {
	ID         uuid.UUID `gorm:"column:id;type:uuid;primaryKey;default:gen_random_uuid()"`
	RequestID  uuid.UUID `gorm:"column:request_id;type:uuid;not null;index"`
	Action     string    `gorm:"column:action;type:varchar(20);not null"`
	FromStatus string    `gorm:"column:from_status;type:varchar(20);not null"`
	ToStatus   string    `gorm:"column:to_status;type:varchar(20);not null"`
	ActorID    uuid.UUID `gorm:"column:actor_id;type:uuid;not null"`
	Notes      *string   `gorm:"column:notes;type:text"`
	CreatedAt  time.Time `gorm:"column:created_at"`
}

func (LeaveAudit) TableName() string {
	return "leave_audit"
}
