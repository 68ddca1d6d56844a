package attendance

import (
	"time"

	"github.com/google/uuid"
)

// AttendanceLog is created open on clock-in and closed exactly once.
type AttendanceLog struct {
	ID              uuid.UUID  `gorm:"column:id;type:uuid;primaryKey;default:gen_random_uuid()"`
	UserID          uuid.UUID  `gorm:"column:user_id;type:uuid;not null;index"`
	UserEmail       string     `gorm:"column:user_email;type:varchar(255)"`
	UserName        string     `gorm:"column:user_name;type:varchar(255)"`
	ClockIn         time.Time  `gorm:"column:clock_in;type:timestamptz;not null"`
	ClockOut        *time.Time `gorm:"column:clock_out;type:timestamptz"`
	DurationMinutes *int64     `gorm:"column:duration_minutes"`
	Latitude        *float64   `gorm:"column:latitude"`
	Longitude       *float64   `gorm:"column:longitude"`
	Source          string     `gorm:"column:source;type:varchar(30);not null;default:mobile"`
	CreatedAt       time.Time  `gorm:"column:created_at"`
	UpdatedAt       time.Time  `gorm:"column:updated_at"`
}

func (AttendanceLog) TableName() string {
	return "attendance_logs"
}

func (a AttendanceLog) Open() bool {
	return a.ClockOut == nil
}
