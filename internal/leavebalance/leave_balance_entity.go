package leavebalance

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type LeavePolicy struct {
	ID            uuid.UUID       `gorm:"column:id;type:uuid;primaryKey;default:gen_random_uuid()"`
	Name          string          `gorm:"column:name;type:varchar(100);not null;uniqueIndex"`
	AnnualLimit   decimal.Decimal `gorm:"column:annual_limit;type:numeric(6,2);not null"`
	MinNoticeDays int             `gorm:"column:min_notice_days;not null;default:0"`
	IsActive      bool            `gorm:"column:is_active;not null;default:true"`
	CreatedAt     time.Time       `gorm:"column:created_at"`
	UpdatedAt     time.Time       `gorm:"column:updated_at"`
}

func (LeavePolicy) TableName() string {
	return "leave_policies"
}

type LeaveBalance struct {
	ID          uuid.UUID       `gorm:"column:id;type:uuid;primaryKey;default:gen_random_uuid()"`
	UserID      uuid.UUID       `gorm:"column:user_id;type:uuid;not null;uniqueIndex:uq_leave_balance_user_policy_year"`
	PolicyID    uuid.UUID       `gorm:"column:policy_id;type:uuid;not null;uniqueIndex:uq_leave_balance_user_policy_year"`
	Year        int             `gorm:"column:year;not null;uniqueIndex:uq_leave_balance_user_policy_year"`
	BalanceDays decimal.Decimal `gorm:"column:balance_days;type:numeric(6,2);not null"`
	CreatedAt   time.Time       `gorm:"column:created_at"`
	UpdatedAt   time.Time       `gorm:"column:updated_at"`
	Policy      *LeavePolicy    `gorm:"foreignKey:PolicyID;references:ID"`
}

func (LeaveBalance) TableName() string {
	return "leave_balances"
}
