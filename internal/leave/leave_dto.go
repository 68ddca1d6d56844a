package leave

type CreateLeaveRequest struct {
	PolicyID  string  `json:"policy_id" binding:"required,uuid"`
	StartDate string  `json:"start_date" binding:"required"`
	EndDate   string  `json:"end_date" binding:"required"`
	HalfDay   bool    `json:"half_day"`
	Reason    *string `json:"reason" binding:"omitempty,max=1000"`
}

type UpdateLeaveStatusRequest struct {
	Action string  `json:"action" binding:"required,oneof=APPROVE REJECT CANCEL"`
	Notes  *string `json:"notes" binding:"omitempty,max=1000"`
}

type ListLeaveQuery struct {
	Status    string `form:"status"`
	StartDate string `form:"start_date"`
	EndDate   string `form:"end_date"`
	UserID    string `form:"user_id"`
	Page      string `form:"page"`
	Size      string `form:"size"`
	Sort      string `form:"sort"`
}

type LeaveResponse struct {
	ID                      string  `json:"id"`
	UserID                  string  `json:"user_id"`
	UserEmail               string  `json:"user_email"`
	UserName                string  `json:"user_name,omitempty"`
	PolicyID                string  `json:"policy_id"`
	PolicyName              string  `json:"policy_name,omitempty"`
	Status                  string  `json:"status"`
	StartDate               string  `json:"start_date"`
	EndDate                 string  `json:"end_date"`
	HalfDay                 bool    `json:"half_day"`
	Reason                  *string `json:"reason,omitempty"`
	DaysRequested           string  `json:"days_requested"`
	ExternalCalendarEventID *string `json:"external_calendar_event_id,omitempty"`
	CreatedAt               string  `json:"created_at"`
	UpdatedAt               string  `json:"updated_at"`
}

type LeaveListResponse struct {
	Items []LeaveResponse
	Page  int
	Size  int
	Total int64
}
