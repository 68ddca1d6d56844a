package attendance

type ClockInRequest struct {
	Timestamp string   `json:"timestamp"`
	Latitude  *float64 `json:"latitude" binding:"omitempty,latitude"`
	Longitude *float64 `json:"longitude" binding:"omitempty,longitude"`
	Source    string   `json:"source" binding:"omitempty,max=30"`
}

type ClockOutRequest struct {
	Timestamp string `json:"timestamp"`
}

type ListAttendanceQuery struct {
	UserID string `form:"user_id"`
	From   string `form:"from"`
	To     string `form:"to"`
	Page   string `form:"page"`
	Size   string `form:"size"`
	Sort   string `form:"sort"`
}

type AttendanceLogResponse struct {
	ID              string   `json:"id"`
	UserID          string   `json:"user_id"`
	UserEmail       string   `json:"user_email,omitempty"`
	UserName        string   `json:"user_name,omitempty"`
	ClockIn         string   `json:"clock_in"`
	ClockOut        *string  `json:"clock_out,omitempty"`
	DurationMinutes *int64   `json:"duration_minutes,omitempty"`
	Latitude        *float64 `json:"latitude,omitempty"`
	Longitude       *float64 `json:"longitude,omitempty"`
	Source          string   `json:"source"`
}

type AttendanceLogListResponse struct {
	Items []AttendanceLogResponse
	Page  int
	Size  int
	Total int64
}
