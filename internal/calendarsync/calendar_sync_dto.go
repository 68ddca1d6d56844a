package calendarsync

type EnqueueRequest struct {
	RequestID string `json:"request_id" binding:"required,uuid"`
}

type EnqueueResponse struct {
	Message   string `json:"message"`
	RequestID string `json:"request_id"`
}
