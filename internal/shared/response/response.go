package response

import (
	"time"

	"github.com/gin-gonic/gin"
)

type DataEnvelope struct {
	Data any `json:"data"`
}

type PageEnvelope struct {
	Items any   `json:"items"`
	Page  int   `json:"page"`
	Size  int   `json:"size"`
	Total int64 `json:"total"`
}

type ErrorEnvelope struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Details   any    `json:"details,omitempty"`
	Timestamp string `json:"timestamp"`
}

// now is swapped in tests to get stable error bodies.
var now = func() time.Time { return time.Now().UTC() }

func Success(c *gin.Context, status int, data any) {
	c.JSON(status, DataEnvelope{Data: data})
}

func Page(c *gin.Context, items any, page, size int, total int64) {
	c.JSON(200, PageEnvelope{
		Items: items,
		Page:  page,
		Size:  size,
		Total: total,
	})
}

func Error(c *gin.Context, status int, errorCode string, message string, details any) {
	c.JSON(status, ErrorEnvelope{
		Code:      errorCode,
		Message:   message,
		Details:   details,
		Timestamp: now().Format(time.RFC3339),
	})
}

// Abort writes an error envelope and stops the handler chain.
func Abort(c *gin.Context, status int, errorCode string, message string, details any) {
	Error(c, status, errorCode, message, details)
	c.Abort()
}
