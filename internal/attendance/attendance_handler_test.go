package attendance

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	attendanceerrors "go-leave/internal/attendance/errors"
	"go-leave/internal/identity"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

type fakeService struct {
	clockInFn  func(ctx context.Context, user identity.AuthenticatedUser, req ClockInRequest) (AttendanceLogResponse, error)
	clockOutFn func(ctx context.Context, user identity.AuthenticatedUser, req ClockOutRequest) (AttendanceLogResponse, error)
	forceFn    func(ctx context.Context, actor identity.AuthenticatedUser, userID string, req ClockOutRequest) (AttendanceLogResponse, error)
	listFn     func(ctx context.Context, actor identity.AuthenticatedUser, q ListAttendanceQuery) (AttendanceLogListResponse, error)
}

func (f *fakeService) ClockIn(ctx context.Context, user identity.AuthenticatedUser, req ClockInRequest) (AttendanceLogResponse, error) {
	return f.clockInFn(ctx, user, req)
}

func (f *fakeService) ClockOut(ctx context.Context, user identity.AuthenticatedUser, req ClockOutRequest) (AttendanceLogResponse, error) {
	return f.clockOutFn(ctx, user, req)
}

func (f *fakeService) ForceClockOut(ctx context.Context, actor identity.AuthenticatedUser, userID string, req ClockOutRequest) (AttendanceLogResponse, error) {
	return f.forceFn(ctx, actor, userID, req)
}

func (f *fakeService) List(ctx context.Context, actor identity.AuthenticatedUser, q ListAttendanceQuery) (AttendanceLogListResponse, error) {
	return f.listFn(ctx, actor, q)
}

func newContext(method, target, body string, user *identity.AuthenticatedUser) (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(method, target, strings.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")
	if user != nil {
		identity.SetUser(c, *user)
	}
	return c, w
}

func TestHandler_ClockIn(t *testing.T) {
	user := testUser()

	t.Run("empty body is accepted", func(t *testing.T) {
		svc := &fakeService{
			clockInFn: func(ctx context.Context, u identity.AuthenticatedUser, req ClockInRequest) (AttendanceLogResponse, error) {
				assert.Equal(t, user.UserID, u.UserID)
				assert.Empty(t, req.Timestamp)
				return AttendanceLogResponse{ID: "log-1", Source: "mobile"}, nil
			},
		}
		c, w := newContext(http.MethodPost, "/api/v1/attendance/clock-in", "", &user)

		NewHandler(svc).ClockIn(c)

		assert.Equal(t, http.StatusCreated, w.Code)
		assert.JSONEq(t, `{"data":{"id":"log-1","user_id":"","clock_in":"","source":"mobile"}}`, w.Body.String())
	})

	t.Run("negative conflict", func(t *testing.T) {
		svc := &fakeService{
			clockInFn: func(ctx context.Context, u identity.AuthenticatedUser, req ClockInRequest) (AttendanceLogResponse, error) {
				return AttendanceLogResponse{}, attendanceerrors.ErrClockAlreadyStarted.WithDetails(map[string]any{"logId": "log-1"})
			},
		}
		c, w := newContext(http.MethodPost, "/api/v1/attendance/clock-in", `{"source":"kiosk"}`, &user)

		NewHandler(svc).ClockIn(c)

		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Contains(t, w.Body.String(), `"code":"CLOCK_ALREADY_STARTED"`)
		assert.Contains(t, w.Body.String(), `"logId":"log-1"`)
	})

	t.Run("negative latitude out of bounds", func(t *testing.T) {
		c, w := newContext(http.MethodPost, "/api/v1/attendance/clock-in", `{"latitude":123.4,"longitude":10}`, &user)

		NewHandler(&fakeService{}).ClockIn(c)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), `"code":"VALIDATION_ERROR"`)
	})
}

func TestHandler_ForceClockOut(t *testing.T) {
	admin := testUser(identity.RoleAdmin)
	svc := &fakeService{
		forceFn: func(ctx context.Context, actor identity.AuthenticatedUser, userID string, req ClockOutRequest) (AttendanceLogResponse, error) {
			assert.Equal(t, "user-7", userID)
			return AttendanceLogResponse{}, attendanceerrors.ErrNoOpenSessionForUser
		},
	}
	c, w := newContext(http.MethodPost, "/api/v1/attendance/users/user-7/force-clock-out", `{}`, &admin)
	c.Params = gin.Params{{Key: "userId", Value: "user-7"}}

	NewHandler(svc).ForceClockOut(c)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), `"code":"NO_OPEN_SESSION"`)
}
