package attendance

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	attendanceerrors "go-leave/internal/attendance/errors"
	"go-leave/internal/identity"
	"go-leave/internal/shared/apperror"
	"go-leave/internal/shared/contextutil"
	"go-leave/internal/shared/dateutil"
	"go-leave/internal/shared/geo"
	"go-leave/internal/shared/pagination"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	defaultSource         = "mobile"
	openSessionConstraint = "uq_attendance_open_session"
)

var listSortFields = []string{"clock_in", "clock_out", "created_at"}

//go:generate mockgen -source=attendance_service.go -destination=mock/attendance_service_mock.go -package=mock
type Service interface {
	ClockIn(ctx context.Context, user identity.AuthenticatedUser, req ClockInRequest) (AttendanceLogResponse, error)
	ClockOut(ctx context.Context, user identity.AuthenticatedUser, req ClockOutRequest) (AttendanceLogResponse, error)
	ForceClockOut(ctx context.Context, actor identity.AuthenticatedUser, userID string, req ClockOutRequest) (AttendanceLogResponse, error)
	List(ctx context.Context, actor identity.AuthenticatedUser, q ListAttendanceQuery) (AttendanceLogListResponse, error)
}

type service struct {
	db          *sql.DB
	repo        Repository
	fence       geo.Fence
	maxPageSize int
	now         func() time.Time
	logger      *zap.Logger
}

func NewService(db *sql.DB, repo Repository, fence geo.Fence, maxPageSize int, logger ...*zap.Logger) Service {
	l := zap.L().Named("attendance.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("attendance.service")
	}
	return &service{
		db:          db,
		repo:        repo,
		fence:       fence,
		maxPageSize: maxPageSize,
		now:         func() time.Time { return time.Now().UTC() },
		logger:      l,
	}
}

func (s *service) ClockIn(ctx context.Context, user identity.AuthenticatedUser, req ClockInRequest) (AttendanceLogResponse, error) {
	s.log(ctx).Debug("clock in requested",
		zap.String("user_id", user.UserID.String()),
		zap.String("timestamp", req.Timestamp),
	)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.log(ctx).Error("clock in begin tx failed", zap.Error(err))
		return AttendanceLogResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)

	existing, err := qtx.FindOpenByUser(ctx, user.UserID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		s.log(ctx).Error("clock in open session lookup failed", zap.Error(err))
		return AttendanceLogResponse{}, err
	}
	if err == nil {
		s.log(ctx).Warn("clock in with open session",
			zap.String("user_id", user.UserID.String()),
			zap.String("log_id", existing.ID.String()),
		)
		return AttendanceLogResponse{}, attendanceerrors.ErrClockAlreadyStarted.WithDetails(map[string]any{
			"logId": existing.ID.String(),
		})
	}

	clockIn, err := dateutil.ParseTimestamp(req.Timestamp, s.now())
	if err != nil {
		return AttendanceLogResponse{}, attendanceerrors.ErrInvalidTimestamp
	}

	if err := s.checkFence(user, req); err != nil {
		return AttendanceLogResponse{}, err
	}

	source := strings.TrimSpace(req.Source)
	if source == "" {
		source = defaultSource
	}

	now := s.now()
	row := &AttendanceLog{
		ID:        uuid.New(),
		UserID:    user.UserID,
		UserEmail: user.Email,
		UserName:  displayName(user),
		ClockIn:   clockIn,
		Latitude:  req.Latitude,
		Longitude: req.Longitude,
		Source:    source,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := qtx.Create(ctx, row); err != nil {
		if isOpenSessionViolation(err) {
			s.log(ctx).Warn("clock in lost open session race", zap.String("user_id", user.UserID.String()))
			return AttendanceLogResponse{}, attendanceerrors.ErrClockAlreadyStarted
		}
		s.log(ctx).Error("clock in persist failed", zap.Error(err))
		return AttendanceLogResponse{}, err
	}

	if err := tx.Commit(); err != nil {
		if isOpenSessionViolation(err) {
			return AttendanceLogResponse{}, attendanceerrors.ErrClockAlreadyStarted
		}
		s.log(ctx).Error("clock in commit failed", zap.Error(err))
		return AttendanceLogResponse{}, err
	}
	s.log(ctx).Info("clock in recorded",
		zap.String("user_id", user.UserID.String()),
		zap.String("log_id", row.ID.String()),
	)

	return mapToResponse(*row), nil
}

func (s *service) checkFence(user identity.AuthenticatedUser, req ClockInRequest) error {
	if !s.fence.Enabled {
		return nil
	}
	if req.Latitude == nil || req.Longitude == nil {
		return attendanceerrors.ErrGeoRequired
	}
	if !s.fence.Contains(*req.Latitude, *req.Longitude) {
		s.logger.Warn("clock in outside geofence",
			zap.String("user_id", user.UserID.String()),
			zap.Float64("distance_m", s.fence.Distance(*req.Latitude, *req.Longitude)),
			zap.Float64("radius_m", s.fence.RadiusMeters),
		)
		return attendanceerrors.ErrGeoOutOfRange
	}
	return nil
}

func (s *service) ClockOut(ctx context.Context, user identity.AuthenticatedUser, req ClockOutRequest) (AttendanceLogResponse, error) {
	s.log(ctx).Debug("clock out requested", zap.String("user_id", user.UserID.String()))

	row, err := s.closeOpenSession(ctx, user.UserID, req, attendanceerrors.ErrNoOpenSession)
	if err != nil {
		return AttendanceLogResponse{}, err
	}
	s.log(ctx).Info("clock out recorded",
		zap.String("user_id", user.UserID.String()),
		zap.String("log_id", row.ID.String()),
		zap.Int64("duration_minutes", *row.DurationMinutes),
	)
	return mapToResponse(*row), nil
}

func (s *service) ForceClockOut(ctx context.Context, actor identity.AuthenticatedUser, userID string, req ClockOutRequest) (AttendanceLogResponse, error) {
	s.log(ctx).Debug("force clock out requested",
		zap.String("actor_id", actor.UserID.String()),
		zap.String("user_id", userID),
	)

	if !actor.IsAdmin() {
		s.log(ctx).Warn("force clock out forbidden", zap.String("actor_id", actor.UserID.String()))
		return AttendanceLogResponse{}, apperror.ErrForbidden
	}
	target, err := uuid.Parse(userID)
	if err != nil {
		return AttendanceLogResponse{}, attendanceerrors.ErrInvalidUserID
	}

	row, err := s.closeOpenSession(ctx, target, req, attendanceerrors.ErrNoOpenSessionForUser)
	if err != nil {
		return AttendanceLogResponse{}, err
	}
	s.log(ctx).Info("force clock out recorded",
		zap.String("actor_id", actor.UserID.String()),
		zap.String("user_id", userID),
		zap.String("log_id", row.ID.String()),
	)
	return mapToResponse(*row), nil
}

// closeOpenSession locks the user's open log for the transaction so a self
// clock-out and an admin force clock-out cannot both close it.
func (s *service) closeOpenSession(ctx context.Context, userID uuid.UUID, req ClockOutRequest, notFound error) (*AttendanceLog, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.log(ctx).Error("clock out begin tx failed", zap.Error(err))
		return nil, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)

	row, err := qtx.FindOpenForUpdate(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			s.log(ctx).Warn("clock out without open session", zap.String("user_id", userID.String()))
			return nil, notFound
		}
		s.log(ctx).Error("clock out open session lookup failed", zap.Error(err))
		return nil, err
	}

	clockOut, err := dateutil.ParseTimestamp(req.Timestamp, s.now())
	if err != nil {
		return nil, attendanceerrors.ErrInvalidTimestamp
	}
	duration := dateutil.DurationMinutes(row.ClockIn, clockOut)
	if duration < 0 {
		return nil, attendanceerrors.ErrNegativeDuration
	}

	if err := qtx.Close(ctx, row.ID, clockOut, duration); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound
		}
		s.log(ctx).Error("clock out persist failed", zap.Error(err))
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		s.log(ctx).Error("clock out commit failed", zap.Error(err))
		return nil, err
	}

	row.ClockOut = &clockOut
	row.DurationMinutes = &duration
	return row, nil
}

func (s *service) List(ctx context.Context, actor identity.AuthenticatedUser, q ListAttendanceQuery) (AttendanceLogListResponse, error) {
	page, err := pagination.Parse(q.Page, q.Size, q.Sort, pagination.Options{
		MaxSize:     s.maxPageSize,
		SortFields:  listSortFields,
		DefaultSort: "clock_in",
		DefaultDesc: true,
	})
	if err != nil {
		return AttendanceLogListResponse{}, err
	}

	var filter ListFilter
	if actor.IsAdmin() {
		if q.UserID != "" {
			uid, err := uuid.Parse(q.UserID)
			if err != nil {
				return AttendanceLogListResponse{}, attendanceerrors.ErrInvalidUserID
			}
			filter.UserID = &uid
		}
	} else {
		uid := actor.UserID
		filter.UserID = &uid
	}
	if q.From != "" {
		d, err := dateutil.ParseDate(q.From)
		if err != nil {
			return AttendanceLogListResponse{}, attendanceerrors.ErrInvalidTimestamp
		}
		filter.From = &d
	}
	if q.To != "" {
		d, err := dateutil.ParseDate(q.To)
		if err != nil {
			return AttendanceLogListResponse{}, attendanceerrors.ErrInvalidTimestamp
		}
		// to is an inclusive day
		end := d.AddDate(0, 0, 1)
		filter.To = &end
	}

	rows, total, err := s.repo.List(ctx, filter, page)
	if err != nil {
		s.log(ctx).Error("list attendance failed", zap.Error(err))
		return AttendanceLogListResponse{}, err
	}

	items := make([]AttendanceLogResponse, len(rows))
	for i, r := range rows {
		items[i] = mapToResponse(r)
	}
	return AttendanceLogListResponse{Items: items, Page: page.Page, Size: page.Size, Total: total}, nil
}

func isOpenSessionViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505" && pgErr.ConstraintName == openSessionConstraint
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate key value") && strings.Contains(msg, openSessionConstraint)
}

func displayName(u identity.AuthenticatedUser) string {
	if u.DisplayName != "" {
		return u.DisplayName
	}
	return u.Email
}

func mapToResponse(a AttendanceLog) AttendanceLogResponse {
	resp := AttendanceLogResponse{
		ID:              a.ID.String(),
		UserID:          a.UserID.String(),
		UserEmail:       a.UserEmail,
		UserName:        a.UserName,
		ClockIn:         a.ClockIn.UTC().Format(time.RFC3339),
		DurationMinutes: a.DurationMinutes,
		Latitude:        a.Latitude,
		Longitude:       a.Longitude,
		Source:          a.Source,
	}
	if a.ClockOut != nil {
		v := a.ClockOut.UTC().Format(time.RFC3339)
		resp.ClockOut = &v
	}
	return resp
}

// log tags the service logger with the caller's request and user ids.
func (s *service) log(ctx context.Context) *zap.Logger {
	return s.logger.With(contextutil.LogFields(ctx)...)
}
