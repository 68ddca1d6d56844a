package leave

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"go-leave/internal/events"
	"go-leave/internal/identity"
	leaveerrors "go-leave/internal/leave/errors"
	"go-leave/internal/leavebalance"
	"go-leave/internal/messaging/kafka"
	"go-leave/internal/shared/apperror"
	"go-leave/internal/shared/contextutil"
	"go-leave/internal/shared/dateutil"
	"go-leave/internal/shared/pagination"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	StatusPending   = "PENDING"
	StatusApproved  = "APPROVED"
	StatusRejected  = "REJECTED"
	StatusCancelled = "CANCELLED"
)

const (
	ActionApprove = "APPROVE"
	ActionReject  = "REJECT"
	ActionCancel  = "CANCEL"
)

var listSortFields = []string{"created_at", "updated_at", "start_date", "end_date", "status"}

//go:generate mockgen -source=leave_service.go -destination=mock/leave_service_mock.go -package=mock
type Service interface {
	Create(ctx context.Context, actor identity.AuthenticatedUser, req CreateLeaveRequest) (LeaveResponse, error)
	UpdateStatus(ctx context.Context, actor identity.AuthenticatedUser, id string, req UpdateLeaveStatusRequest) (LeaveResponse, error)
	GetByID(ctx context.Context, actor identity.AuthenticatedUser, id string) (LeaveResponse, error)
	List(ctx context.Context, actor identity.AuthenticatedUser, q ListLeaveQuery) (LeaveListResponse, error)
}

type Option func(*service)

func WithLogger(l *zap.Logger) Option {
	return func(s *service) {
		if l != nil {
			s.logger = l.Named("leave.service")
		}
	}
}

func WithHolidays(h dateutil.HolidaySet) Option {
	return func(s *service) { s.holidays = h }
}

// WithCalendarSync publishes a sync request after every commit to APPROVED.
// With failOnError the approval call reports the enqueue failure.
func WithCalendarSync(d CalendarDispatcher, failOnError bool) Option {
	return func(s *service) {
		s.dispatcher = d
		s.failOnEnqueueError = failOnError
	}
}

// WithOutbox writes the sync request into the approval transaction instead
// of publishing it directly.
func WithOutbox(repo kafka.OutboxRepository, topic string) Option {
	return func(s *service) {
		s.outbox = repo
		s.outboxTopic = topic
	}
}

func WithPaginationMaxSize(n int) Option {
	return func(s *service) { s.maxPageSize = n }
}

type service struct {
	db       *sql.DB
	repo     Repository
	balances leavebalance.Repository
	logger   *zap.Logger
	holidays dateutil.HolidaySet

	dispatcher         CalendarDispatcher
	failOnEnqueueError bool
	outbox             kafka.OutboxRepository
	outboxTopic        string
	maxPageSize        int
}

func NewService(db *sql.DB, repo Repository, balances leavebalance.Repository, opts ...Option) Service {
	s := &service{
		db:          db,
		repo:        repo,
		balances:    balances,
		logger:      zap.L().Named("leave.service"),
		maxPageSize: pagination.MaxSize,
		outboxTopic: events.CalendarSyncRequestedTopic,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *service) Create(ctx context.Context, actor identity.AuthenticatedUser, req CreateLeaveRequest) (LeaveResponse, error) {
	s.log(ctx).Debug("create leave requested",
		zap.String("user_id", actor.UserID.String()),
		zap.String("policy_id", req.PolicyID),
		zap.String("start_date", req.StartDate),
		zap.String("end_date", req.EndDate),
		zap.Bool("half_day", req.HalfDay),
	)

	policyID, err := uuid.Parse(req.PolicyID)
	if err != nil {
		return LeaveResponse{}, leaveerrors.ErrPolicyNotFound
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.log(ctx).Error("create leave begin tx failed", zap.Error(err))
		return LeaveResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)
	btx := s.balances.WithTx(tx)

	policy, err := btx.FindPolicyByID(ctx, policyID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return LeaveResponse{}, leaveerrors.ErrPolicyNotFound
		}
		s.log(ctx).Error("create leave policy lookup failed", zap.Error(err))
		return LeaveResponse{}, err
	}
	if !policy.IsActive {
		s.log(ctx).Warn("create leave inactive policy", zap.String("policy_id", policyID.String()))
		return LeaveResponse{}, leaveerrors.ErrPolicyNotFound
	}

	startDate, endDate, days, err := s.validateRange(req)
	if err != nil {
		s.log(ctx).Warn("create leave validation failed", zap.Error(err))
		return LeaveResponse{}, err
	}

	year := startDate.Year()
	balance, err := s.lockBalance(ctx, btx, actor.UserID, policyID, year)
	if err != nil {
		return LeaveResponse{}, err
	}
	if balance.BalanceDays.LessThan(days) {
		s.log(ctx).Warn("create leave insufficient balance",
			zap.String("user_id", actor.UserID.String()),
			zap.String("available", balance.BalanceDays.String()),
			zap.String("requested", days.String()),
		)
		return LeaveResponse{}, insufficientBalance(balance.BalanceDays, days)
	}

	overlap, err := qtx.HasOverlap(ctx, actor.UserID, policyID, startDate, endDate, nil)
	if err != nil {
		s.log(ctx).Error("create leave overlap check failed", zap.Error(err))
		return LeaveResponse{}, err
	}
	if overlap {
		s.log(ctx).Warn("create leave overlap detected",
			zap.String("user_id", actor.UserID.String()),
			zap.String("start_date", req.StartDate),
			zap.String("end_date", req.EndDate),
		)
		return LeaveResponse{}, leaveerrors.ErrLeaveOverlap
	}

	now := time.Now().UTC()
	l := &LeaveRequest{
		ID:            uuid.New(),
		UserID:        actor.UserID,
		UserEmail:     actor.Email,
		UserName:      actor.DisplayName,
		PolicyID:      policyID,
		Status:        StatusPending,
		StartDate:     startDate,
		EndDate:       endDate,
		HalfDay:       req.HalfDay,
		Reason:        req.Reason,
		DaysRequested: days,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := qtx.Create(ctx, l); err != nil {
		s.log(ctx).Error("create leave persist failed", zap.Error(err))
		return LeaveResponse{}, err
	}

	if err := tx.Commit(); err != nil {
		s.log(ctx).Error("create leave commit failed", zap.Error(err))
		return LeaveResponse{}, err
	}
	s.log(ctx).Info("create leave success",
		zap.String("leave_id", l.ID.String()),
		zap.String("user_id", actor.UserID.String()),
		zap.String("days", days.String()),
	)

	l.Policy = policy
	return mapToResponse(*l), nil
}

func (s *service) validateRange(req CreateLeaveRequest) (time.Time, time.Time, decimal.Decimal, error) {
	startDate, err := dateutil.ParseDate(req.StartDate)
	if err != nil {
		return time.Time{}, time.Time{}, decimal.Zero, leaveerrors.ErrInvalidDate
	}
	endDate, err := dateutil.ParseDate(req.EndDate)
	if err != nil {
		return time.Time{}, time.Time{}, decimal.Zero, leaveerrors.ErrInvalidDate
	}
	if endDate.Before(startDate) {
		return time.Time{}, time.Time{}, decimal.Zero, leaveerrors.ErrInvalidDateRange
	}
	if req.HalfDay && !startDate.Equal(endDate) {
		return time.Time{}, time.Time{}, decimal.Zero, leaveerrors.ErrHalfDayInvalid
	}

	days, err := dateutil.LeaveDays(startDate, endDate, req.HalfDay, s.holidays)
	if err != nil {
		return time.Time{}, time.Time{}, decimal.Zero, leaveerrors.ErrInvalidDateRange
	}
	if !days.IsPositive() {
		return time.Time{}, time.Time{}, decimal.Zero, leaveerrors.ErrLeaveDurationInvalid
	}
	return startDate, endDate, days, nil
}

// lockBalance seeds the ledger for year when needed and returns the balance
// row locked for the rest of the transaction.
func (s *service) lockBalance(ctx context.Context, btx leavebalance.Repository, userID, policyID uuid.UUID, year int) (*leavebalance.LeaveBalance, error) {
	balance, err := btx.FindForUpdate(ctx, userID, policyID, year)
	if err == nil {
		return balance, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		s.log(ctx).Error("balance lock failed", zap.Error(err))
		return nil, err
	}

	if err := leavebalance.EnsureSeeded(ctx, btx, userID, year); err != nil {
		s.log(ctx).Error("balance seed failed", zap.String("user_id", userID.String()), zap.Int("year", year), zap.Error(err))
		return nil, err
	}
	balance, err = btx.FindForUpdate(ctx, userID, policyID, year)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, leaveerrors.ErrPolicyNotFound
		}
		s.log(ctx).Error("balance lock after seed failed", zap.Error(err))
		return nil, err
	}
	return balance, nil
}

func insufficientBalance(available, requested decimal.Decimal) error {
	return leaveerrors.ErrInsufficientBalance.WithDetails(map[string]any{
		"available": available.String(),
		"requested": requested.String(),
	})
}

func (s *service) UpdateStatus(ctx context.Context, actor identity.AuthenticatedUser, id string, req UpdateLeaveStatusRequest) (LeaveResponse, error) {
	s.log(ctx).Debug("update leave status requested",
		zap.String("leave_id", id),
		zap.String("actor_id", actor.UserID.String()),
		zap.String("action", req.Action),
	)

	leaveID, err := uuid.Parse(id)
	if err != nil {
		return LeaveResponse{}, leaveerrors.ErrLeaveNotFound
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.log(ctx).Error("update leave status begin tx failed", zap.Error(err))
		return LeaveResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)
	btx := s.balances.WithTx(tx)

	l, err := qtx.FindByIDForUpdate(ctx, leaveID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return LeaveResponse{}, leaveerrors.ErrLeaveNotFound
		}
		s.log(ctx).Error("update leave status lookup failed", zap.Error(err))
		return LeaveResponse{}, err
	}

	if !canAct(actor, l, req.Action) {
		s.log(ctx).Warn("update leave status forbidden",
			zap.String("leave_id", id),
			zap.String("actor_id", actor.UserID.String()),
			zap.String("action", req.Action),
		)
		return LeaveResponse{}, apperror.ErrForbidden
	}

	next, err := nextStatus(l.Status, req.Action)
	if err != nil {
		s.log(ctx).Warn("update leave status rejected",
			zap.String("leave_id", id),
			zap.String("status", l.Status),
			zap.String("action", req.Action),
		)
		return LeaveResponse{}, err
	}
	if next == l.Status {
		s.log(ctx).Info("update leave status no-op", zap.String("leave_id", id), zap.String("status", l.Status))
		return s.reload(ctx, l)
	}

	year := l.StartDate.Year()
	switch {
	case next == StatusApproved:
		if err := s.debit(ctx, qtx, btx, l, year); err != nil {
			return LeaveResponse{}, err
		}
	case l.Status == StatusApproved && next == StatusCancelled:
		if err := btx.Adjust(ctx, l.UserID, l.PolicyID, year, l.DaysRequested); err != nil {
			s.log(ctx).Error("leave credit failed", zap.String("leave_id", id), zap.Error(err))
			return LeaveResponse{}, err
		}
	}

	if err := qtx.UpdateStatus(ctx, l.ID, next); err != nil {
		s.log(ctx).Error("update leave status persist failed", zap.Error(err))
		return LeaveResponse{}, err
	}
	if err := qtx.CreateAudit(ctx, &LeaveAudit{
		ID:         uuid.New(),
		RequestID:  l.ID,
		Action:     req.Action,
		FromStatus: l.Status,
		ToStatus:   next,
		ActorID:    actor.UserID,
		Notes:      req.Notes,
		CreatedAt:  time.Now().UTC(),
	}); err != nil {
		s.log(ctx).Error("leave audit persist failed", zap.Error(err))
		return LeaveResponse{}, err
	}

	if next == StatusApproved && s.outbox != nil {
		if err := s.queueOutbox(ctx, tx, l.ID.String()); err != nil {
			return LeaveResponse{}, err
		}
	}

	if err := tx.Commit(); err != nil {
		s.log(ctx).Error("update leave status commit failed", zap.Error(err))
		return LeaveResponse{}, err
	}
	s.log(ctx).Info("update leave status success",
		zap.String("leave_id", id),
		zap.String("from", l.Status),
		zap.String("to", next),
		zap.String("actor_id", actor.UserID.String()),
	)

	l.Status = next
	if next == StatusApproved && s.outbox == nil && s.dispatcher != nil {
		if err := s.dispatcher.EnqueueCalendarSync(ctx, l.ID.String()); err != nil {
			if s.failOnEnqueueError {
				s.log(ctx).Error("calendar sync enqueue failed", zap.String("leave_id", id), zap.Error(err))
				return LeaveResponse{}, leaveerrors.ErrCalendarSyncEnqueueFailed.WithCause(err)
			}
			s.log(ctx).Warn("calendar sync enqueue failed, ignored", zap.String("leave_id", id), zap.Error(err))
		}
	}

	return s.reload(ctx, l)
}

func (s *service) debit(ctx context.Context, qtx Repository, btx leavebalance.Repository, l *LeaveRequest, year int) error {
	balance, err := s.lockBalance(ctx, btx, l.UserID, l.PolicyID, year)
	if err != nil {
		return err
	}
	if balance.BalanceDays.LessThan(l.DaysRequested) {
		s.log(ctx).Warn("approve leave insufficient balance",
			zap.String("leave_id", l.ID.String()),
			zap.String("available", balance.BalanceDays.String()),
			zap.String("requested", l.DaysRequested.String()),
		)
		return insufficientBalance(balance.BalanceDays, l.DaysRequested)
	}

	overlap, err := qtx.HasOverlap(ctx, l.UserID, l.PolicyID, l.StartDate, l.EndDate, &l.ID)
	if err != nil {
		s.log(ctx).Error("approve leave overlap check failed", zap.Error(err))
		return err
	}
	if overlap {
		return leaveerrors.ErrLeaveOverlap
	}

	if err := btx.Adjust(ctx, l.UserID, l.PolicyID, year, l.DaysRequested.Neg()); err != nil {
		s.log(ctx).Error("leave debit failed", zap.String("leave_id", l.ID.String()), zap.Error(err))
		return err
	}
	return nil
}

func (s *service) queueOutbox(ctx context.Context, tx *sql.Tx, leaveID string) error {
	payload, err := json.Marshal(events.NewCalendarSyncRequested(leaveID))
	if err != nil {
		return err
	}
	if err := s.outbox.WithTx(tx).Create(ctx, kafka.OutboxEvent{
		ID:            uuid.NewString(),
		RequestID:     contextutil.GetRequestID(ctx),
		AggregateType: "leave_request",
		AggregateID:   leaveID,
		EventType:     events.CalendarSyncRequestedType,
		Topic:         s.outboxTopic,
		Payload:       payload,
		Status:        kafka.OutboxStatusPending,
	}); err != nil {
		s.log(ctx).Error("calendar sync outbox persist failed", zap.String("leave_id", leaveID), zap.Error(err))
		return err
	}
	return nil
}

// reload returns the committed row with its policy. It falls back to the
// in-memory copy when the read fails after commit.
func (s *service) reload(ctx context.Context, l *LeaveRequest) (LeaveResponse, error) {
	fresh, err := s.repo.FindByID(ctx, l.ID)
	if err != nil {
		s.log(ctx).Warn("leave reload failed", zap.String("leave_id", l.ID.String()), zap.Error(err))
		return mapToResponse(*l), nil
	}
	return mapToResponse(*fresh), nil
}

func canAct(actor identity.AuthenticatedUser, l *LeaveRequest, action string) bool {
	if actor.IsAdmin() {
		return true
	}
	return action == ActionCancel && l.UserID == actor.UserID
}

// nextStatus applies the transition table. Returning the current status
// means the action is an accepted no-op.
func nextStatus(current, action string) (string, error) {
	switch current {
	case StatusRejected:
		return "", leaveerrors.ErrAlreadyRejected
	case StatusCancelled:
		return "", leaveerrors.ErrAlreadyCancelled
	case StatusPending:
		switch action {
		case ActionApprove:
			return StatusApproved, nil
		case ActionReject:
			return StatusRejected, nil
		case ActionCancel:
			return StatusCancelled, nil
		}
	case StatusApproved:
		switch action {
		case ActionApprove:
			return StatusApproved, nil
		case ActionCancel:
			return StatusCancelled, nil
		}
	}
	return "", leaveerrors.ErrInvalidState
}

func (s *service) GetByID(ctx context.Context, actor identity.AuthenticatedUser, id string) (LeaveResponse, error) {
	leaveID, err := uuid.Parse(id)
	if err != nil {
		return LeaveResponse{}, leaveerrors.ErrLeaveNotFound
	}

	l, err := s.repo.FindByID(ctx, leaveID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return LeaveResponse{}, leaveerrors.ErrLeaveNotFound
		}
		s.log(ctx).Error("get leave failed", zap.Error(err))
		return LeaveResponse{}, err
	}
	if l.UserID != actor.UserID && !actor.IsAdmin() {
		return LeaveResponse{}, apperror.ErrForbidden
	}
	return mapToResponse(*l), nil
}

func (s *service) List(ctx context.Context, actor identity.AuthenticatedUser, q ListLeaveQuery) (LeaveListResponse, error) {
	page, err := pagination.Parse(q.Page, q.Size, q.Sort, pagination.Options{
		MaxSize:     s.maxPageSize,
		SortFields:  listSortFields,
		DefaultSort: "created_at",
		DefaultDesc: true,
	})
	if err != nil {
		return LeaveListResponse{}, err
	}

	filter, err := buildFilter(actor, q)
	if err != nil {
		return LeaveListResponse{}, err
	}

	rows, total, err := s.repo.List(ctx, filter, page)
	if err != nil {
		s.log(ctx).Error("list leave failed", zap.Error(err))
		return LeaveListResponse{}, err
	}

	items := make([]LeaveResponse, len(rows))
	for i, l := range rows {
		items[i] = mapToResponse(l)
	}
	return LeaveListResponse{Items: items, Page: page.Page, Size: page.Size, Total: total}, nil
}

func buildFilter(actor identity.AuthenticatedUser, q ListLeaveQuery) (ListFilter, error) {
	var f ListFilter

	switch q.Status {
	case "":
	case StatusPending, StatusApproved, StatusRejected, StatusCancelled:
		f.Status = q.Status
	default:
		return ListFilter{}, leaveerrors.ErrInvalidStatusFilter
	}

	if q.StartDate != "" {
		d, err := dateutil.ParseDate(q.StartDate)
		if err != nil {
			return ListFilter{}, leaveerrors.ErrInvalidDate
		}
		f.StartFrom = &d
	}
	if q.EndDate != "" {
		d, err := dateutil.ParseDate(q.EndDate)
		if err != nil {
			return ListFilter{}, leaveerrors.ErrInvalidDate
		}
		f.EndUntil = &d
	}

	if !actor.IsAdmin() {
		uid := actor.UserID
		f.UserID = &uid
		return f, nil
	}
	if q.UserID != "" {
		uid, err := uuid.Parse(q.UserID)
		if err != nil {
			return ListFilter{}, leaveerrors.ErrInvalidUserFilter
		}
		f.UserID = &uid
	}
	return f, nil
}

func mapToResponse(l LeaveRequest) LeaveResponse {
	resp := LeaveResponse{
		ID:                      l.ID.String(),
		UserID:                  l.UserID.String(),
		UserEmail:               l.UserEmail,
		UserName:                l.UserName,
		PolicyID:                l.PolicyID.String(),
		Status:                  l.Status,
		StartDate:               dateutil.FormatDate(l.StartDate),
		EndDate:                 dateutil.FormatDate(l.EndDate),
		HalfDay:                 l.HalfDay,
		Reason:                  l.Reason,
		DaysRequested:           l.DaysRequested.StringFixed(1),
		ExternalCalendarEventID: l.ExternalCalendarEventID,
		CreatedAt:               l.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:               l.UpdatedAt.UTC().Format(time.RFC3339),
	}
	if l.Policy != nil {
		resp.PolicyName = l.Policy.Name
	}
	return resp
}

// log tags the service logger with the caller's request and user ids.
func (s *service) log(ctx context.Context) *zap.Logger {
	return s.logger.With(contextutil.LogFields(ctx)...)
}
