package leave_test

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"testing"
	"time"

	"go-leave/internal/identity"
	"go-leave/internal/leave"
	leaveerrors "go-leave/internal/leave/errors"
	leavemock "go-leave/internal/leave/mock"
	"go-leave/internal/leavebalance"
	"go-leave/internal/messaging/kafka"
	kafkamock "go-leave/internal/messaging/kafka/mock"
	"go-leave/internal/shared/apperror"
	"go-leave/internal/shared/dateutil"
	"go-leave/internal/shared/pagination"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"
	"gorm.io/gorm"
)

type fakeLeaveRepository struct {
	mu       sync.Mutex
	requests map[uuid.UUID]leave.LeaveRequest
	audits   []leave.LeaveAudit
	listFn   func(filter leave.ListFilter, page pagination.Params) ([]leave.LeaveRequest, int64, error)
}

func newFakeLeaveRepository() *fakeLeaveRepository {
	return &fakeLeaveRepository{requests: map[uuid.UUID]leave.LeaveRequest{}}
}

func (f *fakeLeaveRepository) WithTx(tx *sql.Tx) leave.Repository { return f }

func (f *fakeLeaveRepository) Create(ctx context.Context, l *leave.LeaveRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests[l.ID] = *l
	return nil
}

func (f *fakeLeaveRepository) FindByID(ctx context.Context, id uuid.UUID) (*leave.LeaveRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	l, ok := f.requests[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &l, nil
}

func (f *fakeLeaveRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*leave.LeaveRequest, error) {
	return f.FindByID(ctx, id)
}

func (f *fakeLeaveRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	l, ok := f.requests[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	l.Status = status
	f.requests[id] = l
	return nil
}

func (f *fakeLeaveRepository) SetExternalEventID(ctx context.Context, id uuid.UUID, eventID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	l := f.requests[id]
	l.ExternalCalendarEventID = &eventID
	f.requests[id] = l
	return nil
}

func (f *fakeLeaveRepository) HasOverlap(ctx context.Context, userID, policyID uuid.UUID, startDate, endDate time.Time, excludeID *uuid.UUID) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for id, l := range f.requests {
		if excludeID != nil && id == *excludeID {
			continue
		}
		if l.UserID != userID || l.PolicyID != policyID {
			continue
		}
		if l.Status != leave.StatusPending && l.Status != leave.StatusApproved {
			continue
		}
		if !l.EndDate.Before(startDate) && !endDate.Before(l.StartDate) {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeLeaveRepository) CreateAudit(ctx context.Context, a *leave.LeaveAudit) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.audits = append(f.audits, *a)
	return nil
}

func (f *fakeLeaveRepository) List(ctx context.Context, filter leave.ListFilter, page pagination.Params) ([]leave.LeaveRequest, int64, error) {
	if f.listFn != nil {
		return f.listFn(filter, page)
	}
	return nil, 0, nil
}

type ledgerKey struct {
	user   uuid.UUID
	policy uuid.UUID
	year   int
}

type fakeLedger struct {
	mu       sync.Mutex
	policies []leavebalance.LeavePolicy
	balances map[ledgerKey]decimal.Decimal
}

func newFakeLedger(policies ...leavebalance.LeavePolicy) *fakeLedger {
	return &fakeLedger{policies: policies, balances: map[ledgerKey]decimal.Decimal{}}
}

func (f *fakeLedger) WithTx(tx *sql.Tx) leavebalance.Repository { return f }

func (f *fakeLedger) FindActivePolicies(ctx context.Context) ([]leavebalance.LeavePolicy, error) {
	var out []leavebalance.LeavePolicy
	for _, p := range f.policies {
		if p.IsActive {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeLedger) FindPolicyByID(ctx context.Context, id uuid.UUID) (*leavebalance.LeavePolicy, error) {
	for _, p := range f.policies {
		if p.ID == id {
			p := p
			return &p, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeLedger) SeedDefaults(ctx context.Context, userID uuid.UUID, year int, policies []leavebalance.LeavePolicy) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range policies {
		k := ledgerKey{userID, p.ID, year}
		if _, ok := f.balances[k]; !ok {
			f.balances[k] = p.AnnualLimit
		}
	}
	return nil
}

func (f *fakeLedger) FindByUserAndYear(ctx context.Context, userID uuid.UUID, year int) ([]leavebalance.LeaveBalance, error) {
	return nil, nil
}

func (f *fakeLedger) FindForUpdate(ctx context.Context, userID, policyID uuid.UUID, year int) (*leavebalance.LeaveBalance, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.balances[ledgerKey{userID, policyID, year}]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &leavebalance.LeaveBalance{UserID: userID, PolicyID: policyID, Year: year, BalanceDays: v}, nil
}

func (f *fakeLedger) Adjust(ctx context.Context, userID, policyID uuid.UUID, year int, delta decimal.Decimal) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	k := ledgerKey{userID, policyID, year}
	v, ok := f.balances[k]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	f.balances[k] = v.Add(delta)
	return nil
}

func (f *fakeLedger) balance(userID, policyID uuid.UUID, year int) decimal.Decimal {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.balances[ledgerKey{userID, policyID, year}]
}

func (f *fakeLedger) set(userID, policyID uuid.UUID, year int, days int64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.balances[ledgerKey{userID, policyID, year}] = decimal.NewFromInt(days)
}

type leaveServiceDeps struct {
	db      *sql.DB
	sqlMock sqlmock.Sqlmock
	repo    *fakeLeaveRepository
	ledger  *fakeLedger
	policy  leavebalance.LeavePolicy
}

func setupLeaveServiceTest(t *testing.T, limit int64) *leaveServiceDeps {
	t.Helper()

	db, sqlMock, err := sqlmock.New()
	assert.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	policy := leavebalance.LeavePolicy{
		ID:          uuid.New(),
		Name:        "Annual Leave",
		AnnualLimit: decimal.NewFromInt(limit),
		IsActive:    true,
	}

	return &leaveServiceDeps{
		db:      db,
		sqlMock: sqlMock,
		repo:    newFakeLeaveRepository(),
		ledger:  newFakeLedger(policy),
		policy:  policy,
	}
}

func (d *leaveServiceDeps) service(opts ...leave.Option) leave.Service {
	return leave.NewService(d.db, d.repo, d.ledger, opts...)
}

func expectTx(t *testing.T, mock sqlmock.Sqlmock, commit bool) {
	t.Helper()
	mock.ExpectBegin()
	if commit {
		mock.ExpectCommit()
	} else {
		mock.ExpectRollback()
	}
}

func employee() identity.AuthenticatedUser {
	return identity.AuthenticatedUser{
		UserID:      uuid.New(),
		Roles:       []identity.Role{identity.RoleEmployee},
		Email:       "jane@example.com",
		DisplayName: "Jane Doe",
	}
}

func admin() identity.AuthenticatedUser {
	return identity.AuthenticatedUser{
		UserID: uuid.New(),
		Roles:  []identity.Role{identity.RoleAdmin},
		Email:  "boss@example.com",
	}
}

func TestLeaveService_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("success counts working days and seeds ledger", func(t *testing.T) {
		deps := setupLeaveServiceTest(t, 20)
		user := employee()
		expectTx(t, deps.sqlMock, true)

		resp, err := deps.service().Create(ctx, user, leave.CreateLeaveRequest{
			PolicyID:  deps.policy.ID.String(),
			StartDate: "2025-03-10",
			EndDate:   "2025-03-12",
		})

		assert.NoError(t, err)
		assert.Equal(t, leave.StatusPending, resp.Status)
		assert.Equal(t, "3.0", resp.DaysRequested)
		assert.Equal(t, "2025-03-10", resp.StartDate)
		assert.Equal(t, "jane@example.com", resp.UserEmail)
		assert.Equal(t, "Annual Leave", resp.PolicyName)
		assert.True(t, deps.ledger.balance(user.UserID, deps.policy.ID, 2025).Equal(decimal.NewFromInt(20)))
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("half day counts as half", func(t *testing.T) {
		deps := setupLeaveServiceTest(t, 20)
		expectTx(t, deps.sqlMock, true)

		resp, err := deps.service().Create(ctx, employee(), leave.CreateLeaveRequest{
			PolicyID:  deps.policy.ID.String(),
			StartDate: "2025-03-10",
			EndDate:   "2025-03-10",
			HalfDay:   true,
		})

		assert.NoError(t, err)
		assert.Equal(t, "0.5", resp.DaysRequested)
		assert.True(t, resp.HalfDay)
	})

	t.Run("holidays are not counted", func(t *testing.T) {
		deps := setupLeaveServiceTest(t, 20)
		expectTx(t, deps.sqlMock, true)
		holidays, err := dateutil.ParseHolidays("2025-03-11")
		assert.NoError(t, err)

		resp, err := deps.service(leave.WithHolidays(holidays)).Create(ctx, employee(), leave.CreateLeaveRequest{
			PolicyID:  deps.policy.ID.String(),
			StartDate: "2025-03-10",
			EndDate:   "2025-03-12",
		})

		assert.NoError(t, err)
		assert.Equal(t, "2.0", resp.DaysRequested)
	})

	t.Run("negative half day across dates", func(t *testing.T) {
		deps := setupLeaveServiceTest(t, 20)
		expectTx(t, deps.sqlMock, false)

		_, err := deps.service().Create(ctx, employee(), leave.CreateLeaveRequest{
			PolicyID:  deps.policy.ID.String(),
			StartDate: "2025-03-10",
			EndDate:   "2025-03-11",
			HalfDay:   true,
		})

		assert.ErrorIs(t, err, leaveerrors.ErrHalfDayInvalid)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("negative date validation", func(t *testing.T) {
		cases := []struct {
			name  string
			start string
			end   string
			want  error
		}{
			{"bad start", "10/03/2025", "2025-03-11", leaveerrors.ErrInvalidDate},
			{"bad end", "2025-03-10", "2025-02-30", leaveerrors.ErrInvalidDate},
			{"end before start", "2025-03-12", "2025-03-10", leaveerrors.ErrInvalidDateRange},
			{"weekend only", "2025-03-15", "2025-03-16", leaveerrors.ErrLeaveDurationInvalid},
		}
		for _, tc := range cases {
			t.Run(tc.name, func(t *testing.T) {
				deps := setupLeaveServiceTest(t, 20)
				expectTx(t, deps.sqlMock, false)

				_, err := deps.service().Create(ctx, employee(), leave.CreateLeaveRequest{
					PolicyID:  deps.policy.ID.String(),
					StartDate: tc.start,
					EndDate:   tc.end,
				})

				assert.ErrorIs(t, err, tc.want)
			})
		}
	})

	t.Run("negative unknown policy", func(t *testing.T) {
		deps := setupLeaveServiceTest(t, 20)
		expectTx(t, deps.sqlMock, false)

		_, err := deps.service().Create(ctx, employee(), leave.CreateLeaveRequest{
			PolicyID:  uuid.NewString(),
			StartDate: "2025-03-10",
			EndDate:   "2025-03-10",
		})

		assert.ErrorIs(t, err, leaveerrors.ErrPolicyNotFound)
	})

	t.Run("negative inactive policy", func(t *testing.T) {
		deps := setupLeaveServiceTest(t, 20)
		deps.ledger.policies[0].IsActive = false
		expectTx(t, deps.sqlMock, false)

		_, err := deps.service().Create(ctx, employee(), leave.CreateLeaveRequest{
			PolicyID:  deps.policy.ID.String(),
			StartDate: "2025-03-10",
			EndDate:   "2025-03-10",
		})

		assert.ErrorIs(t, err, leaveerrors.ErrPolicyNotFound)
	})

	t.Run("negative insufficient balance carries details", func(t *testing.T) {
		deps := setupLeaveServiceTest(t, 2)
		expectTx(t, deps.sqlMock, false)

		_, err := deps.service().Create(ctx, employee(), leave.CreateLeaveRequest{
			PolicyID:  deps.policy.ID.String(),
			StartDate: "2025-03-10",
			EndDate:   "2025-03-12",
		})

		assert.ErrorIs(t, err, leaveerrors.ErrInsufficientBalance)
		var appErr *apperror.AppError
		assert.True(t, errors.As(err, &appErr))
		assert.Equal(t, map[string]any{"available": "2", "requested": "3"}, appErr.Details)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("negative overlap with pending request", func(t *testing.T) {
		deps := setupLeaveServiceTest(t, 20)
		user := employee()
		svc := deps.service()
		expectTx(t, deps.sqlMock, true)
		expectTx(t, deps.sqlMock, false)

		_, err := svc.Create(ctx, user, leave.CreateLeaveRequest{
			PolicyID:  deps.policy.ID.String(),
			StartDate: "2025-03-10",
			EndDate:   "2025-03-12",
		})
		assert.NoError(t, err)

		_, err = svc.Create(ctx, user, leave.CreateLeaveRequest{
			PolicyID:  deps.policy.ID.String(),
			StartDate: "2025-03-12",
			EndDate:   "2025-03-14",
		})
		assert.ErrorIs(t, err, leaveerrors.ErrLeaveOverlap)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})
}

// createPending stores a PENDING request without going through Create.
func createPending(deps *leaveServiceDeps, owner identity.AuthenticatedUser, start, end string, days int64) uuid.UUID {
	s, _ := dateutil.ParseDate(start)
	e, _ := dateutil.ParseDate(end)
	id := uuid.New()
	deps.repo.requests[id] = leave.LeaveRequest{
		ID:            id,
		UserID:        owner.UserID,
		UserEmail:     owner.Email,
		PolicyID:      deps.policy.ID,
		Status:        leave.StatusPending,
		StartDate:     s,
		EndDate:       e,
		DaysRequested: decimal.NewFromInt(days),
	}
	return id
}

func TestLeaveService_UpdateStatus(t *testing.T) {
	ctx := context.Background()

	t.Run("approve then cancel conserves balance", func(t *testing.T) {
		deps := setupLeaveServiceTest(t, 20)
		ctrl := gomock.NewController(t)
		dispatcher := leavemock.NewMockCalendarDispatcher(ctrl)
		user := employee()
		deps.ledger.set(user.UserID, deps.policy.ID, 2025, 10)
		id := createPending(deps, user, "2025-03-10", "2025-03-12", 3)

		dispatcher.EXPECT().EnqueueCalendarSync(gomock.Any(), id.String()).Return(nil).Times(1)
		svc := deps.service(leave.WithCalendarSync(dispatcher, true))

		expectTx(t, deps.sqlMock, true)
		resp, err := svc.UpdateStatus(ctx, admin(), id.String(), leave.UpdateLeaveStatusRequest{Action: leave.ActionApprove})
		assert.NoError(t, err)
		assert.Equal(t, leave.StatusApproved, resp.Status)
		assert.True(t, deps.ledger.balance(user.UserID, deps.policy.ID, 2025).Equal(decimal.NewFromInt(7)))

		expectTx(t, deps.sqlMock, true)
		resp, err = svc.UpdateStatus(ctx, user, id.String(), leave.UpdateLeaveStatusRequest{Action: leave.ActionCancel})
		assert.NoError(t, err)
		assert.Equal(t, leave.StatusCancelled, resp.Status)
		assert.True(t, deps.ledger.balance(user.UserID, deps.policy.ID, 2025).Equal(decimal.NewFromInt(10)))

		assert.Len(t, deps.repo.audits, 2)
		assert.Equal(t, leave.StatusPending, deps.repo.audits[0].FromStatus)
		assert.Equal(t, leave.StatusApproved, deps.repo.audits[0].ToStatus)
		assert.Equal(t, leave.ActionCancel, deps.repo.audits[1].Action)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("second approve is a no-op", func(t *testing.T) {
		deps := setupLeaveServiceTest(t, 20)
		ctrl := gomock.NewController(t)
		dispatcher := leavemock.NewMockCalendarDispatcher(ctrl)
		user := employee()
		deps.ledger.set(user.UserID, deps.policy.ID, 2025, 10)
		id := createPending(deps, user, "2025-03-10", "2025-03-12", 3)

		dispatcher.EXPECT().EnqueueCalendarSync(gomock.Any(), id.String()).Return(nil).Times(1)
		svc := deps.service(leave.WithCalendarSync(dispatcher, true))

		expectTx(t, deps.sqlMock, true)
		_, err := svc.UpdateStatus(ctx, admin(), id.String(), leave.UpdateLeaveStatusRequest{Action: leave.ActionApprove})
		assert.NoError(t, err)

		expectTx(t, deps.sqlMock, false)
		resp, err := svc.UpdateStatus(ctx, admin(), id.String(), leave.UpdateLeaveStatusRequest{Action: leave.ActionApprove})
		assert.NoError(t, err)
		assert.Equal(t, leave.StatusApproved, resp.Status)
		assert.True(t, deps.ledger.balance(user.UserID, deps.policy.ID, 2025).Equal(decimal.NewFromInt(7)))
		assert.Len(t, deps.repo.audits, 1)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("pending reject does not touch balance", func(t *testing.T) {
		deps := setupLeaveServiceTest(t, 20)
		user := employee()
		deps.ledger.set(user.UserID, deps.policy.ID, 2025, 10)
		id := createPending(deps, user, "2025-03-10", "2025-03-12", 3)
		notes := "team coverage"

		expectTx(t, deps.sqlMock, true)
		resp, err := deps.service().UpdateStatus(ctx, admin(), id.String(), leave.UpdateLeaveStatusRequest{Action: leave.ActionReject, Notes: &notes})

		assert.NoError(t, err)
		assert.Equal(t, leave.StatusRejected, resp.Status)
		assert.True(t, deps.ledger.balance(user.UserID, deps.policy.ID, 2025).Equal(decimal.NewFromInt(10)))
		assert.Equal(t, &notes, deps.repo.audits[0].Notes)
	})

	t.Run("negative transitions", func(t *testing.T) {
		cases := []struct {
			name    string
			current string
			action  string
			want    error
		}{
			{"rejected approve", leave.StatusRejected, leave.ActionApprove, leaveerrors.ErrAlreadyRejected},
			{"rejected cancel", leave.StatusRejected, leave.ActionCancel, leaveerrors.ErrAlreadyRejected},
			{"cancelled approve", leave.StatusCancelled, leave.ActionApprove, leaveerrors.ErrAlreadyCancelled},
			{"cancelled reject", leave.StatusCancelled, leave.ActionReject, leaveerrors.ErrAlreadyCancelled},
			{"cancelled cancel", leave.StatusCancelled, leave.ActionCancel, leaveerrors.ErrAlreadyCancelled},
			{"approved reject", leave.StatusApproved, leave.ActionReject, leaveerrors.ErrInvalidState},
		}
		for _, tc := range cases {
			t.Run(tc.name, func(t *testing.T) {
				deps := setupLeaveServiceTest(t, 20)
				user := employee()
				id := createPending(deps, user, "2025-03-10", "2025-03-12", 3)
				l := deps.repo.requests[id]
				l.Status = tc.current
				deps.repo.requests[id] = l
				expectTx(t, deps.sqlMock, false)

				_, err := deps.service().UpdateStatus(ctx, admin(), id.String(), leave.UpdateLeaveStatusRequest{Action: tc.action})

				assert.ErrorIs(t, err, tc.want)
				assert.Equal(t, tc.current, deps.repo.requests[id].Status)
				assert.Empty(t, deps.repo.audits)
			})
		}
	})

	t.Run("negative employee cannot approve", func(t *testing.T) {
		deps := setupLeaveServiceTest(t, 20)
		user := employee()
		id := createPending(deps, user, "2025-03-10", "2025-03-12", 3)
		expectTx(t, deps.sqlMock, false)

		_, err := deps.service().UpdateStatus(ctx, user, id.String(), leave.UpdateLeaveStatusRequest{Action: leave.ActionApprove})

		assert.ErrorIs(t, err, apperror.ErrForbidden)
	})

	t.Run("negative employee cannot cancel someone else's request", func(t *testing.T) {
		deps := setupLeaveServiceTest(t, 20)
		id := createPending(deps, employee(), "2025-03-10", "2025-03-12", 3)
		expectTx(t, deps.sqlMock, false)

		_, err := deps.service().UpdateStatus(ctx, employee(), id.String(), leave.UpdateLeaveStatusRequest{Action: leave.ActionCancel})

		assert.ErrorIs(t, err, apperror.ErrForbidden)
	})

	t.Run("negative approve re-checks balance", func(t *testing.T) {
		deps := setupLeaveServiceTest(t, 20)
		user := employee()
		deps.ledger.set(user.UserID, deps.policy.ID, 2025, 2)
		id := createPending(deps, user, "2025-03-10", "2025-03-12", 3)
		expectTx(t, deps.sqlMock, false)

		_, err := deps.service().UpdateStatus(ctx, admin(), id.String(), leave.UpdateLeaveStatusRequest{Action: leave.ActionApprove})

		assert.ErrorIs(t, err, leaveerrors.ErrInsufficientBalance)
		assert.Equal(t, leave.StatusPending, deps.repo.requests[id].Status)
		assert.True(t, deps.ledger.balance(user.UserID, deps.policy.ID, 2025).Equal(decimal.NewFromInt(2)))
	})

	t.Run("negative approve re-checks overlap", func(t *testing.T) {
		deps := setupLeaveServiceTest(t, 20)
		user := employee()
		first := createPending(deps, user, "2025-03-10", "2025-03-12", 3)
		l := deps.repo.requests[first]
		l.Status = leave.StatusApproved
		deps.repo.requests[first] = l
		id := createPending(deps, user, "2025-03-12", "2025-03-13", 2)
		expectTx(t, deps.sqlMock, false)

		_, err := deps.service().UpdateStatus(ctx, admin(), id.String(), leave.UpdateLeaveStatusRequest{Action: leave.ActionApprove})

		assert.ErrorIs(t, err, leaveerrors.ErrLeaveOverlap)
	})

	t.Run("negative unknown id", func(t *testing.T) {
		deps := setupLeaveServiceTest(t, 20)
		expectTx(t, deps.sqlMock, false)

		_, err := deps.service().UpdateStatus(ctx, admin(), uuid.NewString(), leave.UpdateLeaveStatusRequest{Action: leave.ActionApprove})
		assert.ErrorIs(t, err, leaveerrors.ErrLeaveNotFound)

		_, err = deps.service().UpdateStatus(ctx, admin(), "not-a-uuid", leave.UpdateLeaveStatusRequest{Action: leave.ActionApprove})
		assert.ErrorIs(t, err, leaveerrors.ErrLeaveNotFound)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("enqueue failure reported after commit", func(t *testing.T) {
		deps := setupLeaveServiceTest(t, 20)
		ctrl := gomock.NewController(t)
		dispatcher := leavemock.NewMockCalendarDispatcher(ctrl)
		user := employee()
		deps.ledger.set(user.UserID, deps.policy.ID, 2025, 10)
		id := createPending(deps, user, "2025-03-10", "2025-03-12", 3)

		dispatcher.EXPECT().EnqueueCalendarSync(gomock.Any(), id.String()).Return(errors.New("broker down"))
		expectTx(t, deps.sqlMock, true)

		_, err := deps.service(leave.WithCalendarSync(dispatcher, true)).
			UpdateStatus(ctx, admin(), id.String(), leave.UpdateLeaveStatusRequest{Action: leave.ActionApprove})

		assert.ErrorIs(t, err, leaveerrors.ErrCalendarSyncEnqueueFailed)
		assert.Equal(t, leave.StatusApproved, deps.repo.requests[id].Status)
		assert.True(t, deps.ledger.balance(user.UserID, deps.policy.ID, 2025).Equal(decimal.NewFromInt(7)))
	})

	t.Run("enqueue failure ignored when configured", func(t *testing.T) {
		deps := setupLeaveServiceTest(t, 20)
		ctrl := gomock.NewController(t)
		dispatcher := leavemock.NewMockCalendarDispatcher(ctrl)
		user := employee()
		deps.ledger.set(user.UserID, deps.policy.ID, 2025, 10)
		id := createPending(deps, user, "2025-03-10", "2025-03-12", 3)

		dispatcher.EXPECT().EnqueueCalendarSync(gomock.Any(), id.String()).Return(errors.New("broker down"))
		expectTx(t, deps.sqlMock, true)

		resp, err := deps.service(leave.WithCalendarSync(dispatcher, false)).
			UpdateStatus(ctx, admin(), id.String(), leave.UpdateLeaveStatusRequest{Action: leave.ActionApprove})

		assert.NoError(t, err)
		assert.Equal(t, leave.StatusApproved, resp.Status)
	})

	t.Run("outbox mode writes event in the approval transaction", func(t *testing.T) {
		deps := setupLeaveServiceTest(t, 20)
		ctrl := gomock.NewController(t)
		outbox := kafkamock.NewMockOutboxRepository(ctrl)
		dispatcher := leavemock.NewMockCalendarDispatcher(ctrl)
		user := employee()
		deps.ledger.set(user.UserID, deps.policy.ID, 2025, 10)
		id := createPending(deps, user, "2025-03-10", "2025-03-12", 3)

		outbox.EXPECT().WithTx(gomock.Any()).Return(outbox)
		outbox.EXPECT().Create(gomock.Any(), gomock.Any()).DoAndReturn(func(ctx context.Context, e kafka.OutboxEvent) error {
			assert.Equal(t, id.String(), e.AggregateID)
			assert.Equal(t, "leave.sync", e.Topic)
			assert.Equal(t, kafka.OutboxStatusPending, e.Status)
			assert.JSONEq(t, `{"requestId":"`+id.String()+`","attempt":1}`, string(e.Payload))
			return nil
		})
		expectTx(t, deps.sqlMock, true)

		resp, err := deps.service(
			leave.WithCalendarSync(dispatcher, true),
			leave.WithOutbox(outbox, "leave.sync"),
		).UpdateStatus(ctx, admin(), id.String(), leave.UpdateLeaveStatusRequest{Action: leave.ActionApprove})

		assert.NoError(t, err)
		assert.Equal(t, leave.StatusApproved, resp.Status)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})
}

func TestLeaveService_GetByID(t *testing.T) {
	ctx := context.Background()
	deps := setupLeaveServiceTest(t, 20)
	owner := employee()
	id := createPending(deps, owner, "2025-03-10", "2025-03-12", 3)
	svc := deps.service()

	resp, err := svc.GetByID(ctx, owner, id.String())
	assert.NoError(t, err)
	assert.Equal(t, id.String(), resp.ID)

	_, err = svc.GetByID(ctx, admin(), id.String())
	assert.NoError(t, err)

	_, err = svc.GetByID(ctx, employee(), id.String())
	assert.ErrorIs(t, err, apperror.ErrForbidden)

	_, err = svc.GetByID(ctx, owner, uuid.NewString())
	assert.ErrorIs(t, err, leaveerrors.ErrLeaveNotFound)
}

func TestLeaveService_List(t *testing.T) {
	ctx := context.Background()

	t.Run("employee is scoped to own requests", func(t *testing.T) {
		deps := setupLeaveServiceTest(t, 20)
		user := employee()
		deps.repo.listFn = func(filter leave.ListFilter, page pagination.Params) ([]leave.LeaveRequest, int64, error) {
			assert.Equal(t, user.UserID, *filter.UserID)
			assert.Equal(t, leave.StatusPending, filter.Status)
			assert.Equal(t, "created_at", page.SortField)
			assert.True(t, page.SortDesc)
			assert.Equal(t, 2, page.Page)
			return []leave.LeaveRequest{{ID: uuid.New(), UserID: user.UserID, Status: leave.StatusPending}}, 26, nil
		}

		resp, err := deps.service().List(ctx, user, leave.ListLeaveQuery{
			Status: leave.StatusPending,
			UserID: uuid.NewString(),
			Page:   "2",
			Size:   "25",
		})

		assert.NoError(t, err)
		assert.Len(t, resp.Items, 1)
		assert.Equal(t, int64(26), resp.Total)
		assert.Equal(t, 2, resp.Page)
	})

	t.Run("admin filters by user and sort", func(t *testing.T) {
		deps := setupLeaveServiceTest(t, 20)
		target := uuid.New()
		deps.repo.listFn = func(filter leave.ListFilter, page pagination.Params) ([]leave.LeaveRequest, int64, error) {
			assert.Equal(t, target, *filter.UserID)
			assert.Equal(t, "start_date", page.SortField)
			assert.False(t, page.SortDesc)
			assert.Equal(t, "2025-03-01", filter.StartFrom.Format(dateutil.DateLayout))
			return nil, 0, nil
		}

		_, err := deps.service().List(ctx, admin(), leave.ListLeaveQuery{
			UserID:    target.String(),
			StartDate: "2025-03-01",
			Sort:      "start_date,asc",
		})
		assert.NoError(t, err)
	})

	t.Run("negative filters", func(t *testing.T) {
		deps := setupLeaveServiceTest(t, 20)
		svc := deps.service(leave.WithPaginationMaxSize(50))

		_, err := svc.List(ctx, admin(), leave.ListLeaveQuery{Status: "DONE"})
		assert.ErrorIs(t, err, leaveerrors.ErrInvalidStatusFilter)

		_, err = svc.List(ctx, admin(), leave.ListLeaveQuery{UserID: "abc"})
		assert.ErrorIs(t, err, leaveerrors.ErrInvalidUserFilter)

		_, err = svc.List(ctx, admin(), leave.ListLeaveQuery{Size: "51"})
		assert.Equal(t, apperror.CodeValidation, apperror.ToHTTP(err).Code)

		_, err = svc.List(ctx, admin(), leave.ListLeaveQuery{Sort: "reason"})
		assert.Equal(t, apperror.CodeValidation, apperror.ToHTTP(err).Code)
	})
}
