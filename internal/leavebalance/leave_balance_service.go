package leavebalance

import (
	"context"
	"fmt"

	"go-leave/internal/identity"
	leavebalanceerrors "go-leave/internal/leavebalance/errors"
	"go-leave/internal/shared/apperror"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

type Service interface {
	GetBalances(ctx context.Context, actor identity.AuthenticatedUser, userID uuid.UUID, year int) (BalanceListResponse, error)
}

type service struct {
	repo   Repository
	logger *zap.Logger
	seeds  singleflight.Group
}

func NewService(repo Repository, logger ...*zap.Logger) Service {
	l := zap.L().Named("leavebalance.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("leavebalance.service")
	}
	return &service{repo: repo, logger: l}
}

// EnsureSeeded gives userID a row per active policy for year when they have
// none yet. repo may be bound to a caller's transaction.
func EnsureSeeded(ctx context.Context, repo Repository, userID uuid.UUID, year int) error {
	policies, err := repo.FindActivePolicies(ctx)
	if err != nil {
		return err
	}
	return repo.SeedDefaults(ctx, userID, year, policies)
}

func (s *service) GetBalances(ctx context.Context, actor identity.AuthenticatedUser, userID uuid.UUID, year int) (BalanceListResponse, error) {
	s.logger.Debug("get balances requested",
		zap.String("actor_id", actor.UserID.String()),
		zap.String("user_id", userID.String()),
		zap.Int("year", year),
	)

	if userID != actor.UserID && !actor.IsAdmin() {
		s.logger.Warn("get balances forbidden",
			zap.String("actor_id", actor.UserID.String()),
			zap.String("user_id", userID.String()),
		)
		return BalanceListResponse{}, apperror.ErrForbidden
	}
	if year < 1900 || year > 9999 {
		return BalanceListResponse{}, leavebalanceerrors.ErrInvalidYear
	}

	rows, err := s.repo.FindByUserAndYear(ctx, userID, year)
	if err != nil {
		s.logger.Error("get balances query failed", zap.Error(err))
		return BalanceListResponse{}, err
	}

	if len(rows) == 0 {
		key := fmt.Sprintf("%s:%d", userID, year)
		// Callers that join the flight share its result, so one caller
		// going away must not fail the seed for the rest.
		seedCtx := context.WithoutCancel(ctx)
		_, err, shared := s.seeds.Do(key, func() (any, error) {
			return nil, EnsureSeeded(seedCtx, s.repo, userID, year)
		})
		if err != nil {
			s.logger.Error("seed balances failed", zap.String("user_id", userID.String()), zap.Int("year", year), zap.Error(err))
			return BalanceListResponse{}, err
		}
		s.logger.Info("balances seeded",
			zap.String("user_id", userID.String()),
			zap.Int("year", year),
			zap.Bool("shared", shared),
		)

		rows, err = s.repo.FindByUserAndYear(ctx, userID, year)
		if err != nil {
			s.logger.Error("get balances reload failed", zap.Error(err))
			return BalanceListResponse{}, err
		}
	}

	return mapToListResponse(userID, year, rows), nil
}

func mapToResponse(b LeaveBalance) BalanceResponse {
	resp := BalanceResponse{
		ID:          b.ID.String(),
		PolicyID:    b.PolicyID.String(),
		Year:        b.Year,
		BalanceDays: b.BalanceDays.StringFixed(1),
	}
	if b.Policy != nil {
		resp.PolicyName = b.Policy.Name
	}
	return resp
}

func mapToListResponse(userID uuid.UUID, year int, rows []LeaveBalance) BalanceListResponse {
	out := BalanceListResponse{
		UserID:   userID.String(),
		Year:     year,
		Balances: make([]BalanceResponse, len(rows)),
	}
	for i, b := range rows {
		out.Balances[i] = mapToResponse(b)
	}
	return out
}
