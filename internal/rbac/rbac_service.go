package rbac

import (
	"fmt"

	"go-leave/internal/identity"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	"go.uber.org/zap"
)

type Service interface {
	Enforce(user identity.AuthenticatedUser, resource, action string) (bool, error)
}

type service struct {
	enforcer *casbin.SyncedEnforcer
	logger   *zap.Logger
}

// NewEnforcer builds an in-memory enforcer loaded with perms and the role
// hierarchy.
func NewEnforcer(perms []Permission, inheritance [][2]identity.Role) (*casbin.SyncedEnforcer, error) {
	m, err := model.NewModelFromString(modelText)
	if err != nil {
		return nil, fmt.Errorf("rbac model: %w", err)
	}
	e, err := casbin.NewSyncedEnforcer(m)
	if err != nil {
		return nil, fmt.Errorf("rbac enforcer: %w", err)
	}

	for _, p := range perms {
		if _, err := e.AddPolicy(string(p.Role), p.Resource, p.Action); err != nil {
			return nil, err
		}
	}
	for _, g := range inheritance {
		if _, err := e.AddGroupingPolicy(string(g[0]), string(g[1])); err != nil {
			return nil, err
		}
	}
	return e, nil
}

func NewService(enforcer *casbin.SyncedEnforcer, logger ...*zap.Logger) Service {
	l := zap.L().Named("rbac.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("rbac.service")
	}
	return &service{enforcer: enforcer, logger: l}
}

func NewDefaultService(logger ...*zap.Logger) (Service, error) {
	e, err := NewEnforcer(DefaultPermissions, RoleInheritance)
	if err != nil {
		return nil, err
	}
	return NewService(e, logger...), nil
}

// Enforce allows the request when any of the user's roles grants it.
func (s *service) Enforce(user identity.AuthenticatedUser, resource, action string) (bool, error) {
	for _, role := range user.Roles {
		ok, err := s.enforcer.Enforce(string(role), resource, action)
		if err != nil {
			s.logger.Error("rbac enforce failed",
				zap.String("role", string(role)),
				zap.String("resource", resource),
				zap.String("action", action),
				zap.Error(err),
			)
			return false, err
		}
		if ok {
			return true, nil
		}
	}

	s.logger.Debug("rbac denied",
		zap.String("user_id", user.UserID.String()),
		zap.Strings("roles", user.RoleNames()),
		zap.String("resource", resource),
		zap.String("action", action),
	)
	return false, nil
}
