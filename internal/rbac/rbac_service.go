package rbac

import (
	"context"
	"sync"
	"time"

	"github.com/casbin/casbin/v2"
	"go.uber.org/zap"
)

type Service interface {
	LoadCompanyPolicy(ctx context.Context, companyID string) error
	Enforce(ctx context.Context, req EnforceRequest) (bool, error)
	Can(ctx context.Context, companyID, employeeID, resource, action string) (bool, error)
}

type service struct {
	repo     Repository
	enforcer *casbin.Enforcer
	ttl      time.Duration
	loadedAt map[string]time.Time
	now      func() time.Time
	mu       sync.Mutex
	logger   *zap.Logger
}

// NewService keeps each company's policy in the shared enforcer for ttl before reloading it.
// A ttl of zero reloads on every check.
func NewService(repo Repository, enforcer *casbin.Enforcer, ttl time.Duration, logger ...*zap.Logger) Service {
	l := zap.L().Named("rbac.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("rbac.service")
	}
	return &service{
		repo:     repo,
		enforcer: enforcer,
		ttl:      ttl,
		loadedAt: make(map[string]time.Time),
		now:      time.Now,
		logger:   l,
	}
}

func (s *service) LoadCompanyPolicy(ctx context.Context, companyID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.loadCompanyPolicyUnlocked(ctx, companyID)
}

func (s *service) loadCompanyPolicyUnlocked(ctx context.Context, companyID string) error {
	employeeRoles, err := s.repo.GetEmployeeRoles(ctx, companyID)
	if err != nil {
		return err
	}
	rolePerms, err := s.repo.GetRolePermissions(ctx, companyID)
	if err != nil {
		return err
	}

	// Only this company's domain is replaced.
	if _, err := s.enforcer.RemoveFilteredGroupingPolicy(2, companyID); err != nil {
		return err
	}
	if _, err := s.enforcer.RemoveFilteredPolicy(1, companyID); err != nil {
		return err
	}

	for _, er := range employeeRoles {
		if _, err := s.enforcer.AddGroupingPolicy(er.EmployeeID, er.RoleID, companyID); err != nil {
			return err
		}
	}
	for _, rp := range rolePerms {
		if _, err := s.enforcer.AddPolicy(rp.RoleID, companyID, rp.Resource, rp.Action); err != nil {
			return err
		}
	}

	s.loadedAt[companyID] = s.now()
	s.logger.Debug("rbac policy loaded",
		zap.String("company_id", companyID),
		zap.Int("employee_roles", len(employeeRoles)),
		zap.Int("role_permissions", len(rolePerms)),
	)
	return nil
}

func (s *service) Enforce(ctx context.Context, req EnforceRequest) (bool, error) {
	return s.Can(ctx, req.CompanyID, req.EmployeeID, req.Resource, req.Action)
}

func (s *service) Can(ctx context.Context, companyID, employeeID, resource, action string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	loaded, ok := s.loadedAt[companyID]
	if !ok || s.now().Sub(loaded) >= s.ttl {
		if err := s.loadCompanyPolicyUnlocked(ctx, companyID); err != nil {
			s.logger.Error("rbac load policy failed", zap.String("company_id", companyID), zap.Error(err))
			return false, err
		}
	}

	allowed, err := s.enforcer.Enforce(employeeID, companyID, resource, action)
	if err != nil {
		return false, err
	}

	s.logger.Debug("rbac enforce",
		zap.String("employee_id", employeeID),
		zap.String("company_id", companyID),
		zap.String("permission", resource+":"+action),
		zap.Bool("allowed", allowed),
	)
	return allowed, nil
}
