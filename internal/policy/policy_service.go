package policy

import (
	"context"
	"encoding/json"
	"time"

	policyerrors "hr-leave/internal/policy/errors"
	"hr-leave/internal/shared/contextutil"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const SnapshotKeyPrefix = "leave:policy:"

func GetSnapshotKey(companyID string) string {
	return SnapshotKeyPrefix + companyID
}

type Service interface {
	Provider
	Update(ctx context.Context, companyID, actorID string, req UpdatePolicyRequest) (PolicyResponse, error)
}

type service struct {
	repo     Repository
	defaults *Defaults
	rdb      *redis.Client
	ttl      time.Duration
	sf       *singleflight.Group
	logger   *zap.Logger
}

type cachedSnapshot struct {
	Version int64 `json:"version"`
	Rules   Rules `json:"rules"`
}

func NewService(repo Repository, defaults *Defaults, rdb *redis.Client, ttl time.Duration, logger ...*zap.Logger) Service {
	l := zap.L().Named("policy.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("policy.service")
	}
	if defaults == nil {
		defaults = &Defaults{Rules: DefaultRules(), Calendar: EmptyCalendar()}
	}
	return &service{
		repo:     repo,
		defaults: defaults,
		rdb:      rdb,
		ttl:      ttl,
		sf:       &singleflight.Group{},
		logger:   l,
	}
}

func (s *service) Current(ctx context.Context, companyID string) (*Snapshot, error) {
	cacheKey := GetSnapshotKey(companyID)

	if s.rdb != nil {
		if cached, err := s.rdb.Get(ctx, cacheKey).Result(); err == nil {
			var cs cachedSnapshot
			if json.Unmarshal([]byte(cached), &cs) == nil {
				return s.snapshot(cs), nil
			}
		}
	}

	v, err, _ := s.sf.Do(cacheKey, func() (interface{}, error) {
		p, err := s.repo.FindByCompany(ctx, companyID)
		if err != nil {
			return nil, err
		}

		cs := cachedSnapshot{Version: 0, Rules: s.defaults.Rules}
		if p != nil {
			cs = cachedSnapshot{Version: p.Version, Rules: p.Rules()}
		}

		if s.rdb != nil {
			if data, err := json.Marshal(cs); err == nil {
				if err := s.rdb.Set(ctx, cacheKey, data, s.ttl).Err(); err != nil {
					s.logger.Warn("failed to cache policy snapshot", zap.String("key", cacheKey), zap.Error(err))
				}
			}
		}
		return cs, nil
	})
	if err != nil {
		contextutil.GetLogger(ctx, s.logger).Error("load policy failed", zap.String("company_id", companyID), zap.Error(err))
		return nil, err
	}

	return s.snapshot(v.(cachedSnapshot)), nil
}

func (s *service) snapshot(cs cachedSnapshot) *Snapshot {
	return &Snapshot{Version: cs.Version, Rules: cs.Rules, Calendar: s.defaults.Calendar}
}

func (s *service) Update(ctx context.Context, companyID, actorID string, req UpdatePolicyRequest) (PolicyResponse, error) {
	logger := contextutil.GetLogger(ctx, s.logger)

	current, err := s.repo.FindByCompany(ctx, companyID)
	if err != nil {
		return PolicyResponse{}, err
	}

	base := s.defaults.Rules
	var storedVersion int64
	if current != nil {
		base = current.Rules()
		storedVersion = current.Version
	}
	if req.Version != storedVersion {
		return PolicyResponse{}, policyerrors.ErrVersionConflict.WithDetails(map[string]int64{
			"current_version": storedVersion,
		})
	}

	rules := req.apply(base)
	if err := ValidateRules(rules); err != nil {
		return PolicyResponse{}, err
	}

	row := &LeavePolicy{CompanyID: companyID, Version: storedVersion + 1, UpdatedBy: actorID}
	if current != nil {
		row.CreatedAt = current.CreatedAt
	}
	row.applyRules(rules)

	ok, err := s.repo.Save(ctx, row, storedVersion)
	if err != nil {
		logger.Error("save policy failed", zap.String("company_id", companyID), zap.Error(err))
		return PolicyResponse{}, err
	}
	if !ok {
		return PolicyResponse{}, policyerrors.ErrVersionConflict
	}

	if s.rdb != nil {
		cacheKey := GetSnapshotKey(companyID)
		if err := s.rdb.Del(ctx, cacheKey).Err(); err != nil {
			logger.Error("failed to invalidate policy cache", zap.String("key", cacheKey), zap.Error(err))
		}
	}

	logger.Info("leave policy updated",
		zap.String("company_id", companyID),
		zap.String("actor_id", actorID),
		zap.Int64("version", row.Version),
	)
	return PolicyResponse{CompanyID: companyID, Version: row.Version, Rules: rules}, nil
}
