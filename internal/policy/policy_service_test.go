package policy_test

import (
	"context"
	"testing"
	"time"

	"hr-leave/internal/policy"
	policyerrors "hr-leave/internal/policy/errors"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePolicyRepository struct {
	findByCompanyFn func(ctx context.Context, companyID string) (*policy.LeavePolicy, error)
	saveFn          func(ctx context.Context, p *policy.LeavePolicy, expectedVersion int64) (bool, error)
	findCalls       int
}

func (f *fakePolicyRepository) FindByCompany(ctx context.Context, companyID string) (*policy.LeavePolicy, error) {
	f.findCalls++
	if f.findByCompanyFn != nil {
		return f.findByCompanyFn(ctx, companyID)
	}
	return nil, nil
}

func (f *fakePolicyRepository) Save(ctx context.Context, p *policy.LeavePolicy, expectedVersion int64) (bool, error) {
	if f.saveFn != nil {
		return f.saveFn(ctx, p, expectedVersion)
	}
	return true, nil
}

func setupPolicyServiceTest(t *testing.T) (policy.Service, *fakePolicyRepository, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	repo := &fakePolicyRepository{}
	defaults := &policy.Defaults{Rules: policy.DefaultRules(), Calendar: policy.EmptyCalendar()}
	return policy.NewService(repo, defaults, rdb, time.Minute), repo, mr
}

func intPtr(v int) *int { return &v }

func TestPolicyService_Current(t *testing.T) {
	ctx := context.Background()

	t.Run("defaults when no override", func(t *testing.T) {
		svc, _, _ := setupPolicyServiceTest(t)

		snap, err := svc.Current(ctx, "company-1")

		require.NoError(t, err)
		assert.Equal(t, int64(0), snap.Version)
		assert.Equal(t, 3, snap.AdvanceUsageLimit)
		assert.NotNil(t, snap.Calendar)
	})

	t.Run("override row wins and is cached", func(t *testing.T) {
		svc, repo, mr := setupPolicyServiceTest(t)
		repo.findByCompanyFn = func(ctx context.Context, companyID string) (*policy.LeavePolicy, error) {
			p := &policy.LeavePolicy{CompanyID: companyID, Version: 4}
			rules := policy.DefaultRules()
			p.MinAdvanceDays = rules.MinAdvanceDays
			p.MaxConsecutiveDays = rules.MaxConsecutiveDays
			p.MaxConcurrentRequests = 1
			p.AdvanceUsageLimit = 0
			p.MaxCarryOverDays = rules.MaxCarryOverDays
			p.CancellationReasonMinLength = rules.CancellationReasonMinLength
			return p, nil
		}

		first, err := svc.Current(ctx, "company-1")
		require.NoError(t, err)
		second, err := svc.Current(ctx, "company-1")
		require.NoError(t, err)

		assert.Equal(t, int64(4), first.Version)
		assert.Equal(t, 1, first.MaxConcurrentRequests)
		assert.Equal(t, 0, second.AdvanceUsageLimit)
		assert.Equal(t, 1, repo.findCalls)
		assert.True(t, mr.Exists(policy.GetSnapshotKey("company-1")))
	})
}

func TestPolicyService_Update(t *testing.T) {
	ctx := context.Background()

	t.Run("success bumps version and invalidates cache", func(t *testing.T) {
		svc, repo, mr := setupPolicyServiceTest(t)

		_, err := svc.Current(ctx, "company-1")
		require.NoError(t, err)
		require.True(t, mr.Exists(policy.GetSnapshotKey("company-1")))

		var saved *policy.LeavePolicy
		repo.saveFn = func(ctx context.Context, p *policy.LeavePolicy, expectedVersion int64) (bool, error) {
			assert.Equal(t, int64(0), expectedVersion)
			saved = p
			return true, nil
		}

		resp, err := svc.Update(ctx, "company-1", "actor-1", policy.UpdatePolicyRequest{
			MaxCarryOverDays: intPtr(8),
			Version:          0,
		})

		require.NoError(t, err)
		assert.Equal(t, int64(1), resp.Version)
		assert.Equal(t, 8, resp.MaxCarryOverDays)
		assert.Equal(t, 3, resp.AdvanceUsageLimit)
		assert.Equal(t, "actor-1", saved.UpdatedBy)
		assert.False(t, mr.Exists(policy.GetSnapshotKey("company-1")))
	})

	t.Run("negative stale version", func(t *testing.T) {
		svc, repo, _ := setupPolicyServiceTest(t)
		repo.findByCompanyFn = func(ctx context.Context, companyID string) (*policy.LeavePolicy, error) {
			return &policy.LeavePolicy{CompanyID: companyID, Version: 2, MaxConsecutiveDays: 10, MaxConcurrentRequests: 3, CancellationReasonMinLength: 5}, nil
		}

		_, err := svc.Update(ctx, "company-1", "actor-1", policy.UpdatePolicyRequest{Version: 1})

		assert.ErrorIs(t, err, policyerrors.ErrVersionConflict)
	})

	t.Run("negative lost race on save", func(t *testing.T) {
		svc, repo, _ := setupPolicyServiceTest(t)
		repo.saveFn = func(ctx context.Context, p *policy.LeavePolicy, expectedVersion int64) (bool, error) {
			return false, nil
		}

		_, err := svc.Update(ctx, "company-1", "actor-1", policy.UpdatePolicyRequest{})

		assert.ErrorIs(t, err, policyerrors.ErrVersionConflict)
	})

	t.Run("negative invalid rules", func(t *testing.T) {
		svc, _, _ := setupPolicyServiceTest(t)

		_, err := svc.Update(ctx, "company-1", "actor-1", policy.UpdatePolicyRequest{
			AdvanceNoticeDays: map[string]int{"SABBATICAL": 10},
		})

		assert.ErrorIs(t, err, policyerrors.ErrUnknownLeaveType)
	})

	t.Run("negative cancellation reason length below five", func(t *testing.T) {
		svc, repo, _ := setupPolicyServiceTest(t)
		repo.saveFn = func(ctx context.Context, p *policy.LeavePolicy, expectedVersion int64) (bool, error) {
			t.Fatal("policy must not be saved")
			return false, nil
		}

		_, err := svc.Update(ctx, "company-1", "actor-1", policy.UpdatePolicyRequest{
			CancellationReasonMinLength: intPtr(1),
		})

		assert.ErrorIs(t, err, policyerrors.ErrInvalidRules)
	})
}
