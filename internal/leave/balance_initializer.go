package leave

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// BalanceInitializer opens the leave balance of a newly created employee. It is idempotent:
// an employee whose balance was already initialized is left untouched.
type BalanceInitializer struct {
	db     *sql.DB
	stores storeSet
	now    func() time.Time
	logger *zap.Logger
}

func NewBalanceInitializer(deps Deps, logger ...*zap.Logger) *BalanceInitializer {
	l := zap.L().Named("leave.balance_init")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("leave.balance_init")
	}
	deps = deps.withDefaults()
	return &BalanceInitializer{
		db:     deps.DB,
		stores: deps.stores(),
		now:    deps.Now,
		logger: l,
	}
}

func (b *BalanceInitializer) InitializeBalance(ctx context.Context, companyID, employeeID string) error {
	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	st := b.stores.bind(tx)

	emp, err := st.employees.LockByIDAndCompany(ctx, companyID, employeeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// Not replicated yet; the consumer retries.
			b.logger.Warn("balance init employee not found",
				zap.String("company_id", companyID),
				zap.String("employee_id", employeeID),
			)
		}
		return err
	}
	if emp.LeaveBalanceInitializedAt != nil {
		b.logger.Debug("balance already initialized", zap.String("employee_id", employeeID))
		return nil
	}

	now := b.now().UTC()
	balance := decimal.NewFromInt(int64(Entitlement(emp.HireDate, now.Year())))
	if err := st.employees.MarkLeaveBalanceInitialized(ctx, companyID, employeeID, balance, now); err != nil {
		return err
	}
	if err := st.leaves.AppendLedger(ctx, &LedgerEntry{
		ID:           uuid.New(),
		CompanyID:    emp.CompanyID,
		EmployeeID:   emp.ID,
		Kind:         LedgerYearOpen,
		Delta:        balance.Sub(emp.LeaveBalance),
		BalanceAfter: balance,
		CreatedAt:    now,
	}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}

	b.logger.Info("balance initialized",
		zap.String("company_id", companyID),
		zap.String("employee_id", employeeID),
		zap.String("balance", balance.String()),
	)
	return nil
}
