package leave

import (
	"context"
	"database/sql"
	"time"

	"hr-leave/internal/employee"
	"hr-leave/internal/messaging/kafka"
	"hr-leave/internal/shared/counter"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// txStores are the repositories bound to one *sql.Tx.
type txStores struct {
	leaves     Repository
	exceptions ExceptionRepository
	employees  employee.Repository
	counter    counter.Repository
	outbox     kafka.OutboxRepository
}

type storeSet struct {
	leaves     Repository
	exceptions ExceptionRepository
	employees  employee.Repository
	counter    counter.Repository
	outbox     kafka.OutboxRepository
}

func (s storeSet) bind(tx *sql.Tx) txStores {
	st := txStores{
		leaves:    s.leaves.WithTx(tx),
		employees: s.employees.WithTx(tx),
	}
	if s.exceptions != nil {
		st.exceptions = s.exceptions.WithTx(tx)
	}
	if s.counter != nil {
		st.counter = s.counter.WithTx(tx)
	}
	if s.outbox != nil {
		st.outbox = s.outbox.WithTx(tx)
	}
	return st
}

type ledgerPosting struct {
	LeaveRequestID *uuid.UUID
	Kind           string
	Delta          decimal.Decimal
	ActorID        *uuid.UUID
	At             time.Time
}

// postBalance applies p.Delta to the locked employee and journals it. Zero deltas are not journaled.
// The caller must hold the employee row lock in the same transaction.
func postBalance(ctx context.Context, st txStores, emp *employee.Employee, p ledgerPosting) error {
	if p.Delta.IsZero() {
		return nil
	}
	balance := emp.LeaveBalance.Add(p.Delta)
	if err := st.employees.UpdateLeaveBalance(ctx, emp.CompanyID.String(), emp.ID.String(), balance); err != nil {
		return err
	}
	if err := st.leaves.AppendLedger(ctx, &LedgerEntry{
		ID:             uuid.New(),
		CompanyID:      emp.CompanyID,
		EmployeeID:     emp.ID,
		LeaveRequestID: p.LeaveRequestID,
		Kind:           p.Kind,
		Delta:          p.Delta,
		BalanceAfter:   balance,
		CreatedBy:      p.ActorID,
		CreatedAt:      p.At,
	}); err != nil {
		return err
	}
	emp.LeaveBalance = balance
	return nil
}

// openYear sets the balance to an absolute value and journals the difference as YEAR_OPEN.
func openYear(ctx context.Context, st txStores, emp *employee.Employee, balance decimal.Decimal, actorID *uuid.UUID, at time.Time) error {
	delta := balance.Sub(emp.LeaveBalance)
	if delta.IsZero() {
		return st.leaves.AppendLedger(ctx, &LedgerEntry{
			ID:           uuid.New(),
			CompanyID:    emp.CompanyID,
			EmployeeID:   emp.ID,
			Kind:         LedgerYearOpen,
			Delta:        decimal.Zero,
			BalanceAfter: balance,
			CreatedBy:    actorID,
			CreatedAt:    at,
		})
	}
	return postBalance(ctx, st, emp, ledgerPosting{
		Kind:    LedgerYearOpen,
		Delta:   delta,
		ActorID: actorID,
		At:      at,
	})
}
