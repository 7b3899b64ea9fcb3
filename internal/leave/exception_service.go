package leave

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	leaveerrors "hr-leave/internal/leave/errors"
	"hr-leave/internal/rbac"
	"hr-leave/internal/shared/contextutil"
	"hr-leave/internal/shared/database"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type ExceptionService interface {
	Create(ctx context.Context, companyID, actorID string, req ExceptionRequest) (ExceptionResponse, error)
	List(ctx context.Context, companyID, month string) ([]ExceptionResponse, error)
	GetByID(ctx context.Context, companyID, id string) (ExceptionResponse, error)
	Update(ctx context.Context, companyID, actorID, id string, req ExceptionRequest) (ExceptionResponse, error)
	Delete(ctx context.Context, companyID, actorID, id string) error
}

type exceptionService struct {
	access
	db     *sql.DB
	repo   ExceptionRepository
	now    func() time.Time
	logger *zap.Logger
}

func NewExceptionService(deps Deps, logger ...*zap.Logger) ExceptionService {
	l := zap.L().Named("leave.exception")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("leave.exception")
	}
	deps = deps.withDefaults()
	return &exceptionService{
		access: access{authz: deps.Authorizer, employees: deps.Employees},
		db:     deps.DB,
		repo:   deps.Exceptions,
		now:    deps.Now,
		logger: l,
	}
}

func parseException(req ExceptionRequest) (time.Time, error) {
	date, err := parseDate(req.Date)
	if err != nil {
		return time.Time{}, err
	}
	if req.MaxConcurrentLeaves < 1 {
		return time.Time{}, leaveerrors.ErrInvalidCapacity
	}
	return date, nil
}

func (s *exceptionService) Create(ctx context.Context, companyID, actorID string, req ExceptionRequest) (ExceptionResponse, error) {
	logger := contextutil.GetLogger(ctx, s.logger)
	if err := s.requireCapability(ctx, companyID, actorID, rbac.ActionManage); err != nil {
		return ExceptionResponse{}, err
	}
	companyUUID, err := uuid.Parse(companyID)
	if err != nil {
		return ExceptionResponse{}, leaveerrors.ErrInvalidCompanyID
	}
	actorUUID, err := uuid.Parse(actorID)
	if err != nil {
		return ExceptionResponse{}, leaveerrors.ErrInvalidActorID
	}
	date, err := parseException(req)
	if err != nil {
		return ExceptionResponse{}, err
	}

	now := s.now().UTC()
	e := &LeaveException{
		ID:                  uuid.New(),
		CompanyID:           companyUUID,
		Date:                date,
		MaxConcurrentLeaves: req.MaxConcurrentLeaves,
		Reason:              strings.TrimSpace(req.Reason),
		CreatedBy:           actorUUID,
		CreatedAt:           now,
		UpdatedAt:           now,
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return ExceptionResponse{}, err
	}
	defer tx.Rollback()

	if err := s.repo.WithTx(tx).Create(ctx, e); err != nil {
		if database.IsUniqueViolation(err) {
			return ExceptionResponse{}, leaveerrors.ErrExceptionExists
		}
		logger.Error("create leave exception failed", zap.Error(err))
		return ExceptionResponse{}, err
	}
	if err := tx.Commit(); err != nil {
		return ExceptionResponse{}, err
	}
	logger.Info("leave exception created",
		zap.String("date", req.Date),
		zap.Int("max_concurrent_leaves", req.MaxConcurrentLeaves),
	)
	return mapException(*e), nil
}

func (s *exceptionService) List(ctx context.Context, companyID, month string) ([]ExceptionResponse, error) {
	var from, to time.Time
	if month == "" {
		from, to = yearBounds(s.now().Year())
	} else {
		var err error
		if from, to, err = parseMonth(month); err != nil {
			return nil, err
		}
	}
	exceptions, err := s.repo.ListBetween(ctx, companyID, from, to)
	if err != nil {
		return nil, err
	}
	resp := make([]ExceptionResponse, len(exceptions))
	for i, e := range exceptions {
		resp[i] = mapException(e)
	}
	return resp, nil
}

func (s *exceptionService) find(ctx context.Context, repo ExceptionRepository, companyID, id string) (*LeaveException, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, leaveerrors.ErrExceptionNotFound
	}
	e, err := repo.FindByIDAndCompany(ctx, companyID, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, leaveerrors.ErrExceptionNotFound
		}
		return nil, err
	}
	return e, nil
}

func (s *exceptionService) GetByID(ctx context.Context, companyID, id string) (ExceptionResponse, error) {
	e, err := s.find(ctx, s.repo, companyID, id)
	if err != nil {
		return ExceptionResponse{}, err
	}
	return mapException(*e), nil
}

func (s *exceptionService) Update(ctx context.Context, companyID, actorID, id string, req ExceptionRequest) (ExceptionResponse, error) {
	if err := s.requireCapability(ctx, companyID, actorID, rbac.ActionManage); err != nil {
		return ExceptionResponse{}, err
	}
	date, err := parseException(req)
	if err != nil {
		return ExceptionResponse{}, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return ExceptionResponse{}, err
	}
	defer tx.Rollback()

	repo := s.repo.WithTx(tx)
	e, err := s.find(ctx, repo, companyID, id)
	if err != nil {
		return ExceptionResponse{}, err
	}
	e.Date = date
	e.MaxConcurrentLeaves = req.MaxConcurrentLeaves
	e.Reason = strings.TrimSpace(req.Reason)
	e.UpdatedAt = s.now().UTC()

	if err := repo.Update(ctx, e); err != nil {
		if database.IsUniqueViolation(err) {
			return ExceptionResponse{}, leaveerrors.ErrExceptionExists
		}
		return ExceptionResponse{}, err
	}
	if err := tx.Commit(); err != nil {
		return ExceptionResponse{}, err
	}
	return mapException(*e), nil
}

func (s *exceptionService) Delete(ctx context.Context, companyID, actorID, id string) error {
	if err := s.requireCapability(ctx, companyID, actorID, rbac.ActionManage); err != nil {
		return err
	}
	if _, err := uuid.Parse(id); err != nil {
		return leaveerrors.ErrExceptionNotFound
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := s.repo.WithTx(tx).Delete(ctx, companyID, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return leaveerrors.ErrExceptionNotFound
		}
		return err
	}
	return tx.Commit()
}
