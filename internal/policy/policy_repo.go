package policy

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Repository interface {
	FindByCompany(ctx context.Context, companyID string) (*LeavePolicy, error)
	// Save writes p only when the stored version equals expectedVersion (0 = no row yet).
	Save(ctx context.Context, p *LeavePolicy, expectedVersion int64) (bool, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) FindByCompany(ctx context.Context, companyID string) (*LeavePolicy, error) {
	var p LeavePolicy
	err := r.db.WithContext(ctx).Where("company_id = ?", companyID).First(&p).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

func (r *repository) Save(ctx context.Context, p *LeavePolicy, expectedVersion int64) (bool, error) {
	db := r.db.WithContext(ctx)

	if expectedVersion == 0 {
		res := db.Clauses(clause.OnConflict{DoNothing: true}).Create(p)
		return res.RowsAffected == 1, res.Error
	}

	res := db.Model(&LeavePolicy{}).
		Where("company_id = ? AND version = ?", p.CompanyID, expectedVersion).
		Select("*").
		Omit("company_id", "created_at").
		Updates(p)
	return res.RowsAffected == 1, res.Error
}
