package employee

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Employee rows are owned by the HR core service; this service only reads them and
// maintains LeaveBalance.
type Employee struct {
	ID           uuid.UUID   `gorm:"type:uuid;primaryKey"`
	CompanyID    uuid.UUID   `gorm:"type:uuid;index"`
	DepartmentID *uuid.UUID  `gorm:"type:uuid"`
	Department   *Department `gorm:"foreignKey:DepartmentID"`
	FullName     string
	Email        string
	Role         string
	HireDate     time.Time `gorm:"type:date"`

	// Signed number of annual-leave days remaining.
	LeaveBalance              decimal.Decimal `gorm:"type:numeric(6,1);not null;default:0"`
	LeaveBalanceInitializedAt *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (e *Employee) DepartmentIDString() string {
	if e.DepartmentID == nil {
		return ""
	}
	return e.DepartmentID.String()
}

func (e *Employee) DepartmentName() string {
	if e.Department == nil {
		return ""
	}
	return e.Department.Name
}

type Department struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	CompanyID uuid.UUID `gorm:"type:uuid;index"`
	Name      string
}
