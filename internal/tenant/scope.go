package tenant

import "gorm.io/gorm"

func Scope(companyID string) func(db *gorm.DB) *gorm.DB {
	return ScopeColumn("company_id", companyID)
}

// ScopeColumn qualifies the tenant column for queries that join other tenant tables.
func ScopeColumn(column, companyID string) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where(column+" = ?", companyID)
	}
}
