package rbac

// Permissions checked by the leave module.
const (
	ResourceLeave = "leave"

	ActionManage  = "manage"
	ActionReadAll = "read_all"
	ActionAdmin   = "admin"
)

type EnforceRequest struct {
	EmployeeID string `json:"employee_id" binding:"required"`
	CompanyID  string `json:"company_id"`
	Resource   string `json:"resource" binding:"required"`
	Action     string `json:"action" binding:"required"`
}

type EnforceResponse struct {
	Allowed bool `json:"allowed"`
}
