package employeeerrors

import (
	"net/http"

	"hr-leave/internal/shared/apperror"
)

var (
	ErrEmployeeNotFound = apperror.New(
		apperror.CodeNotFound,
		"Employee not found",
		http.StatusNotFound,
	)
	ErrInvalidEmployeeID = apperror.New(
		apperror.CodeInvalidInput,
		"Invalid employee ID",
		http.StatusBadRequest,
	)
	ErrDepartmentNotAssigned = apperror.New(
		apperror.CodeInvalidState,
		"Employee is not assigned to a department",
		http.StatusBadRequest,
	)
)
