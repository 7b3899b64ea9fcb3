package policyerrors

import (
	"net/http"

	"hr-leave/internal/shared/apperror"
)

var (
	ErrPolicyFileInvalid = apperror.New(
		apperror.CodeInternalError,
		"leave policy file is invalid",
		http.StatusInternalServerError,
	)
	ErrInvalidRules = apperror.New(
		apperror.CodeInvalidInput,
		"leave policy rules are invalid",
		http.StatusBadRequest,
	)
	ErrUnknownLeaveType = apperror.New(
		apperror.CodeInvalidInput,
		"advance notice configured for unknown leave type",
		http.StatusBadRequest,
	)
	ErrVersionConflict = apperror.New(
		apperror.CodeConflict,
		"leave policy was changed by another request",
		http.StatusConflict,
	)
)
