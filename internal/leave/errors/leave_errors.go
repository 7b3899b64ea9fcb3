package leaveerrors

import (
	"net/http"

	"hr-leave/internal/shared/apperror"
)

var (
	ErrInvalidCompanyID = apperror.New(
		apperror.CodeInvalidInput,
		"invalid company id",
		http.StatusBadRequest,
	)
	ErrInvalidActorID = apperror.New(
		apperror.CodeInvalidInput,
		"invalid actor id",
		http.StatusBadRequest,
	)
	ErrInvalidDateFormat = apperror.New(
		apperror.CodeInvalidInput,
		"invalid date format, expected YYYY-MM-DD",
		http.StatusBadRequest,
	)
	ErrInvalidMonthFormat = apperror.New(
		apperror.CodeInvalidInput,
		"invalid month format, expected YYYY-MM",
		http.StatusBadRequest,
	)
	ErrInvalidYear = apperror.New(
		apperror.CodeInvalidInput,
		"invalid year",
		http.StatusBadRequest,
	)
	ErrInvalidDateRange = apperror.New(
		apperror.CodeInvalidInput,
		"start_date must be before or equal end_date",
		http.StatusBadRequest,
	)
	ErrInvalidLeaveType = apperror.New(
		apperror.CodeInvalidInput,
		"invalid leave type",
		http.StatusBadRequest,
	)
	ErrInvalidAction = apperror.New(
		apperror.CodeInvalidInput,
		"action must be approve or reject",
		http.StatusBadRequest,
	)
	ErrCommentRequired = apperror.New(
		apperror.CodeInvalidInput,
		"comment is required when rejecting",
		http.StatusBadRequest,
	)
	ErrCancellationReasonTooShort = apperror.New(
		apperror.CodeInvalidInput,
		"cancellation reason is too short",
		http.StatusBadRequest,
	)
	ErrNoWorkingDays = apperror.New(
		apperror.CodeInvalidInput,
		"requested period contains no working days",
		http.StatusBadRequest,
	)
	ErrInvalidSubstitute = apperror.New(
		apperror.CodeInvalidInput,
		"substitute employee is invalid",
		http.StatusBadRequest,
	)
	ErrInvalidCapacity = apperror.New(
		apperror.CodeInvalidInput,
		"max_concurrent_leaves must be at least 1",
		http.StatusBadRequest,
	)

	ErrLeaveNotFound = apperror.New(
		apperror.CodeNotFound,
		"leave not found",
		http.StatusNotFound,
	)
	ErrLeaveAlreadyProcessed = apperror.New(
		apperror.CodeNotFound,
		"leave request not found or already processed",
		http.StatusNotFound,
	)
	ErrExceptionNotFound = apperror.New(
		apperror.CodeNotFound,
		"leave exception not found",
		http.StatusNotFound,
	)

	ErrForbidden = apperror.New(
		apperror.CodeForbidden,
		"you are not allowed to perform this action",
		http.StatusForbidden,
	)
	ErrSelfDecision = apperror.New(
		apperror.CodeForbidden,
		"you cannot decide on your own leave request",
		http.StatusForbidden,
	)
	ErrNotOwner = apperror.New(
		apperror.CodeForbidden,
		"only the owner can change this leave request",
		http.StatusForbidden,
	)

	ErrNotPending = apperror.New(
		apperror.CodeInvalidState,
		"only pending leave requests can be changed",
		http.StatusBadRequest,
	)
	ErrNotApproved = apperror.New(
		apperror.CodeInvalidState,
		"only approved leave requests can be cancelled",
		http.StatusBadRequest,
	)
	ErrLeaveAlreadyStarted = apperror.New(
		apperror.CodeInvalidState,
		"leave that has already started cannot be cancelled",
		http.StatusBadRequest,
	)
	ErrCancellationPending = apperror.New(
		apperror.CodeInvalidState,
		"a cancellation request is already pending",
		http.StatusBadRequest,
	)
	ErrNoCancellationPending = apperror.New(
		apperror.CodeNotFound,
		"no pending cancellation request for this leave",
		http.StatusNotFound,
	)

	// Business-rule conflicts are reported as 400 with structured details.
	ErrAdvanceNotice = apperror.New(
		apperror.CodeConflict,
		"leave must be requested further in advance",
		http.StatusBadRequest,
	)
	ErrMaxConsecutiveDays = apperror.New(
		apperror.CodeConflict,
		"leave exceeds the maximum number of consecutive days",
		http.StatusBadRequest,
	)
	ErrTooManyPending = apperror.New(
		apperror.CodeConflict,
		"too many pending leave requests",
		http.StatusBadRequest,
	)
	ErrInsufficientBalance = apperror.New(
		apperror.CodeConflict,
		"insufficient leave balance",
		http.StatusBadRequest,
	)
	ErrLeaveConflict = apperror.New(
		apperror.CodeConflict,
		"leave overlaps with other employees' leave",
		http.StatusBadRequest,
	)

	ErrExceptionExists = apperror.New(
		apperror.CodeConflict,
		"a leave exception already exists for this date",
		http.StatusConflict,
	)
	ErrCarryOverExists = apperror.New(
		apperror.CodeConflict,
		"carry-over already recorded for this year",
		http.StatusConflict,
	)

	ErrAsyncUnavailable = apperror.New(
		apperror.CodeServiceUnavailable,
		"background processing is not available",
		http.StatusServiceUnavailable,
	)
)
