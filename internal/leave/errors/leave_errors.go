package leaveerrors

import (
	"net/http"

	"leave-review/internal/shared/apperror"
)

var (
	ErrFetchFailed = apperror.New(
		apperror.CodeUpstreamFailed,
		"Error fetching data",
		http.StatusBadGateway,
	)
	ErrSessionRequired = apperror.New(
		apperror.CodeInvalidInput,
		"session id is required",
		http.StatusBadRequest,
	)
	ErrInvalidDecision = apperror.New(
		apperror.CodeInvalidInput,
		"status must be APPROVED or REJECTED",
		http.StatusBadRequest,
	)
	ErrInvalidStatusFilter = apperror.New(
		apperror.CodeInvalidInput,
		"status must be one of ALL, PENDING, APPROVED, REJECTED",
		http.StatusBadRequest,
	)
	ErrInvalidSortOrder = apperror.New(
		apperror.CodeInvalidInput,
		"order must be asc or desc",
		http.StatusBadRequest,
	)
	ErrInvalidPage = apperror.New(
		apperror.CodeInvalidInput,
		"page must be a positive integer",
		http.StatusBadRequest,
	)
	ErrLeaveRequestIDRequired = apperror.New(
		apperror.CodeInvalidInput,
		"leave request id is required",
		http.StatusBadRequest,
	)
)
