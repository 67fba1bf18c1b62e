package domain

import "errors"

var (
	// Common domain errors
	ErrNotFound           = errors.New("entity not found")
	ErrAlreadyExists      = errors.New("entity already exists")
	ErrInvalidArgument    = errors.New("invalid argument")
	ErrInvalidExecContext = errors.New("invalid exec context")
	ErrOperationFailed    = errors.New("operation failed")
	ErrReadDatabaseRow    = errors.New("failed to read database row")

	// Billing errors
	ErrAlreadyReconciled  = errors.New("payment already reconciled")
	ErrPlanInactive       = errors.New("plan is not active")
	ErrGatewayUnavailable = errors.New("payment gateway unavailable")
	ErrSettingsMissing    = errors.New("merchant settings not configured")
	ErrRateLimited        = errors.New("too many requests")
)
