package domain

import "github.com/mrz1836/reviewapp/internal/constants"

// Re-export the status types from constants so consumers can import domain
// types and their status values together.
//
//	res := review.Result{Status: domain.StatusDegraded}
type (
	// Operation names an invocation entry point.
	Operation = constants.Operation

	// InvocationStatus is the structured outcome of an invocation.
	InvocationStatus = constants.InvocationStatus

	// ReconcileAction records what the workload reconciler did.
	ReconcileAction = constants.ReconcileAction
)

// Re-export Operation constants.
const (
	OperationDeploy = constants.OperationDeploy
	OperationStop   = constants.OperationStop
)

// Re-export InvocationStatus constants.
const (
	StatusSucceeded = constants.StatusSucceeded
	StatusDegraded  = constants.StatusDegraded
	StatusFailed    = constants.StatusFailed
)

// Re-export ReconcileAction constants.
const (
	ActionCreated = constants.ActionCreated
	ActionUpdated = constants.ActionUpdated
	ActionDeleted = constants.ActionDeleted
	ActionNone    = constants.ActionNone
)
