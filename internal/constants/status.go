package constants

// Operation names an invocation entry point.
type Operation string

// Operations an invocation can perform.
const (
	// OperationDeploy provisions or updates a review workload.
	OperationDeploy Operation = "deploy"

	// OperationStop tears a review workload down.
	OperationStop Operation = "stop"
)

// String returns the string representation of the Operation.
func (o Operation) String() string {
	return string(o)
}

// InvocationStatus is the structured outcome of an invocation.
// Status values use snake_case for JSON serialization compatibility.
//
//	succeeded → every step ran cleanly
//	degraded  → the workload step succeeded but a soft step warned
//	failed    → a fatal step stopped the invocation
type InvocationStatus string

// Invocation status constants.
const (
	// StatusSucceeded indicates every step completed without warnings.
	StatusSucceeded InvocationStatus = "succeeded"

	// StatusDegraded indicates the workload is in place but the registry
	// or notification step failed.
	StatusDegraded InvocationStatus = "degraded"

	// StatusFailed indicates a fatal step halted the invocation.
	StatusFailed InvocationStatus = "failed"
)

// String returns the string representation of the InvocationStatus.
func (s InvocationStatus) String() string {
	return string(s)
}

// ReconcileAction records what the workload reconciler did.
type ReconcileAction string

// Reconcile action constants.
const (
	ActionCreated ReconcileAction = "created"
	ActionUpdated ReconcileAction = "updated"
	ActionDeleted ReconcileAction = "deleted"
	ActionNone    ReconcileAction = "none"
)

// String returns the string representation of the ReconcileAction.
func (a ReconcileAction) String() string {
	return string(a)
}

// Step names used for metrics and failure attribution.
const (
	StepResolve  = "resolve"
	StepSpec     = "spec"
	StepWorkload = "workload"
	StepRegistry = "registry"
	StepNotify   = "notify"
	StepTeardown = "teardown"
)

// Invocation log markers kept verbatim for CI log scrapers.
const (
	DeployBeginBanner = "***** begin ui review app deploy ************\n"
	DeployDoneBanner  = "\n***** done with UI review app deploy ************"
	StopBeginBanner   = "***** begin UI review app stop ************\n"
	StopDoneBanner    = "\n***** done with UI review app stop ************"

	ErrorPrefix   = "ERROR: "
	WarningPrefix = "WARNING: "

	SlackSkippedLine = "Slack webhook path not configured; skipping announcement"
)
