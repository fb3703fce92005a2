// Package domain provides shared domain types for the review app deployer.
//
// Import rules:
//   - CAN import: internal/constants, internal/errors, standard library
//   - MUST NOT import: any other internal packages
package domain

// Handle identifies a platform object. Names come from configuration; IDs
// come from the platform and are only valid on the platform that issued them.
type Handle struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// IsZero reports whether the handle is unresolved.
func (h Handle) IsZero() bool {
	return h.ID == ""
}

// TargetContext is the resolved destination of a review workload.
// Every field must be resolved before any mutating call is issued.
// Teardown leaves Provider unresolved.
type TargetContext struct {
	Organization Handle `json:"organization"`
	Environment  Handle `json:"environment"`
	Provider     Handle `json:"provider"`
}
