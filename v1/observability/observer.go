// Package observability defines the hook through which storage components
// report the operations they perform.
//
// Components accept an optional Observer and call it once per operation
// after the operation finishes. A nil Observer disables reporting. The
// metrics package ships a Prometheus-backed implementation.
package observability

import "time"

// OperationContext describes one completed operation.
type OperationContext struct {
	// Component names the reporting package, e.g. "mongo".
	Component string

	// Operation is the verb, e.g. "find", "insert", "update".
	Operation string

	// Resource is the primary target, e.g. the database name.
	Resource string

	// SubResource is the secondary target, e.g. the collection name.
	SubResource string

	Duration time.Duration

	// Error is the error returned by the operation, if any.
	Error error

	// Size is an operation-specific count such as matched documents.
	Size int64

	Metadata map[string]interface{}
}

// Observer receives operation reports. Implementations must be safe for
// concurrent use.
type Observer interface {
	ObserveOperation(ctx OperationContext)
}
