package logging

const (
	// FieldComponent names the subsystem emitting a record.
	FieldComponent = "component"
	// FieldEventType is a stable machine-readable event name.
	FieldEventType = "event_type"
	// FieldErrorHint suggests the next step for an operator.
	FieldErrorHint = "error_hint"
	// FieldImpact describes the user-facing consequence of a warning.
	FieldImpact = "impact"
	// FieldRunID identifies one daemon run.
	FieldRunID = "run_id"
	// FieldPeerID identifies one accepted connection.
	FieldPeerID = "peer_id"
	// FieldSocket is the logical socket name.
	FieldSocket = "socket"
	// FieldPID is a process identifier.
	FieldPID = "pid"
)
