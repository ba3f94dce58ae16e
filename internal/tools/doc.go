// Package tools defines the tool abstraction and registry used by the
// protocol dispatcher.
//
// A Tool is a named operation with a JSON-Schema-shaped input description,
// invoked with decoded JSON arguments. Tool-execution failures are reported
// in the Result's IsError flag with a human-readable message so that clients
// can always parse Content, even on failure; only infrastructure faults are
// returned as Go errors.
package tools
