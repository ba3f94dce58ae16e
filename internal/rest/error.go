// ABOUTME: Transport error type carrying a machine code, message and HTTP status.
// ABOUTME: Serializes to the {code, message, data:{status}} error envelope.

package rest

// Error is a transport-level error a handler can return to short-circuit
// dispatch. The router writes it with its declared HTTP status.
type Error struct {
	Code    string
	Message string
	Status  int
}

func (e *Error) Error() string {
	return e.Message
}

// envelope is the wire shape of a transport error.
func (e *Error) envelope() map[string]any {
	return map[string]any{
		"code":    e.Code,
		"message": e.Message,
		"data": map[string]any{
			"status": e.Status,
		},
	}
}
