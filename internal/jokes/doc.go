// Package jokes implements the built-in get_joke tool and its JokeAPI
// client.
//
// The tool maps call arguments to outbound query parameters; safe-mode and
// the JSON response format are always forced and cannot be overridden by the
// caller. Multiple jokes are joined into one text block separated by a blank
// line. Any transport failure, undecodable body, or upstream error flag is
// captured as an isError result with a human-readable message rather than
// raised as a protocol error.
package jokes
