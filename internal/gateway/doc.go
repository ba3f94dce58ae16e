// Package gateway wires the joke-gateway components together: the REST
// dispatcher, the durable session store, the tool registry with its single
// get_joke tool, and the MCP protocol dispatcher.
//
// The HTTP surface:
//
//	GET    /mcp    SSE negotiation check, always 405 by design
//	POST   /mcp    JSON-RPC batch processing
//	DELETE /mcp    session termination
//	GET    /joke   direct convenience call into the joke tool
//	GET    /health liveness probe
//
// Gateway.Run blocks until the context is canceled and then performs a
// graceful shutdown with a bounded timeout.
package gateway
