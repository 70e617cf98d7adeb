// Package driving defines the interfaces that external actors use to
// drive the core.
//
// These are the "driving" or "primary" ports in hexagonal architecture.
// Core services implement them; CLI and MCP adapters consume them.
package driving
