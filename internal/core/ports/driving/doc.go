// Package driving lists what ragchat offers its front ends: ingesting and
// managing documents, chatting over them, and editing settings. The CLI,
// the HTTP API, the MCP server and the TUI all call through these
// interfaces; internal/core/services implements them.
package driving
