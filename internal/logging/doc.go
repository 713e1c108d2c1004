// Package logging provides file-based logging with rotation for semindex.
// Logs are structured JSON written to ~/.semindex/logs/ so long-running
// index and watch sessions can be diagnosed after the fact.
//
// In MCP server mode logging must never touch stdout or stderr; use
// SetupMCPModeWithLevel there.
package logging
