package logging

import "log/slog"

// SetupMCPModeWithLevel wires the default logger for MCP serving: file only,
// no stderr mirror. The protocol owns stdout for JSON-RPC, and some clients
// treat stderr output as a broken connection.
func SetupMCPModeWithLevel(level string) (func(), error) {
	cfg := DefaultConfig()
	cfg.Level = level
	cfg.WriteToStderr = false

	logger, cleanup, err := Setup(cfg)
	if err != nil {
		return nil, err
	}
	slog.SetDefault(logger)
	slog.Info("mcp logging ready", "log_file", cfg.FilePath, "level", cfg.Level)
	return cleanup, nil
}
