package logging

import (
	"fmt"
	"os"
	"path/filepath"
)

// DefaultLogPath returns <data-home>/logs/semindex.log. The data home is
// $SEMINDEX_HOME or ~/.semindex, mirroring the config package without
// importing it.
func DefaultLogPath() string {
	home := os.Getenv("SEMINDEX_HOME")
	if home == "" {
		if dir, err := os.UserHomeDir(); err == nil {
			home = filepath.Join(dir, ".semindex")
		} else {
			home = filepath.Join(os.TempDir(), ".semindex")
		}
	}
	return filepath.Join(home, "logs", "semindex.log")
}

// FindLogFile resolves the log file for the viewer. An explicit path must
// exist; otherwise the default location is tried.
func FindLogFile(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("log file not found: %s", explicit)
		}
		return explicit, nil
	}

	path := DefaultLogPath()
	if _, err := os.Stat(path); err != nil {
		return "", fmt.Errorf("no log file at %s; nothing has logged yet", path)
	}
	return path, nil
}
