package config

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"time"
)

// maxBackups caps how many config backups accumulate next to the file.
const maxBackups = 3

// backupTimeFormat sorts lexicographically, so file names order themselves
// by age without stat calls.
const backupTimeFormat = "20060102-150405"

// BackupUserConfig copies the user config to config.yaml.bak.<timestamp>
// beside the original and prunes backups beyond the cap, oldest first.
// Returns the backup path, or "" when there is no config file.
func BackupUserConfig() (string, error) {
	src := UserConfigPath()
	data, err := os.ReadFile(src)
	if os.IsNotExist(err) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read config for backup: %w", err)
	}

	dst := src + ".bak." + time.Now().Format(backupTimeFormat)
	if err := os.WriteFile(dst, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write backup: %w", err)
	}

	pruneBackups()
	return dst, nil
}

// listBackups returns existing backup paths, newest first.
func listBackups() []string {
	entries, err := os.ReadDir(UserConfigDir())
	if err != nil {
		return nil
	}

	prefix := "config.yaml.bak."
	var paths []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasPrefix(e.Name(), prefix) {
			paths = append(paths, UserConfigDir()+string(os.PathSeparator)+e.Name())
		}
	}
	sort.Sort(sort.Reverse(sort.StringSlice(paths)))
	return paths
}

// pruneBackups removes backups beyond maxBackups. Best effort: a backup
// that cannot be removed is left for the next run.
func pruneBackups() {
	backups := listBackups()
	for i := maxBackups; i < len(backups); i++ {
		_ = os.Remove(backups[i])
	}
}
