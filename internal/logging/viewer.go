package logging

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"regexp"
	"sort"
	"strings"
	"time"
)

// LogEntry is one parsed line of the JSON log.
type LogEntry struct {
	Time  time.Time
	Level string
	Msg   string
	// Attrs holds every remaining attribute on the record.
	Attrs map[string]any
	// Raw is the original line, kept for pattern matching and for lines
	// that are not valid JSON.
	Raw string
	// Parsed is false for non-JSON lines; they display as-is.
	Parsed bool
}

// ViewerConfig filters and styles viewer output.
type ViewerConfig struct {
	// Level drops records below this level. Empty shows everything.
	Level string
	// Pattern drops lines that do not match. Nil shows everything.
	Pattern *regexp.Regexp
	// NoColor disables ANSI level coloring.
	NoColor bool
}

// Viewer renders log files for the logs subcommand.
type Viewer struct {
	cfg ViewerConfig
	out io.Writer
}

func NewViewer(cfg ViewerConfig, out io.Writer) *Viewer {
	return &Viewer{cfg: cfg, out: out}
}

// Tail returns the last n matching entries of the file.
func (v *Viewer) Tail(path string, n int) ([]LogEntry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	// Attribute-heavy records can exceed the default token size.
	scanner.Buffer(make([]byte, 1<<20), 1<<20)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read log file: %w", err)
	}

	var entries []LogEntry
	for _, line := range lines {
		if entry, ok := v.filter(line); ok {
			entries = append(entries, entry)
		}
	}
	if len(entries) > n {
		entries = entries[len(entries)-n:]
	}
	return entries, nil
}

// Follow streams matching entries appended to the file until ctx ends.
// It polls rather than using fsnotify: log appends come fast enough that a
// 100ms cadence reads whole batches per wake-up.
func (v *Viewer) Follow(ctx context.Context, path string, entries chan<- LogEntry) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer f.Close()

	if _, err := f.Seek(0, io.SeekEnd); err != nil {
		return fmt.Errorf("failed to seek log file: %w", err)
	}

	r := bufio.NewReader(f)
	tick := time.NewTicker(100 * time.Millisecond)
	defer tick.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-tick.C:
		}

		for {
			line, err := r.ReadString('\n')
			if err != nil {
				break
			}
			line = strings.TrimRight(line, "\n")
			if line == "" {
				continue
			}
			entry, ok := v.filter(line)
			if !ok {
				continue
			}
			select {
			case entries <- entry:
			case <-ctx.Done():
				return nil
			}
		}
	}
}

// Print renders entries to the viewer's writer.
func (v *Viewer) Print(entries []LogEntry) {
	for _, entry := range entries {
		fmt.Fprintln(v.out, v.FormatEntry(entry))
	}
}

// FormatEntry renders one entry as "15:04:05.000 LEVEL msg k=v ...".
// Attributes print in sorted key order so repeated runs line up.
func (v *Viewer) FormatEntry(entry LogEntry) string {
	if !entry.Parsed {
		return entry.Raw
	}

	var b strings.Builder
	b.WriteString(entry.Time.Format("15:04:05.000"))
	b.WriteByte(' ')
	b.WriteString(v.paintLevel(entry.Level))
	b.WriteByte(' ')
	b.WriteString(entry.Msg)

	keys := make([]string, 0, len(entry.Attrs))
	for k := range entry.Attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, " %s=%v", k, entry.Attrs[k])
	}
	return b.String()
}

// filter parses a line and applies the level and pattern filters.
func (v *Viewer) filter(line string) (LogEntry, bool) {
	entry := parseLine(line)
	if v.cfg.Level != "" && entry.Parsed &&
		LevelFromString(entry.Level) < LevelFromString(v.cfg.Level) {
		return entry, false
	}
	if v.cfg.Pattern != nil && !v.cfg.Pattern.MatchString(entry.Raw) {
		return entry, false
	}
	return entry, true
}

func parseLine(line string) LogEntry {
	entry := LogEntry{Raw: line}

	var fields map[string]any
	if json.Unmarshal([]byte(line), &fields) != nil {
		return entry
	}
	entry.Parsed = true

	if s, ok := fields["time"].(string); ok {
		entry.Time, _ = time.Parse(time.RFC3339Nano, s)
	}
	entry.Level, _ = fields["level"].(string)
	entry.Msg, _ = fields["msg"].(string)

	delete(fields, "time")
	delete(fields, "level")
	delete(fields, "msg")
	entry.Attrs = fields
	return entry
}

// ansi color codes by level; debug is dimmed, problems stand out.
var levelColors = map[string]string{
	"debug":   "\033[90m",
	"info":    "\033[32m",
	"warn":    "\033[33m",
	"warning": "\033[33m",
	"error":   "\033[31m",
}

func (v *Viewer) paintLevel(level string) string {
	label := fmt.Sprintf("%-5.5s", strings.ToUpper(level))
	color, ok := levelColors[strings.ToLower(level)]
	if v.cfg.NoColor || !ok {
		return label
	}
	return color + label + "\033[0m"
}
