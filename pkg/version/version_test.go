package version

import (
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGet_FillsEveryField(t *testing.T) {
	info := Get()

	assert.Equal(t, Version, info.Version)
	assert.Equal(t, runtime.Version(), info.GoVersion)
	assert.Equal(t, runtime.GOOS+"/"+runtime.GOARCH, info.Platform)
	// Commit and Date are ldflags, VCS stamp, or the "unknown" fallback,
	// but never empty.
	assert.NotEmpty(t, info.Commit)
	assert.NotEmpty(t, info.Date)
}

func TestInfo_String(t *testing.T) {
	s := Info{
		Version:   "v1.2.3",
		Commit:    "abc123",
		Date:      "2026-01-02",
		GoVersion: "go1.25",
		Platform:  "linux/amd64",
	}.String()

	assert.Equal(t, "semindex v1.2.3 (commit abc123, built 2026-01-02, go1.25, linux/amd64)", s)
}
