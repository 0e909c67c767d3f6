package launchd

import (
	"os"
	"strings"
)

// LogFile is the content of a job's stdout/stderr file
type LogFile struct {
	Content string `json:"content"`
	// ModifiedAt is the modification time in Unix milliseconds, nil when unknown
	ModifiedAt *int64 `json:"modified_at,omitempty"`
}

// ReadLogFile reads path, keeping only the last tailLines lines when
// tailLines is non-nil
func ReadLogFile(path string, tailLines *int) (LogFile, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return LogFile{}, newOpError(OpReadLog, path, ioKind(err), err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return LogFile{}, newOpError(OpReadLog, path, ioKind(err), err)
	}

	var modified *int64
	if mt := fi.ModTime(); !mt.IsZero() && mt.Unix() >= 0 {
		ms := mt.Unix() * 1000
		modified = &ms
	}

	content := string(data)
	if tailLines != nil {
		content = tail(content, *tailLines)
	}
	return LogFile{Content: content, ModifiedAt: modified}, nil
}

// tail returns the last n lines of s joined by "\n"
func tail(s string, n int) string {
	if n <= 0 {
		return ""
	}
	lines := strings.Split(strings.TrimSuffix(s, "\n"), "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, "\n")
}
