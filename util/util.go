package util

import (
	"fmt"
	"path/filepath"
	"strings"
)

// ErrWrap returns fallback in place of value whenever err is set,
// letting callers inline flag lookups and similar two-value calls.
func ErrWrap[T any](fallback T) func(T, error) T {
	return func(value T, err error) T {
		if err != nil {
			return fallback
		}
		return value
	}
}

func ErrSuppress(err error) {
	_ = err
}

// FileStem returns the path without its extension.
func FileStem(path string) string {
	return strings.TrimSuffix(path, filepath.Ext(path))
}

func HumanizeBytes(size int64) string {
	const unit = 1024
	if size < unit {
		return fmt.Sprintf("%dB", size)
	}
	div, exp := int64(unit), 0
	for n := size / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f%cB", float64(size)/float64(div), "KMGTPE"[exp])
}

func Excerpt(data string) string {
	if len(data) > 30 {
		return data[:30] + "..."
	}
	return data
}
