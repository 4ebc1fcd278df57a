package util

import (
	"path/filepath"
	"strings"
)

// DisplayName returns the base name of an uploaded file for tables and logs.
// Browsers on some platforms send the full client path.
func DisplayName(name string) string {
	s := strings.TrimSpace(strings.ReplaceAll(name, "\\", "/"))
	if s == "" {
		return ""
	}
	base := filepath.Base(s)
	if base == "." || base == "/" {
		return ""
	}
	return base
}
