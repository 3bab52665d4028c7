package transfer

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Format names a backup file format.
type Format string

const (
	FormatJSON Format = "json"
	FormatHTML Format = "html"
)

// ParseFormat accepts "json" or "html".
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case FormatJSON, FormatHTML:
		return f, nil
	}
	return "", fmt.Errorf("unknown format %q (want json or html)", s)
}

// DetectFormat guesses the format from a file extension, defaulting to JSON.
func DetectFormat(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".html", ".htm":
		return FormatHTML
	default:
		return FormatJSON
	}
}

// DefaultExportPath returns where an export goes when no path is given:
// ~/Downloads/linkhub_backup.json, or a dated file for HTML.
func DefaultExportPath(format Format) (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	filename := DefaultFilename
	if format == FormatHTML {
		filename = fmt.Sprintf("linkhub-export-%s.html", time.Now().Format("2006-01-02"))
	}
	return filepath.Join(home, "Downloads", filename), nil
}
