package driver

import (
	"errors"
	"strings"
)

// MaxColumnCount defines the maximum number of columns allowed in a table.
// It matches SQLite's default SQLITE_MAX_COLUMN.
const MaxColumnCount = 2000

// maxLogLength caps strings written to logs
const maxLogLength = 200

var (
	// ErrTooManyColumns is returned when a table would have too many columns
	ErrTooManyColumns = errors.New("too many columns")

	// ErrInvalidPath is returned when a database path is empty or contains a null byte
	ErrInvalidPath = errors.New("invalid database path")
)

// ValidateDSN rejects blank paths and null byte injection.
func ValidateDSN(dsn string) error {
	if strings.TrimSpace(dsn) == "" {
		return ErrInvalidPath
	}
	if strings.Contains(dsn, "\x00") {
		return ErrInvalidPath
	}
	return nil
}

// ValidateColumnCount checks if the number of columns is within acceptable limits
func ValidateColumnCount(columnCount int) error {
	if columnCount > MaxColumnCount {
		return ErrTooManyColumns
	}
	return nil
}

// IsValidFileName checks if a filename is safe to import from a directory listing
func IsValidFileName(fileName string) bool {
	// Skip hidden files
	if strings.HasPrefix(fileName, ".") {
		return false
	}

	if strings.Contains(fileName, "\x00") {
		return false
	}

	suspiciousChars := []string{"<", ">", ":", "\"", "|", "?", "*"}
	for _, char := range suspiciousChars {
		if strings.Contains(fileName, char) {
			return false
		}
	}

	return true
}

// TrimForLog collapses whitespace and limits the length of SQL text before logging
func TrimForLog(input string) string {
	result := strings.Join(strings.Fields(input), " ")
	if len(result) > maxLogLength {
		result = result[:maxLogLength] + "..."
	}
	return result
}
