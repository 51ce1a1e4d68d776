package analystdb

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/nao1215/analystdb/domain/model"
)

// validator handles input validation for Importer
type validator struct{}

// newValidator creates a new validator instance
func newValidator() *validator {
	return &validator{}
}

// validatePath validates a single file or directory path
func (v *validator) validatePath(path string) error {
	if strings.TrimSpace(path) == "" {
		return errors.New("path cannot be empty")
	}

	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("path does not exist: %s: %w", path, err)
		}
		return fmt.Errorf("failed to stat path %s: %w", path, err)
	}

	if !info.IsDir() && !model.IsSupportedFile(path) {
		return fmt.Errorf("%w: %s", ErrUnsupportedFileType, path)
	}
	return nil
}

// validateReader validates a reader input
func (v *validator) validateReader(reader io.Reader, tableName string, fileType model.FileType) error {
	if reader == nil {
		return errors.New("reader cannot be nil")
	}
	if strings.TrimSpace(tableName) == "" {
		return errors.New("table name must be specified for reader input")
	}
	if fileType == model.FileTypeUnsupported {
		return fmt.Errorf("%w: reader input", ErrUnsupportedFileType)
	}

	// a *strings.Reader can be checked without consuming it
	if sr, ok := reader.(*strings.Reader); ok && sr.Len() == 0 {
		return fmt.Errorf("%w: reader input for %s", ErrEmptyData, tableName)
	}
	return nil
}
