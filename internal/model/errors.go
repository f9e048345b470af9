package model

import (
	"errors"
	"fmt"
	"strings"
)

// Error kinds surfaced at operation boundaries. Callers test with errors.Is.
var (
	ErrValidation         = errors.New("validation failed")
	ErrNotFound           = errors.New("not found")
	ErrInvalidMeasurement = errors.New("height and weight must be greater than 0")
	ErrStorageUnavailable = errors.New("storage unavailable")
	ErrDecryption         = errors.New("wrong passphrase or corrupted file")
	ErrImportValidation   = errors.New("import validation failed")
	ErrSyncInProgress     = errors.New("sync already in progress")
	ErrSync               = errors.New("sync failed")
)

// ImportValidationError lists every structural problem found in an import.
type ImportValidationError struct {
	Problems []string
}

func (e *ImportValidationError) Error() string {
	return fmt.Sprintf("%s: %s", ErrImportValidation, strings.Join(e.Problems, "; "))
}

func (e *ImportValidationError) Is(target error) bool {
	return target == ErrImportValidation
}
