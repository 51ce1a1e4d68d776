package driver

import "errors"

// Predefined errors
var (
	// ErrBeginTxNotSupported is returned when underlying connection does not support BeginTx
	ErrBeginTxNotSupported = errors.New("analystdb driver: underlying connection does not support BeginTx")

	// ErrPrepareContextNotSupported is returned when underlying connection does not support PrepareContext
	ErrPrepareContextNotSupported = errors.New("analystdb driver: underlying connection does not support PrepareContext")

	// ErrExecContextNotSupported is returned when underlying connection does not support ExecContext
	ErrExecContextNotSupported = errors.New("analystdb driver: underlying connection does not support ExecContext")

	// ErrQueryContextNotSupported is returned when underlying connection does not support QueryContext
	ErrQueryContextNotSupported = errors.New("analystdb driver: underlying connection does not support QueryContext")
)
