package cli

import "errors"

var (
	// errTableNeedsOneFile is returned when --as is combined with several paths
	errTableNeedsOneFile = errors.New("--as requires exactly one file")

	// errUsage is reported for malformed shell commands
	errUsage = errors.New("usage error")
)
