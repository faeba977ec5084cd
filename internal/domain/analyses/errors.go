package analyses

import "errors"

// ErrNotFound indicates the analysis (or its contract) does not exist.
var ErrNotFound = errors.New("analysis not found")

// ErrNotTerminal indicates a result was requested before the analysis finished.
var ErrNotTerminal = errors.New("analysis is not in a terminal state")
