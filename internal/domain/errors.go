package domain

import (
	"errors"
	"fmt"
)

// Configuration-shape errors are fatal at startup; per-request errors
// are normalized into a CallResult at the dispatcher boundary and never
// crash the serving process.
var (
	ErrUnknownDomain        = errors.New("unknown domain")
	ErrUnknownTool          = errors.New("unknown tool")
	ErrInvalidArguments     = errors.New("invalid arguments")
	ErrMissingCredential    = errors.New("missing credential")
	ErrIncompatibleAuthMode = errors.New("incompatible authentication mode")
	ErrDuplicateTool        = errors.New("duplicate tool name")
	ErrAuth                 = errors.New("authentication failed")
)

// BackendError reports an upstream Azure DevOps failure. It satisfies
// errors.Is(err, ErrBackend).
type BackendError struct {
	Status  int
	Message string
}

var ErrBackend = errors.New("backend error")

func (e *BackendError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("backend error: status %d: %s", e.Status, e.Message)
	}
	return "backend error: " + e.Message
}

func (e *BackendError) Is(target error) bool {
	return target == ErrBackend
}
