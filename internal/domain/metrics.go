package domain

import "time"

// Call statuses recorded by the dispatcher.
const (
	CallStatusSuccess           = "success"
	CallStatusUnknownTool       = "unknown_tool"
	CallStatusInvalidArguments  = "invalid_arguments"
	CallStatusMissingCredential = "missing_credential"
	CallStatusBackendError      = "backend_error"
	CallStatusError             = "error"
)

type Metrics interface {
	ObserveToolCall(tool string, dom Domain, status string, duration time.Duration)
	SetEnabledTools(count int)
}
