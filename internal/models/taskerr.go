package models

import "fmt"

// TaskErrorReason classifies a row-level failure of a task-creation style
// operation.
type TaskErrorReason string

const (
	TaskErrMissingPerformer   TaskErrorReason = "missing_performer"
	TaskErrInvalidPerformerID TaskErrorReason = "invalid_performer_id"
	TaskErrPerformerNotFound  TaskErrorReason = "performer_not_found"
	TaskErrProjectConfigUnmet TaskErrorReason = "project_config_unmet"
	TaskErrUnknown            TaskErrorReason = "unknown"
)

// taskErrorMessages are the reason-specific default messages used when the
// producer omits one.
var taskErrorMessages = map[TaskErrorReason]string{
	TaskErrMissingPerformer:   "performer is required",
	TaskErrInvalidPerformerID: "performer identifier is invalid",
	TaskErrPerformerNotFound:  "performer not found",
	TaskErrProjectConfigUnmet: "project configuration prerequisite is not met",
	TaskErrUnknown:            "task row rejected",
}

// TaskRowError is a structured row-level validation error.
type TaskRowError struct {
	Row     int             `json:"row"`
	Entity  string          `json:"entity"`
	Field   string          `json:"field"`
	Reason  TaskErrorReason `json:"reason"`
	Message string          `json:"message"`
}

func (e TaskRowError) Error() string {
	return fmt.Sprintf("row %d (%s): %s: %s", e.Row, e.Entity, e.Field, e.Message)
}

// NormalizeTaskRowErrors maps unrecognized reasons to TaskErrUnknown and
// fills reason-specific default messages where the producer omitted them.
func NormalizeTaskRowErrors(errs []TaskRowError) []TaskRowError {
	out := make([]TaskRowError, len(errs))
	for i, e := range errs {
		if _, known := taskErrorMessages[e.Reason]; !known {
			e.Reason = TaskErrUnknown
		}
		if e.Message == "" {
			e.Message = taskErrorMessages[e.Reason]
		}
		out[i] = e
	}
	return out
}
