package domain

import (
	"time"

	"github.com/google/uuid"
)

// CallbackPayload is the body pushed to the operator-configured callback
// endpoint when a job reaches a terminal status.
type CallbackPayload struct {
	TaskID   uuid.UUID       `json:"taskId"`
	Response []SubTaskResult `json:"response"`
}

// PendingCallback records a callback payload that exhausted all delivery
// attempts. Entries are appended to the failure log for manual
// reconciliation and are never retried automatically.
type PendingCallback struct {
	TaskID      uuid.UUID       `json:"task_id"`
	CallbackURL string          `json:"callback_url"`
	Data        CallbackPayload `json:"data"`
	Time        time.Time       `json:"time"`
}
