package job

import "go-gamehall/internal/event"

// SendEventJob carries a post-commit broadcast. Dispatching through the
// queue keeps event emission out of database transactions.
type SendEventJob struct {
	EventMessage event.Message
	Event        event.Trigger
}

func (job *SendEventJob) Execute() {
	if err := job.Event.TriggerEvent(job.EventMessage); err != nil {
		return
	}
}
