package mq

import "time"

// Routing keys published on the "events" topic exchange.
const (
	RoutingKeyTaskCreated          = "task.created"
	RoutingKeyTaskUpdated          = "task.updated"
	RoutingKeyTaskDeleted          = "task.deleted"
	RoutingKeyTaskStatusUpdated    = "task.status_updated"
	RoutingKeyTaskChecklistUpdated = "task.checklist_updated"
)

// TaskEventPayload is the body of every task.* event.
type TaskEventPayload struct {
	TaskID     int       `json:"task_id"`
	Title      string    `json:"title"`
	Department string    `json:"department"`
	ActorID    int       `json:"actor_id"`
	AssignedTo []int     `json:"assigned_to"`
	Status     string    `json:"status"`
	Progress   int       `json:"progress"`
	TraceID    string    `json:"trace_id,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}
