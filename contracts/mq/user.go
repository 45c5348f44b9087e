package mq

import "time"

const (
	RoutingKeyUserRegistered = "user.registered"
	RoutingKeyUserDeleted    = "user.deleted"
)

type UserEventPayload struct {
	UserID     int       `json:"user_id"`
	Email      string    `json:"email"`
	Role       string    `json:"role"`
	Department string    `json:"department,omitempty"`
	ActorID    int       `json:"actor_id,omitempty"`
	TraceID    string    `json:"trace_id,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}
