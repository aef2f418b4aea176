package events

import (
	"time"

	"github.com/spec-kit/capacity-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventScheduleCommitted     EventType = "schedule_committed"
	EventCapacityTargetUpdated EventType = "capacity_target_updated"
	EventCapacityThreshold     EventType = "capacity_threshold_breached"
)

// Event represents a domain event emitted by services.
type Event struct {
	ID           string      `json:"id"`
	Type         EventType   `json:"type"`
	DepartmentID string      `json:"department_id"`
	ActorID      string      `json:"actor_id,omitempty"`
	Timestamp    time.Time   `json:"timestamp"`
	Payload      interface{} `json:"payload"`
}

// ScheduleCommittedPayload payload.
type ScheduleCommittedPayload struct {
	ScheduleID         string    `json:"schedule_id"`
	OrderID            string    `json:"order_id"`
	ScheduledDate      time.Time `json:"scheduled_date"`
	ScheduledQuantity  int       `json:"scheduled_quantity"`
	CapacityPercentage float64   `json:"capacity_percentage"`
}

// CapacityTargetUpdatedPayload payload.
type CapacityTargetUpdatedPayload struct {
	OldTarget *int `json:"old_target"`
	NewTarget int  `json:"new_target"`
}

// CapacityThresholdPayload flags a department crossing a utilization band on
// a specific date.
type CapacityThresholdPayload struct {
	Date               time.Time                 `json:"date"`
	CapacityPercentage float64                   `json:"capacity_percentage"`
	Severity           domain.ValidationSeverity `json:"severity"`
}
