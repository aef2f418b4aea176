package domain

import "time"

// ScheduleStatus enumerates lifecycle states for job schedules.
type ScheduleStatus string

const (
	ScheduleStatusScheduled  ScheduleStatus = "scheduled"
	ScheduleStatusInProgress ScheduleStatus = "in_progress"
	ScheduleStatusCompleted  ScheduleStatus = "completed"
	ScheduleStatusCancelled  ScheduleStatus = "cancelled"
	ScheduleStatusRejected   ScheduleStatus = "rejected"
)

// CountsTowardCapacity reports whether a schedule in this status consumes
// department capacity for planning purposes. Cancelled and rejected schedules
// free their quantity; everything else holds it.
func (s ScheduleStatus) CountsTowardCapacity() bool {
	return s != ScheduleStatusCancelled && s != ScheduleStatusRejected
}

// JobSchedule assigns a production quantity to a department on a calendar day.
type JobSchedule struct {
	ID                string
	OrderID           string
	DepartmentID      string
	MachineID         *string
	ScheduledDate     time.Time
	ScheduledQuantity int
	ActualQuantity    *int
	Status            ScheduleStatus
	CreatedAt         time.Time
	UpdatedAt         time.Time
}
