package dto

import (
	"github.com/spec-kit/capacity-service/internal/domain"
)

const dateLayout = "2006-01-02"

// CapacitySnapshotResponse is the wire form of a department utilization snapshot.
type CapacitySnapshotResponse struct {
	DepartmentID       string  `json:"department_id"`
	DepartmentName     string  `json:"department_name"`
	CapacityTarget     int     `json:"capacity_target"`
	CapacityUsed       int     `json:"capacity_used"`
	AvailableCapacity  int     `json:"available_capacity"`
	CapacityPercentage float64 `json:"capacity_percentage"`
	CapacityStatus     string  `json:"capacity_status"`
	ScheduledJobs      int     `json:"scheduled_jobs"`
	CompletedQuantity  int     `json:"completed_quantity"`
	EmployeeCount      int     `json:"employee_count"`
	MachineCount       int     `json:"machine_count"`
}

// JobScheduleResponse is the wire form of a contributing job schedule.
type JobScheduleResponse struct {
	ID                string  `json:"id"`
	OrderID           string  `json:"order_id"`
	DepartmentID      string  `json:"department_id"`
	MachineID         *string `json:"machine_id,omitempty"`
	ScheduledDate     string  `json:"scheduled_date"`
	ScheduledQuantity int     `json:"scheduled_quantity"`
	ActualQuantity    *int    `json:"actual_quantity,omitempty"`
	Status            string  `json:"status"`
}

// DepartmentCapacityDetailResponse bundles a snapshot with its jobs.
type DepartmentCapacityDetailResponse struct {
	CapacitySnapshotResponse
	Jobs []JobScheduleResponse `json:"jobs"`
}

// UpdateTargetRequest is the admin capacity target update payload.
type UpdateTargetRequest struct {
	CapacityTarget int `json:"capacity_target"`
}

// ValidateCapacityRequest is the validation payload.
type ValidateCapacityRequest struct {
	DepartmentID   string  `json:"department_id"`
	ScheduledDate  string  `json:"scheduled_date"`
	Quantity       int     `json:"quantity"`
	ExcludeOrderID *string `json:"exclude_order_id,omitempty"`
}

// ValidationResultResponse is the wire form of a validation result.
type ValidationResultResponse struct {
	Valid                bool    `json:"valid"`
	CapacityTarget       int     `json:"capacity_target"`
	CurrentScheduled     int     `json:"current_scheduled"`
	RequestedQuantity    int     `json:"requested_quantity"`
	TotalAfterScheduling int     `json:"total_after_scheduling"`
	CapacityPercentage   float64 `json:"capacity_percentage"`
	AvailableCapacity    int     `json:"available_capacity"`
	ExcessQuantity       int     `json:"excess_quantity"`
	Warning              *string `json:"warning,omitempty"`
	Severity             *string `json:"severity,omitempty"`
}

// SuggestAlternativesRequest is the suggestion search payload.
type SuggestAlternativesRequest struct {
	DepartmentID  string  `json:"department_id"`
	ScheduledDate string  `json:"scheduled_date"`
	Quantity      int     `json:"quantity"`
	OrderID       *string `json:"order_id,omitempty"`
}

// DateAlternativeResponse proposes a later date in the original department.
type DateAlternativeResponse struct {
	SuggestedDate           string  `json:"suggested_date"`
	DaysFromOriginal        int     `json:"days_from_original"`
	AvailableCapacity       int     `json:"available_capacity"`
	CapacityPercentageAfter float64 `json:"capacity_percentage_after"`
	CurrentScheduled        int     `json:"current_scheduled"`
	Reason                  string  `json:"reason"`
}

// DepartmentAlternativeResponse proposes a sibling department on the original date.
type DepartmentAlternativeResponse struct {
	DepartmentID            string  `json:"department_id"`
	DepartmentName          string  `json:"department_name"`
	AvailableCapacity       int     `json:"available_capacity"`
	CapacityPercentageAfter float64 `json:"capacity_percentage_after"`
	Reason                  string  `json:"reason"`
}

// AlternativeSetResponse is the full suggestion payload.
type AlternativeSetResponse struct {
	OriginalDepartment     string                          `json:"original_department"`
	OriginalDate           string                          `json:"original_date"`
	RequestedQuantity      int                             `json:"requested_quantity"`
	DateAlternatives       []DateAlternativeResponse       `json:"date_alternatives"`
	DepartmentAlternatives []DepartmentAlternativeResponse `json:"department_alternatives"`
	TotalSuggestions       int                             `json:"total_suggestions"`
}

// CommitScheduleRequest is the schedule write-path payload.
type CommitScheduleRequest struct {
	OrderID       string  `json:"order_id"`
	DepartmentID  string  `json:"department_id"`
	MachineID     *string `json:"machine_id,omitempty"`
	ScheduledDate string  `json:"scheduled_date"`
	Quantity      int     `json:"quantity"`
}

// CommitScheduleResponse returns the persisted schedule and the validation
// it passed.
type CommitScheduleResponse struct {
	Schedule   JobScheduleResponse      `json:"schedule"`
	Validation ValidationResultResponse `json:"validation"`
}

// FromSnapshot maps a domain snapshot.
func FromSnapshot(snap *domain.CapacitySnapshot) CapacitySnapshotResponse {
	return CapacitySnapshotResponse{
		DepartmentID:       snap.DepartmentID,
		DepartmentName:     snap.DepartmentName,
		CapacityTarget:     snap.CapacityTarget,
		CapacityUsed:       snap.CapacityUsed,
		AvailableCapacity:  snap.AvailableCapacity,
		CapacityPercentage: snap.CapacityPercentage,
		CapacityStatus:     string(snap.CapacityStatus),
		ScheduledJobs:      snap.ScheduledJobs,
		CompletedQuantity:  snap.CompletedQuantity,
		EmployeeCount:      snap.EmployeeCount,
		MachineCount:       snap.MachineCount,
	}
}

// FromJobSchedule maps a domain job schedule.
func FromJobSchedule(js *domain.JobSchedule) JobScheduleResponse {
	return JobScheduleResponse{
		ID:                js.ID,
		OrderID:           js.OrderID,
		DepartmentID:      js.DepartmentID,
		MachineID:         js.MachineID,
		ScheduledDate:     js.ScheduledDate.Format(dateLayout),
		ScheduledQuantity: js.ScheduledQuantity,
		ActualQuantity:    js.ActualQuantity,
		Status:            string(js.Status),
	}
}

// FromValidationResult maps a domain validation result.
func FromValidationResult(result *domain.ValidationResult) ValidationResultResponse {
	resp := ValidationResultResponse{
		Valid:                result.Valid,
		CapacityTarget:       result.CapacityTarget,
		CurrentScheduled:     result.CurrentScheduled,
		RequestedQuantity:    result.RequestedQuantity,
		TotalAfterScheduling: result.TotalAfterScheduling,
		CapacityPercentage:   result.CapacityPercentage,
		AvailableCapacity:    result.AvailableCapacity,
		ExcessQuantity:       result.ExcessQuantity,
		Warning:              result.Warning,
	}
	if result.Severity != nil {
		severity := string(*result.Severity)
		resp.Severity = &severity
	}
	return resp
}

// FromAlternativeSet maps a domain suggestion set.
func FromAlternativeSet(set *domain.AlternativeSet) AlternativeSetResponse {
	dates := make([]DateAlternativeResponse, 0, len(set.DateAlternatives))
	for _, alt := range set.DateAlternatives {
		dates = append(dates, DateAlternativeResponse{
			SuggestedDate:           alt.SuggestedDate.Format(dateLayout),
			DaysFromOriginal:        alt.DaysFromOriginal,
			AvailableCapacity:       alt.AvailableCapacity,
			CapacityPercentageAfter: alt.CapacityPercentageAfter,
			CurrentScheduled:        alt.CurrentScheduled,
			Reason:                  alt.Reason,
		})
	}
	depts := make([]DepartmentAlternativeResponse, 0, len(set.DepartmentAlternatives))
	for _, alt := range set.DepartmentAlternatives {
		depts = append(depts, DepartmentAlternativeResponse{
			DepartmentID:            alt.DepartmentID,
			DepartmentName:          alt.DepartmentName,
			AvailableCapacity:       alt.AvailableCapacity,
			CapacityPercentageAfter: alt.CapacityPercentageAfter,
			Reason:                  alt.Reason,
		})
	}
	return AlternativeSetResponse{
		OriginalDepartment:     set.OriginalDepartment,
		OriginalDate:           set.OriginalDate.Format(dateLayout),
		RequestedQuantity:      set.RequestedQuantity,
		DateAlternatives:       dates,
		DepartmentAlternatives: depts,
		TotalSuggestions:       set.TotalSuggestions(),
	}
}
