package domain

import (
	"math"
	"time"
)

// CapacityStatus buckets utilization into planning bands.
type CapacityStatus string

const (
	CapacityStatusLow        CapacityStatus = "low"
	CapacityStatusMedium     CapacityStatus = "medium"
	CapacityStatusHigh       CapacityStatus = "high"
	CapacityStatusOverbooked CapacityStatus = "overbooked"
)

// ValidationSeverity grades a capacity warning.
type ValidationSeverity string

const (
	SeverityWarning ValidationSeverity = "warning"
	SeverityError   ValidationSeverity = "error"
)

// Utilization thresholds, in percent.
const (
	ThresholdMedium     = 50.0
	ThresholdHigh       = 80.0
	ThresholdOverbooked = 100.0
)

// UtilizationPercent computes used/target as a percentage, rounded to two
// decimals. A target of zero or less yields 0 rather than dividing by zero.
func UtilizationPercent(target, used int) float64 {
	if target <= 0 {
		return 0
	}
	return round2(float64(used) / float64(target) * 100)
}

// StatusForPercent maps a utilization percentage onto a CapacityStatus band.
func StatusForPercent(percent float64) CapacityStatus {
	switch {
	case percent >= ThresholdOverbooked:
		return CapacityStatusOverbooked
	case percent >= ThresholdHigh:
		return CapacityStatusHigh
	case percent >= ThresholdMedium:
		return CapacityStatusMedium
	default:
		return CapacityStatusLow
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// CapacitySnapshot is the derived utilization picture for one department over
// a date range. It is computed fresh from live schedule reads on every request
// and never cached, because capacity_used depends on the query window.
type CapacitySnapshot struct {
	DepartmentID       string
	DepartmentName     string
	CapacityTarget     int
	CapacityUsed       int
	AvailableCapacity  int
	CapacityPercentage float64
	CapacityStatus     CapacityStatus
	ScheduledJobs      int
	CompletedQuantity  int
	EmployeeCount      int
	MachineCount       int
}

// NewCapacitySnapshot derives a snapshot from a target and used quantity.
// AvailableCapacity may be negative when the department is overbooked.
func NewCapacitySnapshot(dept *Department, used int) CapacitySnapshot {
	target := dept.TargetOrZero()
	percent := UtilizationPercent(target, used)
	return CapacitySnapshot{
		DepartmentID:       dept.ID,
		DepartmentName:     dept.Name,
		CapacityTarget:     target,
		CapacityUsed:       used,
		AvailableCapacity:  target - used,
		CapacityPercentage: percent,
		CapacityStatus:     StatusForPercent(percent),
	}
}

// ValidationResult is the advisory outcome of checking a proposed quantity
// against department capacity. Invalid is an expected result, not an error.
type ValidationResult struct {
	Valid                bool
	CapacityTarget       int
	CurrentScheduled     int
	RequestedQuantity    int
	TotalAfterScheduling int
	CapacityPercentage   float64
	AvailableCapacity    int
	ExcessQuantity       int
	Warning              *string
	Severity             *ValidationSeverity
}

// DateAlternative proposes a later date in the original department.
type DateAlternative struct {
	SuggestedDate           time.Time
	DaysFromOriginal        int
	AvailableCapacity       int
	CapacityPercentageAfter float64
	CurrentScheduled        int
	Reason                  string
}

// DepartmentAlternative proposes a sibling department on the original date.
type DepartmentAlternative struct {
	DepartmentID            string
	DepartmentName          string
	AvailableCapacity       int
	CapacityPercentageAfter float64
	Reason                  string
}

// AlternativeSet bundles both suggestion searches for one request. Empty
// lists are a valid outcome and must not be treated as failure.
type AlternativeSet struct {
	OriginalDepartment     string
	OriginalDate           time.Time
	RequestedQuantity      int
	DateAlternatives       []DateAlternative
	DepartmentAlternatives []DepartmentAlternative
}

// TotalSuggestions counts suggestions across both lists.
func (s *AlternativeSet) TotalSuggestions() int {
	return len(s.DateAlternatives) + len(s.DepartmentAlternatives)
}
