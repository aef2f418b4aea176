package domain

import "time"

// Department represents a production department with a finite capacity target.
// CapacityTarget is nil when no limit is enforced for the department.
type Department struct {
	ID             string
	Name           string
	Description    string
	CapacityTarget *int
	IsActive       bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Constrained reports whether the department enforces a capacity limit.
func (d *Department) Constrained() bool {
	return d.CapacityTarget != nil && *d.CapacityTarget > 0
}

// TargetOrZero returns the configured target, or 0 for unconstrained departments.
func (d *Department) TargetOrZero() int {
	if d.CapacityTarget == nil {
		return 0
	}
	return *d.CapacityTarget
}
