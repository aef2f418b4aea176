package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/capacity-service/internal/domain"
)

// DailyQuantity is a per-day scheduled quantity aggregate for one department.
type DailyQuantity struct {
	Date     time.Time
	Quantity int
}

// DepartmentQuantity is a per-department scheduled quantity aggregate for one date.
type DepartmentQuantity struct {
	DepartmentID string
	Quantity     int
}

// DepartmentAggregate summarizes scheduling activity for one department over
// a date range, feeding the batch capacity overview.
type DepartmentAggregate struct {
	DepartmentID      string
	ScheduledJobs     int
	ScheduledQuantity int
	CompletedQuantity int
}

// Cancelled and rejected schedules release their quantity; every other status
// holds capacity for planning purposes.
const countedStatuses = `status NOT IN ('cancelled','rejected')`

// ScheduleRepository reads scheduled-quantity aggregates and persists new
// job schedules.
type ScheduleRepository interface {
	SumScheduledQuantity(ctx context.Context, departmentID string, start, end time.Time, excludeOrderID *string) (int, error)
	SumByDate(ctx context.Context, departmentID string, start, end time.Time) ([]DailyQuantity, error)
	SumByDepartmentOn(ctx context.Context, date time.Time, excludeDepartmentID string) ([]DepartmentQuantity, error)
	Aggregates(ctx context.Context, start, end time.Time) ([]DepartmentAggregate, error)
	ListForDepartment(ctx context.Context, departmentID string, start, end time.Time) ([]domain.JobSchedule, error)
	Create(ctx context.Context, schedule *domain.JobSchedule) error
}

type scheduleRepository struct {
	pool *pgxpool.Pool
}

// NewScheduleRepository builds the repository.
func NewScheduleRepository(pool *pgxpool.Pool) ScheduleRepository {
	return &scheduleRepository{pool: pool}
}

func (r *scheduleRepository) SumScheduledQuantity(ctx context.Context, departmentID string, start, end time.Time, excludeOrderID *string) (int, error) {
	const query = `
        SELECT COALESCE(SUM(scheduled_quantity), 0)
        FROM job_schedules
        WHERE department_id=$1
          AND scheduled_date BETWEEN $2 AND $3
          AND ` + countedStatuses + `
          AND ($4::text IS NULL OR order_id <> $4)`
	var total int
	if err := r.pool.QueryRow(ctx, query, departmentID, start, end, excludeOrderID).Scan(&total); err != nil {
		return 0, err
	}
	return total, nil
}

func (r *scheduleRepository) SumByDate(ctx context.Context, departmentID string, start, end time.Time) ([]DailyQuantity, error) {
	const query = `
        SELECT scheduled_date, COALESCE(SUM(scheduled_quantity), 0)
        FROM job_schedules
        WHERE department_id=$1
          AND scheduled_date BETWEEN $2 AND $3
          AND ` + countedStatuses + `
        GROUP BY scheduled_date
        ORDER BY scheduled_date`
	rows, err := r.pool.Query(ctx, query, departmentID, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []DailyQuantity
	for rows.Next() {
		var dq DailyQuantity
		if err := rows.Scan(&dq.Date, &dq.Quantity); err != nil {
			return nil, err
		}
		result = append(result, dq)
	}
	return result, rows.Err()
}

func (r *scheduleRepository) SumByDepartmentOn(ctx context.Context, date time.Time, excludeDepartmentID string) ([]DepartmentQuantity, error) {
	const query = `
        SELECT department_id, COALESCE(SUM(scheduled_quantity), 0)
        FROM job_schedules
        WHERE scheduled_date=$1
          AND department_id <> $2
          AND ` + countedStatuses + `
        GROUP BY department_id`
	rows, err := r.pool.Query(ctx, query, date, excludeDepartmentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []DepartmentQuantity
	for rows.Next() {
		var dq DepartmentQuantity
		if err := rows.Scan(&dq.DepartmentID, &dq.Quantity); err != nil {
			return nil, err
		}
		result = append(result, dq)
	}
	return result, rows.Err()
}

func (r *scheduleRepository) Aggregates(ctx context.Context, start, end time.Time) ([]DepartmentAggregate, error) {
	const query = `
        SELECT department_id,
               COUNT(*) FILTER (WHERE ` + countedStatuses + `) AS scheduled_jobs,
               COALESCE(SUM(scheduled_quantity) FILTER (WHERE ` + countedStatuses + `), 0) AS scheduled_quantity,
               COALESCE(SUM(actual_quantity) FILTER (WHERE status = 'completed'), 0) AS completed_quantity
        FROM job_schedules
        WHERE scheduled_date BETWEEN $1 AND $2
        GROUP BY department_id`
	rows, err := r.pool.Query(ctx, query, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []DepartmentAggregate
	for rows.Next() {
		var agg DepartmentAggregate
		if err := rows.Scan(&agg.DepartmentID, &agg.ScheduledJobs, &agg.ScheduledQuantity, &agg.CompletedQuantity); err != nil {
			return nil, err
		}
		result = append(result, agg)
	}
	return result, rows.Err()
}

func (r *scheduleRepository) ListForDepartment(ctx context.Context, departmentID string, start, end time.Time) ([]domain.JobSchedule, error) {
	const query = `
        SELECT id, order_id, department_id, machine_id, scheduled_date,
               scheduled_quantity, actual_quantity, status, created_at, updated_at
        FROM job_schedules
        WHERE department_id=$1
          AND scheduled_date BETWEEN $2 AND $3
        ORDER BY scheduled_date, status`
	rows, err := r.pool.Query(ctx, query, departmentID, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.JobSchedule
	for rows.Next() {
		var js domain.JobSchedule
		if err := rows.Scan(
			&js.ID,
			&js.OrderID,
			&js.DepartmentID,
			&js.MachineID,
			&js.ScheduledDate,
			&js.ScheduledQuantity,
			&js.ActualQuantity,
			&js.Status,
			&js.CreatedAt,
			&js.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, js)
	}
	return result, rows.Err()
}

func (r *scheduleRepository) Create(ctx context.Context, schedule *domain.JobSchedule) error {
	const query = `
        INSERT INTO job_schedules (order_id, department_id, machine_id, scheduled_date, scheduled_quantity, status)
        VALUES ($1,$2,$3,$4,$5,$6)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		schedule.OrderID,
		schedule.DepartmentID,
		schedule.MachineID,
		schedule.ScheduledDate,
		schedule.ScheduledQuantity,
		schedule.Status,
	).Scan(&schedule.ID, &schedule.CreatedAt, &schedule.UpdatedAt)
}
