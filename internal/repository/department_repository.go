package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/capacity-service/internal/domain"
)

// DepartmentResources carries per-department staffing and equipment counts
// joined into the capacity overview.
type DepartmentResources struct {
	DepartmentID  string
	EmployeeCount int
	MachineCount  int
}

// DepartmentRepository reads department configuration and persists capacity
// target updates.
type DepartmentRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Department, error)
	ListActive(ctx context.Context) ([]domain.Department, error)
	UpdateCapacityTarget(ctx context.Context, id string, target int) error
	ResourceCounts(ctx context.Context) ([]DepartmentResources, error)
}

type departmentRepository struct {
	pool *pgxpool.Pool
}

// NewDepartmentRepository builds the repository.
func NewDepartmentRepository(pool *pgxpool.Pool) DepartmentRepository {
	return &departmentRepository{pool: pool}
}

func (r *departmentRepository) GetByID(ctx context.Context, id string) (*domain.Department, error) {
	const query = `
        SELECT id, name, description, capacity_target, is_active, created_at, updated_at
        FROM departments WHERE id=$1`
	var dept domain.Department
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&dept.ID,
		&dept.Name,
		&dept.Description,
		&dept.CapacityTarget,
		&dept.IsActive,
		&dept.CreatedAt,
		&dept.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &dept, nil
}

func (r *departmentRepository) ListActive(ctx context.Context) ([]domain.Department, error) {
	const query = `
        SELECT id, name, description, capacity_target, is_active, created_at, updated_at
        FROM departments WHERE is_active = TRUE
        ORDER BY name`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Department
	for rows.Next() {
		var dept domain.Department
		if err := rows.Scan(&dept.ID, &dept.Name, &dept.Description, &dept.CapacityTarget, &dept.IsActive, &dept.CreatedAt, &dept.UpdatedAt); err != nil {
			return nil, err
		}
		result = append(result, dept)
	}
	return result, rows.Err()
}

func (r *departmentRepository) UpdateCapacityTarget(ctx context.Context, id string, target int) error {
	const query = `
        UPDATE departments SET capacity_target=$1, updated_at=NOW()
        WHERE id=$2`
	cmd, err := r.pool.Exec(ctx, query, target, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *departmentRepository) ResourceCounts(ctx context.Context) ([]DepartmentResources, error) {
	const query = `
        SELECT d.id,
               COUNT(DISTINCT e.id) AS employee_count,
               COUNT(DISTINCT m.id) AS machine_count
        FROM departments d
        LEFT JOIN employees e ON d.id = e.department_id AND e.is_active = TRUE
        LEFT JOIN machines m ON d.id = m.department_id AND m.is_active = TRUE
        WHERE d.is_active = TRUE
        GROUP BY d.id`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []DepartmentResources
	for rows.Next() {
		var res DepartmentResources
		if err := rows.Scan(&res.DepartmentID, &res.EmployeeCount, &res.MachineCount); err != nil {
			return nil, err
		}
		result = append(result, res)
	}
	return result, rows.Err()
}
