package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/capacity-service/internal/api/dto"
	"github.com/spec-kit/capacity-service/internal/auth"
	"github.com/spec-kit/capacity-service/internal/config"
	"github.com/spec-kit/capacity-service/internal/service"
	apperrors "github.com/spec-kit/capacity-service/pkg/util"
)

const dateLayout = "2006-01-02"

// CapacityHandler exposes the capacity planning endpoints.
type CapacityHandler struct {
	capacity    *service.CapacityService
	validation  *service.ValidationService
	suggestions *service.SuggestionService
	scheduling  *service.SchedulingService
	planning    config.PlanningConfig
}

// NewCapacityHandler constructs handler.
func NewCapacityHandler(
	capacity *service.CapacityService,
	validation *service.ValidationService,
	suggestions *service.SuggestionService,
	scheduling *service.SchedulingService,
	planning config.PlanningConfig,
) *CapacityHandler {
	return &CapacityHandler{
		capacity:    capacity,
		validation:  validation,
		suggestions: suggestions,
		scheduling:  scheduling,
		planning:    planning,
	}
}

// ListDepartmentCapacity GET /api/capacity/departments.
func (h *CapacityHandler) ListDepartmentCapacity(c *fiber.Ctx) error {
	start, end, err := h.parseWindow(c)
	if err != nil {
		return err
	}
	snapshots, err := h.capacity.ComputeCapacityForAll(c.UserContext(), start, end)
	if err != nil {
		return err
	}
	items := make([]dto.CapacitySnapshotResponse, 0, len(snapshots))
	for i := range snapshots {
		items = append(items, dto.FromSnapshot(&snapshots[i]))
	}
	return success(c, items)
}

// GetDepartmentCapacity GET /api/capacity/departments/:id.
func (h *CapacityHandler) GetDepartmentCapacity(c *fiber.Ctx) error {
	start, end, err := h.parseWindow(c)
	if err != nil {
		return err
	}
	snap, jobs, err := h.capacity.DepartmentDetail(c.UserContext(), c.Params("id"), start, end)
	if err != nil {
		return err
	}
	detail := dto.DepartmentCapacityDetailResponse{
		CapacitySnapshotResponse: dto.FromSnapshot(snap),
		Jobs:                     make([]dto.JobScheduleResponse, 0, len(jobs)),
	}
	for i := range jobs {
		detail.Jobs = append(detail.Jobs, dto.FromJobSchedule(&jobs[i]))
	}
	return success(c, detail)
}

// UpdateCapacityTarget PUT /api/capacity/departments/:id/target.
func (h *CapacityHandler) UpdateCapacityTarget(c *fiber.Ctx) error {
	var req dto.UpdateTargetRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewInvalidArgument("invalid payload", nil)
	}
	actorID := ""
	if principal, ok := auth.PrincipalFromContext(c); ok {
		actorID = principal.SubjectID
	}
	if err := h.capacity.UpdateCapacityTarget(c.UserContext(), actorID, c.Params("id"), req.CapacityTarget); err != nil {
		return err
	}
	return message(c, "Capacity target updated successfully")
}

// ValidateCapacity POST /api/capacity/validate.
func (h *CapacityHandler) ValidateCapacity(c *fiber.Ctx) error {
	var req dto.ValidateCapacityRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewInvalidArgument("invalid payload", nil)
	}
	if req.DepartmentID == "" || req.ScheduledDate == "" {
		return apperrors.NewInvalidArgument("department_id and scheduled_date are required", nil)
	}
	date, err := parseDate(req.ScheduledDate)
	if err != nil {
		return err
	}

	result, err := h.validation.Validate(c.UserContext(), service.ValidateInput{
		DepartmentID:   req.DepartmentID,
		Date:           date,
		Quantity:       req.Quantity,
		ExcludeOrderID: req.ExcludeOrderID,
	})
	if err != nil {
		return err
	}
	return success(c, dto.FromValidationResult(result))
}

// SuggestAlternatives POST /api/capacity/suggest-alternatives.
func (h *CapacityHandler) SuggestAlternatives(c *fiber.Ctx) error {
	var req dto.SuggestAlternativesRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewInvalidArgument("invalid payload", nil)
	}
	if req.DepartmentID == "" || req.ScheduledDate == "" {
		return apperrors.NewInvalidArgument("department_id and scheduled_date are required", nil)
	}
	date, err := parseDate(req.ScheduledDate)
	if err != nil {
		return err
	}

	set, err := h.suggestions.SuggestAlternatives(c.UserContext(), service.SuggestInput{
		DepartmentID: req.DepartmentID,
		Date:         date,
		Quantity:     req.Quantity,
		OrderID:      req.OrderID,
	})
	if err != nil {
		return err
	}
	return success(c, dto.FromAlternativeSet(set))
}

// CommitSchedule POST /api/capacity/schedule.
func (h *CapacityHandler) CommitSchedule(c *fiber.Ctx) error {
	var req dto.CommitScheduleRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewInvalidArgument("invalid payload", nil)
	}
	if req.OrderID == "" || req.DepartmentID == "" || req.ScheduledDate == "" {
		return apperrors.NewInvalidArgument("order_id, department_id and scheduled_date are required", nil)
	}
	date, err := parseDate(req.ScheduledDate)
	if err != nil {
		return err
	}
	actorID := ""
	if principal, ok := auth.PrincipalFromContext(c); ok {
		actorID = principal.SubjectID
	}

	schedule, result, err := h.scheduling.CommitSchedule(c.UserContext(), service.CommitInput{
		OrderID:      req.OrderID,
		DepartmentID: req.DepartmentID,
		MachineID:    req.MachineID,
		Date:         date,
		Quantity:     req.Quantity,
		ActorID:      actorID,
	})
	if err != nil {
		return err
	}
	resp := dto.CommitScheduleResponse{
		Schedule:   dto.FromJobSchedule(schedule),
		Validation: dto.FromValidationResult(result),
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "data": resp})
}

// parseWindow reads start_date/end_date query params, defaulting to the
// configured planning window from today.
func (h *CapacityHandler) parseWindow(c *fiber.Ctx) (time.Time, time.Time, error) {
	today := time.Now().UTC().Truncate(24 * time.Hour)
	start := today
	end := today.AddDate(0, 0, h.planning.DefaultWindowDays)

	if raw := c.Query("start_date"); raw != "" {
		parsed, err := parseDate(raw)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		start = parsed
	}
	if raw := c.Query("end_date"); raw != "" {
		parsed, err := parseDate(raw)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		end = parsed
	}
	return start, end, nil
}

func parseDate(raw string) (time.Time, error) {
	parsed, err := time.Parse(dateLayout, raw)
	if err != nil {
		return time.Time{}, apperrors.NewInvalidArgument("invalid date, expected YYYY-MM-DD", map[string]any{"date": raw})
	}
	return parsed, nil
}

func success(c *fiber.Ctx, data any) error {
	return c.JSON(fiber.Map{"success": true, "data": data})
}

func message(c *fiber.Ctx, msg string) error {
	return c.JSON(fiber.Map{"success": true, "message": msg})
}
