package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/taskmaster/routine/internal/domain/entities"
	"github.com/taskmaster/routine/internal/infrastructure/logger"
	"github.com/taskmaster/routine/internal/ports"
)

// TemplateHandler handles day templates, the task template library and template expansion
type TemplateHandler struct {
	templateService  ports.TemplateService
	expansionService ports.ExpansionService
	logger           *logger.Logger
}

// NewTemplateHandler creates a new template handler
func NewTemplateHandler(templateService ports.TemplateService, expansionService ports.ExpansionService, logger *logger.Logger) *TemplateHandler {
	return &TemplateHandler{
		templateService:  templateService,
		expansionService: expansionService,
		logger:           logger,
	}
}

// CreateDayTemplate godoc
// @Summary Create a day template
// @Description Weekly templates must name a weekday that no other weekly template uses
// @Tags day-templates
// @Accept json
// @Produce json
// @Param request body entities.DayTemplate true "Day template"
// @Success 201 {object} entities.DayTemplate
// @Failure 400 {object} ports.ErrorResponse
// @Failure 409 {object} ports.ErrorResponse
// @Router /day-templates [post]
func (h *TemplateHandler) CreateDayTemplate(c echo.Context) error {
	var tpl entities.DayTemplate
	if err := c.Bind(&tpl); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}
	tpl.ID = ""

	created, err := h.templateService.CreateDayTemplate(c.Request().Context(), tpl)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, created)
}

func (h *TemplateHandler) GetDayTemplate(c echo.Context) error {
	tpl, err := h.templateService.GetDayTemplate(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, tpl)
}

func (h *TemplateHandler) UpdateDayTemplate(c echo.Context) error {
	var tpl entities.DayTemplate
	if err := c.Bind(&tpl); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}
	tpl.ID = c.Param("id")

	updated, err := h.templateService.UpdateDayTemplate(c.Request().Context(), tpl)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, updated)
}

func (h *TemplateHandler) DeleteDayTemplate(c echo.Context) error {
	if err := h.templateService.DeleteDayTemplate(c.Request().Context(), c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// ListDayTemplates godoc
// @Summary List day templates
// @Tags day-templates
// @Produce json
// @Param weekly query bool false "Only weekly (true) or only custom (false) templates"
// @Param weekday query int false "Weekday, 0 is Sunday"
// @Success 200 {array} entities.DayTemplate
// @Router /day-templates [get]
func (h *TemplateHandler) ListDayTemplates(c echo.Context) error {
	filter, err := templateFilter(c)
	if err != nil {
		return err
	}

	tpls, err := h.templateService.ListDayTemplates(c.Request().Context(), filter)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, tpls)
}

// WatchDayTemplates streams the filtered template list as server-sent events.
func (h *TemplateHandler) WatchDayTemplates(c echo.Context) error {
	filter, err := templateFilter(c)
	if err != nil {
		return err
	}

	updates, err := h.templateService.WatchDayTemplates(c.Request().Context(), filter)
	if err != nil {
		return err
	}
	return stream(c, updates)
}

// UpsertWeeklyTemplate godoc
// @Summary Set the weekly template of a weekday
// @Description Replaces the template currently pinned to the weekday, keeping its id
// @Tags day-templates
// @Accept json
// @Produce json
// @Param weekday path int true "Weekday, 0 is Sunday"
// @Param request body entities.DayTemplate true "Day template"
// @Success 200 {object} entities.DayTemplate
// @Failure 400 {object} ports.ErrorResponse
// @Router /weekly-templates/{weekday} [put]
func (h *TemplateHandler) UpsertWeeklyTemplate(c echo.Context) error {
	weekday, err := parseWeekday(c.Param("weekday"))
	if err != nil {
		return err
	}

	var tpl entities.DayTemplate
	if err := c.Bind(&tpl); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}
	tpl.ID = ""

	stored, err := h.templateService.UpsertWeeklyTemplate(c.Request().Context(), weekday, tpl)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, stored)
}

// ApplyTemplate godoc
// @Summary Expand a day template onto a date
// @Description Creates one task per task template. Either all tasks are created or none.
// @Tags day-templates
// @Accept json
// @Produce json
// @Param id path string true "Day template ID"
// @Param request body ports.ApplyTemplateRequest true "Target date"
// @Success 201 {array} entities.Task
// @Failure 400 {object} ports.ErrorResponse
// @Failure 404 {object} ports.ErrorResponse
// @Router /day-templates/{id}/apply [post]
func (h *TemplateHandler) ApplyTemplate(c echo.Context) error {
	date, err := bindApplyDate(c)
	if err != nil {
		return err
	}

	tasks, err := h.expansionService.ApplyTemplate(c.Request().Context(), c.Param("id"), date)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, tasks)
}

// ApplyWeekly expands the weekly template of the date's weekday, if any.
func (h *TemplateHandler) ApplyWeekly(c echo.Context) error {
	date, err := bindApplyDate(c)
	if err != nil {
		return err
	}

	tasks, err := h.expansionService.ApplyWeekly(c.Request().Context(), date)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, tasks)
}

func (h *TemplateHandler) CreateTaskTemplate(c echo.Context) error {
	var tpl entities.TaskTemplate
	if err := c.Bind(&tpl); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}
	tpl.ID = ""

	created, err := h.templateService.CreateTaskTemplate(c.Request().Context(), tpl)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, created)
}

func (h *TemplateHandler) GetTaskTemplate(c echo.Context) error {
	tpl, err := h.templateService.GetTaskTemplate(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, tpl)
}

func (h *TemplateHandler) UpdateTaskTemplate(c echo.Context) error {
	var tpl entities.TaskTemplate
	if err := c.Bind(&tpl); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}
	tpl.ID = c.Param("id")

	updated, err := h.templateService.UpdateTaskTemplate(c.Request().Context(), tpl)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, updated)
}

func (h *TemplateHandler) DeleteTaskTemplate(c echo.Context) error {
	if err := h.templateService.DeleteTaskTemplate(c.Request().Context(), c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *TemplateHandler) ListTaskTemplates(c echo.Context) error {
	tpls, err := h.templateService.ListTaskTemplates(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, tpls)
}

func bindApplyDate(c echo.Context) (entities.Date, error) {
	var req ports.ApplyTemplateRequest
	if err := c.Bind(&req); err != nil {
		return entities.Date{}, echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}
	if err := c.Validate(&req); err != nil {
		return entities.Date{}, err
	}

	date, err := entities.ParseDate(req.Date)
	if err != nil {
		return entities.Date{}, echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return date, nil
}

func templateFilter(c echo.Context) (ports.TemplateFilter, error) {
	var filter ports.TemplateFilter

	if raw := c.QueryParam("weekly"); raw != "" {
		weekly, err := strconv.ParseBool(raw)
		if err != nil {
			return filter, echo.NewHTTPError(http.StatusBadRequest, "Invalid weekly parameter")
		}
		filter.IsWeekly = &weekly
	}

	if raw := c.QueryParam("weekday"); raw != "" {
		weekday, err := parseWeekday(raw)
		if err != nil {
			return filter, err
		}
		filter.Weekday = &weekday
	}

	return filter, nil
}

func parseWeekday(raw string) (time.Weekday, error) {
	n, err := strconv.Atoi(raw)
	if err != nil || n < int(time.Sunday) || n > int(time.Saturday) {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "weekday must be between 0 (Sunday) and 6 (Saturday)")
	}
	return time.Weekday(n), nil
}
