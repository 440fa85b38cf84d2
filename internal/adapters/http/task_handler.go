package http

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/taskmaster/routine/internal/domain/entities"
	"github.com/taskmaster/routine/internal/infrastructure/logger"
	"github.com/taskmaster/routine/internal/ports"
)

// TaskHandler handles task-related requests
type TaskHandler struct {
	taskService ports.TaskService
	logger      *logger.Logger
}

// NewTaskHandler creates a new task handler
func NewTaskHandler(taskService ports.TaskService, logger *logger.Logger) *TaskHandler {
	return &TaskHandler{
		taskService: taskService,
		logger:      logger,
	}
}

// CreateTask godoc
// @Summary Create a task
// @Description Create a dated task with optional time window and subtasks
// @Tags tasks
// @Accept json
// @Produce json
// @Param request body entities.Task true "Task data"
// @Success 201 {object} entities.Task
// @Failure 400 {object} ports.ErrorResponse
// @Router /tasks [post]
func (h *TaskHandler) CreateTask(c echo.Context) error {
	var task entities.Task
	if err := c.Bind(&task); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}
	task.ID = ""

	created, err := h.taskService.CreateTask(c.Request().Context(), task)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, created)
}

// GetTask godoc
// @Summary Get task by ID
// @Tags tasks
// @Produce json
// @Param id path string true "Task ID"
// @Success 200 {object} entities.Task
// @Failure 404 {object} ports.ErrorResponse
// @Router /tasks/{id} [get]
func (h *TaskHandler) GetTask(c echo.Context) error {
	task, err := h.taskService.GetTask(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, task)
}

// UpdateTask godoc
// @Summary Replace a task
// @Tags tasks
// @Accept json
// @Produce json
// @Param id path string true "Task ID"
// @Param request body entities.Task true "Task data"
// @Success 200 {object} entities.Task
// @Failure 400 {object} ports.ErrorResponse
// @Failure 404 {object} ports.ErrorResponse
// @Router /tasks/{id} [put]
func (h *TaskHandler) UpdateTask(c echo.Context) error {
	var task entities.Task
	if err := c.Bind(&task); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}
	task.ID = c.Param("id")

	updated, err := h.taskService.UpdateTask(c.Request().Context(), task)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, updated)
}

// DeleteTask godoc
// @Summary Delete a task
// @Description Deleting a task that does not exist succeeds
// @Tags tasks
// @Param id path string true "Task ID"
// @Success 204
// @Router /tasks/{id} [delete]
func (h *TaskHandler) DeleteTask(c echo.Context) error {
	if err := h.taskService.DeleteTask(c.Request().Context(), c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// DeleteTasksByDate godoc
// @Summary Delete every task on a date
// @Tags tasks
// @Produce json
// @Param date query string true "Date (YYYY-MM-DD)"
// @Success 200 {object} ports.DeletedResponse
// @Failure 400 {object} ports.ErrorResponse
// @Router /tasks [delete]
func (h *TaskHandler) DeleteTasksByDate(c echo.Context) error {
	raw := c.QueryParam("date")
	if raw == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "date query parameter is required")
	}
	date, err := entities.ParseDate(raw)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	n, err := h.taskService.DeleteTasksByDate(c.Request().Context(), date)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, ports.DeletedResponse{Deleted: n})
}

// ToggleTask godoc
// @Summary Flip a task's done state
// @Tags tasks
// @Produce json
// @Param id path string true "Task ID"
// @Success 200 {object} entities.Task
// @Failure 404 {object} ports.ErrorResponse
// @Router /tasks/{id}/toggle [post]
func (h *TaskHandler) ToggleTask(c echo.Context) error {
	task, err := h.taskService.ToggleDone(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, task)
}

// SetSubtask godoc
// @Summary Mark a subtask done or not done
// @Tags tasks
// @Accept json
// @Produce json
// @Param id path string true "Task ID"
// @Param subtaskId path string true "Subtask ID"
// @Param request body ports.SetSubtaskRequest true "Done state"
// @Success 200 {object} entities.Task
// @Failure 404 {object} ports.ErrorResponse
// @Router /tasks/{id}/subtasks/{subtaskId} [put]
func (h *TaskHandler) SetSubtask(c echo.Context) error {
	var req ports.SetSubtaskRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	task, err := h.taskService.SetSubtaskDone(c.Request().Context(), c.Param("id"), c.Param("subtaskId"), req.IsDone)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, task)
}

// ListTasks godoc
// @Summary List tasks
// @Tags tasks
// @Produce json
// @Param date query string false "Exact date (YYYY-MM-DD)"
// @Param from query string false "First date, inclusive"
// @Param to query string false "Last date, inclusive"
// @Param done query bool false "Completion state"
// @Param category query string false "Category"
// @Success 200 {array} entities.Task
// @Router /tasks [get]
func (h *TaskHandler) ListTasks(c echo.Context) error {
	filter, err := taskFilter(c)
	if err != nil {
		return err
	}

	tasks, err := h.taskService.ListTasks(c.Request().Context(), filter)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, tasks)
}

// WatchTasks streams the filtered task list as server-sent events.
func (h *TaskHandler) WatchTasks(c echo.Context) error {
	filter, err := taskFilter(c)
	if err != nil {
		return err
	}

	updates, err := h.taskService.WatchTasks(c.Request().Context(), filter)
	if err != nil {
		return err
	}
	return stream(c, updates)
}

func taskFilter(c echo.Context) (ports.TaskFilter, error) {
	var filter ports.TaskFilter

	for param, dst := range map[string]**entities.Date{"date": &filter.Date, "from": &filter.From, "to": &filter.To} {
		raw := c.QueryParam(param)
		if raw == "" {
			continue
		}
		d, err := entities.ParseDate(raw)
		if err != nil {
			return filter, echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		*dst = &d
	}

	if raw := c.QueryParam("done"); raw != "" {
		done, err := strconv.ParseBool(raw)
		if err != nil {
			return filter, echo.NewHTTPError(http.StatusBadRequest, "Invalid done parameter")
		}
		filter.IsDone = &done
	}

	if raw := c.QueryParam("category"); raw != "" {
		category := entities.Category(raw)
		if !category.IsValid() {
			return filter, echo.NewHTTPError(http.StatusBadRequest, "Invalid category parameter")
		}
		filter.Category = &category
	}

	return filter, nil
}
