package http

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/taskmaster/routine/internal/domain/entities"
	"github.com/taskmaster/routine/internal/infrastructure/logger"
	"github.com/taskmaster/routine/internal/ports"
)

// SettingsHandler reads and changes notification settings
type SettingsHandler struct {
	settingsService ports.SettingsService
	logger          *logger.Logger
}

func NewSettingsHandler(settingsService ports.SettingsService, logger *logger.Logger) *SettingsHandler {
	return &SettingsHandler{
		settingsService: settingsService,
		logger:          logger,
	}
}

func (h *SettingsHandler) GetSettings(c echo.Context) error {
	return c.JSON(http.StatusOK, h.settingsService.Current())
}

// UpdateSettings godoc
// @Summary Change notification settings
// @Description Existing reminders are rescheduled with the new offset
// @Tags settings
// @Accept json
// @Produce json
// @Param request body ports.SettingsRequest true "Settings"
// @Success 200 {object} entities.Settings
// @Failure 400 {object} ports.ErrorResponse
// @Router /settings [put]
func (h *SettingsHandler) UpdateSettings(c echo.Context) error {
	var req ports.SettingsRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	settings, err := h.settingsService.Update(c.Request().Context(), entities.Settings{
		NotificationsEnabled:      req.NotificationsEnabled,
		NotificationOffsetMinutes: req.NotificationOffsetMinutes,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, settings)
}
