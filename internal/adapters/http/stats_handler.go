package http

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/taskmaster/routine/internal/domain/entities"
	"github.com/taskmaster/routine/internal/infrastructure/logger"
	"github.com/taskmaster/routine/internal/ports"
)

// StatsHandler serves completion statistics
type StatsHandler struct {
	statsService ports.StatsService
	logger       *logger.Logger
}

func NewStatsHandler(statsService ports.StatsService, logger *logger.Logger) *StatsHandler {
	return &StatsHandler{
		statsService: statsService,
		logger:       logger,
	}
}

// MonthlyStats godoc
// @Summary Completion statistics of one month
// @Tags stats
// @Produce json
// @Param month query string true "Month (YYYY-MM)"
// @Success 200 {object} entities.MonthlyStats
// @Failure 400 {object} ports.ErrorResponse
// @Router /stats/monthly [get]
func (h *StatsHandler) MonthlyStats(c echo.Context) error {
	month, err := entities.ParseYearMonth(c.QueryParam("month"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	stats, err := h.statsService.MonthlyStats(c.Request().Context(), month)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, stats)
}

// YearlyStats godoc
// @Summary Completion statistics of every month of a year
// @Tags stats
// @Produce json
// @Param year query int true "Year"
// @Success 200 {array} entities.MonthlyStats
// @Failure 400 {object} ports.ErrorResponse
// @Router /stats/yearly [get]
func (h *StatsHandler) YearlyStats(c echo.Context) error {
	year, err := strconv.Atoi(c.QueryParam("year"))
	if err != nil || year < 1 || year > 9999 {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid year parameter")
	}

	stats, err := h.statsService.YearStats(c.Request().Context(), year)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, stats)
}
