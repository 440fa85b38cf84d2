package http

import (
	"fmt"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/taskmaster/routine/internal/domain/backup"
	"github.com/taskmaster/routine/internal/infrastructure/logger"
	"github.com/taskmaster/routine/internal/ports"
)

// maxImportSize bounds the body of an import request.
const maxImportSize = 32 << 20

// BackupHandler handles export, import and account backups
type BackupHandler struct {
	backupService ports.BackupService
	logger        *logger.Logger
}

func NewBackupHandler(backupService ports.BackupService, logger *logger.Logger) *BackupHandler {
	return &BackupHandler{
		backupService: backupService,
		logger:        logger,
	}
}

// Export godoc
// @Summary Download a backup document
// @Tags backup
// @Produce json
// @Produce application/yaml
// @Param format query string false "json (default) or yaml"
// @Success 200 {object} entities.BackupDocument
// @Router /backup/export [get]
func (h *BackupHandler) Export(c echo.Context) error {
	format, err := backup.ParseFormat(c.QueryParam("format"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	doc, err := h.backupService.Export(c.Request().Context())
	if err != nil {
		return err
	}
	data, err := backup.Encode(doc, format)
	if err != nil {
		return err
	}

	filename := fmt.Sprintf("routine-%s.%s", doc.CreatedAt.Format("20060102-150405"), format)
	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", filename))
	return c.Blob(http.StatusOK, format.ContentType(), data)
}

// Import godoc
// @Summary Load a backup document
// @Description merge (default) keeps entities missing from the document, replace removes them
// @Tags backup
// @Accept json
// @Accept application/yaml
// @Produce json
// @Param format query string false "json (default) or yaml"
// @Param mode query string false "merge (default) or replace"
// @Success 200 {object} ports.MessageResponse
// @Failure 400 {object} ports.ErrorResponse
// @Router /backup/import [post]
func (h *BackupHandler) Import(c echo.Context) error {
	format, err := backup.ParseFormat(c.QueryParam("format"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	data, err := io.ReadAll(io.LimitReader(c.Request().Body, maxImportSize))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Failed to read request body")
	}

	doc, err := backup.Decode(data, format)
	if err != nil {
		return err
	}
	if err := h.backupService.Import(c.Request().Context(), doc, ports.ImportMode(c.QueryParam("mode"))); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, ports.MessageResponse{Message: "Import completed"})
}

// Backup godoc
// @Summary Upload a backup for the signed-in account
// @Tags backup
// @Produce json
// @Success 200 {object} entities.BackupResult
// @Failure 401 {object} ports.ErrorResponse
// @Security BearerAuth
// @Router /backup [post]
func (h *BackupHandler) Backup(c echo.Context) error {
	result := h.backupService.Backup(c.Request().Context(), userIDFromContext(c))
	return c.JSON(http.StatusOK, result)
}

// Restore godoc
// @Summary Restore the signed-in account's backup
// @Tags backup
// @Produce json
// @Param mode query string false "merge (default) or replace"
// @Success 200 {object} entities.BackupResult
// @Failure 401 {object} ports.ErrorResponse
// @Security BearerAuth
// @Router /backup/restore [post]
func (h *BackupHandler) Restore(c echo.Context) error {
	result := h.backupService.Restore(c.Request().Context(), userIDFromContext(c), ports.ImportMode(c.QueryParam("mode")))
	return c.JSON(http.StatusOK, result)
}
