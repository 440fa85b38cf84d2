package http

import (
	"github.com/labstack/echo/v4"
)

// Handlers groups every API handler.
type Handlers struct {
	Auth      *AuthHandler
	Tasks     *TaskHandler
	Templates *TemplateHandler
	Stats     *StatsHandler
	Settings  *SettingsHandler
	Backup    *BackupHandler
}

// RegisterRoutes mounts the API on g. requireAuth guards the account backup routes.
func RegisterRoutes(g *echo.Group, h Handlers, requireAuth echo.MiddlewareFunc) {
	g.POST("/auth/login", h.Auth.Login)

	tasks := g.Group("/tasks")
	tasks.GET("", h.Tasks.ListTasks)
	tasks.POST("", h.Tasks.CreateTask)
	tasks.DELETE("", h.Tasks.DeleteTasksByDate)
	tasks.GET("/watch", h.Tasks.WatchTasks)
	tasks.GET("/:id", h.Tasks.GetTask)
	tasks.PUT("/:id", h.Tasks.UpdateTask)
	tasks.DELETE("/:id", h.Tasks.DeleteTask)
	tasks.POST("/:id/toggle", h.Tasks.ToggleTask)
	tasks.PUT("/:id/subtasks/:subtaskId", h.Tasks.SetSubtask)

	days := g.Group("/day-templates")
	days.GET("", h.Templates.ListDayTemplates)
	days.POST("", h.Templates.CreateDayTemplate)
	days.GET("/watch", h.Templates.WatchDayTemplates)
	days.GET("/:id", h.Templates.GetDayTemplate)
	days.PUT("/:id", h.Templates.UpdateDayTemplate)
	days.DELETE("/:id", h.Templates.DeleteDayTemplate)
	days.POST("/:id/apply", h.Templates.ApplyTemplate)

	weekly := g.Group("/weekly-templates")
	weekly.POST("/apply", h.Templates.ApplyWeekly)
	weekly.PUT("/:weekday", h.Templates.UpsertWeeklyTemplate)

	library := g.Group("/task-templates")
	library.GET("", h.Templates.ListTaskTemplates)
	library.POST("", h.Templates.CreateTaskTemplate)
	library.GET("/:id", h.Templates.GetTaskTemplate)
	library.PUT("/:id", h.Templates.UpdateTaskTemplate)
	library.DELETE("/:id", h.Templates.DeleteTaskTemplate)

	g.GET("/stats/monthly", h.Stats.MonthlyStats)
	g.GET("/stats/yearly", h.Stats.YearlyStats)

	g.GET("/settings", h.Settings.GetSettings)
	g.PUT("/settings", h.Settings.UpdateSettings)

	b := g.Group("/backup")
	b.GET("/export", h.Backup.Export)
	b.POST("/import", h.Backup.Import)
	b.POST("", h.Backup.Backup, requireAuth)
	b.POST("/restore", h.Backup.Restore, requireAuth)
}
