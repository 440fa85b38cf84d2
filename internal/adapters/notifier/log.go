// Package notifier delivers reminder notifications to the user.
package notifier

import (
	"context"

	"github.com/taskmaster/routine/internal/infrastructure/logger"
	"github.com/taskmaster/routine/internal/ports"
)

// LogNotifier writes notifications to the application log.
type LogNotifier struct {
	logger *logger.Logger
}

func NewLogNotifier(log *logger.Logger) *LogNotifier {
	return &LogNotifier{logger: log.WithComponent("notifier")}
}

func (n *LogNotifier) Notify(_ context.Context, notification ports.Notification) error {
	n.logger.Infow("Reminder",
		"task_id", notification.TaskID,
		"title", notification.Title,
		"body", notification.Body,
		"boundary", notification.Boundary,
		"trigger_at", notification.TriggerAt,
	)
	return nil
}
