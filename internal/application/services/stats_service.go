package services

import (
	"context"
	"fmt"
	"time"

	"github.com/taskmaster/routine/internal/domain/entities"
	"github.com/taskmaster/routine/internal/ports"
)

// StatsService computes completion statistics. Nothing is cached.
type StatsService struct {
	taskRepo ports.TaskRepository
}

func NewStatsService(taskRepo ports.TaskRepository) *StatsService {
	return &StatsService{taskRepo: taskRepo}
}

// ComputeMonthlyStats counts the tasks of tasks dated within month.
func ComputeMonthlyStats(month entities.YearMonth, tasks []entities.Task) entities.MonthlyStats {
	stats := entities.MonthlyStats{
		Year:      month.Year,
		Month:     int(month.Month),
		MonthName: month.Month.String(),
	}
	for _, t := range tasks {
		if !month.Contains(t.Date) {
			continue
		}
		stats.TotalTasks++
		if t.IsDone {
			stats.CompletedTasks++
		} else {
			stats.PendingTasks++
		}
	}
	stats.Empty = stats.TotalTasks == 0
	return stats
}

func (s *StatsService) MonthlyStats(ctx context.Context, month entities.YearMonth) (entities.MonthlyStats, error) {
	from, to := month.FirstDay(), month.LastDay()
	tasks, err := s.taskRepo.List(ctx, ports.TaskFilter{From: &from, To: &to})
	if err != nil {
		return entities.MonthlyStats{}, fmt.Errorf("failed to compute monthly stats: %w", err)
	}
	return ComputeMonthlyStats(month, tasks), nil
}

// YearStats returns the stats of all twelve months of year.
func (s *StatsService) YearStats(ctx context.Context, year int) ([]entities.MonthlyStats, error) {
	from := entities.Date{Year: year, Month: time.January, Day: 1}
	to := entities.Date{Year: year, Month: time.December, Day: 31}
	tasks, err := s.taskRepo.List(ctx, ports.TaskFilter{From: &from, To: &to})
	if err != nil {
		return nil, fmt.Errorf("failed to compute yearly stats: %w", err)
	}

	out := make([]entities.MonthlyStats, 0, 12)
	for m := time.January; m <= time.December; m++ {
		out = append(out, ComputeMonthlyStats(entities.YearMonth{Year: year, Month: m}, tasks))
	}
	return out, nil
}
