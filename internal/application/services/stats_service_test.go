package services

import (
	"context"
	"testing"
	"time"

	"github.com/taskmaster/routine/internal/domain/entities"
)

func TestComputeMonthlyStats(t *testing.T) {
	jan := entities.YearMonth{Year: 2024, Month: time.January}
	tasks := []entities.Task{
		{Date: entities.MustDate("2024-01-01"), IsDone: true},
		{Date: entities.MustDate("2024-01-31"), IsDone: false},
		{Date: entities.MustDate("2024-01-15"), IsDone: true},
		{Date: entities.MustDate("2024-02-01"), IsDone: true},
	}

	stats := ComputeMonthlyStats(jan, tasks)
	if stats.TotalTasks != 3 || stats.CompletedTasks != 2 || stats.PendingTasks != 1 {
		t.Fatalf("stats = %+v", stats)
	}
	if stats.TotalTasks != stats.CompletedTasks+stats.PendingTasks {
		t.Fatal("total must equal completed plus pending")
	}
	if stats.Empty || stats.MonthName != "January" || stats.Month != 1 || stats.Year != 2024 {
		t.Fatalf("stats = %+v", stats)
	}

	empty := ComputeMonthlyStats(entities.YearMonth{Year: 2024, Month: time.March}, tasks)
	if !empty.Empty || empty.TotalTasks != 0 {
		t.Fatalf("march = %+v", empty)
	}
}

func TestMonthlyAndYearStats(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	tasks := newTestTaskService(t, store)
	stats := NewStatsService(store.tasks)

	for _, date := range []string{"2024-02-01", "2024-02-29", "2024-03-01", "2023-02-10"} {
		created, err := tasks.CreateTask(ctx, validTask("Task", date))
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		if date == "2024-02-29" {
			if _, err := tasks.ToggleDone(ctx, created.ID); err != nil {
				t.Fatalf("toggle: %v", err)
			}
		}
	}

	feb, err := stats.MonthlyStats(ctx, entities.YearMonth{Year: 2024, Month: time.February})
	if err != nil {
		t.Fatalf("monthly: %v", err)
	}
	if feb.TotalTasks != 2 || feb.CompletedTasks != 1 || feb.PendingTasks != 1 {
		t.Fatalf("february = %+v", feb)
	}

	year, err := stats.YearStats(ctx, 2024)
	if err != nil {
		t.Fatalf("year: %v", err)
	}
	if len(year) != 12 {
		t.Fatalf("got %d months", len(year))
	}
	if !year[0].Empty || year[1].TotalTasks != 2 || year[2].TotalTasks != 1 {
		t.Fatalf("year = %+v", year[:3])
	}
}
