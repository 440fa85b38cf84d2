package entities

import (
	"errors"
	"strconv"
	"strings"
	"testing"
	"time"
)

func counter() func() string {
	n := 0
	return func() string {
		n++
		return "id-" + strconv.Itoa(n)
	}
}

func TestTaskValidate(t *testing.T) {
	base := Task{
		Title:     "Plan",
		Category:  CategoryWork,
		Date:      MustDate("2024-01-15"),
		StartTime: MustTimeOfDay("08:00"),
		EndTime:   MustTimeOfDay("09:00"),
		Subtasks:  []Subtask{{ID: "s1", Title: "outline"}},
	}
	if err := base.Validate(); err != nil {
		t.Fatalf("valid task rejected: %v", err)
	}

	equal := base.Clone()
	equal.EndTime = MustTimeOfDay("08:00")
	if err := equal.Validate(); err != nil {
		t.Fatalf("equal start and end should be accepted: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*Task)
		field  string
	}{
		{"end before start", func(task *Task) { task.EndTime = MustTimeOfDay("07:59") }, "end_time"},
		{"blank title", func(task *Task) { task.Title = " \t" }, "title"},
		{"title too long", func(task *Task) { task.Title = strings.Repeat("a", MaxTitleLength+1) }, "title"},
		{"description too long", func(task *Task) { task.Description = strings.Repeat("a", MaxDescriptionLength+1) }, "description"},
		{"unknown category", func(task *Task) { task.Category = "NAP" }, "category"},
		{"blank subtask", func(task *Task) { task.Subtasks[0].Title = "" }, "subtasks[0].title"},
		{"no date", func(task *Task) { task.Date = Date{} }, "date"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			task := base.Clone()
			tt.mutate(&task)
			err := task.Validate()

			var ve *ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			found := false
			for _, f := range ve.Fields {
				if f.Field == tt.field {
					found = true
				}
			}
			if !found {
				t.Fatalf("expected field %q in %v", tt.field, ve.Fields)
			}
		})
	}

	exact := base.Clone()
	exact.Title = strings.Repeat("a", MaxTitleLength)
	exact.Description = strings.Repeat("a", MaxDescriptionLength)
	if err := exact.Validate(); err != nil {
		t.Fatalf("limits are inclusive: %v", err)
	}
}

func TestDayTemplateValidate(t *testing.T) {
	weekly := DayTemplate{Name: "Mondays", IsWeekly: true, Weekday: WeekdayPtr(time.Monday)}
	if err := weekly.Validate(); err != nil {
		t.Fatalf("valid weekly template rejected: %v", err)
	}

	noDay := DayTemplate{Name: "Weekly", IsWeekly: true}
	if err := noDay.Validate(); !IsValidation(err) {
		t.Fatalf("weekly without weekday: %v", err)
	}

	custom := DayTemplate{Name: "Custom", Weekday: WeekdayPtr(time.Friday)}
	if err := custom.Validate(); !IsValidation(err) {
		t.Fatalf("custom with weekday: %v", err)
	}

	badDay := DayTemplate{Name: "Eighth day", IsWeekly: true, Weekday: WeekdayPtr(time.Weekday(7))}
	if err := badDay.Validate(); !IsValidation(err) {
		t.Fatalf("weekday 7: %v", err)
	}

	badTask := DayTemplate{Name: "Backwards", Tasks: []TaskTemplate{{
		Title: "x", Category: CategoryOther,
		StartTime: MustTimeOfDay("10:00"), EndTime: MustTimeOfDay("09:00"),
	}}}
	if err := badTask.Validate(); !IsValidation(err) {
		t.Fatalf("backwards blueprint: %v", err)
	}
}

func TestSettingsValidate(t *testing.T) {
	for _, offset := range AllowedOffsets {
		if err := (Settings{NotificationOffsetMinutes: offset}).Validate(); err != nil {
			t.Fatalf("offset %d rejected: %v", offset, err)
		}
	}
	for _, offset := range []int{0, 1, 30} {
		if err := (Settings{NotificationOffsetMinutes: offset}).Validate(); !IsValidation(err) {
			t.Fatalf("offset %d accepted", offset)
		}
	}
	if d := DefaultSettings(); !d.NotificationsEnabled || d.Offset() != 5*time.Minute {
		t.Fatalf("defaults = %+v", d)
	}
}

func TestInstantiate(t *testing.T) {
	tpl := TaskTemplate{
		ID:        "tpl",
		Title:     "Stretch",
		Category:  CategoryHealth,
		StartTime: MustTimeOfDay("06:00"),
		Subtasks:  []string{"neck", "back"},
	}
	task := tpl.Instantiate(MustDate("2024-01-15"), counter())

	if task.ID != "id-1" || task.Title != "Stretch" || task.Category != CategoryHealth || task.IsDone {
		t.Fatalf("task = %+v", task)
	}
	if task.Date.String() != "2024-01-15" || task.EndTime != nil || task.StartTime.String() != "06:00" {
		t.Fatalf("schedule = %s %v %v", task.Date, task.StartTime, task.EndTime)
	}
	if len(task.Subtasks) != 2 || task.Subtasks[1].ID != "id-3" || task.Subtasks[1].Title != "back" || task.Subtasks[1].IsDone {
		t.Fatalf("subtasks = %+v", task.Subtasks)
	}

	task.StartTime.Hour = 5
	if tpl.StartTime.Hour != 6 {
		t.Fatal("instance shares start time with template")
	}
}

func TestCloneIsDeep(t *testing.T) {
	task := Task{StartTime: MustTimeOfDay("08:00"), Subtasks: []Subtask{{ID: "a", Title: "a"}}}
	c := task.Clone()
	c.StartTime.Hour = 9
	c.Subtasks[0].IsDone = true
	if task.StartTime.Hour != 8 || task.Subtasks[0].IsDone {
		t.Fatal("task clone is shallow")
	}

	owner := "day"
	day := DayTemplate{Weekday: WeekdayPtr(time.Monday), Tasks: []TaskTemplate{{DayTemplateID: &owner, Subtasks: []string{"x"}}}}
	dc := day.Clone()
	*dc.Weekday = time.Tuesday
	*dc.Tasks[0].DayTemplateID = "other"
	dc.Tasks[0].Subtasks[0] = "y"
	if *day.Weekday != time.Monday || owner != "day" || day.Tasks[0].Subtasks[0] != "x" {
		t.Fatal("day template clone is shallow")
	}
}

func TestValidationErrorMerge(t *testing.T) {
	inner := &ValidationError{Entity: "task"}
	inner.Add("title", "must not be blank")

	outer := &ValidationError{Entity: "tasks"}
	outer.Merge("tasks[2]", inner)
	outer.Merge("tasks[3]", errors.New("boom"))

	if len(outer.Fields) != 2 || outer.Fields[0].Field != "tasks[2].title" || outer.Fields[1].Field != "tasks[3]" {
		t.Fatalf("fields = %+v", outer.Fields)
	}
	if (&ValidationError{}).OrNil() != nil {
		t.Fatal("empty ValidationError should be nil")
	}
}
