package backup

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/taskmaster/routine/internal/domain/entities"
)

func sampleDocument() entities.BackupDocument {
	created := time.Date(2024, 1, 10, 9, 0, 0, 0, time.UTC)
	owner := "day-1"
	return entities.BackupDocument{
		Version:   entities.BackupFormatVersion,
		CreatedAt: created,
		Tasks: []entities.Task{{
			ID:        "task-1",
			Title:     "Standup",
			Category:  entities.CategoryWork,
			StartTime: entities.MustTimeOfDay("09:00"),
			Date:      entities.MustDate("2024-01-15"),
			Subtasks:  []entities.Subtask{{ID: "sub-1", Title: "notes", IsDone: true}},
			CreatedAt: created,
			UpdatedAt: created,
		}},
		DayTemplates: []entities.DayTemplate{{
			ID:       owner,
			Name:     "Mondays",
			IsWeekly: true,
			Weekday:  entities.WeekdayPtr(time.Monday),
			Tasks: []entities.TaskTemplate{{
				ID: "tt-1", DayTemplateID: &owner, Title: "Plan week", Category: entities.CategoryWork,
				StartTime: entities.MustTimeOfDay("08:00"), EndTime: entities.MustTimeOfDay("08:30"),
				Subtasks: []string{"inbox"},
			}},
			CreatedAt: created,
			UpdatedAt: created,
		}},
		TaskTemplates: []entities.TaskTemplate{{ID: "lib-1", Title: "Water plants", Category: entities.CategoryOther, Subtasks: []string{}}},
	}
}

func TestEncodeDecode(t *testing.T) {
	for _, format := range []Format{FormatJSON, FormatYAML} {
		t.Run(string(format), func(t *testing.T) {
			doc := sampleDocument()
			data, err := Encode(doc, format)
			if err != nil {
				t.Fatalf("encode: %v", err)
			}

			got, err := Decode(data, format)
			if err != nil {
				t.Fatalf("decode: %v\n%s", err, data)
			}

			task := got.Tasks[0]
			if task.ID != "task-1" || task.Date.String() != "2024-01-15" || task.StartTime.String() != "09:00" || task.EndTime != nil {
				t.Fatalf("task = %+v", task)
			}
			if !task.CreatedAt.Equal(doc.Tasks[0].CreatedAt) || !task.Subtasks[0].IsDone {
				t.Fatalf("task = %+v", task)
			}
			day := got.DayTemplates[0]
			if day.Weekday == nil || *day.Weekday != time.Monday || day.Tasks[0].EndTime.String() != "08:30" || day.Tasks[0].Subtasks[0] != "inbox" {
				t.Fatalf("day template = %+v", day)
			}
			if got.TaskTemplates[0].DayTemplateID != nil {
				t.Fatal("library template gained an owner")
			}
		})
	}
}

func TestDecodeRejectsMalformedInput(t *testing.T) {
	cases := []struct {
		name   string
		format Format
		data   string
	}{
		{"empty", FormatJSON, "  "},
		{"truncated json", FormatJSON, `{"version": 1, "tasks": [`},
		{"unknown field", FormatJSON, `{"version": 1, "projects": []}`},
		{"trailing data", FormatJSON, `{"version": 1} {}`},
		{"bad date", FormatJSON, `{"version": 1, "tasks": [{"id": "a", "date": "15/01/2024"}]}`},
		{"wrong version", FormatJSON, `{"version": 2}`},
		{"yaml unknown field", FormatYAML, "version: 1\nprojects: []\n"},
		{"yaml bad time", FormatYAML, "version: 1\ntasks:\n  - id: a\n    start_time: \"25:00\"\n"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Decode([]byte(tc.data), tc.format)
			var de *entities.DecodeError
			if !errors.As(err, &de) {
				t.Fatalf("expected DecodeError, got %v", err)
			}
		})
	}
}

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]Format{"": FormatJSON, "JSON": FormatJSON, "yml": FormatYAML, " yaml ": FormatYAML} {
		got, err := ParseFormat(in)
		if err != nil || got != want {
			t.Fatalf("ParseFormat(%q) = %q, %v", in, got, err)
		}
	}
	if _, err := ParseFormat("xml"); err == nil || !strings.Contains(err.Error(), "xml") {
		t.Fatalf("xml: %v", err)
	}
	if FormatYAML.ContentType() != "application/yaml" || FormatJSON.ContentType() != "application/json" {
		t.Fatal("content types")
	}
}
