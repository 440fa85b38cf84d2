package alarm

import (
	"context"
	"testing"
	"time"

	"github.com/taskmaster/routine/internal/ports"
)

func TestMemoryEmitsInTriggerOrder(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(8)
	if err := m.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer m.Stop()

	now := time.Now().UTC()
	if err := m.ScheduleAt(ctx, ports.Alarm{ID: "later", TriggerAt: now.Add(80 * time.Millisecond)}); err != nil {
		t.Fatalf("schedule later: %v", err)
	}
	if err := m.ScheduleAt(ctx, ports.Alarm{ID: "sooner", TriggerAt: now.Add(20 * time.Millisecond)}); err != nil {
		t.Fatalf("schedule sooner: %v", err)
	}

	first := waitAlarm(t, m.Fired(), time.Second)
	second := waitAlarm(t, m.Fired(), time.Second)
	if first.ID != "sooner" || second.ID != "later" {
		t.Fatalf("unexpected order: first=%s second=%s", first.ID, second.ID)
	}
}

func TestMemoryScheduleSameIDReplaces(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(8)
	if err := m.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer m.Stop()

	now := time.Now().UTC()
	if err := m.ScheduleAt(ctx, ports.Alarm{ID: "a", Title: "old", TriggerAt: now.Add(time.Hour)}); err != nil {
		t.Fatalf("schedule: %v", err)
	}
	if err := m.ScheduleAt(ctx, ports.Alarm{ID: "a", Title: "new", TriggerAt: now.Add(20 * time.Millisecond)}); err != nil {
		t.Fatalf("reschedule: %v", err)
	}
	if got := m.Pending(); got != 1 {
		t.Fatalf("pending = %d, want 1", got)
	}

	fired := waitAlarm(t, m.Fired(), time.Second)
	if fired.Title != "new" {
		t.Fatalf("fired %q, want the replacement", fired.Title)
	}
	select {
	case extra := <-m.Fired():
		t.Fatalf("replaced alarm fired twice: %+v", extra)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestMemoryCancel(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(8)
	if err := m.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer m.Stop()

	now := time.Now().UTC()
	if err := m.ScheduleAt(ctx, ports.Alarm{ID: "gone", TriggerAt: now.Add(20 * time.Millisecond)}); err != nil {
		t.Fatalf("schedule: %v", err)
	}
	if err := m.ScheduleAt(ctx, ports.Alarm{ID: "kept", TriggerAt: now.Add(40 * time.Millisecond)}); err != nil {
		t.Fatalf("schedule: %v", err)
	}
	if removed, err := m.Cancel(ctx, "gone"); err != nil || !removed {
		t.Fatalf("cancel: removed=%v err=%v", removed, err)
	}
	if removed, err := m.Cancel(ctx, "never-scheduled"); err != nil || removed {
		t.Fatalf("cancel unknown: removed=%v err=%v", removed, err)
	}
	if m.Pending() != 1 {
		t.Fatalf("pending = %d, want 1", m.Pending())
	}

	fired := waitAlarm(t, m.Fired(), time.Second)
	if fired.ID != "kept" {
		t.Fatalf("fired %s, want kept", fired.ID)
	}
}

func TestMemoryDropsWhenConsumerIsSlow(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(1)
	if err := m.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer m.Stop()

	at := time.Now().UTC().Add(20 * time.Millisecond)
	for i := 0; i < 25; i++ {
		alarm := ports.Alarm{ID: string(rune('a' + i)), TriggerAt: at}
		if err := m.ScheduleAt(ctx, alarm); err != nil {
			t.Fatalf("schedule: %v", err)
		}
	}

	time.Sleep(120 * time.Millisecond)
	if m.Dropped() == 0 {
		t.Fatalf("expected dropped alarms > 0, got %d", m.Dropped())
	}
}

func TestMemoryValidatesTriggerTime(t *testing.T) {
	m := NewMemory(1)
	if err := m.ScheduleAt(context.Background(), ports.Alarm{ID: "bad"}); err != ErrInvalidTriggerTime {
		t.Fatalf("expected ErrInvalidTriggerTime, got %v", err)
	}
}

func waitAlarm(t *testing.T, ch <-chan ports.Alarm, timeout time.Duration) ports.Alarm {
	t.Helper()
	select {
	case alarm := <-ch:
		return alarm
	case <-time.After(timeout):
		t.Fatalf("timed out waiting for alarm")
		return ports.Alarm{}
	}
}
