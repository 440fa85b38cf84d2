// Package alarm provides the facilities that hold pending reminders and emit
// them when due.
package alarm

import (
	"container/heap"
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/taskmaster/routine/internal/ports"
)

var (
	ErrInvalidTriggerTime = errors.New("alarm: invalid trigger time")
	ErrStopped            = errors.New("alarm: facility stopped")
)

type pendingAlarm struct {
	alarm ports.Alarm
	index int
}

type alarmQueue []*pendingAlarm

func (q alarmQueue) Len() int { return len(q) }

func (q alarmQueue) Less(i, j int) bool {
	return q[i].alarm.TriggerAt.Before(q[j].alarm.TriggerAt)
}

func (q alarmQueue) Swap(i, j int) {
	q[i], q[j] = q[j], q[i]
	q[i].index = i
	q[j].index = j
}

func (q *alarmQueue) Push(x any) {
	item := x.(*pendingAlarm)
	item.index = len(*q)
	*q = append(*q, item)
}

func (q *alarmQueue) Pop() any {
	old := *q
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	item.index = -1
	*q = old[0 : n-1]
	return item
}

// Memory is an in-process alarm facility: a min-heap ordered by trigger time,
// one timer for the earliest entry, and non-blocking emission. Alarms do not
// survive a restart.
type Memory struct {
	mu      sync.Mutex
	queue   alarmQueue
	byID    map[string]*pendingAlarm
	out     chan ports.Alarm
	wakeup  chan struct{}
	stopCh  chan struct{}
	doneCh  chan struct{}
	started bool
	stopped bool
	dropped uint64
	now     func() time.Time
}

func NewMemory(bufferSize int) *Memory {
	if bufferSize <= 0 {
		bufferSize = 1
	}
	return &Memory{
		queue:  make(alarmQueue, 0),
		byID:   make(map[string]*pendingAlarm),
		out:    make(chan ports.Alarm, bufferSize),
		wakeup: make(chan struct{}, 1),
		stopCh: make(chan struct{}),
		doneCh: make(chan struct{}),
		now:    time.Now,
	}
}

func (m *Memory) Fired() <-chan ports.Alarm {
	return m.out
}

func (m *Memory) Start(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.started {
		return nil
	}
	m.started = true
	go m.loop()
	return nil
}

func (m *Memory) Stop() {
	m.mu.Lock()
	if !m.started || m.stopped {
		m.stopped = true
		m.mu.Unlock()
		return
	}
	m.stopped = true
	close(m.stopCh)
	m.mu.Unlock()
	<-m.doneCh
}

// ScheduleAt adds the alarm, replacing any pending alarm with the same ID.
func (m *Memory) ScheduleAt(_ context.Context, alarm ports.Alarm) error {
	if alarm.TriggerAt.IsZero() {
		return ErrInvalidTriggerTime
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.stopped {
		return ErrStopped
	}

	if existing, ok := m.byID[alarm.ID]; ok {
		existing.alarm = alarm
		heap.Fix(&m.queue, existing.index)
	} else {
		item := &pendingAlarm{alarm: alarm}
		heap.Push(&m.queue, item)
		m.byID[alarm.ID] = item
	}
	m.signalWakeup()
	return nil
}

// Cancel removes a pending alarm. Unknown IDs are ignored.
func (m *Memory) Cancel(_ context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	item, ok := m.byID[id]
	if !ok {
		return false, nil
	}
	heap.Remove(&m.queue, item.index)
	delete(m.byID, id)
	m.signalWakeup()
	return true, nil
}

// Pending returns the number of alarms waiting to fire.
func (m *Memory) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.queue)
}

// Dropped counts alarms discarded because the consumer was not keeping up.
func (m *Memory) Dropped() uint64 {
	return atomic.LoadUint64(&m.dropped)
}

func (m *Memory) loop() {
	defer close(m.doneCh)
	defer close(m.out)

	var timer *time.Timer
	for {
		next, hasNext := m.peek()
		if !hasNext {
			select {
			case <-m.wakeup:
				continue
			case <-m.stopCh:
				return
			}
		}

		wait := next.TriggerAt.Sub(m.now())
		if wait < 0 {
			wait = 0
		}
		timer = resetTimer(timer, wait)

		select {
		case <-timer.C:
			for _, alarm := range m.popDue(m.now()) {
				select {
				case m.out <- alarm:
				default:
					atomic.AddUint64(&m.dropped, 1)
				}
			}
		case <-m.wakeup:
			continue
		case <-m.stopCh:
			stopTimer(timer)
			return
		}
	}
}

func (m *Memory) signalWakeup() {
	select {
	case m.wakeup <- struct{}{}:
	default:
	}
}

func (m *Memory) peek() (ports.Alarm, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.queue) == 0 {
		return ports.Alarm{}, false
	}
	return m.queue[0].alarm, true
}

func (m *Memory) popDue(now time.Time) []ports.Alarm {
	m.mu.Lock()
	defer m.mu.Unlock()

	var due []ports.Alarm
	for len(m.queue) > 0 {
		if m.queue[0].alarm.TriggerAt.After(now) {
			break
		}
		item := heap.Pop(&m.queue).(*pendingAlarm)
		delete(m.byID, item.alarm.ID)
		due = append(due, item.alarm)
	}
	return due
}

func resetTimer(timer *time.Timer, d time.Duration) *time.Timer {
	if timer == nil {
		return time.NewTimer(d)
	}
	stopTimer(timer)
	timer.Reset(d)
	return timer
}

func stopTimer(timer *time.Timer) {
	if timer == nil {
		return
	}
	if !timer.Stop() {
		select {
		case <-timer.C:
		default:
		}
	}
}
