// Package scheduler 提供基于最小堆的定时器调度以及按分钟匹配的 cron 任务。
package scheduler

import (
	"container/heap"
	"context"
	"log"
	"runtime/debug"
	"sync"
	"time"
)

// Scheduler 管理定时器。到期的回调在调用 Tick 的 goroutine 上执行。
type Scheduler struct {
	mu    sync.Mutex
	queue timerQueue
	seq   uint64
	now   func() time.Time
}

// NewScheduler 创建一个新的定时器调度器。
func NewScheduler() *Scheduler {
	return &Scheduler{now: time.Now}
}

// AddCallback 登记一个在 d 之后触发一次的回调。
func (s *Scheduler) AddCallback(d time.Duration, callback CallbackFunc) *Timer {
	return s.schedule(d, 0, callback)
}

// AddTimer 登记一个每隔 d 触发一次的回调。
func (s *Scheduler) AddTimer(d time.Duration, callback CallbackFunc) *Timer {
	d = max(d, minTimerInterval)
	return s.schedule(d, d, callback)
}

// Len 返回队列中等待触发的定时器数量。
func (s *Scheduler) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.queue.Len()
}

func (s *Scheduler) schedule(delay, every time.Duration, callback CallbackFunc) *Timer {
	t := &Timer{every: every, callback: callback, owner: s, index: -1}

	s.mu.Lock()
	defer s.mu.Unlock()

	t.due = s.now().Add(delay)
	s.push(t)
	return t
}

// push 需持有 s.mu。
func (s *Scheduler) push(t *Timer) {
	s.seq++
	t.seq = s.seq
	heap.Push(&s.queue, t)
}

func (s *Scheduler) remove(t *Timer) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if t.index >= 0 {
		heap.Remove(&s.queue, t.index)
	}
}

// Tick 触发所有已到期的定时器并返回触发次数。
// 回调执行时不持有锁，可以在回调中登记或取消定时器。
func (s *Scheduler) Tick() int {
	now := s.now()
	fired := 0
	for {
		t := s.popDue(now)
		if t == nil {
			return fired
		}
		fired++
		runCallback(t.callback)

		if t.every > 0 {
			s.reschedule(t, now)
		} else {
			t.stopped.Store(true)
		}
	}
}

func (s *Scheduler) popDue(now time.Time) *Timer {
	s.mu.Lock()
	defer s.mu.Unlock()

	for s.queue.Len() > 0 {
		if s.queue[0].due.After(now) {
			return nil
		}
		t := heap.Pop(&s.queue).(*Timer)
		if t.IsActive() && t.callback != nil {
			return t
		}
	}
	return nil
}

func (s *Scheduler) reschedule(t *Timer, now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !t.IsActive() {
		return
	}
	// 落后太多时从当前时间重新对齐，不补发错过的周期
	t.due = t.due.Add(t.every)
	if !t.due.After(now) {
		t.due = now.Add(t.every)
	}
	s.push(t)
}

// Start 启动自计时 goroutine，ctx 取消后退出。
func (s *Scheduler) Start(ctx context.Context, tickInterval time.Duration) {
	go s.selfTickRoutine(ctx, tickInterval)
}

func (s *Scheduler) selfTickRoutine(ctx context.Context, tickInterval time.Duration) {
	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Tick()
		}
	}
}

// runCallback 执行回调，panic 时记录日志并返回 false。
func runCallback(callback CallbackFunc) (panicless bool) {
	defer func() {
		if err := recover(); err != nil {
			log.Printf("scheduler: callback panicked: %v\n%s", err, debug.Stack())
			panicless = false
		}
	}()
	callback()
	return true
}
