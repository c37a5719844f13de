package scheduler

import (
	"sync/atomic"
	"time"
)

// minTimerInterval 是周期定时器允许的最小间隔。
const minTimerInterval = time.Millisecond

// CallbackFunc 定义了回调函数的类型。
type CallbackFunc func()

// Timer 是一个已登记的定时任务。
type Timer struct {
	due      time.Time
	every    time.Duration // 0 表示只触发一次
	callback CallbackFunc
	owner    *Scheduler

	// 以下字段由 owner.mu 保护
	seq   uint64
	index int // 在队列中的下标，-1 表示不在队列中

	stopped atomic.Bool
}

// Cancel 取消定时器并将其移出队列，可重复调用。
func (t *Timer) Cancel() {
	if t.stopped.Swap(true) {
		return
	}
	if t.owner != nil {
		t.owner.remove(t)
	}
}

// IsActive 报告定时器是否还会触发。
func (t *Timer) IsActive() bool {
	return !t.stopped.Load()
}
