package scheduler

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"
)

var ErrInvalidCron = errors.New("invalid cron expression")

// anyValue 表示字段匹配任意值（等价于 */1）。
const anyValue = -1

// CronSpec 是解析后的五段式 cron 表达式：分 时 日 月 周。
// 负数字段表示步长，例如 */5 存储为 -5；周字段为 -1 表示任意一天。
type CronSpec struct {
	minute, hour, day, month, dayofweek int
}

type cronField struct {
	name     string
	min, max int
	step     bool // 是否允许 */n
}

var cronFields = [5]cronField{
	{"minute", 0, 59, true},
	{"hour", 0, 23, true},
	{"day", 1, 31, true},
	{"month", 1, 12, true},
	{"weekday", 0, 7, false},
}

// ParseCron 解析形如 "0 0 * * 1" 的表达式，支持 *、*/n 与单个数值。
func ParseCron(expr string) (*CronSpec, error) {
	parts := strings.Fields(expr)
	if len(parts) != len(cronFields) {
		return nil, fmt.Errorf("%w: %q: expected 5 fields, got %d", ErrInvalidCron, expr, len(parts))
	}

	var values [5]int
	for i, part := range parts {
		v, err := parseCronField(part, cronFields[i])
		if err != nil {
			return nil, fmt.Errorf("%w: %q: %v", ErrInvalidCron, expr, err)
		}
		values[i] = v
	}
	return &CronSpec{
		minute:    values[0],
		hour:      values[1],
		day:       values[2],
		month:     values[3],
		dayofweek: values[4],
	}, nil
}

func parseCronField(part string, f cronField) (int, error) {
	if part == "*" {
		return anyValue, nil
	}
	if stepStr, ok := strings.CutPrefix(part, "*/"); ok {
		if !f.step {
			return 0, fmt.Errorf("%s does not support steps", f.name)
		}
		step, err := strconv.Atoi(stepStr)
		if err != nil || step < 1 || step > f.max {
			return 0, fmt.Errorf("bad %s step %q", f.name, stepStr)
		}
		return -step, nil
	}
	v, err := strconv.Atoi(part)
	if err != nil || v < f.min || v > f.max {
		return 0, fmt.Errorf("bad %s %q (want %d-%d)", f.name, part, f.min, f.max)
	}
	return v, nil
}

// Match 判断给定时间（精确到分钟）是否满足表达式。
func (c *CronSpec) Match(t time.Time) bool {
	matchField := func(entryValue, timeValue int) bool {
		if entryValue < 0 {
			return timeValue%-entryValue == 0
		}
		return entryValue == timeValue
	}

	if !matchField(c.minute, t.Minute()) ||
		!matchField(c.hour, t.Hour()) ||
		!matchField(c.day, t.Day()) ||
		!matchField(c.month, int(t.Month())) {
		return false
	}

	if c.dayofweek >= 0 {
		// 0 和 7 都表示星期日，与 time.Sunday 对齐。
		cronDay := c.dayofweek
		if cronDay == 7 {
			cronDay = 0
		}
		if cronDay != int(t.Weekday()) {
			return false
		}
	}
	return true
}

// CronJob 是通过 AddCron 注册的任务句柄。
type CronJob struct {
	spec     *CronSpec
	callback CallbackFunc

	mu        sync.Mutex
	timers    []*Timer
	cancelled bool
}

// Cancel 停止该任务。
func (j *CronJob) Cancel() {
	j.mu.Lock()
	defer j.mu.Unlock()

	j.cancelled = true
	for _, t := range j.timers {
		t.Cancel()
	}
	j.timers = nil
}

func (j *CronJob) track(t *Timer) {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.cancelled {
		t.Cancel()
		return
	}
	j.timers = append(j.timers, t)
}

func (j *CronJob) check(now time.Time) {
	j.mu.Lock()
	cancelled := j.cancelled
	j.mu.Unlock()

	if !cancelled && j.spec.Match(now) {
		runCallback(j.callback)
	}
}

// AddCron 注册一个 cron 任务：先对齐到下一个整分钟，之后每分钟检查一次。
func (s *Scheduler) AddCron(spec *CronSpec, callback CallbackFunc) *CronJob {
	job := &CronJob{spec: spec, callback: callback}
	first := s.AddCallback(untilNextMinute(s.now()), func() {
		job.track(s.AddTimer(time.Minute, func() { job.check(s.now()) }))
		job.check(s.now())
	})
	job.track(first)
	return job
}

// untilNextMinute 返回距离下一个整分钟的时长。
func untilNextMinute(now time.Time) time.Duration {
	return now.Truncate(time.Minute).Add(time.Minute).Sub(now)
}
