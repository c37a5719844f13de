package model

import (
	"errors"
	"sort"
	"sync"
)

var (
	ErrInvalidScore = errors.New("score must be greater than or equal to 0")
)

// Leaderboard 是按分数降序排列、容量固定的排行榜聚合根。
type Leaderboard struct {
	maxEntries int
	entries    []ScoreEntry
	mu         sync.Mutex
}

// NewLeaderboard 创建一个新的排行榜，容量不合法时使用 DefaultMaxEntries。
func NewLeaderboard(maxEntries int) *Leaderboard {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	return &Leaderboard{
		maxEntries: maxEntries,
		entries:    make([]ScoreEntry, 0, maxEntries+1),
	}
}

// MaxEntries 返回排行榜容量。
func (l *Leaderboard) MaxEntries() int {
	return l.maxEntries
}

// Submit 提交一条成绩，重新排序并截断，返回更新后的排行榜副本。
func (l *Leaderboard) Submit(playerName string, score int64) ([]ScoreEntry, error) {
	// 校验不依赖共享状态，放在加锁之前
	if score < 0 {
		return nil, ErrInvalidScore
	}
	entry := NewScoreEntry(playerName, score)

	l.mu.Lock()
	defer l.mu.Unlock()

	l.entries = append(l.entries, entry)
	// 稳定排序：同分时保留先提交者在前
	sort.SliceStable(l.entries, func(i, j int) bool {
		return l.entries[i].Score > l.entries[j].Score
	})
	if len(l.entries) > l.maxEntries {
		l.entries = l.entries[:l.maxEntries]
	}
	return l.snapshot(), nil
}

// Entries 返回当前排行榜的副本。
func (l *Leaderboard) Entries() []ScoreEntry {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.snapshot()
}

// Len 返回当前条目数量。
func (l *Leaderboard) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	return len(l.entries)
}

// Clear 清空排行榜。
func (l *Leaderboard) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.entries = l.entries[:0]
}

// snapshot 需在持有锁时调用。
func (l *Leaderboard) snapshot() []ScoreEntry {
	entries := make([]ScoreEntry, len(l.entries))
	copy(entries, l.entries)
	return entries
}
