package model

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/bmizerany/assert"
)

func namesOf(entries []ScoreEntry) []string {
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.PlayerName)
	}
	return names
}

func scoresOf(entries []ScoreEntry) []int64 {
	scores := make([]int64, 0, len(entries))
	for _, e := range entries {
		scores = append(scores, e.Score)
	}
	return scores
}

// 容量为 3 时最低分被淘汰
func TestLeaderboardSubmitSortsAndTruncates(t *testing.T) {
	lb := NewLeaderboard(3)
	submissions := []ScoreEntry{
		{"Alice", 100},
		{"Bob", 150},
		{"Cara", 120},
		{"Dan", 90},
	}
	for _, s := range submissions {
		_, err := lb.Submit(s.PlayerName, s.Score)
		assert.Equal(t, nil, err)
	}

	entries := lb.Entries()
	assert.Equal(t, []string{"Bob", "Cara", "Alice"}, namesOf(entries))
	assert.Equal(t, []int64{150, 120, 100}, scoresOf(entries))
}

func TestLeaderboardSubmitReturnsRanking(t *testing.T) {
	lb := NewLeaderboard(DefaultMaxEntries)

	got, err := lb.Submit("Ace", 320)
	assert.Equal(t, nil, err)
	assert.Equal(t, []ScoreEntry{{"Ace", 320}}, got)

	got, err = lb.Submit("Nova", 420)
	assert.Equal(t, nil, err)
	assert.Equal(t, []string{"Nova", "Ace"}, namesOf(got))
}

// 同分时先提交者排前
func TestLeaderboardTiesKeepSubmissionOrder(t *testing.T) {
	lb := NewLeaderboard(5)
	lb.Submit("first", 50)
	lb.Submit("low", 10)
	lb.Submit("second", 50)
	lb.Submit("third", 50)

	assert.Equal(t, []string{"first", "second", "third", "low"}, namesOf(lb.Entries()))
}

func TestLeaderboardTieAtCapacityEvictsNewest(t *testing.T) {
	lb := NewLeaderboard(2)
	lb.Submit("a", 10)
	lb.Submit("b", 10)
	lb.Submit("c", 10)

	assert.Equal(t, []string{"a", "b"}, namesOf(lb.Entries()))
}

func TestLeaderboardRejectsNegativeScore(t *testing.T) {
	lb := NewLeaderboard(3)
	lb.Submit("Keep", 5)

	got, err := lb.Submit("Test", -1)
	assert.T(t, errors.Is(err, ErrInvalidScore))
	assert.T(t, strings.Contains(err.Error(), "score"))
	assert.Equal(t, 0, len(got))
	assert.Equal(t, []ScoreEntry{{"Keep", 5}}, lb.Entries())
}

func TestLeaderboardAcceptsZeroScore(t *testing.T) {
	lb := NewLeaderboard(3)
	_, err := lb.Submit("Zero", 0)
	assert.Equal(t, nil, err)
	assert.Equal(t, 1, lb.Len())
}

func TestLeaderboardNameNormalization(t *testing.T) {
	lb := NewLeaderboard(DefaultMaxEntries)
	long := "VeryLongNameThatShouldBeTrimmedBeyondThirtyTwoCharacters"
	lb.Submit("   ", 50)
	lb.Submit(long, 60)

	entries := lb.Entries()
	assert.Equal(t, long[:32], entries[0].PlayerName)
	assert.Equal(t, DefaultPlayerName, entries[1].PlayerName)
}

func TestNormalizePlayerName(t *testing.T) {
	cases := []struct {
		name  string
		input string
		want  string
	}{
		{"plain", "Nova", "Nova"},
		{"trimmed", "  Nova \t\n", "Nova"},
		{"blank", "   ", DefaultPlayerName},
		{"empty", "", DefaultPlayerName},
		{"exactly 32", strings.Repeat("x", 32), strings.Repeat("x", 32)},
		{"40 chars", strings.Repeat("abcd", 10), strings.Repeat("abcd", 8)},
		{"multibyte counted as characters", strings.Repeat("별", 40), strings.Repeat("별", 32)},
		{"trim before truncate", "  " + strings.Repeat("y", 33), strings.Repeat("y", 32)},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			assert.Equal(t, c.want, NormalizePlayerName(c.input))
		})
	}
}

func TestLeaderboardClear(t *testing.T) {
	lb := NewLeaderboard(3)
	lb.Submit("a", 1)
	lb.Submit("b", 2)

	lb.Clear()
	assert.Equal(t, []ScoreEntry{}, lb.Entries())

	lb.Submit("c", 3)
	assert.Equal(t, []string{"c"}, namesOf(lb.Entries()))
}

func TestLeaderboardFreshIsEmptyNotNil(t *testing.T) {
	lb := NewLeaderboard(3)
	entries := lb.Entries()
	assert.T(t, entries != nil)
	assert.Equal(t, 0, len(entries))
}

// 返回的切片不与内部存储共享
func TestLeaderboardSnapshotsDoNotAlias(t *testing.T) {
	lb := NewLeaderboard(3)
	first, _ := lb.Submit("a", 1)
	first[0].PlayerName = "mutated"

	lb.Submit("b", 2)
	assert.Equal(t, []string{"b", "a"}, namesOf(lb.Entries()))
	assert.Equal(t, "mutated", first[0].PlayerName)
}

func TestNewLeaderboardInvalidCapacityFallsBack(t *testing.T) {
	assert.Equal(t, DefaultMaxEntries, NewLeaderboard(0).MaxEntries())
	assert.Equal(t, DefaultMaxEntries, NewLeaderboard(-4).MaxEntries())
	assert.Equal(t, 7, NewLeaderboard(7).MaxEntries())
}

// 并发提交后排行榜仍然有序且不超过容量
func TestLeaderboardConcurrentSubmit(t *testing.T) {
	lb := NewLeaderboard(DefaultMaxEntries)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				entries, err := lb.Submit(fmt.Sprintf("p%d-%d", i, j), int64((i*31+j*17)%1000))
				if err != nil {
					t.Errorf("submit: %v", err)
					return
				}
				if !sortedDescending(entries) || len(entries) > DefaultMaxEntries {
					t.Errorf("invalid ranking returned: %v", entries)
					return
				}
			}
		}(i)
		wg.Add(1)
		go func() {
			defer wg.Done()
			if entries := lb.Entries(); !sortedDescending(entries) {
				t.Errorf("unsorted snapshot: %v", entries)
			}
		}()
	}
	wg.Wait()

	entries := lb.Entries()
	assert.Equal(t, DefaultMaxEntries, len(entries))
	assert.T(t, sortedDescending(entries))
}

func sortedDescending(entries []ScoreEntry) bool {
	for i := 1; i < len(entries); i++ {
		if entries[i].Score > entries[i-1].Score {
			return false
		}
	}
	return true
}
