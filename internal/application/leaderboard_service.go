package application

import (
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/himomohi/MaziSpace/internal/domain/model"
)

// LeaderboardService 定义了排行榜应用服务。
type LeaderboardService interface {
	SubmitScore(playerName string, score int64) ([]model.ScoreEntry, error)
	GetEntries() []model.ScoreEntry
	Reset()
	MaxEntries() int
	Count() int
}

// leaderboardServiceImpl 是 LeaderboardService 的实现。
type leaderboardServiceImpl struct {
	// mu 保证“变更 + 发布事件”整体有序，订阅者按变更顺序收到排行榜
	mu          sync.Mutex
	leaderboard *model.Leaderboard
	publisher   EventPublisher
}

// NewLeaderboardService 创建一个新的 LeaderboardService，publisher 为 nil 时不发布事件。
func NewLeaderboardService(leaderboard *model.Leaderboard, publisher EventPublisher) (LeaderboardService, error) {
	if leaderboard == nil {
		return nil, errors.New("leaderboard is nil")
	}
	return &leaderboardServiceImpl{
		leaderboard: leaderboard,
		publisher:   publisher,
	}, nil
}

// SubmitScore 提交成绩并返回更新后的排行榜。
func (s *leaderboardServiceImpl) SubmitScore(playerName string, score int64) ([]model.ScoreEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.leaderboard.Submit(playerName, score)
	if err != nil {
		return nil, fmt.Errorf("submit score for %q: %w", playerName, err)
	}
	s.publish(TopicScoreSubmitted, entries)
	return entries, nil
}

// GetEntries 获取当前排行榜。
func (s *leaderboardServiceImpl) GetEntries() []model.ScoreEntry {
	return s.leaderboard.Entries()
}

// Reset 清空排行榜。
func (s *leaderboardServiceImpl) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.leaderboard.Clear()
	log.Println("Leaderboard cleared.")
	s.publish(TopicLeaderboardCleared, []model.ScoreEntry{})
}

// MaxEntries 返回排行榜容量。
func (s *leaderboardServiceImpl) MaxEntries() int {
	return s.leaderboard.MaxEntries()
}

// Count 返回当前条目数量。
func (s *leaderboardServiceImpl) Count() int {
	return s.leaderboard.Len()
}

func (s *leaderboardServiceImpl) publish(subject string, entries []model.ScoreEntry) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(subject, entries); err != nil {
		log.Printf("failed to publish %s: %v", subject, err)
	}
}
