package application

import (
	"errors"
	"sync"
	"testing"

	"github.com/bmizerany/assert"

	"github.com/himomohi/MaziSpace/internal/domain/model"
	"github.com/himomohi/MaziSpace/internal/pubsub"
)

type publishedEvent struct {
	subject string
	entries []model.ScoreEntry
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []publishedEvent
	err    error
}

func (p *recordingPublisher) Publish(subject string, content []model.ScoreEntry) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, publishedEvent{subject, content})
	return p.err
}

func (p *recordingPublisher) recorded() []publishedEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]publishedEvent{}, p.events...)
}

func newService(t *testing.T, maxEntries int, publisher EventPublisher) LeaderboardService {
	t.Helper()
	svc, err := NewLeaderboardService(model.NewLeaderboard(maxEntries), publisher)
	if err != nil {
		t.Fatalf("NewLeaderboardService: %v", err)
	}
	return svc
}

func TestNewLeaderboardServiceRequiresLeaderboard(t *testing.T) {
	_, err := NewLeaderboardService(nil, nil)
	assert.NotEqual(t, nil, err)
}

func TestSubmitScorePublishesRanking(t *testing.T) {
	pub := &recordingPublisher{}
	svc := newService(t, 3, pub)

	entries, err := svc.SubmitScore("Ace", 320)
	assert.Equal(t, nil, err)
	assert.Equal(t, []model.ScoreEntry{{PlayerName: "Ace", Score: 320}}, entries)

	events := pub.recorded()
	assert.Equal(t, 1, len(events))
	assert.Equal(t, TopicScoreSubmitted, events[0].subject)
	assert.Equal(t, entries, events[0].entries)
}

func TestSubmitScoreInvalidDoesNotPublish(t *testing.T) {
	pub := &recordingPublisher{}
	svc := newService(t, 3, pub)

	_, err := svc.SubmitScore("Bad", -5)
	assert.T(t, errors.Is(err, model.ErrInvalidScore))
	assert.Equal(t, 0, len(pub.recorded()))
	assert.Equal(t, 0, svc.Count())
}

func TestPublishFailureDoesNotFailSubmit(t *testing.T) {
	pub := &recordingPublisher{err: errors.New("boom")}
	svc := newService(t, 3, pub)

	_, err := svc.SubmitScore("Ace", 1)
	assert.Equal(t, nil, err)
	assert.Equal(t, 1, svc.Count())
}

func TestResetClearsAndPublishes(t *testing.T) {
	pub := &recordingPublisher{}
	svc := newService(t, 3, pub)
	svc.SubmitScore("a", 1)
	svc.SubmitScore("b", 2)

	svc.Reset()

	assert.Equal(t, []model.ScoreEntry{}, svc.GetEntries())
	events := pub.recorded()
	last := events[len(events)-1]
	assert.Equal(t, TopicLeaderboardCleared, last.subject)
	assert.Equal(t, 0, len(last.entries))
}

func TestServiceWithoutPublisher(t *testing.T) {
	svc := newService(t, 2, nil)
	svc.SubmitScore("a", 1)
	svc.SubmitScore("b", 3)
	svc.SubmitScore("c", 2)

	assert.Equal(t, 2, svc.MaxEntries())
	assert.Equal(t, 2, svc.Count())
	assert.Equal(t, []model.ScoreEntry{{PlayerName: "b", Score: 3}, {PlayerName: "c", Score: 2}}, svc.GetEntries())
}

// 订阅者按变更顺序收到排行榜，且每次长度不超过容量
func TestSubmitScoreEventsArriveInOrder(t *testing.T) {
	bus := pubsub.NewGenericPubSub[[]model.ScoreEntry]()
	svc := newService(t, 5, bus)

	var mu sync.Mutex
	var lengths []int
	err := bus.Subscribe("watcher", TopicAll, func(subject string, entries []model.ScoreEntry) {
		mu.Lock()
		defer mu.Unlock()
		lengths = append(lengths, len(entries))
	})
	assert.Equal(t, nil, err)

	for i := 0; i < 8; i++ {
		svc.SubmitScore("p", int64(i))
	}
	svc.Reset()

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []int{1, 2, 3, 4, 5, 5, 5, 5, 0}, lengths)
}

func TestEventName(t *testing.T) {
	assert.Equal(t, "submitted", EventName(TopicScoreSubmitted))
	assert.Equal(t, "cleared", EventName(TopicLeaderboardCleared))
	assert.Equal(t, "other", EventName("other"))
}
