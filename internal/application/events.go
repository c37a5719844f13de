package application

import (
	"strings"

	"github.com/himomohi/MaziSpace/internal/domain/model"
	"github.com/himomohi/MaziSpace/internal/pubsub"
)

const (
	topicPrefix = "leaderboard."

	// TopicScoreSubmitted 在成绩提交成功后发布，内容为更新后的排行榜。
	TopicScoreSubmitted = topicPrefix + "submitted"
	// TopicLeaderboardCleared 在排行榜被清空后发布，内容为空排行榜。
	TopicLeaderboardCleared = topicPrefix + "cleared"
	// TopicAll 匹配所有排行榜变更事件。
	TopicAll = topicPrefix + "*"
)

// EventPublisher 发布排行榜变更事件。
type EventPublisher interface {
	Publish(subject string, content []model.ScoreEntry) error
}

// EventSubscriber 订阅排行榜变更事件。
type EventSubscriber interface {
	Subscribe(subscriberID string, subject string, handler pubsub.Handler[[]model.ScoreEntry]) error
	UnsubscribeAll(subscriberID string)
}

// EventName 返回主题对应的事件名，例如 "leaderboard.submitted" -> "submitted"。
func EventName(subject string) string {
	return strings.TrimPrefix(subject, topicPrefix)
}
