package model

import (
	"strings"
	"unicode/utf8"
)

const (
	// DefaultMaxEntries 是排行榜默认保留的条目数量。
	DefaultMaxEntries = 10
	// MaxPlayerNameLength 是玩家名称允许的最大字符数（按字符而非字节计算）。
	MaxPlayerNameLength = 32
	// DefaultPlayerName 是名称为空时使用的占位名称。
	DefaultPlayerName = "무명 파일럿"
)

// ScoreEntry 表示排行榜中的一条成绩记录。
type ScoreEntry struct {
	PlayerName string `json:"player_name"`
	Score      int64  `json:"score"`
}

// NewScoreEntry 使用规范化后的名称创建一条成绩记录。
func NewScoreEntry(playerName string, score int64) ScoreEntry {
	return ScoreEntry{
		PlayerName: NormalizePlayerName(playerName),
		Score:      score,
	}
}

// NormalizePlayerName 去除首尾空白，空名称替换为占位名称，并截断到 MaxPlayerNameLength 个字符。
func NormalizePlayerName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return DefaultPlayerName
	}
	if utf8.RuneCountInString(name) <= MaxPlayerNameLength {
		return name
	}
	return string([]rune(name)[:MaxPlayerNameLength])
}
