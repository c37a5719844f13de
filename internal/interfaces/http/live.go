package http

import (
	"log"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/himomohi/MaziSpace/internal/application"
	"github.com/himomohi/MaziSpace/internal/domain/model"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 25 * time.Second
	maxMessageSize = 512
	// 慢客户端最多积压的帧数，超出后丢弃最旧的帧
	liveBacklog = 8
)

// liveMessage 是实时推送的帧格式。
type liveMessage struct {
	Event   string             `json:"event"`
	Entries []model.ScoreEntry `json:"entries"`
}

func (h *Handler) liveLeaderboard(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Println("live upgrade:", err)
		return
	}
	defer conn.Close()

	updates := make(chan liveMessage, liveBacklog)
	if h.events != nil {
		id := "live-" + strconv.FormatUint(h.nextSubscriber.Add(1), 10)
		err := h.events.Subscribe(id, application.TopicAll, func(subject string, entries []model.ScoreEntry) {
			enqueueLatest(updates, liveMessage{Event: application.EventName(subject), Entries: entries})
		})
		if err != nil {
			log.Printf("live subscribe %s: %v", id, err)
			return
		}
		defer h.events.UnsubscribeAll(id)
	}

	if err := writeLive(conn, liveMessage{Event: "snapshot", Entries: h.leaderboardService.GetEntries()}); err != nil {
		return
	}

	// 客户端不发送业务消息，读循环只用于处理 pong 与感知断开。
	done := make(chan struct{})
	go func() {
		defer close(done)
		conn.SetReadLimit(maxMessageSize)
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(pongWait))
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case msg := <-updates:
			if err := writeLive(conn, msg); err != nil {
				log.Println("live write:", err)
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func writeLive(conn *websocket.Conn, msg liveMessage) error {
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(msg)
}

// enqueueLatest 非阻塞地入队，队列满时丢弃最旧的一帧。
func enqueueLatest(ch chan liveMessage, msg liveMessage) {
	for {
		select {
		case ch <- msg:
			return
		default:
		}
		select {
		case <-ch:
		default:
		}
	}
}
