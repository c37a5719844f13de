package http

import (
	"errors"
	"fmt"
	"html/template"
	"log"
	"net/http"
	"sync/atomic"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/himomohi/MaziSpace/internal/application"
	"github.com/himomohi/MaziSpace/internal/domain/model"
	"github.com/himomohi/MaziSpace/web"
)

const pageTitle = "MaziSpace"

// Handler 负责处理 HTTP 请求。
type Handler struct {
	leaderboardService application.LeaderboardService
	events             application.EventSubscriber
	upgrader           websocket.Upgrader
	nextSubscriber     atomic.Uint64
}

// NewHandler 创建一个新的 Handler。events 为 nil 时实时推送只返回快照。
func NewHandler(leaderboardService application.LeaderboardService, events application.EventSubscriber) *Handler {
	return &Handler{
		leaderboardService: leaderboardService,
		events:             events,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// RegisterRoutes 注册 API 路由。
func (h *Handler) RegisterRoutes(router *gin.Engine) {
	api := router.Group("/api")
	{
		api.GET("/leaderboard", h.getLeaderboard)
		api.POST("/leaderboard", h.submitScore)
		api.GET("/leaderboard/live", h.liveLeaderboard)
		api.GET("/health", h.health)
	}
}

// NewRouter 创建完整的 gin 引擎：API、页面、静态资源与 404 处理。
func NewRouter(h *Handler) (*gin.Engine, error) {
	router := gin.Default()

	tmpl, err := template.ParseFS(web.Templates, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	router.SetHTMLTemplate(tmpl)
	router.StaticFS("/static", web.Static())

	router.GET("/", h.index)
	h.RegisterRoutes(router)
	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"detail": "Not Found"})
	})
	return router, nil
}

func (h *Handler) index(c *gin.Context) {
	c.HTML(http.StatusOK, "index.html", gin.H{
		"title":      pageTitle,
		"maxEntries": h.leaderboardService.MaxEntries(),
	})
}

func (h *Handler) getLeaderboard(c *gin.Context) {
	c.JSON(http.StatusOK, h.leaderboardService.GetEntries())
}

func (h *Handler) submitScore(c *gin.Context) {
	var req scorePayload
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": bindingErrorDetail(err)})
		return
	}
	if detail := req.validate(); detail != "" {
		c.JSON(http.StatusBadRequest, gin.H{"detail": detail})
		return
	}

	entries, err := h.leaderboardService.SubmitScore(*req.PlayerName, *req.Score)
	if err != nil {
		if errors.Is(err, model.ErrInvalidScore) {
			c.JSON(http.StatusBadRequest, gin.H{"detail": model.ErrInvalidScore.Error()})
			return
		}
		log.Printf("submit score failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "internal server error"})
		return
	}

	c.JSON(http.StatusCreated, entries)
}

func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":      "ok",
		"entries":     h.leaderboardService.Count(),
		"max_entries": h.leaderboardService.MaxEntries(),
	})
}
