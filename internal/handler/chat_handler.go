// Package handler 包含了处理 HTTP 请求的控制器逻辑。
package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/jeswinjoss/Velvet-ai-companion-app/internal/model"
	"github.com/jeswinjoss/Velvet-ai-companion-app/internal/service"
	"github.com/jeswinjoss/Velvet-ai-companion-app/pkg/log"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // 允许所有来源
	},
}

// ChatHandler 负责处理 WebSocket 聊天连接。
type ChatHandler struct {
	chatService service.ChatService
}

// NewChatHandler 创建一个新的 ChatHandler。
func NewChatHandler(chatService service.ChatService) *ChatHandler {
	return &ChatHandler{chatService: chatService}
}

// inboundMessage 是客户端经 WebSocket 发来的请求体。
type inboundMessage struct {
	Content string `json:"content"`
}

// Handle 处理一个传入的 WebSocket 连接，每个连接绑定一个角色会话。
func (h *ChatHandler) Handle(c *gin.Context) {
	profileID := c.Param("profileID")
	if profileID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"code": http.StatusBadRequest, "message": "缺少 profileID", "data": nil})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error("WebSocket 升级失败", err)
		return
	}
	defer conn.Close()

	log.Infof("WebSocket 连接已建立，角色: %s", profileID)
	emitter := &wsEmitter{conn: conn}

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			log.Warnf("从 WebSocket 读取消息失败: %v", err)
			break
		}

		var in inboundMessage
		if err := json.Unmarshal(raw, &in); err != nil || in.Content == "" {
			// 兼容纯文本消息
			in.Content = string(raw)
		}
		if in.Content == "" {
			continue
		}

		err = h.chatService.SendMessage(c.Request.Context(), profileID, in.Content, emitter)
		if errors.Is(err, service.ErrTurnInFlight) {
			emitter.writeJSON(gin.H{"type": "error", "message": "上一条消息还在回复中"})
			continue
		}
		if err != nil {
			log.Errorf("处理对话轮次失败: %v", err)
			emitter.writeJSON(gin.H{"type": "error", "message": "AI服务暂时不可用，请稍后重试"})
		}
	}
}

// wsEmitter 把对话轮次的增量输出写成 JSON 帧下发给客户端。
type wsEmitter struct {
	conn *websocket.Conn
}

func (e *wsEmitter) writeJSON(payload interface{}) {
	b, _ := json.Marshal(payload)
	if err := e.conn.WriteMessage(websocket.TextMessage, b); err != nil {
		log.Warnf("写入 WebSocket 失败: %v", err)
	}
}

// EmitChunk 下发当前完整展示文本。
func (e *wsEmitter) EmitChunk(messageID, display string) error {
	e.writeJSON(gin.H{
		"type":      "chunk",
		"messageId": messageID,
		"content":   display,
	})
	return nil
}

// EmitMood 下发情绪标签。
func (e *wsEmitter) EmitMood(mood model.Mood) error {
	e.writeJSON(gin.H{
		"type": "mood",
		"mood": mood,
	})
	return nil
}

// EmitCompletion 下发完成通知与最终消息。
func (e *wsEmitter) EmitCompletion(message model.Message) error {
	e.writeJSON(gin.H{
		"type":      "completion",
		"status":    "finished",
		"message":   message,
		"timestamp": time.Now().UnixMilli(),
		"date":      time.Now().Format("2006-01-02T15:04:05"),
	})
	return nil
}
