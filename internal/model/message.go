// Package model 包含了应用的数据模型定义。
package model

import (
	"time"

	"github.com/google/uuid"
)

// 消息角色常量，与前端约定保持一致。
const (
	RoleUser  = "user"
	RoleModel = "model"
)

// Mood 表示模型回复中携带的情绪标签。
type Mood string

// 固定的情绪枚举集合，流中出现集合之外的值会被丢弃。
const (
	MoodNeutral  Mood = "Neutral"
	MoodHappy    Mood = "Happy"
	MoodExcited  Mood = "Excited"
	MoodFlirty   Mood = "Flirty"
	MoodRomantic Mood = "Romantic"
	MoodShy      Mood = "Shy"
	MoodSad      Mood = "Sad"
	MoodAnnoyed  Mood = "Annoyed"
	MoodCold     Mood = "Cold"
)

var validMoods = map[Mood]bool{
	MoodNeutral:  true,
	MoodHappy:    true,
	MoodExcited:  true,
	MoodFlirty:   true,
	MoodRomantic: true,
	MoodShy:      true,
	MoodSad:      true,
	MoodAnnoyed:  true,
	MoodCold:     true,
}

// ParseMood 校验情绪值是否属于固定集合。
func ParseMood(s string) (Mood, bool) {
	m := Mood(s)
	return m, validMoods[m]
}

// Message 代表一次对话中的单条消息。
type Message struct {
	ID        string   `json:"id"`
	Role      string   `json:"role"` // "user" 或 "model"
	Content   string   `json:"content"`
	Timestamp int64    `json:"timestamp"` // 毫秒时间戳
	Reactions []string `json:"reactions,omitempty"`
}

// NewMessage 创建一条新消息，ID 使用 UUID，创建后不再复用。
func NewMessage(role, content string) Message {
	return Message{
		ID:        uuid.NewString(),
		Role:      role,
		Content:   content,
		Timestamp: time.Now().UnixMilli(),
	}
}

// ToggleReaction 切换一个表情回应：已存在则移除，不存在则追加。
// Reactions 语义上是去重的集合。
func (m *Message) ToggleReaction(emoji string) {
	for i, r := range m.Reactions {
		if r == emoji {
			m.Reactions = append(m.Reactions[:i], m.Reactions[i+1:]...)
			return
		}
	}
	m.Reactions = append(m.Reactions, emoji)
}
