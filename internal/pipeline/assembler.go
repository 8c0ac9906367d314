// Package pipeline 包含流式响应装配与异步任务处理逻辑。
package pipeline

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/jeswinjoss/Velvet-ai-companion-app/internal/model"
)

// moodTagRe 匹配响应开头的情绪控制标签，例如 "[MOOD: Flirty]"。
var moodTagRe = regexp.MustCompile(`\[MOOD:\s*([a-zA-Z]+)\]`)

// StreamAssembler 把增量到达的文本片段装配成展示文本，
// 并提取至多一个情绪标签。展示文本永远不包含不完整的标签语法。
type StreamAssembler struct {
	raw           string
	displayed     string
	mood          model.Mood
	moodExtracted bool
}

func NewStreamAssembler() *StreamAssembler {
	return &StreamAssembler{}
}

// Feed 接收一个片段，返回当前应展示的完整文本。
// emit 为 false 表示本片段不产生展示更新（标签可能尚未到齐）。
func (a *StreamAssembler) Feed(fragment string) (display string, emit bool) {
	a.raw += fragment

	if loc := moodTagRe.FindStringSubmatchIndex(a.raw); loc != nil {
		if !a.moodExtracted {
			a.moodExtracted = true
			// 非法情绪值丢弃，标签本身仍从展示文本中移除
			if mood, ok := model.ParseMood(a.raw[loc[2]:loc[3]]); ok {
				a.mood = mood
			}
		}
		display = strings.TrimLeftFunc(a.raw[:loc[0]]+a.raw[loc[1]:], unicode.IsSpace)
	} else if strings.HasPrefix(strings.TrimSpace(a.raw), "[") {
		// 标签可能还在路上，先不展示任何内容
		display = ""
	} else {
		display = a.raw
	}

	if display == "" || display == a.displayed {
		return "", false
	}
	a.displayed = display
	return display, true
}

// Displayed 返回目前已展示的完整文本。流结束后仍为空说明
// 上游返回了空响应（或被安全过滤），应按空响应处理而非网络错误。
func (a *StreamAssembler) Displayed() string {
	return a.displayed
}

// Mood 返回提取到的情绪标签。
func (a *StreamAssembler) Mood() (model.Mood, bool) {
	if !a.moodExtracted || a.mood == "" {
		return "", false
	}
	return a.mood, true
}
