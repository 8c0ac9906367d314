// Package service 包含了应用的业务逻辑层。
package service

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/jeswinjoss/Velvet-ai-companion-app/internal/config"
	"github.com/jeswinjoss/Velvet-ai-companion-app/internal/guard"
	"github.com/jeswinjoss/Velvet-ai-companion-app/internal/model"
	"github.com/jeswinjoss/Velvet-ai-companion-app/internal/pipeline"
	"github.com/jeswinjoss/Velvet-ai-companion-app/internal/repository"
	"github.com/jeswinjoss/Velvet-ai-companion-app/pkg/es"
	"github.com/jeswinjoss/Velvet-ai-companion-app/pkg/llm"
	"github.com/jeswinjoss/Velvet-ai-companion-app/pkg/log"
	"github.com/jeswinjoss/Velvet-ai-companion-app/pkg/metrics"
)

// 固定的用户可见失败模板。角色扮演语气，括号表示"出戏"。
const (
	cooldownMessageTemplate = "(I'm a bit overwhelmed right now. Let me rest for %d seconds. 🌙)"
	quotaMessage            = "(I'm feeling really drained right now... let's take a break and talk later. 🌙)"
	emptyResponseMessage    = "(I don't know how to respond to that...)"
	genericFailureMessage   = "(I got distracted... say again?)"
)

// Emitter 把一轮对话的增量输出下发给客户端（通常是 websocket 连接）。
type Emitter interface {
	// EmitChunk 下发当前完整展示文本。首次调用即创建可见消息。
	EmitChunk(messageID, display string) error
	// EmitMood 下发提取到的情绪标签。
	EmitMood(mood model.Mood) error
	// EmitCompletion 在轮次结束时下发最终消息（成功或合成的失败消息）。
	EmitCompletion(message model.Message) error
}

// ChatService 定义了聊天操作的接口。
type ChatService interface {
	SendMessage(ctx context.Context, profileID, content string, emitter Emitter) error
	CurrentMood(profileID string) model.Mood
}

type chatService struct {
	usageGuard  *guard.UsageGuard
	executor    *RequestExecutor
	llmClient   llm.Client
	historyRepo repository.HistoryRepository
	profileRepo repository.ProfileRepository

	mu       sync.Mutex
	inFlight map[string]bool
	moods    map[string]model.Mood
}

// NewChatService 创建一个新的 ChatService 实例。
func NewChatService(usageGuard *guard.UsageGuard, executor *RequestExecutor, llmClient llm.Client,
	historyRepo repository.HistoryRepository, profileRepo repository.ProfileRepository) ChatService {
	return &chatService{
		usageGuard:  usageGuard,
		executor:    executor,
		llmClient:   llmClient,
		historyRepo: historyRepo,
		profileRepo: profileRepo,
		inFlight:    make(map[string]bool),
		moods:       make(map[string]model.Mood),
	}
}

// CurrentMood 返回某个角色会话当前的情绪，默认 Neutral。
func (s *chatService) CurrentMood(profileID string) model.Mood {
	s.mu.Lock()
	defer s.mu.Unlock()
	if mood, ok := s.moods[profileID]; ok {
		return mood
	}
	return model.MoodNeutral
}

func (s *chatService) setMood(profileID string, mood model.Mood) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.moods[profileID] = mood
}

// acquireTurn 确保同一角色同时只有一个进行中的轮次。
func (s *chatService) acquireTurn(profileID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inFlight[profileID] {
		return false
	}
	s.inFlight[profileID] = true
	return true
}

func (s *chatService) releaseTurn(profileID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.inFlight, profileID)
}

// SendMessage 执行一个完整的对话轮次：
// 准入检查 → 乐观追加用户消息 → 带重试的流式调用 → 流装配 → 历史持久化。
// 失败路径合成固定模板的 model 消息并同样持久化，历史只增不减。
func (s *chatService) SendMessage(ctx context.Context, profileID, content string, emitter Emitter) error {
	if !s.acquireTurn(profileID) {
		return ErrTurnInFlight
	}
	defer s.releaseTurn(profileID)

	// 1. 本地准入检查，被拒绝时不发起远程调用
	stats := s.usageGuard.Check(ctx)
	if stats.Blocked {
		metrics.AdmissionBlockedTotal.Inc()
		metrics.ChatTurnsTotal.WithLabelValues("admission_denied").Inc()
		text := fmt.Sprintf(cooldownMessageTemplate, stats.CooldownRemaining)
		return s.deliverSynthetic(ctx, profileID, nil, text, emitter)
	}

	profile, err := s.profileRepo.GetByID(profileID)
	if err != nil {
		return fmt.Errorf("failed to load profile: %w", err)
	}

	history, err := s.historyRepo.GetHistory(ctx, profileID)
	if err != nil {
		log.Errorf("读取聊天历史失败: %v", err)
		history = []model.Message{}
	}

	// 2. 乐观追加用户消息，无论本轮成败都保留
	userMsg := model.NewMessage(model.RoleUser, content)
	history = append(history, userMsg)
	if err := s.historyRepo.SaveHistory(ctx, profileID, history); err != nil {
		log.Errorf("持久化用户消息失败: %v", err)
	}
	s.indexMessage(profileID, userMsg)

	// 3. 带超时与重试的流式调用
	messages := s.composeMessages(profile, history[:len(history)-1], userMsg.Content)
	stream, err := s.executor.Execute(ctx, func(ctx context.Context) (llm.Stream, error) {
		return s.llmClient.StreamChat(ctx, messages, nil)
	})
	if err != nil {
		return s.failTurn(ctx, profileID, history, err, emitter)
	}
	defer stream.Close()

	// 4. 流装配与增量下发
	assembler := pipeline.NewStreamAssembler()
	modelMsg := model.NewMessage(model.RoleModel, "")
	moodEmitted := false

	for {
		fragment, recvErr := stream.Recv()
		if recvErr == io.EOF {
			break
		}
		if recvErr != nil {
			log.Errorf("读取响应流失败: %v", recvErr)
			return s.failTurn(ctx, profileID, history, &TurnError{Kind: FailureFatal, Cause: recvErr}, emitter)
		}

		display, emit := assembler.Feed(fragment)
		if !moodEmitted {
			if mood, ok := assembler.Mood(); ok {
				moodEmitted = true
				s.setMood(profileID, mood)
				if err := emitter.EmitMood(mood); err != nil {
					log.Errorf("下发情绪标签失败: %v", err)
				}
			}
		}
		if emit {
			if err := emitter.EmitChunk(modelMsg.ID, display); err != nil {
				log.Errorf("下发展示文本失败: %v", err)
			}
		}
	}

	// 5. 空响应与成功收尾
	final := assembler.Displayed()
	if final == "" {
		metrics.ChatTurnsTotal.WithLabelValues("empty_response").Inc()
		return s.deliverSynthetic(ctx, profileID, history, emptyResponseMessage, emitter)
	}

	modelMsg.Content = final
	history = append(history, modelMsg)
	if err := s.historyRepo.SaveHistory(ctx, profileID, history); err != nil {
		// 持久化失败不回滚本轮结果
		log.Errorf("持久化模型回复失败: %v", err)
	}
	s.indexMessage(profileID, modelMsg)

	metrics.ChatTurnsTotal.WithLabelValues("delivered").Inc()
	if err := emitter.EmitCompletion(modelMsg); err != nil {
		log.Errorf("下发完成通知失败: %v", err)
	}
	return nil
}

// failTurn 把执行器错误映射为用户可见的合成消息。
func (s *chatService) failTurn(ctx context.Context, profileID string, history []model.Message, cause error, emitter Emitter) error {
	text := genericFailureMessage
	outcome := "fatal"
	if turnErr, ok := cause.(*TurnError); ok && turnErr.Kind == FailureQuotaExhausted {
		text = quotaMessage
		outcome = "quota_exhausted"
	}
	log.Errorf("对话轮次失败: %v", cause)
	metrics.ChatTurnsTotal.WithLabelValues(outcome).Inc()
	return s.deliverSynthetic(ctx, profileID, history, text, emitter)
}

// deliverSynthetic 追加并下发一条合成的 model 消息。
// history 为 nil 表示调用方尚未加载历史（准入拒绝路径）。
func (s *chatService) deliverSynthetic(ctx context.Context, profileID string, history []model.Message, text string, emitter Emitter) error {
	if history == nil {
		loaded, err := s.historyRepo.GetHistory(ctx, profileID)
		if err != nil {
			log.Errorf("读取聊天历史失败: %v", err)
			loaded = []model.Message{}
		}
		history = loaded
	}

	msg := model.NewMessage(model.RoleModel, text)
	history = append(history, msg)
	if err := s.historyRepo.SaveHistory(ctx, profileID, history); err != nil {
		log.Errorf("持久化合成消息失败: %v", err)
	}

	if err := emitter.EmitCompletion(msg); err != nil {
		log.Errorf("下发完成通知失败: %v", err)
	}
	return nil
}

// indexMessage 把消息写入 Elasticsearch 供全文检索，失败只记录日志。
func (s *chatService) indexMessage(profileID string, msg model.Message) {
	if es.ESClient == nil {
		return
	}
	doc := model.EsMessageDoc{
		MessageID: msg.ID,
		ProfileID: profileID,
		Role:      msg.Role,
		Content:   msg.Content,
		Timestamp: msg.Timestamp,
	}
	// 使用后台上下文：本轮请求结束后索引仍应完成
	if err := es.IndexMessage(context.Background(), config.Conf.Elasticsearch.IndexName, doc); err != nil {
		log.Errorf("索引消息到 Elasticsearch 失败: %v", err)
	}
}

// composeMessages 组装发给上游的消息序列：system 人设 + 历史 + 带情绪前缀的用户输入。
func (s *chatService) composeMessages(profile *model.CharacterProfile, history []model.Message, userInput string) []llm.Message {
	msgs := make([]llm.Message, 0, len(history)+2)
	msgs = append(msgs, llm.Message{Role: "system", Content: s.buildSystemPrompt(profile)})
	for _, m := range history {
		role := m.Role
		if role == model.RoleModel {
			role = "assistant"
		}
		msgs = append(msgs, llm.Message{Role: role, Content: m.Content})
	}
	prompt := fmt.Sprintf("(Mood:%s) %s", s.CurrentMood(profile.ID), userInput)
	msgs = append(msgs, llm.Message{Role: "user", Content: prompt})
	return msgs
}

// buildSystemPrompt 构建压缩后的人设 system 提示词，
// 要求模型在回复开头携带 [MOOD: X] 标签。
func (s *chatService) buildSystemPrompt(profile *model.CharacterProfile) string {
	mode := "NORMAL/TEASING/FRIENDLY"
	if profile.IntimacyLevel == model.IntimacyExplicit {
		mode = "FLIRTY/BOLD/INTENSE"
	}

	var sys strings.Builder
	sys.WriteString(fmt.Sprintf("Role: %s, %s. %s.\n", profile.Name, profile.Relationship, mode))
	sys.WriteString(fmt.Sprintf("Traits: %s.\n", profile.Traits))
	sys.WriteString("Ref: If user uses Manglish/Malayalam, reply naturally in same mix.\n")
	sys.WriteString("Rules:\n")
	sys.WriteString("1. Mobile text style. Short. Casual. NO essays.\n")
	sys.WriteString("2. Match user language (Manglish/Eng/Mal).\n")
	sys.WriteString("3. Start msg with [MOOD: X]. X=Happy/Flirty/Sad/etc.\n")
	sys.WriteString("4. Be human. Use 'U', 'Ur', lol, etc.")
	return sys.String()
}
