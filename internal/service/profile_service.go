package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/jeswinjoss/Velvet-ai-companion-app/internal/config"
	"github.com/jeswinjoss/Velvet-ai-companion-app/internal/model"
	"github.com/jeswinjoss/Velvet-ai-companion-app/internal/repository"
	"github.com/jeswinjoss/Velvet-ai-companion-app/pkg/es"
	"github.com/jeswinjoss/Velvet-ai-companion-app/pkg/llm"
	"github.com/jeswinjoss/Velvet-ai-companion-app/pkg/log"
	"github.com/google/uuid"
)

// ProfileService 定义了角色档案的业务操作接口。
type ProfileService interface {
	CreateProfile(ctx context.Context, profile *model.CharacterProfile) error
	GetProfile(id string) (*model.CharacterProfile, error)
	ListProfiles() ([]model.CharacterProfile, error)
	UpdateProfile(profile *model.CharacterProfile) error
	DeleteProfile(ctx context.Context, id string) error
	GenerateRandomProfile(ctx context.Context, genderPreference string) (*model.CharacterProfile, error)
}

type profileService struct {
	profileRepo   repository.ProfileRepository
	historyRepo   repository.HistoryRepository
	llmClient     llm.Client
	avatarService AvatarService
}

// NewProfileService 创建一个新的 ProfileService 实例。
func NewProfileService(profileRepo repository.ProfileRepository, historyRepo repository.HistoryRepository,
	llmClient llm.Client, avatarService AvatarService) ProfileService {
	return &profileService{
		profileRepo:   profileRepo,
		historyRepo:   historyRepo,
		llmClient:     llmClient,
		avatarService: avatarService,
	}
}

// CreateProfile 创建角色档案并异步生成头像。
// 头像先使用占位 URL，生成任务完成后由消费端更新。
func (s *profileService) CreateProfile(ctx context.Context, profile *model.CharacterProfile) error {
	if profile.ID == "" {
		profile.ID = uuid.NewString()
	}
	if profile.IntimacyLevel == "" {
		profile.IntimacyLevel = model.IntimacyNormal
	}
	if profile.AvatarURL == "" {
		profile.AvatarURL = s.avatarService.FallbackURL(profile.Name)
	}

	if err := s.profileRepo.Create(profile); err != nil {
		return fmt.Errorf("failed to create profile: %w", err)
	}

	// 异步头像生成，入队失败不影响角色创建
	if err := s.avatarService.EnqueueGeneration(profile); err != nil {
		log.Errorf("头像生成任务入队失败: %v", err)
	}
	return nil
}

func (s *profileService) GetProfile(id string) (*model.CharacterProfile, error) {
	return s.profileRepo.GetByID(id)
}

func (s *profileService) ListProfiles() ([]model.CharacterProfile, error) {
	return s.profileRepo.List()
}

func (s *profileService) UpdateProfile(profile *model.CharacterProfile) error {
	return s.profileRepo.Update(profile)
}

// DeleteProfile 删除角色档案，并级联清理聊天历史与检索索引。
func (s *profileService) DeleteProfile(ctx context.Context, id string) error {
	if err := s.profileRepo.Delete(id); err != nil {
		return fmt.Errorf("failed to delete profile: %w", err)
	}
	if err := s.historyRepo.DeleteHistory(ctx, id); err != nil {
		log.Errorf("级联删除聊天历史失败: %v", err)
	}
	if es.ESClient != nil {
		if err := es.DeleteProfileMessages(ctx, config.Conf.Elasticsearch.IndexName, id); err != nil {
			log.Errorf("级联删除消息索引失败: %v", err)
		}
	}
	return nil
}

// randomProfilePayload 与生成提示词约定的 JSON 结构对应。
type randomProfilePayload struct {
	Name          string   `json:"name"`
	Relationship  string   `json:"relationship"`
	Traits        string   `json:"traits"`
	Tags          []string `json:"tags"`
	IntimacyLevel string   `json:"intimacyLevel"`
}

// GenerateRandomProfile 让模型生成一个随机角色设定。
// 生成或解析失败时回退到内置的默认角色。
func (s *profileService) GenerateRandomProfile(ctx context.Context, genderPreference string) (*model.CharacterProfile, error) {
	genderPrompt := ""
	if genderPreference == "male" || genderPreference == "female" {
		genderPrompt = fmt.Sprintf("The character MUST be %s.", genderPreference)
	}

	prompt := fmt.Sprintf(`Generate a creative, unique, and alluring character profile for a romantic/chat roleplay app.
%s
The 'traits' should describe a visually attractive person with specific physical details (hair, eyes, style, body type) to aid in photorealistic image generation.
Output ONLY valid JSON with the following structure:
{
    "name": "Name",
    "relationship": "Relationship Title (e.g. Secret Admirer, Neighbor, Boss, Rival)",
    "traits": "A descriptive paragraph focusing on physical appearance, attractiveness, and fashion style.",
    "tags": ["PersonalityType1", "PersonalityType2", "PersonalityType3"],
    "intimacyLevel": "normal" or "explicit" (randomly choose)
}
Do not include markdown formatting.`, genderPrompt)

	payload := randomProfilePayload{
		Name:          "Alex",
		Relationship:  "Stranger",
		Traits:        "A mysterious individual with a charming smile and stylish dark clothing.",
		Tags:          []string{"Mysterious", "Charming"},
		IntimacyLevel: model.IntimacyNormal,
	}

	text, err := s.llmClient.GenerateContent(ctx, prompt)
	if err != nil {
		log.Errorf("随机角色生成失败，使用默认角色: %v", err)
	} else {
		// 容忍模型包裹 markdown 代码块的情况
		text = strings.TrimSpace(text)
		text = strings.TrimPrefix(text, "```json")
		text = strings.TrimPrefix(text, "```")
		text = strings.TrimSuffix(text, "```")
		var parsed randomProfilePayload
		if err := json.Unmarshal([]byte(strings.TrimSpace(text)), &parsed); err != nil {
			log.Errorf("解析随机角色 JSON 失败，使用默认角色: %v", err)
		} else if parsed.Name != "" {
			payload = parsed
		}
	}

	if payload.IntimacyLevel != model.IntimacyExplicit {
		payload.IntimacyLevel = model.IntimacyNormal
	}

	return &model.CharacterProfile{
		Name:          payload.Name,
		Relationship:  payload.Relationship,
		Traits:        payload.Traits,
		Tags:          payload.Tags,
		IntimacyLevel: payload.IntimacyLevel,
	}, nil
}

// fallbackAvatarURL 生成基于名字的占位头像地址。
func fallbackAvatarURL(name string) string {
	return fmt.Sprintf("https://ui-avatars.com/api/?name=%s&background=random&size=512", url.QueryEscape(name))
}
