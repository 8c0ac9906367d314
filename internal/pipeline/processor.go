package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jeswinjoss/Velvet-ai-companion-app/internal/config"
	"github.com/jeswinjoss/Velvet-ai-companion-app/internal/repository"
	"github.com/jeswinjoss/Velvet-ai-companion-app/pkg/imagegen"
	"github.com/jeswinjoss/Velvet-ai-companion-app/pkg/llm"
	"github.com/jeswinjoss/Velvet-ai-companion-app/pkg/log"
	"github.com/jeswinjoss/Velvet-ai-companion-app/pkg/storage"
	"github.com/jeswinjoss/Velvet-ai-companion-app/pkg/tasks"
)

// AvatarProcessor 消费头像生成任务：
// 提示词精炼 → 图像生成 → 对象存储 → 回写角色档案。
// 任何一步失败都回退到占位头像，任务本身视为完成。
type AvatarProcessor struct {
	llmClient   llm.Client
	imageClient imagegen.Client
	profileRepo repository.ProfileRepository
	store       func(ctx context.Context, profileID string, data []byte) (string, error)
	fallbackURL func(name string) string
}

// NewAvatarProcessor 创建一个新的 AvatarProcessor 实例。
func NewAvatarProcessor(llmClient llm.Client, imageClient imagegen.Client,
	profileRepo repository.ProfileRepository, fallbackURL func(name string) string) *AvatarProcessor {
	return &AvatarProcessor{
		llmClient:   llmClient,
		imageClient: imageClient,
		profileRepo: profileRepo,
		store:       storeAvatar,
		fallbackURL: fallbackURL,
	}
}

// storeAvatar 把头像写入 MinIO 并返回带签名的访问地址。
func storeAvatar(ctx context.Context, profileID string, data []byte) (string, error) {
	bucket := config.Conf.MinIO.BucketName
	objectName, err := storage.PutAvatar(ctx, bucket, profileID, data)
	if err != nil {
		return "", err
	}
	return storage.GetPresignedURL(bucket, objectName, 7*24*time.Hour)
}

// Process 处理单个头像生成任务。返回 error 表示任务可重试的失败。
func (p *AvatarProcessor) Process(ctx context.Context, task tasks.AvatarGenerationTask) error {
	prompt := p.refinePrompt(ctx, task)

	imageData, err := p.imageClient.GenerateImage(ctx, prompt)
	if err != nil {
		// 图像生成失败不重试，回退到占位头像
		log.Errorf("头像图像生成失败，使用占位头像: ProfileID=%s, Error: %v", task.ProfileID, err)
		return p.profileRepo.UpdateAvatarURL(task.ProfileID, p.fallbackURL(task.Name))
	}

	avatarURL, err := p.store(ctx, task.ProfileID, imageData)
	if err != nil {
		log.Errorf("头像写入对象存储失败: ProfileID=%s, Error: %v", task.ProfileID, err)
		return fmt.Errorf("failed to store avatar: %w", err)
	}

	if err := p.profileRepo.UpdateAvatarURL(task.ProfileID, avatarURL); err != nil {
		return fmt.Errorf("failed to update profile avatar: %w", err)
	}

	log.Infof("头像生成完成: ProfileID=%s", task.ProfileID)
	return nil
}

// refinePrompt 让模型把角色设定改写成摄影风格的图像提示词。
// 精炼失败时使用固定模板。
func (p *AvatarProcessor) refinePrompt(ctx context.Context, task tasks.AvatarGenerationTask) string {
	refineReq := fmt.Sprintf(`Create a raw, photorealistic image prompt for: %s, a %s.
Visual traits: %s.
Style: Real life photography, 8k, detailed skin texture, cinematic lighting, alluring, shot on 35mm lens.
Output ONLY the prompt string.`, task.Name, task.Relationship, task.Traits)

	refined, err := p.llmClient.GenerateContent(ctx, refineReq)
	if err != nil || strings.TrimSpace(refined) == "" {
		if err != nil {
			log.Warnf("提示词精炼失败，使用默认模板: %v", err)
		}
		return fmt.Sprintf("Raw candid photo of %s, %s, %s, highly detailed skin, 8k, f/1.8, photorealistic, cinematic lighting, alluring",
			task.Name, task.Relationship, task.Traits)
	}
	return strings.TrimSpace(refined)
}
