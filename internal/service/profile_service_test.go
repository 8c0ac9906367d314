package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/jeswinjoss/Velvet-ai-companion-app/internal/model"
	"github.com/jeswinjoss/Velvet-ai-companion-app/pkg/llm"
	"github.com/jeswinjoss/Velvet-ai-companion-app/pkg/tasks"
)

type stubAvatarService struct {
	enqueued []tasks.AvatarGenerationTask
	err      error
}

func (s *stubAvatarService) EnqueueGeneration(profile *model.CharacterProfile) error {
	if s.err != nil {
		return s.err
	}
	s.enqueued = append(s.enqueued, tasks.AvatarGenerationTask{
		ProfileID:    profile.ID,
		Name:         profile.Name,
		Relationship: profile.Relationship,
		Traits:       profile.Traits,
	})
	return nil
}

func (s *stubAvatarService) FallbackURL(name string) string {
	return fallbackAvatarURL(name)
}

type generatorLLM struct {
	text string
	err  error
}

func (c *generatorLLM) StreamChat(ctx context.Context, messages []llm.Message, gen *llm.GenerationParams) (llm.Stream, error) {
	return nil, errors.New("not implemented")
}

func (c *generatorLLM) GenerateContent(ctx context.Context, prompt string) (string, error) {
	return c.text, c.err
}

func TestCreateProfileAssignsDefaultsAndEnqueuesAvatar(t *testing.T) {
	avatars := &stubAvatarService{}
	repo := &memProfileRepo{}
	svc := NewProfileService(repo, newMemHistoryRepo(), &generatorLLM{}, avatars)

	profile := &model.CharacterProfile{
		Name:         "Mira Jose",
		Relationship: "Neighbor",
		Traits:       "warm smile",
	}
	if err := svc.CreateProfile(context.Background(), profile); err != nil {
		t.Fatalf("CreateProfile: %v", err)
	}

	if profile.ID == "" {
		t.Fatal("expected generated ID")
	}
	if profile.IntimacyLevel != model.IntimacyNormal {
		t.Fatalf("expected default intimacy level, got %q", profile.IntimacyLevel)
	}
	if !strings.Contains(profile.AvatarURL, "ui-avatars.com") || !strings.Contains(profile.AvatarURL, "Mira+Jose") {
		t.Fatalf("expected fallback avatar URL, got %q", profile.AvatarURL)
	}
	if len(avatars.enqueued) != 1 || avatars.enqueued[0].ProfileID != profile.ID {
		t.Fatalf("expected avatar task enqueued, got %+v", avatars.enqueued)
	}
}

func TestCreateProfileSurvivesEnqueueFailure(t *testing.T) {
	avatars := &stubAvatarService{err: errors.New("kafka down")}
	repo := &memProfileRepo{}
	svc := NewProfileService(repo, newMemHistoryRepo(), &generatorLLM{}, avatars)

	profile := &model.CharacterProfile{Name: "Mira"}
	if err := svc.CreateProfile(context.Background(), profile); err != nil {
		t.Fatalf("enqueue failure must not fail creation: %v", err)
	}
	if repo.profile == nil {
		t.Fatal("expected profile persisted")
	}
}

func TestGenerateRandomProfileParsesJSON(t *testing.T) {
	llmClient := &generatorLLM{text: `{
		"name": "Nila",
		"relationship": "Secret Admirer",
		"traits": "long dark hair, hazel eyes",
		"tags": ["Playful", "Bold"],
		"intimacyLevel": "explicit"
	}`}
	svc := NewProfileService(&memProfileRepo{}, newMemHistoryRepo(), llmClient, &stubAvatarService{})

	profile, err := svc.GenerateRandomProfile(context.Background(), "female")
	if err != nil {
		t.Fatalf("GenerateRandomProfile: %v", err)
	}
	if profile.Name != "Nila" || profile.Relationship != "Secret Admirer" {
		t.Fatalf("profile mismatch: %+v", profile)
	}
	if profile.IntimacyLevel != model.IntimacyExplicit {
		t.Fatalf("expected explicit intimacy, got %q", profile.IntimacyLevel)
	}
	if len(profile.Tags) != 2 {
		t.Fatalf("tags mismatch: %v", profile.Tags)
	}
}

func TestGenerateRandomProfileStripsMarkdownFence(t *testing.T) {
	llmClient := &generatorLLM{text: "```json\n{\"name\":\"Ira\",\"relationship\":\"Rival\",\"traits\":\"sharp jawline\",\"tags\":[\"Cold\"],\"intimacyLevel\":\"normal\"}\n```"}
	svc := NewProfileService(&memProfileRepo{}, newMemHistoryRepo(), llmClient, &stubAvatarService{})

	profile, err := svc.GenerateRandomProfile(context.Background(), "any")
	if err != nil {
		t.Fatalf("GenerateRandomProfile: %v", err)
	}
	if profile.Name != "Ira" {
		t.Fatalf("expected fenced JSON parsed, got %+v", profile)
	}
}

func TestGenerateRandomProfileFallsBackOnError(t *testing.T) {
	llmClient := &generatorLLM{err: errors.New("status 500")}
	svc := NewProfileService(&memProfileRepo{}, newMemHistoryRepo(), llmClient, &stubAvatarService{})

	profile, err := svc.GenerateRandomProfile(context.Background(), "any")
	if err != nil {
		t.Fatalf("GenerateRandomProfile: %v", err)
	}
	if profile.Name != "Alex" || profile.Relationship != "Stranger" {
		t.Fatalf("expected built-in default profile, got %+v", profile)
	}
	if profile.IntimacyLevel != model.IntimacyNormal {
		t.Fatalf("expected normal intimacy, got %q", profile.IntimacyLevel)
	}
}
