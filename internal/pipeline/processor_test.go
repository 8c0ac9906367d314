package pipeline

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/jeswinjoss/Velvet-ai-companion-app/internal/model"
	"github.com/jeswinjoss/Velvet-ai-companion-app/pkg/llm"
	"github.com/jeswinjoss/Velvet-ai-companion-app/pkg/tasks"
)

type stubLLM struct {
	text string
	err  error
}

func (c *stubLLM) StreamChat(ctx context.Context, messages []llm.Message, gen *llm.GenerationParams) (llm.Stream, error) {
	return nil, errors.New("not implemented")
}

func (c *stubLLM) GenerateContent(ctx context.Context, prompt string) (string, error) {
	return c.text, c.err
}

type stubImageGen struct {
	data    []byte
	err     error
	prompts []string
}

func (c *stubImageGen) GenerateImage(ctx context.Context, prompt string) ([]byte, error) {
	c.prompts = append(c.prompts, prompt)
	return c.data, c.err
}

type stubProfileRepo struct {
	avatarURLs map[string]string
}

func newStubProfileRepo() *stubProfileRepo {
	return &stubProfileRepo{avatarURLs: make(map[string]string)}
}

func (r *stubProfileRepo) Create(*model.CharacterProfile) error { return nil }

func (r *stubProfileRepo) GetByID(string) (*model.CharacterProfile, error) {
	return nil, errors.New("not implemented")
}

func (r *stubProfileRepo) List() ([]model.CharacterProfile, error) { return nil, nil }

func (r *stubProfileRepo) Update(*model.CharacterProfile) error { return nil }

func (r *stubProfileRepo) UpdateAvatarURL(id, avatarURL string) error {
	r.avatarURLs[id] = avatarURL
	return nil
}

func (r *stubProfileRepo) Delete(string) error { return nil }

func testFallbackURL(name string) string { return "https://ui-avatars.com/api/?name=" + name }

func testTask() tasks.AvatarGenerationTask {
	return tasks.AvatarGenerationTask{
		ProfileID:    "p1",
		Name:         "Mira",
		Relationship: "Neighbor",
		Traits:       "warm smile",
	}
}

func TestProcessStoresGeneratedAvatar(t *testing.T) {
	repo := newStubProfileRepo()
	imageGen := &stubImageGen{data: []byte("png-bytes")}
	p := NewAvatarProcessor(&stubLLM{text: "refined prompt"}, imageGen, repo, testFallbackURL)
	p.store = func(ctx context.Context, profileID string, data []byte) (string, error) {
		return "https://minio.local/velvet-avatars/avatars/" + profileID + ".png", nil
	}

	if err := p.Process(context.Background(), testTask()); err != nil {
		t.Fatalf("Process: %v", err)
	}

	if got := repo.avatarURLs["p1"]; !strings.Contains(got, "avatars/p1.png") {
		t.Fatalf("expected stored avatar URL, got %q", got)
	}
	if len(imageGen.prompts) != 1 || imageGen.prompts[0] != "refined prompt" {
		t.Fatalf("expected refined prompt used, got %v", imageGen.prompts)
	}
}

func TestProcessUsesDefaultPromptWhenRefineFails(t *testing.T) {
	repo := newStubProfileRepo()
	imageGen := &stubImageGen{data: []byte("png-bytes")}
	p := NewAvatarProcessor(&stubLLM{err: errors.New("status 500")}, imageGen, repo, testFallbackURL)
	p.store = func(ctx context.Context, profileID string, data []byte) (string, error) {
		return "https://minio.local/x", nil
	}

	if err := p.Process(context.Background(), testTask()); err != nil {
		t.Fatalf("Process: %v", err)
	}
	if len(imageGen.prompts) != 1 || !strings.Contains(imageGen.prompts[0], "Raw candid photo of Mira") {
		t.Fatalf("expected default prompt template, got %v", imageGen.prompts)
	}
}

func TestProcessFallsBackWhenImageGenerationFails(t *testing.T) {
	repo := newStubProfileRepo()
	imageGen := &stubImageGen{err: errors.New("content filtered")}
	p := NewAvatarProcessor(&stubLLM{text: "prompt"}, imageGen, repo, testFallbackURL)

	if err := p.Process(context.Background(), testTask()); err != nil {
		t.Fatalf("image failure should resolve with fallback, got %v", err)
	}
	if got := repo.avatarURLs["p1"]; got != testFallbackURL("Mira") {
		t.Fatalf("expected fallback URL, got %q", got)
	}
}

func TestProcessReturnsErrorWhenStoreFails(t *testing.T) {
	repo := newStubProfileRepo()
	imageGen := &stubImageGen{data: []byte("png-bytes")}
	p := NewAvatarProcessor(&stubLLM{text: "prompt"}, imageGen, repo, testFallbackURL)
	p.store = func(ctx context.Context, profileID string, data []byte) (string, error) {
		return "", errors.New("minio unreachable")
	}

	// 存储失败可重试，向消费端返回 error
	if err := p.Process(context.Background(), testTask()); err == nil {
		t.Fatal("expected error when object storage fails")
	}
	if _, ok := repo.avatarURLs["p1"]; ok {
		t.Fatal("avatar URL must not be updated on store failure")
	}
}
