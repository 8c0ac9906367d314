// Package imagegen provides a client for one-shot image generation calls.
package imagegen

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/jeswinjoss/Velvet-ai-companion-app/internal/config"
	"github.com/jeswinjoss/Velvet-ai-companion-app/pkg/log"
)

// Client defines the interface for an image generation client.
// 整条图像生成链路对本服务是不透明的：一次调用、失败由调用方兜底。
type Client interface {
	GenerateImage(ctx context.Context, prompt string) ([]byte, error)
}

type openAICompatibleClient struct {
	cfg    config.ImageConfig
	client *http.Client
}

// NewClient creates a new image generation client.
func NewClient(cfg config.ImageConfig) Client {
	return &openAICompatibleClient{
		cfg:    cfg,
		client: &http.Client{},
	}
}

type imageRequest struct {
	Model          string `json:"model"`
	Prompt         string `json:"prompt"`
	N              int    `json:"n"`
	Size           string `json:"size"`
	ResponseFormat string `json:"response_format"`
}

type imageResponse struct {
	Data []struct {
		B64JSON string `json:"b64_json"`
	} `json:"data"`
}

// GenerateImage 调用图像生成接口，返回解码后的图像字节。
func (c *openAICompatibleClient) GenerateImage(ctx context.Context, prompt string) ([]byte, error) {
	log.Infof("[ImageClient] 开始调用图像生成 API, model: %s", c.cfg.Model)
	reqBody := imageRequest{
		Model:          c.cfg.Model,
		Prompt:         prompt,
		N:              1,
		Size:           "512x512",
		ResponseFormat: "b64_json",
	}

	reqBytes, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal image request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.cfg.BaseURL+"/images/generations", bytes.NewReader(reqBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to create image request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	resp, err := c.client.Do(req)
	if err != nil {
		log.Errorf("[ImageClient] 调用图像生成 API 失败, error: %v", err)
		return nil, fmt.Errorf("failed to call image api: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Errorf("[ImageClient] 图像生成 API 返回非 200 状态码: %s", resp.Status)
		return nil, fmt.Errorf("image api returned non-200 status: %s", resp.Status)
	}

	var imageResp imageResponse
	if err := json.NewDecoder(resp.Body).Decode(&imageResp); err != nil {
		return nil, fmt.Errorf("failed to decode image response: %w", err)
	}

	if len(imageResp.Data) == 0 || imageResp.Data[0].B64JSON == "" {
		return nil, fmt.Errorf("received empty image from api")
	}

	raw, err := base64.StdEncoding.DecodeString(imageResp.Data[0].B64JSON)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image payload: %w", err)
	}

	log.Infof("[ImageClient] 成功获取生成图像, bytes: %d", len(raw))
	return raw, nil
}
