// Package llm 文本生成能力的统一接口及其实现
package llm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/qs3c/wpr_server/config"
)

var ErrEmptyResponse = errors.New("llm: empty response")

// Request 一次生成请求
type Request struct {
	System    string
	Prompt    string
	MaxTokens int
	// JSON 为 true 时要求模型直接输出 JSON
	JSON bool
}

// Response 生成结果
type Response struct {
	Text         string
	Model        string
	InputTokens  int
	OutputTokens int
}

// Generator 文本生成，调用方负责解析
type Generator interface {
	Generate(ctx context.Context, req *Request) (*Response, error)
	Model() string
}

// New 按配置选择实现
func New(ctx context.Context, cfg *config.AIConfig) (Generator, error) {
	timeout := time.Duration(cfg.TimeoutSec) * time.Second
	switch cfg.Provider {
	case "anthropic":
		return NewAnthropicClient(&AnthropicConfig{
			APIKey:    cfg.APIKey,
			BaseURL:   cfg.BaseURL,
			Model:     cfg.Model,
			MaxTokens: cfg.MaxTokens,
			Timeout:   timeout,
		}), nil
	case "gemini":
		return NewGeminiClient(ctx, &GeminiConfig{
			APIKey:    cfg.GeminiAPIKey,
			Model:     cfg.Model,
			MaxTokens: cfg.MaxTokens,
		})
	default:
		return nil, fmt.Errorf("llm: unsupported provider %q", cfg.Provider)
	}
}
