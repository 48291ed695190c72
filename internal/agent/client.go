// Package agent connects participants to their language models. It is the
// single blocking, failure-prone boundary of the engine: everything else
// in a game is in-memory computation.
package agent

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/anthropic"
	"github.com/tmc/langchaingo/llms/mistral"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/NikitaDmitrieff/ai-arena-back-mr-white/internal/game"
)

var (
	ErrGeneration         = errors.New("generation_failed")
	ErrUnknownProvider    = errors.New("unknown_provider")
	ErrEmptyModelResponse = errors.New("empty_model_response")
)

// Client resolves (provider, model) pairs to langchaingo models and runs
// one-shot completions. Models are constructed lazily and cached, so a
// session with five seats on the same model builds one client.
type Client struct {
	ollamaURL string

	mu     sync.Mutex
	models map[game.ModelSpec]llms.Model
}

type Option func(*Client)

// WithOllamaURL points local-model seats at a non-default Ollama server.
func WithOllamaURL(url string) Option {
	return func(c *Client) { c.ollamaURL = url }
}

func NewClient(opts ...Option) *Client {
	c := &Client{models: map[game.ModelSpec]llms.Model{}}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Generate satisfies game.Generator. Provider errors come back wrapped in
// ErrGeneration; callers decide whether that fails a session or a batch.
func (c *Client) Generate(ctx context.Context, spec game.ModelSpec, userPrompt, systemPrompt string) (string, error) {
	model, err := c.modelFor(spec)
	if err != nil {
		return "", err
	}

	messages := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, systemPrompt),
		llms.TextParts(llms.ChatMessageTypeHuman, userPrompt),
	}
	resp, err := model.GenerateContent(ctx, messages)
	if err != nil {
		return "", fmt.Errorf("%w: %s/%s: %v", ErrGeneration, spec.Provider, spec.Model, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: %s/%s", ErrEmptyModelResponse, spec.Provider, spec.Model)
	}
	return strings.TrimSpace(resp.Choices[0].Content), nil
}

func (c *Client) modelFor(spec game.ModelSpec) (llms.Model, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if m, ok := c.models[spec]; ok {
		return m, nil
	}

	var (
		m   llms.Model
		err error
	)
	switch strings.ToLower(spec.Provider) {
	case "openai":
		m, err = openai.New(openai.WithModel(spec.Model))
	case "anthropic", "claude":
		m, err = anthropic.New(anthropic.WithModel(spec.Model))
	case "mistral":
		m, err = mistral.New(mistral.WithModel(spec.Model))
	case "ollama":
		ollamaOpts := []ollama.Option{ollama.WithModel(spec.Model)}
		if c.ollamaURL != "" {
			ollamaOpts = append(ollamaOpts, ollama.WithServerURL(c.ollamaURL))
		}
		m, err = ollama.New(ollamaOpts...)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownProvider, spec.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: init %s/%s: %v", ErrGeneration, spec.Provider, spec.Model, err)
	}
	c.models[spec] = m
	return m, nil
}
