package llm

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino-ext/components/model/gemini"
	einomodel "github.com/cloudwego/eino/components/model"
	"google.golang.org/genai"

	"github.com/SalvadorCordova96/ProJect-Medical/internal/agent/model"
	logx "github.com/SalvadorCordova96/ProJect-Medical/pkg/logger"
)

// ChatModelConfig holds the configuration for chat model creation.
type ChatModelConfig struct {
	APIKey     string
	BaseURL    string
	Classifier *model.ClassifierModelConfig
	Formatter  *model.FormatterModelConfig
}

// ChatModels holds the low-temperature model shared by the classifier and
// the translator, and the response model used by the formatter.
type ChatModels struct {
	Classifier          einomodel.BaseChatModel
	Formatter           einomodel.BaseChatModel
	ClassifierModelName string
	FormatterModelName  string
}

// NewChatModels creates both chat models with the given configuration.
func NewChatModels(ctx context.Context, config ChatModelConfig) (*ChatModels, error) {
	clientCfg := &genai.ClientConfig{
		APIKey:  config.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if config.BaseURL != "" {
		clientCfg.HTTPOptions.BaseURL = config.BaseURL
	}

	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		logx.Error().Err(err).Msg("Error creating Gemini client")
		return nil, fmt.Errorf("error creating Gemini client: %w", err)
	}

	classifierModel, err := gemini.NewChatModel(ctx, &gemini.Config{
		Client:      client,
		Model:       config.Classifier.Model,
		Temperature: &config.Classifier.Temperature,
		MaxTokens:   &config.Classifier.MaxTokens,
	})
	if err != nil {
		logx.Error().Err(err).Msg("Error creating classifier model")
		return nil, fmt.Errorf("error creating classifier model: %w", err)
	}

	formatterModel, err := gemini.NewChatModel(ctx, &gemini.Config{
		Client:      client,
		Model:       config.Formatter.Model,
		Temperature: &config.Formatter.Temperature,
		MaxTokens:   &config.Formatter.MaxTokens,
	})
	if err != nil {
		logx.Error().Err(err).Msg("Error creating formatter model")
		return nil, fmt.Errorf("error creating formatter model: %w", err)
	}

	return &ChatModels{
		Classifier:          classifierModel,
		Formatter:           formatterModel,
		ClassifierModelName: config.Classifier.Model,
		FormatterModelName:  config.Formatter.Model,
	}, nil
}
