package llm

import (
	"context"
	"fmt"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/SalvadorCordova96/ProJect-Medical/internal/agent/model"
	logx "github.com/SalvadorCordova96/ProJect-Medical/pkg/logger"
)

// Classifier is the LLM-backed intent classifier collaborator.
type Classifier struct {
	chatModel    einomodel.BaseChatModel
	promptConfig model.PromptConfig
	historyTurns int
}

func NewClassifier(chatModel einomodel.BaseChatModel, promptConfig model.PromptConfig, historyTurns int) *Classifier {
	return &Classifier{
		chatModel:    chatModel,
		promptConfig: promptConfig,
		historyTurns: historyTurns,
	}
}

// Classify runs the classification model over the query plus recent history.
// The caller controls the deadline through ctx; a timeout surfaces as a plain
// error and maps to the internal error kind upstream.
func (c *Classifier) Classify(ctx context.Context, query string, history []*schema.Message) (*model.Classification, error) {
	systemPrompt, err := RenderClassifierSystem(ctx, c.promptConfig)
	if err != nil {
		return nil, fmt.Errorf("render classifier prompt: %w", err)
	}

	var userContent string
	if len(history) > 1 {
		userContent = buildHistoryContext(history[:len(history)-1], c.historyTurns) + "\n"
	}
	userContent += "<current_message_to_analyze>\nUserMessage(" + query + ")\n</current_message_to_analyze>"

	messages := []*schema.Message{
		schema.SystemMessage(systemPrompt),
		schema.UserMessage(userContent),
	}

	out, err := c.chatModel.Generate(ctx, messages)
	if err != nil {
		logx.Error().Err(err).Msg("Classifier model call failed")
		return nil, fmt.Errorf("classifier generate: %w", err)
	}
	if out == nil {
		return nil, fmt.Errorf("classifier returned nil message")
	}

	classification, err := ParseClassification(out.Content)
	if err != nil {
		logx.Error().Err(err).Msg("Error parsing classification")
		return nil, err
	}

	logx.Debug().
		Str("intent", string(classification.Intent)).
		Float64("confidence", classification.Confidence).
		Int("entities", len(classification.Entities)).
		Msg("Intent classified")

	return classification, nil
}

var _ model.IntentClassifier = (*Classifier)(nil)
