package llm

import (
	"context"
	"encoding/json"
	"fmt"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/SalvadorCordova96/ProJect-Medical/internal/agent/model"
	logx "github.com/SalvadorCordova96/ProJect-Medical/pkg/logger"
)

// Translator is the LLM-backed query translator collaborator. It only drafts
// candidate statements; the safety validator decides whether they may run.
type Translator struct {
	chatModel    einomodel.BaseChatModel
	promptConfig model.PromptConfig
}

func NewTranslator(chatModel einomodel.BaseChatModel, promptConfig model.PromptConfig) *Translator {
	return &Translator{chatModel: chatModel, promptConfig: promptConfig}
}

// Translate drafts a statement for the classified intent. The prompt is
// constrained to read-only statements unless the role and intent explicitly
// authorize the mutation pathway.
func (t *Translator) Translate(ctx context.Context, intent model.IntentType, entities map[string]any, role string) (*model.SQLQuery, error) {
	mutationAllowed := intent.IsMutation() && role == "Admin"

	systemPrompt, err := RenderTranslatorSystem(ctx, t.promptConfig, mutationAllowed)
	if err != nil {
		return nil, fmt.Errorf("render translator prompt: %w", err)
	}

	entityJSON, err := json.Marshal(entities)
	if err != nil {
		return nil, fmt.Errorf("marshal entities: %w", err)
	}

	userContent := fmt.Sprintf(
		"Intención: %s\nRol del solicitante: %s\nEntidades extraídas: %s",
		intent, role, string(entityJSON),
	)

	messages := []*schema.Message{
		schema.SystemMessage(systemPrompt),
		schema.UserMessage(userContent),
	}

	out, err := t.chatModel.Generate(ctx, messages)
	if err != nil {
		logx.Error().Err(err).Msg("Translator model call failed")
		return nil, fmt.Errorf("translator generate: %w", err)
	}
	if out == nil {
		return nil, fmt.Errorf("translator returned nil message")
	}

	query, err := ParseTranslation(out.Content)
	if err != nil {
		logx.Error().Err(err).Msg("Error parsing translation")
		return nil, err
	}

	// The model's own mutation flag is advisory; the intent decides.
	query.IsMutation = query.IsMutation || intent.IsMutation()

	logx.Debug().
		Str("intent", string(intent)).
		Int("tables", len(query.Tables)).
		Bool("is_mutation", query.IsMutation).
		Msg("SQL drafted")

	return query, nil
}

var _ model.QueryTranslator = (*Translator)(nil)
