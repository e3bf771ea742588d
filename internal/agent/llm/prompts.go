package llm

import (
	"context"
	_ "embed"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"

	"github.com/SalvadorCordova96/ProJect-Medical/internal/agent/model"
)

//go:embed template/classifier_prompt.txt
var classifierSystemPrompt string

//go:embed template/translator_prompt.txt
var translatorSystemPrompt string

//go:embed template/formatter_prompt.txt
var formatterSystemPrompt string

// RenderClassifierSystem renders the classifier system prompt through the
// Eino prompt component so prompt callbacks fire.
func RenderClassifierSystem(ctx context.Context, cfg model.PromptConfig) (string, error) {
	content := strings.NewReplacer(
		"{clinic_name}", cfg.ClinicName,
		"{clinic_type}", cfg.ClinicType,
	).Replace(classifierSystemPrompt)
	return renderSystem(ctx, content)
}

// RenderTranslatorSystem renders the SQL translator system prompt, including
// whether the caller's role authorizes a mutation pathway.
func RenderTranslatorSystem(ctx context.Context, cfg model.PromptConfig, mutationAllowed bool) (string, error) {
	allowed := "no"
	if mutationAllowed {
		allowed = "sí"
	}
	content := strings.NewReplacer(
		"{clinic_name}", cfg.ClinicName,
		"{clinic_type}", cfg.ClinicType,
		"{mutation_allowed}", allowed,
	).Replace(translatorSystemPrompt)
	return renderSystem(ctx, content)
}

// RenderFormatterSystem renders the response formatter system prompt.
func RenderFormatterSystem(ctx context.Context, cfg model.PromptConfig) (string, error) {
	content := strings.NewReplacer(
		"{clinic_name}", cfg.ClinicName,
		"{clinic_type}", cfg.ClinicType,
	).Replace(formatterSystemPrompt)
	return renderSystem(ctx, content)
}

// renderSystem wraps a prepared system prompt in the Eino prompt component
// using a messages placeholder, which keeps JSON braces in templates intact.
func renderSystem(ctx context.Context, content string) (string, error) {
	tpl := prompt.FromMessages(
		schema.FString,
		schema.MessagesPlaceholder("system_messages", false),
	)
	msgs, err := tpl.Format(ctx, map[string]any{
		"system_messages": []*schema.Message{schema.SystemMessage(content)},
	})
	if err != nil {
		return "", fmt.Errorf("prompt callbacks: %w", err)
	}
	if len(msgs) == 0 || msgs[0] == nil {
		return "", fmt.Errorf("prompt callbacks: empty result")
	}
	return msgs[0].Content, nil
}

// buildHistoryContext renders the recent conversation turns in the tagged
// format the classifier prompt expects.
func buildHistoryContext(messages []*schema.Message, maxTurns int) string {
	recent := trimTail(messages, maxTurns)

	var b strings.Builder
	b.WriteString("<conversation_context>\n")
	for _, msg := range recent {
		if msg == nil || msg.Content == "" {
			continue
		}
		switch msg.Role {
		case schema.User:
			b.WriteString("UserMessage(" + msg.Content + ")\n")
		case schema.Assistant:
			b.WriteString("AssistantMessage(" + msg.Content + ")\n")
		}
	}
	b.WriteString("</conversation_context>")
	return b.String()
}

func trimTail(messages []*schema.Message, maxTurns int) []*schema.Message {
	if maxTurns <= 0 || len(messages) <= maxTurns {
		return messages
	}
	return messages[len(messages)-maxTurns:]
}
