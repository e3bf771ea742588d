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

const maxRowsInPrompt = 20

// Formatter is the response formatter collaborator. Error kinds use the
// fixed friendly templates; everything else goes through the response model.
// A model failure falls back to canned text so the turn always produces a
// response.
type Formatter struct {
	chatModel    einomodel.BaseChatModel
	promptConfig model.PromptConfig
}

func NewFormatter(chatModel einomodel.BaseChatModel, promptConfig model.PromptConfig) *Formatter {
	return &Formatter{chatModel: chatModel, promptConfig: promptConfig}
}

func (f *Formatter) Format(ctx context.Context, state *model.AgentState) (string, map[string]any, error) {
	if state.ErrorKind != model.ErrorNone {
		return f.formatError(state)
	}
	if state.PendingConfirmation {
		return f.formatPendingMutation(state)
	}
	return f.formatWithModel(ctx, state)
}

var _ model.ResponseFormatter = (*Formatter)(nil)

// formatError renders the fixed template for the state's error kind,
// parameterized with fuzzy alternatives when available. Raw internal error
// text never reaches the output.
func (f *Formatter) formatError(state *model.AgentState) (string, map[string]any, error) {
	var errCtx *model.ErrorContext
	if len(state.FuzzySuggestions) > 0 {
		errCtx = &model.ErrorContext{Alternatives: state.FuzzySuggestions}
	}

	msg := model.FormatFriendlyError(state.ErrorKind, errCtx)
	text := fmt.Sprintf("%s\n%s\n%s", msg.Title, msg.Message, msg.Suggestion)

	data := map[string]any{
		"error_kind": string(state.ErrorKind),
		"title":      msg.Title,
		"suggestion": msg.Suggestion,
	}
	if len(state.FuzzySuggestions) > 0 {
		data["alternatives"] = state.FuzzySuggestions
	}
	return text, data, nil
}

// formatPendingMutation reports a drafted mutation that still needs
// out-of-band confirmation. The statement is echoed in the structured
// payload for the confirming UI, never executed here.
func (f *Formatter) formatPendingMutation(state *model.AgentState) (string, map[string]any, error) {
	text := "He preparado el cambio solicitado, pero necesita confirmación antes de aplicarse. " +
		"Revisa el detalle y confírmalo desde el panel."

	data := map[string]any{
		"pending_confirmation": true,
		"intent":               string(state.IntentClassified),
	}
	if state.SQL != nil {
		data["draft_statement"] = state.SQL.Query
		data["draft_params"] = state.SQL.Params
	}
	return text, data, nil
}

func (f *Formatter) formatWithModel(ctx context.Context, state *model.AgentState) (string, map[string]any, error) {
	systemPrompt, err := RenderFormatterSystem(ctx, f.promptConfig)
	if err != nil {
		return fallbackText(state.IntentClassified), fallbackData(state), nil
	}

	summary := buildResultSummary(state)

	messages := []*schema.Message{
		schema.SystemMessage(systemPrompt),
		schema.UserMessage(summary),
	}

	out, err := f.chatModel.Generate(ctx, messages)
	if err != nil || out == nil || out.Content == "" {
		logx.Error().Err(err).Msg("Formatter model call failed, using fallback text")
		return fallbackText(state.IntentClassified), fallbackData(state), nil
	}

	return out.Content, fallbackData(state), nil
}

// buildResultSummary renders the structured context the formatter model sees:
// the question, the intent, and a capped sample of the result rows.
func buildResultSummary(state *model.AgentState) string {
	summary := map[string]any{
		"pregunta":  state.UserQuery,
		"intencion": string(state.IntentClassified),
	}

	if res := state.ExecutionResult; res != nil {
		rows := res.Rows
		if len(rows) > maxRowsInPrompt {
			rows = rows[:maxRowsInPrompt]
		}
		summary["filas_totales"] = res.RowCount
		summary["columnas"] = res.Columns
		summary["filas"] = rows
		summary["tiempo_ms"] = res.ExecutionTimeMS
	}

	b, err := json.Marshal(summary)
	if err != nil {
		return state.UserQuery
	}
	return string(b)
}

func fallbackText(intent model.IntentType) string {
	switch intent {
	case model.IntentGreeting:
		return "¡Hola! Soy el asistente de la clínica. Puedo buscar pacientes, citas, tratamientos y estadísticas. ¿En qué te ayudo?"
	case model.IntentOutOfScope:
		return "Eso está fuera de lo que puedo consultar. Pregúntame sobre pacientes, citas, tratamientos o finanzas de la clínica."
	case model.IntentClarification:
		return "¿Podrías darme un poco más de detalle? Por ejemplo el nombre del paciente o un rango de fechas."
	default:
		return "Encontré la información solicitada, pero no pude redactar el resumen. Intenta de nuevo."
	}
}

func fallbackData(state *model.AgentState) map[string]any {
	data := map[string]any{"intent": string(state.IntentClassified)}
	if res := state.ExecutionResult; res != nil {
		data["row_count"] = res.RowCount
		data["columns"] = res.Columns
		data["rows"] = res.Rows
	}
	return data
}
