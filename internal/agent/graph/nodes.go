package graph

import (
	"context"
	"sort"
	"strings"

	"github.com/SalvadorCordova96/ProJect-Medical/internal/agent/model"
	"github.com/SalvadorCordova96/ProJect-Medical/internal/agent/sqlguard"
	logx "github.com/SalvadorCordova96/ProJect-Medical/pkg/logger"
)

// classifyIntent resolves the user query into an intent and extracted
// entities. Any classifier failure, including a timeout, is an internal
// error for this turn.
func (e *Engine) classifyIntent(ctx context.Context, state *model.AgentState) Node {
	classification, err := e.classifier.Classify(ctx, state.UserQuery, state.Messages)
	if err != nil {
		logx.Error().Err(err).Str("thread_id", state.ThreadID).Msg("Intent classification failed")
		state.AddLog(string(NodeClassifyIntent), "error", err.Error())
		state.SetError(model.ErrorInternal, "intent classification: "+err.Error())
		return NodeErrorResponse
	}

	state.IntentClassified = classification.Intent
	state.IntentConfidence = classification.Confidence
	if classification.Entities != nil {
		state.EntitiesExtracted = classification.Entities
	}
	state.AddLog(string(NodeClassifyIntent), "info", "intent "+string(classification.Intent))

	return afterClassification(classification.Intent)
}

// checkPermissions gates the pipeline on the role/intent matrix before any
// SQL exists. Denial is terminal for the turn.
func (e *Engine) checkPermissions(state *model.AgentState) Node {
	allowed := e.perms.Allowed(state.UserRole, state.IntentClassified, state.EntitiesExtracted)
	if !allowed {
		state.AddLog(string(NodeCheckPermissions), "warn",
			"role "+state.UserRole+" denied for "+string(state.IntentClassified))
		state.SetError(model.ErrorPermissionDenied,
			"role "+state.UserRole+" not allowed for intent "+string(state.IntentClassified))
	}
	return afterPermissions(allowed)
}

// generateSQL drafts a statement and runs it through the guard. Mutations
// are drafted and validated but parked for confirmation, never handed to
// the executor.
func (e *Engine) generateSQL(ctx context.Context, state *model.AgentState) Node {
	q, err := e.translator.Translate(ctx, state.IntentClassified, state.EntitiesExtracted, state.UserRole)
	if err != nil {
		logx.Error().Err(err).Str("thread_id", state.ThreadID).Msg("SQL translation failed")
		state.AddLog(string(NodeGenerateSQL), "error", err.Error())
		state.SetError(model.ErrorSQL, "sql translation: "+err.Error())
		return NodeErrorResponse
	}

	mutationAuthorized := state.IntentClassified.IsMutation()
	validationErrors := sqlguard.CheckQuery(q, state.UserRole, mutationAuthorized, e.cfg.MaxResults)

	state.SQL = q
	state.SQLValidationErrors = validationErrors
	state.SQLIsValid = len(validationErrors) == 0

	if !state.SQLIsValid {
		state.AddLog(string(NodeGenerateSQL), "warn", strings.Join(validationErrors, "; "))
		state.SetError(model.ErrorValidation, strings.Join(validationErrors, "; "))
		return NodeErrorResponse
	}

	state.TargetDatabase = q.TargetDB
	if q.IsMutation {
		state.PendingConfirmation = true
		state.AddLog(string(NodeGenerateSQL), "info", "mutation drafted, awaiting confirmation")
	}
	return afterGeneration(state)
}

// executeSQL runs the validated statement and classifies the outcome.
// An empty result set is treated as no_results and enriched with fuzzy
// alternatives for the extracted entity terms.
func (e *Engine) executeSQL(ctx context.Context, state *model.AgentState) Node {
	result := e.executor.Execute(ctx, state.SQL)
	state.ExecutionResult = result

	if !result.Success {
		state.AddLog(string(NodeExecuteSQL), "error", result.ErrorMessage)
		next := afterExecution(state)
		if next == NodeGenerateSQL {
			state.RetryCount++
			logx.Warn().
				Str("thread_id", state.ThreadID).
				Int("retry", state.RetryCount).
				Str("error_kind", string(result.ErrorKind)).
				Msg("Retrying SQL generation after retryable failure")
			return next
		}
		state.SetError(result.ErrorKind, result.ErrorMessage)
		return next
	}

	if result.RowCount == 0 {
		e.suggestAlternatives(state)
		if len(state.FuzzySuggestions) > 0 {
			state.SetError(model.ErrorInvalidEntity, "entity term did not match known vocabulary")
		} else {
			state.SetError(model.ErrorNoResults, "query returned no rows")
		}
		return NodeErrorResponse
	}

	state.AddLog(string(NodeExecuteSQL), "info", "rows returned")
	return NodeGenerateResponse
}

// respond renders the final answer for every terminal node, records it in
// the history, and ends the run. A formatter failure degrades to the fixed
// system error template instead of failing the turn.
func (e *Engine) respond(ctx context.Context, state *model.AgentState) Node {
	text, data, err := e.formatter.Format(ctx, state)
	if err != nil {
		logx.Error().Err(err).Str("thread_id", state.ThreadID).Msg("Response formatting failed")
		friendly := model.FormatFriendlyError(model.ErrorInternal, nil)
		text = friendly.Message
		data = map[string]any{"error_kind": string(model.ErrorInternal)}
		if state.ErrorKind == model.ErrorNone {
			state.SetError(model.ErrorInternal, "response formatting: "+err.Error())
		}
	}

	state.ResponseText = text
	state.ResponseData = data
	state.AppendAssistantMessage(text)
	return NodeEnd
}

// suggestAlternatives matches the extracted entity terms against the known
// vocabulary so the no-results template can offer corrections.
func (e *Engine) suggestAlternatives(state *model.AgentState) {
	if e.catalog == nil {
		return
	}
	terms := entityTerms(state.EntitiesExtracted)
	if len(terms) == 0 {
		return
	}
	matches, suggestions := e.catalog.Suggestions(terms)
	state.FuzzyMatches = matches
	state.FuzzySuggestions = suggestions
}

func entityTerms(entities map[string]any) []string {
	terms := make([]string, 0, len(entities))
	for _, v := range entities {
		if s, ok := v.(string); ok && s != "" {
			terms = append(terms, s)
		}
	}
	sort.Strings(terms)
	return terms
}
