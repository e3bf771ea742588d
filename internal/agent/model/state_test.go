package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestThreadIDFormat(t *testing.T) {
	require.Equal(t, "42_webapp_abc-123", ThreadID(42, OriginWebapp, "abc-123"))
	require.Equal(t, "7_whatsapp_paciente_x", ThreadID(7, OriginWhatsappPatient, "x"))
}

func TestNewStateDerivesThreadID(t *testing.T) {
	s := NewState("hola", 42, "Admin", "abc-123", "", OriginWebapp)
	require.Equal(t, "42_webapp_abc-123", s.ThreadID)

	explicit := NewState("hola", 42, "Admin", "abc-123", "custom-thread", OriginWebapp)
	require.Equal(t, "custom-thread", explicit.ThreadID)
}

func TestNewStateDefaults(t *testing.T) {
	s := NewState("hola", 1, "Paciente", "s", "", OriginWebapp)

	require.Equal(t, IntentClarification, s.IntentClassified)
	require.Equal(t, TargetCore, s.TargetDatabase)
	require.Equal(t, DefaultMaxRetries, s.MaxRetries)
	require.Equal(t, ErrorNone, s.ErrorKind)
	require.Len(t, s.Messages, 1)
	require.Equal(t, "hola", s.Messages[0].Content)
}

func TestResumeFromCarriesHistory(t *testing.T) {
	prev := NewState("primera pregunta", 1, "Admin", "s", "", OriginWebapp)
	prev.AppendAssistantMessage("primera respuesta")

	next := NewState("segunda pregunta", 1, "Admin", "s", "", OriginWebapp)
	next.ResumeFrom(prev)

	require.Len(t, next.Messages, 3)
	require.Equal(t, "primera pregunta", next.Messages[0].Content)
	require.Equal(t, "primera respuesta", next.Messages[1].Content)
	require.Equal(t, "segunda pregunta", next.Messages[2].Content)

	// per-run fields stay fresh
	require.Empty(t, next.NodePath)
	require.Zero(t, next.RetryCount)
}

func TestSetErrorKeepsInternalDetailPrivate(t *testing.T) {
	s := NewState("hola", 1, "Admin", "s", "", OriginWebapp)
	s.SetError(ErrorSQL, `pq: syntax error at or near "FORM"`)

	require.Equal(t, ErrorSQL, s.ErrorKind)
	require.NotContains(t, s.ErrorUserMessage, "FORM")
	require.NotEmpty(t, s.ErrorUserMessage)
	require.NotEmpty(t, s.ErrorSuggestions)
}

func TestStateJSONRoundTrip(t *testing.T) {
	s := NewState("hola", 1, "Admin", "s", "", OriginWebapp)
	s.VisitNode("classify_intent")
	s.AppendAssistantMessage("respuesta")

	raw, err := json.Marshal(s)
	require.NoError(t, err)

	var loaded AgentState
	require.NoError(t, json.Unmarshal(raw, &loaded))
	require.Equal(t, s.ThreadID, loaded.ThreadID)
	require.Len(t, loaded.Messages, 2)
	require.Equal(t, []string{"classify_intent"}, loaded.NodePath)
}

func TestParseIntentFallsBackToClarification(t *testing.T) {
	require.Equal(t, IntentQueryRead, ParseIntent("query_read"))
	require.Equal(t, IntentMutationDelete, ParseIntent("mutation_delete"))
	require.Equal(t, IntentClarification, ParseIntent("something_else"))
	require.Equal(t, IntentClarification, ParseIntent(""))
}

func TestIntentHelpers(t *testing.T) {
	require.True(t, IntentMutationCreate.IsMutation())
	require.False(t, IntentQueryRead.IsMutation())
	require.True(t, IntentGreeting.IsFastPath())
	require.False(t, IntentQueryAggregate.IsFastPath())
}

func TestErrorKindRetryable(t *testing.T) {
	require.True(t, ErrorSQL.Retryable())
	require.True(t, ErrorTimeout.Retryable())
	require.False(t, ErrorValidation.Retryable())
	require.False(t, ErrorPermissionDenied.Retryable())
	require.False(t, ErrorInternal.Retryable())
}

func TestFormatFriendlyErrorAlternatives(t *testing.T) {
	msg := FormatFriendlyError(ErrorNoResults, &ErrorContext{Alternatives: []string{"pacientes", "citas"}})
	require.Contains(t, msg.Suggestion, "pacientes")
	require.Contains(t, msg.Suggestion, "citas")

	plain := FormatFriendlyError(ErrorNoResults, nil)
	require.NotEmpty(t, plain.Message)
}
