package model

import (
	"fmt"
	"time"

	"github.com/cloudwego/eino/schema"
)

// Origin identifies the caller channel a conversation arrived from.
type Origin string

const (
	OriginWebapp          Origin = "webapp"
	OriginWhatsappPatient Origin = "whatsapp_paciente"
	OriginWhatsappUser    Origin = "whatsapp_user"
)

// LogEntry is one internal diagnostic line attached to a run.
type LogEntry struct {
	Timestamp time.Time `json:"timestamp"`
	Node      string    `json:"node"`
	Level     string    `json:"level"`
	Message   string    `json:"message"`
}

// AgentState is the conversation state record threaded through one pipeline
// run and extended turn over turn.
//
// Ownership: the record belongs exclusively to the run that created it until
// it is persisted. Nodes mutate it in place; the checkpoint repository is the
// only party that loads or replaces it between runs, keyed by ThreadID.
type AgentState struct {
	// Identity
	ThreadID  string `json:"thread_id"`
	SessionID string `json:"session_id"` // legacy correlation id
	UserID    int    `json:"user_id"`
	UserRole  string `json:"user_role"`
	Origin    Origin `json:"origin"`

	// Input
	UserQuery string            `json:"user_query"`
	Messages  []*schema.Message `json:"messages"` // append-only history

	// Classification
	IntentClassified  IntentType     `json:"intent"`
	IntentConfidence  float64        `json:"intent_confidence"`
	EntitiesExtracted map[string]any `json:"entities_extracted,omitempty"`

	// SQL generation
	TargetDatabase      DatabaseTarget `json:"target_database"`
	SQL                 *SQLQuery      `json:"sql_query,omitempty"`
	SQLIsValid          bool           `json:"sql_is_valid"`
	SQLValidationErrors []string       `json:"sql_validation_errors,omitempty"`
	PendingConfirmation bool           `json:"pending_confirmation"` // mutation drafted, not executed

	// Execution
	ExecutionResult *ExecutionResult `json:"execution_result,omitempty"`
	RetryCount      int              `json:"retry_count"`
	MaxRetries      int              `json:"max_retries"`

	// Fuzzy match support
	FuzzyMatches     []FuzzyMatch `json:"fuzzy_matches,omitempty"`
	FuzzySuggestions []string     `json:"fuzzy_suggestions,omitempty"`

	// Output
	ResponseText string         `json:"response_text"`
	ResponseData map[string]any `json:"response_data,omitempty"`

	// Error channel
	ErrorKind            ErrorKind `json:"error_kind"`
	ErrorInternalMessage string    `json:"error_internal_message,omitempty"` // logs only
	ErrorUserMessage     string    `json:"error_user_message,omitempty"`
	ErrorSuggestions     []string  `json:"error_suggestions,omitempty"`

	// Trace
	NodePath    []string   `json:"node_path"`
	Logs        []LogEntry `json:"logs,omitempty"`
	StartedAt   time.Time  `json:"started_at"`
	CompletedAt time.Time  `json:"completed_at,omitempty"`
}

// NewState creates the state record for a fresh run, with the defaults the
// rest of the pipeline relies on.
func NewState(userQuery string, userID int, userRole, sessionID, threadID string, origin Origin) *AgentState {
	if threadID == "" {
		threadID = ThreadID(userID, origin, sessionID)
	}
	return &AgentState{
		ThreadID:  threadID,
		SessionID: sessionID,
		UserID:    userID,
		UserRole:  userRole,
		Origin:    origin,

		UserQuery: userQuery,
		Messages:  []*schema.Message{schema.UserMessage(userQuery)},

		IntentClassified:  IntentClarification,
		EntitiesExtracted: map[string]any{},

		TargetDatabase: TargetCore,

		RetryCount: 0,
		MaxRetries: DefaultMaxRetries,

		ResponseData: map[string]any{},

		ErrorKind: ErrorNone,

		NodePath:  []string{},
		StartedAt: time.Now().UTC(),
	}
}

// ResumeFrom carries the durable parts of a prior checkpoint into this run:
// the message history grows across turns, everything per-run stays fresh.
// The current user message is appended after the restored history.
func (s *AgentState) ResumeFrom(prev *AgentState) {
	if prev == nil {
		return
	}
	history := make([]*schema.Message, 0, len(prev.Messages)+1)
	history = append(history, prev.Messages...)
	history = append(history, schema.UserMessage(s.UserQuery))
	s.Messages = history
}

// AppendAssistantMessage records the final response in the history so the
// next turn sees it.
func (s *AgentState) AppendAssistantMessage(content string) {
	if content == "" {
		return
	}
	s.Messages = append(s.Messages, schema.AssistantMessage(content, nil))
}

// VisitNode appends the node name to the run trace. The trace is strictly
// append-only within a run.
func (s *AgentState) VisitNode(node string) {
	s.NodePath = append(s.NodePath, node)
}

// AddLog attaches an internal diagnostic entry to the run.
func (s *AgentState) AddLog(node, level, message string) {
	s.Logs = append(s.Logs, LogEntry{
		Timestamp: time.Now().UTC(),
		Node:      node,
		Level:     level,
		Message:   message,
	})
}

// SetError populates the error channel. The internal message never reaches
// the user-facing fields.
func (s *AgentState) SetError(kind ErrorKind, internal string) {
	s.ErrorKind = kind
	s.ErrorInternalMessage = internal
	friendly := FormatFriendlyError(kind, nil)
	s.ErrorUserMessage = friendly.Message
	s.ErrorSuggestions = []string{friendly.Suggestion}
}

// ThreadID derives the stable conversation key {user_id}_{origin}_{session}
// so the same logical conversation always resolves to the same checkpoint.
func ThreadID(userID int, origin Origin, sessionUUID string) string {
	return fmt.Sprintf("%d_%s_%s", userID, origin, sessionUUID)
}

// QueryInput is the transport-agnostic inbound request.
type QueryInput struct {
	QueryText string `json:"query_text"`
	UserID    int    `json:"user_id"`
	Role      string `json:"role"`
	SessionID string `json:"session_id,omitempty"`
	ThreadID  string `json:"thread_id,omitempty"`
	Origin    Origin `json:"origin"`
}

// QueryOutput is the transport-agnostic outbound response.
type QueryOutput struct {
	Success      bool           `json:"success"`
	ResponseText string         `json:"response_text"`
	ResponseData map[string]any `json:"response_data,omitempty"`
	Intent       string         `json:"intent,omitempty"`
	ErrorKind    string         `json:"error_kind,omitempty"`
	NodePath     []string       `json:"node_path"`
	SessionID    string         `json:"session_id"`
	ThreadID     string         `json:"thread_id"`
}
