package model

import (
	"context"

	"github.com/cloudwego/eino/schema"
)

// Classification is the outcome of the intent classifier collaborator.
type Classification struct {
	Intent     IntentType
	Confidence float64
	Entities   map[string]any
}

// IntentClassifier maps a user query plus history to an intent. The call must
// not block indefinitely; a timeout maps to ErrorInternal upstream.
type IntentClassifier interface {
	Classify(ctx context.Context, query string, history []*schema.Message) (*Classification, error)
}

// PermissionSource decides whether a role may act on an intent with the
// extracted entities, before any SQL exists.
type PermissionSource interface {
	Allowed(role string, intent IntentType, entities map[string]any) bool
}

// QueryTranslator drafts a candidate statement from the classified intent.
type QueryTranslator interface {
	Translate(ctx context.Context, intent IntentType, entities map[string]any, role string) (*SQLQuery, error)
}

// ResponseFormatter turns either an execution result or an error channel into
// user-facing prose plus a structured payload.
type ResponseFormatter interface {
	Format(ctx context.Context, state *AgentState) (string, map[string]any, error)
}

// QueryExecutor runs a validated statement against the resolved logical
// database under a timeout budget and a row ceiling.
type QueryExecutor interface {
	Execute(ctx context.Context, query *SQLQuery) *ExecutionResult
}

// CheckpointRepository persists the conversation state record keyed by
// thread id. Load returns (nil, nil) when no checkpoint exists. It is
// responsible for durability only and imposes no business rules.
type CheckpointRepository interface {
	Load(ctx context.Context, threadID string) (*AgentState, error)
	Save(ctx context.Context, threadID string, state *AgentState) error
}
